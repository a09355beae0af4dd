package domain

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfMerge         = errors.New("cannot merge account into itself")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidDelay      = errors.New("delay must not be negative")
	ErrSchedulerClosed   = errors.New("scheduler is shut down")
)
