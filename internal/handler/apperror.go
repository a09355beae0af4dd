package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrAccountNotFound  = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount    = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidDelay     = &AppError{http.StatusBadRequest, "INVALID_DELAY", "Delay must not be negative"}
	ErrTransferFailed   = &AppError{http.StatusUnprocessableEntity, "TRANSFER_FAILED", "Transfer failed"}
	ErrSelfMerge        = &AppError{http.StatusUnprocessableEntity, "SELF_MERGE", "Cannot merge an account into itself"}
	ErrSchedulerStopped = &AppError{http.StatusServiceUnavailable, "SCHEDULER_STOPPED", "Scheduler is not accepting transfers"}
)
