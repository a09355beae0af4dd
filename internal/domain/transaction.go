package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindTransfer TransactionKind = "transfer"
)

// Transaction is an immutable record of a committed balance change. For a
// deposit From and To are the same account.
type Transaction struct {
	ID        uuid.UUID
	Seq       uint64
	From      string
	To        string
	Amount    decimal.Decimal
	Kind      TransactionKind
	CreatedAt time.Time
}

type AccountBalance struct {
	ID      string
	Balance decimal.Decimal
}
