package ledger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgercore/internal/domain"
)

// recorder stamps transactions for every account of one ledger. seq is
// shared so histories from different accounts can be interleaved in commit
// order when they are merged.
type recorder struct {
	seq          atomic.Uint64
	now          func() time.Time
	historyLimit int
}

func (r *recorder) record(from, to string, amount decimal.Decimal, kind domain.TransactionKind) domain.Transaction {
	return domain.Transaction{
		ID:        uuid.New(),
		Seq:       r.seq.Add(1),
		From:      from,
		To:        to,
		Amount:    amount,
		Kind:      kind,
		CreatedAt: r.now().UTC(),
	}
}

// Account holds a balance and its transaction history. All state is guarded
// by mu; version is bumped on every mutation so the ranking can discard
// out-of-order updates.
type Account struct {
	id  string
	rec *recorder

	mu      sync.Mutex
	balance decimal.Decimal
	history []domain.Transaction
	version uint64
}

func newAccount(id string, rec *recorder) *Account {
	return &Account{id: id, rec: rec, balance: decimal.Zero}
}

func (a *Account) ID() string { return a.id }

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// History returns a copy of the account's transactions, oldest first.
func (a *Account) History() []domain.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Transaction, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.credit(amount)
	return nil
}

// TransferTo moves amount from a to other. It reports false, leaving both
// accounts untouched, when amount is not positive or a cannot cover it.
// Both locks are held for the debit and the credit, taken in id order.
func (a *Account) TransferTo(other *Account, amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}

	if a == other {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.balance.LessThan(amount) {
			return false
		}
		a.balance = a.balance.Sub(amount)
		a.credit(amount)
		a.appendLocked(a.rec.record(a.id, a.id, amount, domain.TransactionKindTransfer))
		return true
	}

	first, second := a, other
	if other.id < a.id {
		first, second = other, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if a.balance.LessThan(amount) {
		return false
	}

	a.balance = a.balance.Sub(amount)
	other.credit(amount)
	a.appendLocked(a.rec.record(a.id, other.id, amount, domain.TransactionKindTransfer))
	return true
}

// credit must be called with a.mu held.
func (a *Account) credit(amount decimal.Decimal) {
	a.balance = a.balance.Add(amount)
	a.appendLocked(a.rec.record(a.id, a.id, amount, domain.TransactionKindDeposit))
}

func (a *Account) appendLocked(tx domain.Transaction) {
	a.history = append(a.history, tx)
	a.version++
	a.trimLocked()
}

func (a *Account) trimLocked() {
	limit := a.rec.historyLimit
	if limit <= 0 || len(a.history) <= limit {
		return
	}
	kept := make([]domain.Transaction, limit)
	copy(kept, a.history[len(a.history)-limit:])
	a.history = kept
}

func (a *Account) snapshot() (decimal.Decimal, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, a.version
}

// drain zeroes the balance and hands the whole history to the caller.
func (a *Account) drain() []domain.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	moved := a.history
	a.history = nil
	a.balance = decimal.Zero
	a.version++
	return moved
}

// absorb merges txs into the history, keeping commit order by Seq. Both
// inputs are already ordered.
func (a *Account) absorb(txs []domain.Transaction) {
	if len(txs) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	merged := make([]domain.Transaction, 0, len(a.history)+len(txs))
	i, j := 0, 0
	for i < len(a.history) && j < len(txs) {
		if txs[j].Seq < a.history[i].Seq {
			merged = append(merged, txs[j])
			j++
		} else {
			merged = append(merged, a.history[i])
			i++
		}
	}
	merged = append(merged, a.history[i:]...)
	merged = append(merged, txs[j:]...)

	a.history = merged
	a.version++
	a.trimLocked()
}
