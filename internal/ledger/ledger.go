// Package ledger is the in-memory account registry: deposits, transfers,
// merges and a top-K ranking of accounts by balance.
//
// Each Account serialises its own mutations. The ranking has a single lock
// of its own and is refreshed after the account locks are released, so a
// TopK snapshot may briefly lag the newest balances.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgercore/internal/domain"
	"github.com/josh-kwaku/ledgercore/internal/logging"
)

type Option func(*Ledger)

// WithHistoryLimit caps every account's history at the newest n
// transactions. n <= 0 keeps everything.
func WithHistoryLimit(n int) Option {
	return func(l *Ledger) { l.rec.historyLimit = n }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.rec.now = now }
}

type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*Account

	ranking *ranking
	rec     *recorder
}

func New(topK int, opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[string]*Account),
		ranking:  newRanking(topK),
		rec:      &recorder{now: time.Now},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetOrCreate returns the account for id, registering a zero-balance one if
// it does not exist yet. Concurrent callers always see the same instance.
func (l *Ledger) GetOrCreate(id string) *Account {
	l.mu.RLock()
	acct, ok := l.accounts[id]
	l.mu.RUnlock()
	if ok {
		return acct
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[id]; ok {
		return acct
	}
	acct = newAccount(id, l.rec)
	l.accounts[id] = acct
	return acct
}

func (l *Ledger) Deposit(ctx context.Context, id string, amount decimal.Decimal) error {
	log := logging.FromContext(ctx)

	acct := l.GetOrCreate(id)
	if err := acct.Deposit(amount); err != nil {
		return fmt.Errorf("Deposit: account %s: %w", id, err)
	}
	l.updateRanking(acct)

	log.Debug("deposit committed", "account_id", id, "amount", amount.String())
	return nil
}

// Transfer moves amount between two accounts, creating either one on first
// reference. A false result means nothing changed.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) bool {
	log := logging.FromContext(ctx)

	from := l.GetOrCreate(fromID)
	to := l.GetOrCreate(toID)

	if !from.TransferTo(to, amount) {
		log.Info("transfer rejected",
			"from_account", fromID,
			"to_account", toID,
			"amount", amount.String(),
		)
		return false
	}

	l.updateRanking(from)
	if to != from {
		l.updateRanking(to)
	}

	log.Debug("transfer committed",
		"from_account", fromID,
		"to_account", toID,
		"amount", amount.String(),
	)
	return true
}

// Merge moves fromID's balance and history into intoID. The balance read
// and the zeroing of fromID are separate steps: a deposit into fromID that
// lands between them is lost.
func (l *Ledger) Merge(ctx context.Context, fromID, intoID string) error {
	log := logging.FromContext(ctx)

	if fromID == intoID {
		return fmt.Errorf("Merge: %w", domain.ErrSelfMerge)
	}

	from := l.GetOrCreate(fromID)
	into := l.GetOrCreate(intoID)

	moved := from.Balance()
	if moved.IsPositive() {
		if err := into.Deposit(moved); err != nil {
			return fmt.Errorf("Merge: %w", err)
		}
	}
	history := from.drain()
	into.absorb(history)

	l.updateRanking(from)
	l.updateRanking(into)

	log.Info("accounts merged",
		"from_account", fromID,
		"into_account", intoID,
		"amount", moved.String(),
		"moved_transactions", len(history),
	)
	return nil
}

// updateRanking must not be called with any account lock held.
func (l *Ledger) updateRanking(acct *Account) {
	balance, version := acct.snapshot()
	l.ranking.update(acct.id, balance, version)
}

func (l *Ledger) TopK() []domain.AccountBalance {
	return l.ranking.snapshot()
}

// Lookup reads an account without creating it.
func (l *Ledger) Lookup(id string) (domain.AccountBalance, []domain.Transaction, error) {
	l.mu.RLock()
	acct, ok := l.accounts[id]
	l.mu.RUnlock()
	if !ok {
		return domain.AccountBalance{}, nil, fmt.Errorf("Lookup: %s: %w", id, domain.ErrAccountNotFound)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	history := make([]domain.Transaction, len(acct.history))
	copy(history, acct.history)
	return domain.AccountBalance{ID: id, Balance: acct.balance}, history, nil
}

func (l *Ledger) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.all() {
		total = total.Add(acct.Balance())
	}
	return total
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

func (l *Ledger) all() []*Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Account, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, acct)
	}
	return out
}
