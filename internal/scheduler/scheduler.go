// Package scheduler runs ledger transfers after a delay and keeps an audit
// trail of what was scheduled and what ran.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/ledgercore/internal/domain"
	"github.com/josh-kwaku/ledgercore/internal/logging"
)

const defaultWorkers = 2

type transferer interface {
	Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) bool
}

type Option func(*Scheduler)

func WithWorkers(n int) Option {
	return func(s *Scheduler) { s.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

type request struct {
	id     uuid.UUID
	from   string
	to     string
	amount decimal.Decimal
}

// Scheduler arms one timer per request. A fired timer hands its request to
// a fixed pool of workers which perform the transfer. Requests stay in
// timers until their transfer has run, so Pending covers both armed and
// queued work.
type Scheduler struct {
	ledger  transferer
	audit   *AuditLog
	logger  *slog.Logger
	workers int

	mu     sync.Mutex
	closed bool
	timers map[uuid.UUID]*time.Timer

	ready  chan request
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func New(ledger transferer, opts ...Option) *Scheduler {
	s := &Scheduler{
		ledger:  ledger,
		audit:   NewAuditLog(),
		logger:  slog.Default(),
		workers: defaultWorkers,
		timers:  make(map[uuid.UUID]*time.Timer),
		ready:   make(chan request),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}

	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, s.ctx = errgroup.WithContext(base)
	for range s.workers {
		s.group.Go(s.work)
	}

	s.logger.Info("scheduler started", "workers", s.workers)
	return s
}

// ScheduleTransfer records the request in the audit log and returns
// immediately. The transfer runs on a worker no earlier than delay from now.
func (s *Scheduler) ScheduleTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, delay time.Duration) (uuid.UUID, error) {
	if delay < 0 {
		return uuid.Nil, fmt.Errorf("ScheduleTransfer: %w", domain.ErrInvalidDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return uuid.Nil, fmt.Errorf("ScheduleTransfer: %w", domain.ErrSchedulerClosed)
	}

	req := request{id: uuid.New(), from: fromID, to: toID, amount: amount}
	s.audit.Append(fmt.Sprintf("scheduled transfer %s in %dms: %s -> %s $%s",
		req.id, delay.Milliseconds(), fromID, toID, amount.String()))
	s.timers[req.id] = time.AfterFunc(delay, func() { s.fire(req) })

	logging.FromContext(ctx).Info("transfer scheduled",
		"schedule_id", req.id,
		"from_account", fromID,
		"to_account", toID,
		"amount", amount.String(),
		"delay_ms", delay.Milliseconds(),
	)
	return req.id, nil
}

func (s *Scheduler) fire(req request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	select {
	case s.ready <- req:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) work() error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case req := <-s.ready:
			s.execute(req)
		}
	}
}

func (s *Scheduler) execute(req request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	log := s.logger.With("schedule_id", req.id)
	ok := s.ledger.Transfer(logging.WithLogger(s.ctx, log), req.from, req.to, req.amount)
	s.audit.Append(fmt.Sprintf("executed transfer %s: %s -> %s $%s success: %t",
		req.id, req.from, req.to, req.amount.String(), ok))

	s.mu.Lock()
	delete(s.timers, req.id)
	s.mu.Unlock()

	if !ok {
		log.Warn("scheduled transfer failed",
			"from_account", req.from,
			"to_account", req.to,
			"amount", req.amount.String(),
		)
		return
	}
	log.Info("scheduled transfer executed")
}

// Logs returns the audit trail in append order.
func (s *Scheduler) Logs() []string {
	return s.audit.Snapshot()
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Shutdown stops the workers and drops every request that has not started
// executing. Dropped requests are neither run nor logged. A transfer that
// is already running finishes before Shutdown returns.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	abandoned := len(s.timers)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	if err := s.group.Wait(); err != nil {
		s.logger.Error("scheduler worker failed", "error", err)
	}
	s.logger.Info("scheduler stopped", "abandoned", abandoned)
}
