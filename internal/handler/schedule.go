package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgercore/internal/logging"
)

type transferScheduler interface {
	ScheduleTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, delay time.Duration) (uuid.UUID, error)
	Logs() []string
}

type ScheduleHandler struct {
	scheduler transferScheduler
	pages     PageConfig
}

func NewScheduleHandler(scheduler transferScheduler, pages PageConfig) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, pages: pages}
}

// maxDelayMS is the largest delay that still fits in a time.Duration.
const maxDelayMS = math.MaxInt64 / int64(time.Millisecond)

type scheduleTransferRequest struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	DelayMS int64           `json:"delay_ms"`
}

func (r scheduleTransferRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.From) == "" {
		errs = append(errs, FieldError{Field: "from", Message: "required"})
	}
	if strings.TrimSpace(r.To) == "" {
		errs = append(errs, FieldError{Field: "to", Message: "required"})
	}
	switch {
	case r.DelayMS < 0:
		errs = append(errs, FieldError{Field: "delay_ms", Message: "must not be negative"})
	case r.DelayMS > maxDelayMS:
		errs = append(errs, FieldError{Field: "delay_ms", Message: "too large"})
	}
	return errs
}

type scheduledTransferDTO struct {
	ID      uuid.UUID       `json:"id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	DelayMS int64           `json:"delay_ms"`
}

func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	delay := time.Duration(req.DelayMS) * time.Millisecond
	id, err := h.scheduler.ScheduleTransfer(r.Context(), req.From, req.To, req.Amount, delay)
	if err != nil {
		logging.FromContext(r.Context()).Warn("schedule transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusAccepted, scheduledTransferDTO{
		ID:      id,
		From:    req.From,
		To:      req.To,
		Amount:  req.Amount,
		DelayMS: req.DelayMS,
	})
}

func (h *ScheduleHandler) Logs(w http.ResponseWriter, r *http.Request) {
	page, size, fields := h.pages.parse(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	RespondSuccess(w, http.StatusOK, paginate(h.scheduler.Logs(), page, size))
}
