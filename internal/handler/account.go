package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgercore/internal/domain"
	"github.com/josh-kwaku/ledgercore/internal/logging"
)

type ledgerService interface {
	Deposit(ctx context.Context, id string, amount decimal.Decimal) error
	Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) bool
	Merge(ctx context.Context, fromID, intoID string) error
	TopK() []domain.AccountBalance
	Lookup(id string) (domain.AccountBalance, []domain.Transaction, error)
}

type AccountHandler struct {
	ledger ledgerService
	pages  PageConfig
}

func NewAccountHandler(ledger ledgerService, pages PageConfig) *AccountHandler {
	return &AccountHandler{ledger: ledger, pages: pages}
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.From) == "" {
		errs = append(errs, FieldError{Field: "from", Message: "required"})
	}
	if strings.TrimSpace(r.To) == "" {
		errs = append(errs, FieldError{Field: "to", Message: "required"})
	}
	return errs
}

type mergeRequest struct {
	From string `json:"from"`
	Into string `json:"into"`
}

func (r mergeRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.From) == "" {
		errs = append(errs, FieldError{Field: "from", Message: "required"})
	}
	if strings.TrimSpace(r.Into) == "" {
		errs = append(errs, FieldError{Field: "into", Message: "required"})
	}
	return errs
}

type balanceDTO struct {
	ID      string          `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

type transactionDTO struct {
	ID        uuid.UUID       `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      string          `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

type accountDTO struct {
	balanceDTO
	Transactions []transactionDTO `json:"transactions"`
}

func toBalanceDTO(b domain.AccountBalance) balanceDTO {
	return balanceDTO{ID: b.ID, Balance: b.Balance}
}

func toTransactionDTO(tx domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:        tx.ID,
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		Kind:      string(tx.Kind),
		CreatedAt: tx.CreatedAt,
	}
}

func accountIDFromPath(r *http.Request) (string, *AppError) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", ErrAccountNotFound
	}
	return id, nil
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.ledger.Deposit(r.Context(), id, req.Amount); err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	h.respondAccount(w, r, id)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	h.respondAccount(w, r, id)
}

func (h *AccountHandler) respondAccount(w http.ResponseWriter, r *http.Request, id string) {
	bal, history, err := h.ledger.Lookup(id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account lookup failed", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	txs := make([]transactionDTO, len(history))
	for i := range history {
		txs[i] = toTransactionDTO(history[i])
	}
	RespondSuccess(w, http.StatusOK, accountDTO{balanceDTO: toBalanceDTO(bal), Transactions: txs})
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if !h.ledger.Transfer(r.Context(), req.From, req.To, req.Amount) {
		cause := domain.ErrInsufficientFunds
		if !req.Amount.IsPositive() {
			cause = domain.ErrInvalidAmount
		}
		RespondDomainError(w, fmt.Errorf("Transfer: %s -> %s: %w", req.From, req.To, cause))
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"from":   req.From,
		"to":     req.To,
		"amount": req.Amount,
	})
}

func (h *AccountHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.ledger.Merge(r.Context(), req.From, req.Into); err != nil {
		logging.FromContext(r.Context()).Warn("merge failed", "from_account", req.From, "into_account", req.Into, "error", err)
		RespondDomainError(w, err)
		return
	}

	h.respondAccount(w, r, req.Into)
}

func (h *AccountHandler) TopAccounts(w http.ResponseWriter, r *http.Request) {
	page, size, fields := h.pages.parse(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	top := h.ledger.TopK()
	dtos := make([]balanceDTO, len(top))
	for i := range top {
		dtos[i] = toBalanceDTO(top[i])
	}

	RespondSuccess(w, http.StatusOK, paginate(dtos, page, size))
}
