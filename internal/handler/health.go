package handler

import (
	"net/http"
	"time"
)

type pendingCounter interface {
	Pending() int
}

type HealthHandler struct {
	scheduler pendingCounter
}

func NewHealthHandler(scheduler pendingCounter) *HealthHandler {
	return &HealthHandler{scheduler: scheduler}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"pending_transfers": h.scheduler.Pending(),
	})
}
