package handler

import "net/http"

func NewRouter(accounts *AccountHandler, schedules *ScheduleHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Liveness)

	mux.HandleFunc("GET /api/v1/accounts/{id}", accounts.Get)
	mux.HandleFunc("POST /api/v1/accounts/{id}/deposit", accounts.Deposit)
	mux.HandleFunc("POST /api/v1/accounts/merge", accounts.Merge)
	mux.HandleFunc("POST /api/v1/transfers", accounts.Transfer)
	mux.HandleFunc("GET /api/v1/top-accounts", accounts.TopAccounts)

	mux.HandleFunc("POST /api/v1/transfers/scheduled", schedules.Schedule)
	mux.HandleFunc("GET /api/v1/logs", schedules.Logs)

	return mux
}
