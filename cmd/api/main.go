package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/ledgercore/internal/config"
	"github.com/josh-kwaku/ledgercore/internal/handler"
	"github.com/josh-kwaku/ledgercore/internal/ledger"
	"github.com/josh-kwaku/ledgercore/internal/logging"
	"github.com/josh-kwaku/ledgercore/internal/middleware"
	"github.com/josh-kwaku/ledgercore/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("ledgercore", cfg.LogLevel, cfg.AppEnv)

	l := ledger.New(cfg.TopK, ledger.WithHistoryLimit(cfg.MaxTransactionsPerAccount))
	sched := scheduler.New(l,
		scheduler.WithWorkers(cfg.SchedulerWorkers),
		scheduler.WithLogger(logger.With("component", "scheduler")),
	)

	pages := handler.PageConfig{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}
	router := handler.NewRouter(
		handler.NewAccountHandler(l, pages),
		handler.NewScheduleHandler(sched, pages),
		handler.NewHealthHandler(sched),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(router, middleware.Recovery, middleware.Tracing, middleware.Logging(logger)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "top_k", cfg.TopK)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Pending scheduled transfers are dropped, not drained.
	sched.Shutdown()
	slog.Info("server stopped", "accounts", l.Len())
}
