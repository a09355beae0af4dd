package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8081"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	TopK                      int `env:"TOP_K" envDefault:"5"`
	SchedulerWorkers          int `env:"SCHEDULER_WORKERS" envDefault:"2"`
	MaxTransactionsPerAccount int `env:"MAX_TRANSACTIONS_PER_ACCOUNT" envDefault:"0"`

	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"100"`

	ShutdownTimeoutS int `env:"SHUTDOWN_TIMEOUT_S" envDefault:"30"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

func (c Config) validate() error {
	switch {
	case c.TopK < 1:
		return fmt.Errorf("TOP_K must be at least 1, got %d", c.TopK)
	case c.SchedulerWorkers < 1:
		return fmt.Errorf("SCHEDULER_WORKERS must be at least 1, got %d", c.SchedulerWorkers)
	case c.MaxTransactionsPerAccount < 0:
		return fmt.Errorf("MAX_TRANSACTIONS_PER_ACCOUNT must not be negative, got %d", c.MaxTransactionsPerAccount)
	case c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("page sizes must satisfy 1 <= DEFAULT_PAGE_SIZE (%d) <= MAX_PAGE_SIZE (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}
