// Package cli provides common CLI initialization utilities shared by
// cmd/finboard and cmd/finboard-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/config"
	flog "finboard/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging at level for component and
// sets it as the default logger.
func SetupLogger(level slog.Level, component string) *flog.Logger {
	cfg := flog.DefaultConfig()
	cfg.Level = level
	cfg.Component = component
	logger := flog.New(cfg)
	flog.SetDefault(logger)
	return logger
}

// LoadConfig reads the environment into a validated config.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads .env, configures the default logger from LOG_LEVEL and
// validates the config. It exits the process on validation failure.
func Bootstrap(component string) (*config.Config, *flog.Logger) {
	LoadEnvFile()

	raw := config.Load()
	logger := SetupLogger(raw.Level(), component)

	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", flog.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownContext bounds cleanup after a shutdown signal.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
