package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	flog "finboard/internal/log"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("invalid port should fail validation")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(slog.LevelWarn, flog.ComponentWorker)
	if logger.Component() != flog.ComponentWorker {
		t.Fatalf("Component() = %q", logger.Component())
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
}

func TestShutdownContext(t *testing.T) {
	ctx, cancel := ShutdownContext(10 * time.Millisecond)
	defer cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("shutdown context did not expire")
	}
}
