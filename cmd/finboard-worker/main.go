package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/backend"
	"finboard/internal/cli"
	flog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(flog.ComponentWorker)
	logger.Info("Starting finboard-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		logger.Warn("Worker is not sharing a database with the server; notifications will not be visible to it",
			flog.FieldBackend, cfg.DataBackend)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", flog.FieldError, err.Error())
		os.Exit(1)
	}
	// The server seeds; the worker must not race it.
	backendCfg.Seed = false

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", flog.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", flog.FieldError, err.Error())
		}
	}()
	if res.AMQP == nil {
		logger.Error("Failed to connect to AMQP broker")
		os.Exit(1)
	}

	notifications := services.NewNotificationService(res.Store)
	handler := worker.NewNotificationWorker(notifications)

	// The server owns the ledger, so this process never sees its version move.
	ledger := services.NewLedgerService(res.Store, nil)
	digests := worker.NewDigestProcessor(
		services.NewUncachedAnalyticsService(ledger),
		notifications,
		worker.DigestProcessorConfig{Interval: cfg.DigestInterval},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.AMQP.ConsumeEvents(gctx, handler.HandleEvent)
	})
	g.Go(func() error {
		if err := digests.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := cli.ShutdownContext(10 * time.Second)
		defer cancel()
		return digests.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", flog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
