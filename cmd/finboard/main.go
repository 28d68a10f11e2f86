package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	flog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(flog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", flog.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", flog.FieldError, err.Error(), flog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", flog.FieldError, err.Error())
		}
	}()

	notifications := services.NewNotificationService(res.Store)
	publisher := res.Publisher(worker.NewNotificationWorker(notifications))

	caches := cache.NewManager()
	ledger := services.NewLedgerService(res.Store, publisher)
	analyticsSvc := services.NewAnalyticsService(ledger, cfg.AnalyticsCacheTTL, caches)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	// Without a broker there is no separate worker process, so digests run here.
	if res.AMQP == nil {
		digests := worker.NewDigestProcessor(analyticsSvc, notifications, worker.DigestProcessorConfig{Interval: cfg.DigestInterval})
		if err := digests.Start(ctx); err != nil {
			logger.Error("Failed to start digest processor", flog.FieldError, err.Error())
		} else {
			defer func() {
				stopCtx, cancel := cli.ShutdownContext(5 * time.Second)
				defer cancel()
				_ = digests.Stop(stopCtx)
			}()
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:          services.NewAuthService(),
		Ledger:        ledger,
		Goals:         services.NewGoalService(res.Store, publisher),
		Investments:   services.NewInvestmentService(res.Store),
		Notifications: notifications,
		Analytics:     analyticsSvc,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
		Ready:              res.Store,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting finboard server",
			"port", cfg.Port,
			flog.FieldBackend, cfg.DataBackend,
			"amqp_enabled", res.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", flog.FieldError, err.Error(), "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", flog.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
