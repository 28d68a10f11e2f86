package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finboard/internal/amqp"
	flog "finboard/internal/log"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *flog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *flog.Logger) *DefaultFactory {
	if logger == nil {
		logger = flog.New(flog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(flog.ComponentBackend),
		now:    time.Now,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend opens the configured store and, when a broker URL is set,
// connects the AMQP client. A broker that cannot be reached is logged and
// skipped so events fall back to in-process delivery.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		store = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Store: store}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, delivering events in-process",
				flog.FieldError, err.Error())
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.AMQP = client
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if res.AMQP != nil {
			errs = append(errs, res.AMQP.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (storage.Store, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if config.Seed {
		if err := repo.SeedIfEmpty(ctx, storage.DefaultSeed(f.now())); err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed SQLite repository: %w", err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", config.Seed)
	return repo, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) storage.Store {
	if !config.Seed {
		f.logger.Info("Initialized empty memory backend")
		return memory.New()
	}

	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return memory.NewFromFiles(dataDir, f.now())
}
