package backend

import (
	"context"

	"finboard/internal/amqp"
	"finboard/internal/services"
	"finboard/internal/storage"
	"finboard/internal/worker"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store, the optional broker client and a cleanup
// function releasing both.
type Result struct {
	Store storage.Store
	// AMQP is nil when no broker is configured or it could not be reached.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the broker client when one is connected and delivers
// events to w in-process otherwise.
func (r *Result) Publisher(w *worker.NotificationWorker) services.EventPublisher {
	if r.AMQP != nil {
		return r.AMQP
	}
	if w == nil {
		return nil
	}
	return worker.Direct{Worker: w}
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Seed loads the demo dataset into an empty store.
	Seed bool

	// SQLite specific
	SQLiteDBPath string

	// Optional broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend reads seed.json from here when present.
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
