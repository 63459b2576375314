// Package queue provides the shared FIFO change queue between the HTTP layer
// and the worker: a Redis list in production, an in-memory list in tests.
// Records are removed on pop with no acknowledgment channel; delivery is
// at-most-once by design.
package queue

import (
	"context"
	"errors"
	"fmt"
)

// Driver identifies a concrete queue backend implementation.
type Driver string

const (
	// DriverMemory keeps the queue in process memory (tests / ephemeral).
	DriverMemory Driver = "memory"
	// DriverRedis uses a Redis list shared across processes.
	DriverRedis Driver = "redis"
)

// ErrEmpty is returned by Pop when no record arrived within the backend's
// bounded wait.
var ErrEmpty = errors.New("queue: empty")

// Queue is a FIFO of opaque change records. Pop removes the record
// immediately; a record that later fails to apply is not returned.
type Queue interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

// Options selects and parameterizes a backend.
type Options struct {
	Driver   Driver
	RedisURL string // driver=redis (default redis://localhost:6379)
}

// Open constructs the Queue selected by opts.Driver (default redis).
func Open(opts Options) (Queue, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverRedis
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown queue driver %s", driver)
	}
}
