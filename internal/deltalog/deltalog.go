// Package deltalog is the append-only audit store of every processed change,
// keyed by change timestamp. The log is best-effort: a failed append is
// logged by the caller and never blocks graph processing. Backends mirror
// the storage driver selection pattern used for the blob trees: in-memory
// (tests), embedded SQLite (default), and PostgreSQL.
package deltalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chaincore/pkg/domain"
)

// Driver identifies a concrete delta log backend implementation.
type Driver string

const (
	// DriverMemory keeps entries in process memory (tests / ephemeral).
	DriverMemory Driver = "memory"
	// DriverSQLite appends to an embedded sqlite file (default).
	DriverSQLite Driver = "sqlite"
	// DriverPostgres appends to a PostgreSQL server.
	DriverPostgres Driver = "postgres"
)

// Entry is one logged change delta. ChangeData carries the raw change body
// (the bulk data or targeted payload) as it arrived.
type Entry struct {
	Timestamp  int64           `json:"timestamp"`
	Version    string          `json:"version"`
	Action     string          `json:"action"`
	ChangeType string          `json:"change_type"`
	ChangeData json.RawMessage `json:"change_data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Log records processed changes. Append is an insert-if-absent: the first
// entry written for a timestamp wins and later duplicates are ignored, not
// overwritten.
type Log interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Options selects and parameterizes a backend.
type Options struct {
	Driver      Driver
	SQLitePath  string // driver=sqlite: file path (default ./chaincore_deltas.db)
	PostgresDSN string // driver=postgres
}

// Open constructs the Log selected by opts.Driver (default sqlite).
func Open(opts Options) (Log, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(opts.SQLitePath)
	case DriverPostgres:
		return NewPostgres(opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown deltalog driver %s", driver)
	}
}

// EntryFor builds a log entry from a processed change record.
func EntryFor(c *domain.Change, version string, now time.Time) Entry {
	var body json.RawMessage
	if c.Data != nil {
		body, _ = json.Marshal(c.Data)
	} else if c.Payload != nil {
		body, _ = json.Marshal(c.Payload)
	}
	return Entry{
		Timestamp:  c.Timestamp,
		Version:    version,
		Action:     string(c.Action.Normalize()),
		ChangeType: string(c.Type),
		ChangeData: body,
		CreatedAt:  now.UTC(),
	}
}
