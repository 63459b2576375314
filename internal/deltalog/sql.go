package deltalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const defaultPostgresDSN = "postgres://localhost/chaincore?sslmode=disable"

// sqlLog implements Log on a database/sql handle. The insert statement is
// dialect-specific; everything else is shared between sqlite and postgres.
type sqlLog struct {
	db        *sql.DB
	insertSQL string
}

// NewSQLite opens (or creates) an embedded sqlite-backed delta log.
func NewSQLite(path string) (Log, error) {
	if path == "" {
		path = "chaincore_deltas.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS state_deltas (
		timestamp INTEGER PRIMARY KEY,
		version TEXT,
		action TEXT,
		change_type TEXT,
		change_data TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create state_deltas table: %w", err)
	}
	insert := `INSERT OR IGNORE INTO state_deltas (timestamp, version, action, change_type, change_data) VALUES (?, ?, ?, ?, ?)`
	return &sqlLog{db: db, insertSQL: insert}, nil
}

// NewPostgres opens a PostgreSQL-backed delta log using the provided DSN
// (falls back to a local default).
func NewPostgres(dsn string) (Log, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS state_deltas (
		timestamp BIGINT PRIMARY KEY,
		version VARCHAR(64),
		action VARCHAR(50),
		change_type VARCHAR(50),
		change_data JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create state_deltas table: %w", err)
	}
	insert := `INSERT INTO state_deltas (timestamp, version, action, change_type, change_data) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (timestamp) DO NOTHING`
	return &sqlLog{db: db, insertSQL: insert}, nil
}

// Append inserts the entry inside a transaction, ignoring timestamp
// conflicts. A failure rolls the transaction back and surfaces the error to
// the caller, who treats the log as best-effort.
func (l *sqlLog) Append(ctx context.Context, e Entry) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, l.insertSQL, e.Timestamp, e.Version, e.Action, e.ChangeType, string(e.ChangeData)); err != nil {
		return fmt.Errorf("insert delta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Close releases the database handle.
func (l *sqlLog) Close() error { return l.db.Close() }
