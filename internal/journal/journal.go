// Package journal records completed harness runs in SQLite.
//
// The journal is append-only: one row per run, one row per verdict, never
// mutated afterwards. Because replay is deterministic, a recorded run can
// be re-executed and compared verdict-by-verdict to detect divergence
// between engine versions.
//
// By default the journal lives in memory and dies with the process; a file
// path is an explicit operator opt-in for archiving runs across sessions.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Journal provides durable storage for harness run records.
type Journal struct {
	db    *sql.DB
	newID func() string
}

// Option configures a Journal.
type Option func(*Journal)

// WithIDSource replaces the run-ID generator. Tests install a sequential
// source so recorded runs are identical across executions.
func WithIDSource(gen func() string) Option {
	return func(j *Journal) { j.newID = gen }
}

// Open creates or opens a journal database. An empty path opens an
// in-memory database.
//
// The database is configured with WAL mode, NORMAL synchronous, a 5-second
// busy timeout and foreign key enforcement. Opening is idempotent.
func Open(path string, opts ...Option) (*Journal, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors (and keeps :memory: databases coherent).
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{db: db, newID: uuid.NewString}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
