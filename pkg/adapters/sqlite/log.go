// Package sqlite implements the column log contract on a single SQLite
// database shared by every column: one row per (column, step).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/lattice/pkg/ports"
	_ "modernc.org/sqlite"
)

// Provider implements ports.LogProvider over one SQLite database.
type Provider struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for an ephemeral database.
func Open(path string) (*Provider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	p, err := NewFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewFromDB binds a provider to an existing database handle and ensures
// the schema exists.
func NewFromDB(db *sql.DB) (*Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Provider{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS column_values (
		column_name TEXT NOT NULL,
		step        INTEGER NOT NULL,
		value       TEXT NOT NULL,
		PRIMARY KEY (column_name, step)
	);`)
	if err != nil {
		return fmt.Errorf("migrate: create column_values: %w", err)
	}
	return nil
}

// Open returns the log for the named column.
func (p *Provider) Open(name string) (ports.Log, error) {
	if name == "" {
		return nil, fmt.Errorf("column name cannot be empty")
	}
	return &Log{db: p.db, column: name}, nil
}

// Close closes the underlying database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Log implements ports.Log over the shared column_values table.
type Log struct {
	db     *sql.DB
	column string
}

// Get retrieves the value stored at step.
func (l *Log) Get(ctx context.Context, step int) (string, bool, error) {
	if step < 0 {
		return "", false, nil
	}
	var value string
	err := l.db.QueryRowContext(ctx,
		`SELECT value FROM column_values WHERE column_name = ? AND step = ?`,
		l.column, step,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q step %d: %w", l.column, step, err)
	}
	return value, true, nil
}

// Push appends the value at index Len.
func (l *Log) Push(ctx context.Context, value string) error {
	// COALESCE(MAX(step)+1, 0) keeps indices gapless even after Clear.
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO column_values (column_name, step, value)
		 SELECT ?, COALESCE(MAX(step) + 1, 0), ? FROM column_values WHERE column_name = ?`,
		l.column, value, l.column,
	)
	if err != nil {
		return fmt.Errorf("push %q: %w", l.column, err)
	}
	return nil
}

// Len returns the count of stored steps.
func (l *Log) Len(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM column_values WHERE column_name = ?`,
		l.column,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("len %q: %w", l.column, err)
	}
	return n, nil
}

// Clear deletes every row for this column.
func (l *Log) Clear(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM column_values WHERE column_name = ?`,
		l.column,
	)
	if err != nil {
		return fmt.Errorf("clear %q: %w", l.column, err)
	}
	return nil
}

var _ ports.Log = (*Log)(nil)
var _ ports.LogProvider = (*Provider)(nil)
