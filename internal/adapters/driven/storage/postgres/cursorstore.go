// Package postgres provides a PostgreSQL CursorStore for deployments that
// run several glowbox instances against one shared database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// DefaultCursorKey is the single key the delta cursor is stored under.
const DefaultCursorKey = "delta"

const schema = `
CREATE TABLE IF NOT EXISTS glowbox_cursors (
	key        TEXT PRIMARY KEY,
	cursor     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore persists the delta cursor in PostgreSQL.
type CursorStore struct {
	db  *sql.DB
	key string
}

// Open connects to dsn and ensures the cursor table exists.
func Open(ctx context.Context, dsn string) (*CursorStore, error) {
	if dsn == "" {
		return nil, domain.NewMissingConfigError("GLOWBOX_POSTGRES_DSN", "required when store = postgres")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cursor table: %w", err)
	}

	return &CursorStore{db: db, key: DefaultCursorKey}, nil
}

// WithKey returns a store sharing the connection but bound to key.
func (s *CursorStore) WithKey(key string) *CursorStore {
	return &CursorStore{db: s.db, key: key}
}

// Close closes the database connection.
func (s *CursorStore) Close() error {
	return s.db.Close()
}

// Get returns the stored cursor, or domain.ErrNotFound.
func (s *CursorStore) Get(ctx context.Context) (string, error) {
	var cursor string
	err := s.db.QueryRowContext(ctx,
		"SELECT cursor FROM glowbox_cursors WHERE key = $1", s.key).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && cursor == "") {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading cursor: %w", err)
	}
	return cursor, nil
}

// Set upserts the cursor. An empty cursor removes the row.
func (s *CursorStore) Set(ctx context.Context, cursor string) error {
	if cursor == "" {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM glowbox_cursors WHERE key = $1", s.key); err != nil {
			return fmt.Errorf("clearing cursor: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO glowbox_cursors (key, cursor, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			cursor = EXCLUDED.cursor,
			updated_at = EXCLUDED.updated_at
	`, s.key, cursor)
	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}
