package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/glowbox/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// DefaultCursorKey is the single key the delta cursor is stored under.
const DefaultCursorKey = "delta"

// Store is a SQLite-backed storage that provides the persistence ports
// through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.glowbox/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".glowbox", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "glowbox.db")

	// WAL lets a CLI invocation read while the server writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CursorStore returns a CursorStore for the default cursor key.
func (s *Store) CursorStore() driven.CursorStore {
	return s.CursorStoreFor(DefaultCursorKey)
}

// CursorStoreFor returns a CursorStore bound to key.
func (s *Store) CursorStoreFor(key string) driven.CursorStore {
	return &cursorStore{store: s, key: key}
}

// SchedulerStore returns a SchedulerStore backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
	key   string
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get returns the stored cursor, or domain.ErrNotFound.
func (c *cursorStore) Get(ctx context.Context) (string, error) {
	var cursor string
	err := c.store.db.QueryRowContext(ctx,
		"SELECT cursor FROM cursors WHERE key = ?", c.key).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading cursor: %w", err)
	}
	if cursor == "" {
		return "", domain.ErrNotFound
	}
	return cursor, nil
}

// Set upserts the cursor. An empty cursor removes the row.
func (c *cursorStore) Set(ctx context.Context, cursor string) error {
	if cursor == "" {
		if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cursors WHERE key = ?", c.key); err != nil {
			return fmt.Errorf("clearing cursor: %w", err)
		}
		return nil
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cursors (key, cursor, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, c.key, cursor, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}
