// Package sqlite provides the durable SQLite implementation of the glowbox
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database connection backs:
//
//   - CursorStore: the delta cursor, stored under a single well-known key
//   - SchedulerStore: periodic task state and bounded run history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Files are named NNN_description.up.sql and applied
// in order; applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.glowbox/data/glowbox.db
//
// # Thread Safety
//
// All operations are thread-safe. The database runs in WAL mode with a busy
// timeout so that a CLI invocation and a running server can share it.
package sqlite
