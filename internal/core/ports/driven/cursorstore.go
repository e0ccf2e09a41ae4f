package driven

import "context"

// CursorStore persists the delta cursor under a single well-known key.
type CursorStore interface {
	// Get returns the last persisted cursor.
	// Returns domain.ErrNotFound if no cursor has been stored.
	Get(ctx context.Context) (string, error)

	// Set replaces the stored cursor. A later Get, including from
	// another process, must observe the new value. An empty cursor
	// clears the stored value.
	Set(ctx context.Context, cursor string) error
}
