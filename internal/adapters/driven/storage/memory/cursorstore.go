package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
// The cursor is lost when the process exits.
type CursorStore struct {
	mu     sync.RWMutex
	cursor string
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{}
}

// Get returns the stored cursor.
func (s *CursorStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cursor == "" {
		return "", domain.ErrNotFound
	}
	return s.cursor, nil
}

// Set replaces the stored cursor.
func (s *CursorStore) Set(_ context.Context, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
	return nil
}
