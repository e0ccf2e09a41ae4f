package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// Ensure CursorService implements the interface.
var _ driving.CursorService = (*CursorService)(nil)

// CursorService exposes the cursor store to operators.
type CursorService struct {
	store driven.CursorStore
}

// NewCursorService creates a cursor service over store.
func NewCursorService(store driven.CursorStore) *CursorService {
	return &CursorService{store: store}
}

// Status reports the stored cursor.
func (s *CursorService) Status(ctx context.Context) (*domain.CursorStatus, error) {
	if s.store == nil {
		return nil, fmt.Errorf("cursor store: %w", domain.ErrNotConfigured)
	}
	cursor, err := s.store.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCursorStatus(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cursor: %w", err)
	}
	return domain.NewCursorStatus(cursor), nil
}

// Reset stores the empty cursor, which the next run treats as absent.
func (s *CursorService) Reset(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("cursor store: %w", domain.ErrNotConfigured)
	}
	if err := s.store.Set(ctx, ""); err != nil {
		return fmt.Errorf("resetting cursor: %w", err)
	}
	logger.Info("cursor reset; the next run starts a full listing")
	return nil
}
