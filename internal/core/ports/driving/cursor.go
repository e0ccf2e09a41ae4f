package driving

import (
	"context"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// CursorService inspects and resets the stored delta cursor.
type CursorService interface {
	// Status reports whether a cursor is stored.
	Status(ctx context.Context) (*domain.CursorStatus, error)

	// Reset clears the stored cursor so the next run lists from scratch.
	Reset(ctx context.Context) error
}
