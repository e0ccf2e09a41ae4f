package driven

import (
	"context"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// ImageEnhancer transforms source image bytes into enhanced image bytes.
type ImageEnhancer interface {
	// Enhance sends data with the fixed enhancement prompt. filename is used
	// only to infer the source MIME type.
	Enhance(ctx context.Context, data []byte, filename string) (*domain.EnhancementResult, error)
}
