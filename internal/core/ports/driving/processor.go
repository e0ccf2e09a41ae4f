package driving

import (
	"context"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// DeltaProcessor processes everything new since the last recorded cursor.
type DeltaProcessor interface {
	// RunOnce scans, enhances and uploads every eligible new file, then
	// returns the run summary. Only configuration and scan failures are
	// returned as errors; per-file failures are counted in the summary.
	RunOnce(ctx context.Context, trigger domain.Trigger, requestID string) (*domain.RunSummary, error)
}
