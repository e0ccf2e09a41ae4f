package driven

import (
	"time"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// RunMetrics receives instrumentation events from the delta processor.
type RunMetrics interface {
	// JobStarted is called when a job begins executing.
	JobStarted()

	// JobFinished is called once per job with its outcome.
	JobFinished(success bool, elapsed time.Duration)

	// RunFinished is called with the final summary. err is nil on success.
	RunFinished(summary *domain.RunSummary, err error)
}
