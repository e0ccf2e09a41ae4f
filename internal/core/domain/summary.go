package domain

import "time"

// SkipReason explains why a listed entry was not enqueued.
type SkipReason string

// Skip reasons, in evaluation order.
const (
	SkipNonFile     SkipReason = "non-file"
	SkipMissingPath SkipReason = "missing-path"
	SkipOutsideRoot SkipReason = "outside-root"
	SkipNonImage    SkipReason = "non-image"
)

// SkipReasons lists every reason in evaluation order.
var SkipReasons = []SkipReason{SkipNonFile, SkipMissingPath, SkipOutsideRoot, SkipNonImage}

// Trigger names what started a run.
type Trigger string

// Known triggers.
const (
	TriggerWebhook  Trigger = "webhook"
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerWatch    Trigger = "watch"
	TriggerMCP      Trigger = "mcp"
)

// RunSummary aggregates counts for one delta run.
type RunSummary struct {
	RequestID string  `json:"requestId"`
	Trigger   Trigger `json:"trigger"`

	// StartCursorPresent reports whether the run continued from a stored cursor.
	StartCursorPresent bool `json:"startCursorPresent"`

	PagesScanned  int `json:"pagesScanned"`
	EntriesSeen   int `json:"entriesSeen"`
	FilesScanned  int `json:"filesScanned"`
	SkippedTotal  int `json:"skippedTotal"`
	EnqueuedJobs  int `json:"enqueuedJobs"`
	SucceededJobs int `json:"succeededJobs"`
	FailedJobs    int `json:"failedJobs"`

	Skipped map[SkipReason]int `json:"skipped"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
}

// NewRunSummary returns a summary with every skip reason present at zero.
func NewRunSummary(requestID string, trigger Trigger) *RunSummary {
	skipped := make(map[SkipReason]int, len(SkipReasons))
	for _, r := range SkipReasons {
		skipped[r] = 0
	}
	return &RunSummary{
		RequestID: requestID,
		Trigger:   trigger,
		Skipped:   skipped,
		StartedAt: time.Now(),
	}
}

// RecordSkip counts one rejected entry.
func (s *RunSummary) RecordSkip(reason SkipReason) {
	s.Skipped[reason]++
	s.SkippedTotal++
}
