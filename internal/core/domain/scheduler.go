package domain

import (
	"fmt"
	"time"
)

// ScheduledTask is the persisted state of a periodic trigger.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration

	LastRun time.Time
	NextRun time.Time

	// LastRequestID is the request ID of the most recent run, so its log
	// lines can be found.
	LastRequestID string

	// LastError is the failure of the most recent run. A run that finished
	// with failed jobs records "n of m jobs failed".
	LastError string

	LastSuccess time.Time
	Enabled     bool
}

// TaskResult is the history row for one scheduled delta run.
type TaskResult struct {
	TaskID    string
	RequestID string

	StartedAt time.Time
	EndedAt   time.Time

	// Success is false when the run aborted or any job failed.
	Success bool
	Error   string

	FilesScanned  int
	SucceededJobs int
	FailedJobs    int
}

// RecordRun copies the counts of a finished run. A nil summary leaves the
// counts at zero.
func (r *TaskResult) RecordRun(summary *RunSummary) {
	if summary == nil {
		return
	}
	r.FilesScanned = summary.FilesScanned
	r.SucceededJobs = summary.SucceededJobs
	r.FailedJobs = summary.FailedJobs
}

// JobFailures reports failed jobs as an error, or nil when every
// enqueued job succeeded.
func (r *TaskResult) JobFailures() error {
	if r.FailedJobs == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d jobs failed", r.FailedJobs, r.SucceededJobs+r.FailedJobs)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns the scheduler defaults. Periodic runs are
// disabled until an interval is configured.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: false,
		TaskConfigs: map[string]TaskConfig{
			TaskIDDeltaRun: {
				Enabled:  false,
				Interval: 15 * time.Minute,
			},
		},
	}
}

// NewSchedulerConfig enables the delta-run task at the given interval.
// A non-positive interval disables the scheduler.
func NewSchedulerConfig(interval time.Duration) SchedulerConfig {
	if interval <= 0 {
		return DefaultSchedulerConfig()
	}
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDDeltaRun: {Enabled: true, Interval: interval},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDDeltaRun = "delta-run"
)
