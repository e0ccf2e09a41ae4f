package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// Ensure DeltaProcessor implements the interface.
var _ driving.DeltaProcessor = (*DeltaProcessor)(nil)

// ProcessorConfig is the configuration surface the delta run consumes.
type ProcessorConfig struct {
	// InputRoot is the remote folder scanned for new images.
	InputRoot string

	// Layout decides where enhanced files are written.
	Layout domain.OutputLayout

	// Concurrency bounds simultaneously running jobs.
	Concurrency int

	// Enhancement is checked against the allow-lists before each run.
	Enhancement domain.EnhancementSettings
}

// ProcessorConfigFromSettings derives the processor configuration.
func ProcessorConfigFromSettings(s *domain.AppSettings) ProcessorConfig {
	return ProcessorConfig{
		InputRoot:   s.Processing.InputPath,
		Layout:      s.Layout(),
		Concurrency: s.Processing.Concurrency,
		Enhancement: s.Enhancement,
	}
}

// DeltaProcessor ties the scanner, a per-run job queue and the cursor store
// into one "process everything new since the last run" operation.
// Only one run executes at a time.
type DeltaProcessor struct {
	storage  driven.RemoteStorage
	cursors  driven.CursorStore
	enhancer driven.ImageEnhancer
	metrics  driven.RunMetrics
	config   ProcessorConfig

	mu      sync.Mutex
	running bool
}

// NewDeltaProcessor creates a delta processor. metrics may be nil.
func NewDeltaProcessor(
	storage driven.RemoteStorage,
	cursors driven.CursorStore,
	enhancer driven.ImageEnhancer,
	config ProcessorConfig,
	metrics driven.RunMetrics,
) *DeltaProcessor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DeltaProcessor{
		storage:  storage,
		cursors:  cursors,
		enhancer: enhancer,
		metrics:  metrics,
		config:   config,
	}
}

// RunOnce runs one delta pass. The returned summary is never nil; when a
// configuration or scan failure aborts the run it holds the partial counts
// and already-submitted jobs have been awaited.
func (p *DeltaProcessor) RunOnce(
	ctx context.Context,
	trigger domain.Trigger,
	requestID string,
) (*domain.RunSummary, error) {
	summary := domain.NewRunSummary(requestID, trigger)

	if !p.begin() {
		return summary, domain.ErrRunInProgress
	}
	defer p.end()

	err := p.run(ctx, summary)
	summary.Duration = time.Since(summary.StartedAt)
	p.metrics.RunFinished(summary, err)

	if err != nil {
		logger.Error("[%s] run failed after %s: %v", requestID, summary.Duration.Round(time.Millisecond), err)
		return summary, err
	}

	logger.Info("[%s] run complete: trigger=%s pages=%d entries=%d files=%d skipped=%d enqueued=%d succeeded=%d failed=%d duration=%s",
		requestID, trigger, summary.PagesScanned, summary.EntriesSeen, summary.FilesScanned,
		summary.SkippedTotal, summary.EnqueuedJobs, summary.SucceededJobs, summary.FailedJobs,
		summary.Duration.Round(time.Millisecond))
	return summary, nil
}

func (p *DeltaProcessor) run(ctx context.Context, summary *domain.RunSummary) error {
	if err := p.preflight(); err != nil {
		return err
	}

	cursor, err := p.cursors.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reading cursor: %w", err)
	}
	summary.StartCursorPresent = cursor != ""

	logger.Section("Delta run " + summary.RequestID)
	logger.Info("[%s] starting %s run (root=%s, continue=%t, concurrency=%d)",
		summary.RequestID, summary.Trigger, p.config.InputRoot, summary.StartCursorPresent, p.config.Concurrency)

	queue := NewJobQueue(p.config.Concurrency)
	defer queue.Close()

	scanner := NewDeltaScanner(p.storage, p.cursors)
	scanErr := scanner.Scan(ctx, p.config.InputRoot, cursor, summary, func(entry domain.Entry) {
		job := domain.NewJob(entry, p.config.Layout)
		if err := queue.Submit(func() error { return p.process(ctx, summary.RequestID, job) }); err != nil {
			logger.Warn("[%s] could not enqueue %s: %v", summary.RequestID, job.InputPath, err)
			return
		}
		summary.EnqueuedJobs++
	})

	queue.Wait()
	stats := queue.Stats()
	summary.SucceededJobs = stats.Succeeded
	summary.FailedJobs = stats.Failed

	return scanErr
}

// preflight fails fast on configuration problems before any remote call.
func (p *DeltaProcessor) preflight() error {
	switch {
	case p.storage == nil:
		return fmt.Errorf("remote storage: %w", domain.ErrNotConfigured)
	case p.cursors == nil:
		return fmt.Errorf("cursor store: %w", domain.ErrNotConfigured)
	case p.enhancer == nil:
		return fmt.Errorf("image enhancer: %w", domain.ErrNotConfigured)
	case p.config.Concurrency < 1:
		return &domain.ConfigurationError{Key: "CONCURRENCY", Value: fmt.Sprint(p.config.Concurrency), Reason: "must be at least 1"}
	}

	_, err := domain.ResolveEnhancementOptions(p.config.Enhancement)
	return err
}

// process downloads, enhances and uploads one file. Any failure is
// returned as a *domain.JobError and stays contained in the queue.
func (p *DeltaProcessor) process(ctx context.Context, requestID string, job domain.Job) error {
	p.metrics.JobStarted()
	start := time.Now()

	err := p.transfer(ctx, job)
	elapsed := time.Since(start)
	p.metrics.JobFinished(err == nil, elapsed)

	if err != nil {
		logger.Warn("[%s] job failed: %v", requestID, err)
		return err
	}
	logger.Debug("[%s] %s -> %s in %s", requestID, job.InputPath, job.OutputPath, elapsed.Round(time.Millisecond))
	return nil
}

func (p *DeltaProcessor) transfer(ctx context.Context, job domain.Job) error {
	data, err := p.storage.Download(ctx, job.InputPath)
	if err != nil {
		return &domain.JobError{Path: job.InputPath, Stage: "download", Err: err}
	}

	result, err := p.enhancer.Enhance(ctx, data, job.FileName)
	if err != nil {
		return &domain.JobError{Path: job.InputPath, Stage: "enhance", Err: err}
	}
	if result == nil || len(result.Data) == 0 {
		return &domain.JobError{Path: job.InputPath, Stage: "enhance", Err: domain.ErrNoImageData}
	}

	if err := p.storage.Upload(ctx, job.OutputPath, result.Data); err != nil {
		return &domain.JobError{Path: job.InputPath, Stage: "upload", Err: err}
	}

	logger.Info("enhanced %s -> %s (model=%s, strategy=%s)", job.InputPath, job.OutputPath, result.Model, result.Strategy)
	return nil
}

func (p *DeltaProcessor) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	return true
}

func (p *DeltaProcessor) end() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

type noopMetrics struct{}

func (noopMetrics) JobStarted() {}

func (noopMetrics) JobFinished(bool, time.Duration) {}

func (noopMetrics) RunFinished(*domain.RunSummary, error) {}
