package mcp

import (
	"context"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// mockProcessor is a mock implementation of driving.DeltaProcessor.
type mockProcessor struct {
	summary   *domain.RunSummary
	err       error
	triggers  []domain.Trigger
	requestID string
}

func (m *mockProcessor) RunOnce(_ context.Context, trigger domain.Trigger, requestID string) (*domain.RunSummary, error) {
	m.triggers = append(m.triggers, trigger)
	m.requestID = requestID
	if m.summary != nil {
		m.summary.RequestID = requestID
		return m.summary, m.err
	}
	return domain.NewRunSummary(requestID, trigger), m.err
}

// mockCursorService is a mock implementation of driving.CursorService.
type mockCursorService struct {
	status *domain.CursorStatus
	err    error
}

func (m *mockCursorService) Status(_ context.Context) (*domain.CursorStatus, error) {
	return m.status, m.err
}

func (m *mockCursorService) Reset(_ context.Context) error {
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Validate(_ *domain.AppSettings) error {
	return nil
}

func (m *mockSettingsService) Set(_ string, _ any) error {
	return nil
}
