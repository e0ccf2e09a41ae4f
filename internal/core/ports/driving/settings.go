package driving

import "github.com/custodia-labs/glowbox/internal/core/domain"

// SettingsService assembles application settings from configuration.
type SettingsService interface {
	// Get returns settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Validate checks structure, credentials for the selected provider
	// and the enhancement allow-lists.
	Validate(settings *domain.AppSettings) error

	// Set stores a single setting by key.
	Set(key string, value any) error
}
