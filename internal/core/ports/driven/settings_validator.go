package driven

import "github.com/custodia-labs/glowbox/internal/core/domain"

// SettingsValidator checks the structure of assembled settings.
// Allow-list checks for enhancement values live in the domain package.
type SettingsValidator interface {
	// Validate returns an error describing every invalid field.
	Validate(settings *domain.AppSettings) error
}
