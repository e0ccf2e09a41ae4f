package mcp

import (
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Processor runs delta passes.
	Processor driving.DeltaProcessor

	// Cursor inspects the stored cursor.
	Cursor driving.CursorService

	// Settings exposes the effective configuration.
	Settings driving.SettingsService

	// NewRequestID generates run request IDs. Defaults to uuid.NewString.
	NewRequestID func() string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Processor == nil {
		return ErrMissingProcessor
	}
	return nil
}
