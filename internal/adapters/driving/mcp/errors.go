// Package mcp provides an MCP (Model Context Protocol) server adapter for glowbox.
// It lets AI assistants trigger delta runs and inspect the stored cursor.
package mcp

import "errors"

// ErrMissingProcessor is returned when the delta processor is not provided.
var ErrMissingProcessor = errors.New("mcp: delta processor is required")
