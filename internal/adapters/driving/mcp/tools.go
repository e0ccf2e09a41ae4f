package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// RunDeltaInput is the input schema for the run_delta tool.
type RunDeltaInput struct {
	RequestID string `json:"request_id,omitempty" jsonschema:"optional request ID used in logs (default: generated)"`
}

// RunDeltaOutput is the output schema for the run_delta tool.
type RunDeltaOutput struct {
	RequestID          string         `json:"request_id"`
	StartCursorPresent bool           `json:"start_cursor_present"`
	PagesScanned       int            `json:"pages_scanned"`
	EntriesSeen        int            `json:"entries_seen"`
	FilesScanned       int            `json:"files_scanned"`
	Skipped            map[string]int `json:"skipped"`
	EnqueuedJobs       int            `json:"enqueued_jobs"`
	SucceededJobs      int            `json:"succeeded_jobs"`
	FailedJobs         int            `json:"failed_jobs"`
	DurationMillis     int64          `json:"duration_ms"`
}

// CursorStatusInput is the (empty) input schema for the cursor_status tool.
type CursorStatusInput struct{}

// CursorStatusOutput is the output schema for the cursor_status tool.
type CursorStatusOutput struct {
	Present bool   `json:"present"`
	Cursor  string `json:"cursor,omitempty"`
	Length  int    `json:"length"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_delta",
		Description: "Enhance every new image since the last run and upload the results",
	}, s.handleRunDelta)

	if s.ports.Cursor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "cursor_status",
			Description: "Report whether a delta cursor is stored",
		}, s.handleCursorStatus)
	}
}

// handleRunDelta runs one delta pass synchronously.
func (s *Server) handleRunDelta(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunDeltaInput,
) (*mcp.CallToolResult, RunDeltaOutput, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = s.ports.NewRequestID()
	}

	logger.Info("[%s] mcp: run_delta requested", requestID)
	summary, err := s.ports.Processor.RunOnce(ctx, domain.TriggerMCP, requestID)
	if errors.Is(err, domain.ErrRunInProgress) {
		logger.Info("[%s] mcp: rejected, another run is in progress", requestID)
		return nil, RunDeltaOutput{}, errors.New("a run is already in progress")
	}
	if err != nil {
		return nil, RunDeltaOutput{}, err
	}

	return nil, toRunOutput(summary), nil
}

// handleCursorStatus reports the stored cursor.
func (s *Server) handleCursorStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CursorStatusInput,
) (*mcp.CallToolResult, CursorStatusOutput, error) {
	st, err := s.ports.Cursor.Status(ctx)
	if err != nil {
		return nil, CursorStatusOutput{}, err
	}
	return nil, CursorStatusOutput{Present: st.Present, Cursor: st.Cursor, Length: st.Length}, nil
}

func toRunOutput(summary *domain.RunSummary) RunDeltaOutput {
	skipped := make(map[string]int, len(summary.Skipped))
	for reason, n := range summary.Skipped {
		skipped[string(reason)] = n
	}
	return RunDeltaOutput{
		RequestID:          summary.RequestID,
		StartCursorPresent: summary.StartCursorPresent,
		PagesScanned:       summary.PagesScanned,
		EntriesSeen:        summary.EntriesSeen,
		FilesScanned:       summary.FilesScanned,
		Skipped:            skipped,
		EnqueuedJobs:       summary.EnqueuedJobs,
		SucceededJobs:      summary.SucceededJobs,
		FailedJobs:         summary.FailedJobs,
		DurationMillis:     summary.Duration.Milliseconds(),
	}
}
