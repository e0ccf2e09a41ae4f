package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for glowbox resources.
	uriScheme = "glowbox://"
)

// settingsView is the non-secret part of the effective settings.
type settingsView struct {
	Provider       string `json:"provider"`
	Store          string `json:"store"`
	InputPath      string `json:"input_path"`
	OutputPath     string `json:"output_path"`
	Suffix         string `json:"suffix"`
	OutputFormat   string `json:"output_format,omitempty"`
	Concurrency    int    `json:"concurrency"`
	Endpoint       string `json:"endpoint"`
	Model          string `json:"model"`
	ResponsesModel string `json:"responses_model"`
	Quality        string `json:"quality"`
	DropboxAuth    string `json:"dropbox_auth"`
	RunInterval    string `json:"run_interval"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Settings == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Effective configuration with credentials omitted",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleSettingsResource returns the effective settings without secrets.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	data, err := json.MarshalIndent(newSettingsView(settings), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func newSettingsView(s *domain.AppSettings) settingsView {
	return settingsView{
		Provider:       s.Provider.String(),
		Store:          s.Store.String(),
		InputPath:      s.Processing.InputPath,
		OutputPath:     s.Processing.OutputPath,
		Suffix:         s.Processing.Suffix,
		OutputFormat:   s.Enhancement.OutputFormat,
		Concurrency:    s.Processing.Concurrency,
		Endpoint:       s.Enhancement.Endpoint,
		Model:          s.Enhancement.Model,
		ResponsesModel: s.Enhancement.ResponsesModel,
		Quality:        s.Enhancement.Quality,
		DropboxAuth:    s.Dropbox.AuthMode(),
		RunInterval:    s.RunInterval.String(),
	}
}
