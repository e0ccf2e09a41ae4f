package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// ProviderType identifies the remote storage provider.
type ProviderType string

// Available providers.
const (
	// ProviderDropbox is the Dropbox files API.
	ProviderDropbox ProviderType = "dropbox"

	// ProviderFilesystem is a local directory tree.
	ProviderFilesystem ProviderType = "filesystem"
)

// IsValid returns true if the provider is recognised.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderDropbox, ProviderFilesystem:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ProviderType) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p ProviderType) Description() string {
	switch p {
	case ProviderDropbox:
		return "Dropbox (list_folder delta feed)"
	case ProviderFilesystem:
		return "Local filesystem (mtime cursor)"
	default:
		return unknownDescription
	}
}

// StoreType identifies the cursor and scheduler persistence backend.
type StoreType string

// Available stores.
const (
	StoreSQLite   StoreType = "sqlite"
	StoreMemory   StoreType = "memory"
	StorePostgres StoreType = "postgres"
)

// IsValid returns true if the store is recognised.
func (s StoreType) IsValid() bool {
	switch s {
	case StoreSQLite, StoreMemory, StorePostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s StoreType) String() string {
	return string(s)
}

// DropboxSettings holds Dropbox credentials.
type DropboxSettings struct {
	AccessToken  string
	RefreshToken string
	AppKey       string
	AppSecret    string
}

// UsesRefreshToken reports whether refresh-token auth is selected.
func (d DropboxSettings) UsesRefreshToken() bool {
	return d.RefreshToken != ""
}

// AuthMode returns "refresh_token", "access_token" or "none".
func (d DropboxSettings) AuthMode() string {
	switch {
	case d.RefreshToken != "":
		return "refresh_token"
	case d.AccessToken != "":
		return "access_token"
	default:
		return "none"
	}
}

// FilesystemSettings configures the local provider.
type FilesystemSettings struct {
	// BaseDir maps remote "/" onto a local directory.
	BaseDir string

	// PageSize bounds entries per listing page.
	PageSize int
}

// ProcessingSettings is the configuration surface consumed by the core.
type ProcessingSettings struct {
	InputPath   string `validate:"required,abspath"`
	OutputPath  string `validate:"required,abspath"`
	Suffix      string
	Concurrency int `validate:"min=1,max=64"`
}

// OpenAISettings configures the enhancement adapter.
type OpenAISettings struct {
	APIKey  string
	BaseURL string `validate:"omitempty,url"`
	Timeout time.Duration
}

// ServerSettings configures the webhook server.
type ServerSettings struct {
	Port int `validate:"min=1,max=65535"`
}

// LogSettings configures logging output.
type LogSettings struct {
	Format     string `validate:"omitempty,oneof=console json"`
	File       string
	MaxSizeMB  int `validate:"min=0"`
	MaxBackups int `validate:"min=0"`
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Provider    ProviderType `validate:"provider"`
	Store       StoreType    `validate:"store"`
	DataDir     string
	PostgresDSN string `validate:"required_if=Store postgres"`
	RunInterval time.Duration

	Dropbox     DropboxSettings
	Filesystem  FilesystemSettings
	Processing  ProcessingSettings
	Enhancement EnhancementSettings
	OpenAI      OpenAISettings
	Server      ServerSettings
	Log         LogSettings
}

// Layout returns the output layout derived from processing and enhancement settings.
func (s AppSettings) Layout() OutputLayout {
	return OutputLayout{
		Root:   s.Processing.OutputPath,
		Suffix: s.Processing.Suffix,
		Format: strings.ToLower(strings.TrimSpace(s.Enhancement.OutputFormat)),
	}
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Provider: ProviderDropbox,
		Store:    StoreSQLite,
		Filesystem: FilesystemSettings{
			PageSize: 500,
		},
		Processing: ProcessingSettings{
			InputPath:   "/INPUT",
			OutputPath:  "/OUTPUT",
			Suffix:      "_ENHANCED",
			Concurrency: 4,
		},
		Enhancement: EnhancementSettings{
			Endpoint:       DefaultImageEndpoint,
			Model:          DefaultImageModel,
			ResponsesModel: DefaultResponsesModel,
			Quality:        DefaultImageQuality,
		},
		OpenAI: OpenAISettings{
			Timeout: 5 * time.Minute,
		},
		Server: ServerSettings{
			Port: 3000,
		},
		Log: LogSettings{
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}
