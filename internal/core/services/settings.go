package services

import (
	"errors"
	"time"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyProvider            = "provider"
	KeyStore               = "store"
	KeyDataDir             = "data_dir"
	KeyPostgresDSN         = "postgres.dsn"
	KeyRunInterval         = "run.interval"
	KeyDropboxAccessToken  = "dropbox.access_token"
	KeyDropboxRefreshToken = "dropbox.refresh_token"
	KeyDropboxAppKey       = "dropbox.app_key"
	KeyDropboxAppSecret    = "dropbox.app_secret"
	KeyFilesystemBaseDir   = "filesystem.base_dir"
	KeyFilesystemPageSize  = "filesystem.page_size"
	KeyInputPath           = "processing.input_path"
	KeyOutputPath          = "processing.output_path"
	KeySuffix              = "processing.suffix"
	KeyConcurrency         = "processing.concurrency"
	KeyImageEndpoint       = "enhancement.endpoint"
	KeyImageModel          = "enhancement.model"
	KeyResponsesModel      = "enhancement.responses_model"
	KeyImageQuality        = "enhancement.quality"
	KeyOutputFormat        = "enhancement.output_format"
	KeyOpenAIAPIKey        = "openai.api_key"
	KeyOpenAIBaseURL       = "openai.base_url"
	KeyOpenAITimeout       = "openai.timeout"
	KeyServerPort          = "server.port"
	KeyLogFormat           = "log.format"
	KeyLogFile             = "log.file"
	KeyLogMaxSizeMB        = "log.max_size_mb"
	KeyLogMaxBackups       = "log.max_backups"
)

// SettingsService assembles application settings from a config store.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.SettingsValidator
}

// NewSettingsService creates a new settings service. validator may be nil.
func NewSettingsService(configStore driven.ConfigStore, validator driven.SettingsValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Provider:    domain.ProviderType(s.getString(KeyProvider, defaults.Provider.String())),
		Store:       domain.StoreType(s.getString(KeyStore, defaults.Store.String())),
		DataDir:     s.configStore.GetString(KeyDataDir),
		PostgresDSN: s.configStore.GetString(KeyPostgresDSN),
		RunInterval: s.getDuration(KeyRunInterval, defaults.RunInterval),
		Dropbox: domain.DropboxSettings{
			AccessToken:  s.configStore.GetString(KeyDropboxAccessToken),
			RefreshToken: s.configStore.GetString(KeyDropboxRefreshToken),
			AppKey:       s.configStore.GetString(KeyDropboxAppKey),
			AppSecret:    s.configStore.GetString(KeyDropboxAppSecret),
		},
		Filesystem: domain.FilesystemSettings{
			BaseDir:  s.configStore.GetString(KeyFilesystemBaseDir),
			PageSize: s.getInt(KeyFilesystemPageSize, defaults.Filesystem.PageSize),
		},
		Processing: domain.ProcessingSettings{
			InputPath:   s.getString(KeyInputPath, defaults.Processing.InputPath),
			OutputPath:  s.getString(KeyOutputPath, defaults.Processing.OutputPath),
			Suffix:      s.getString(KeySuffix, defaults.Processing.Suffix),
			Concurrency: s.getInt(KeyConcurrency, defaults.Processing.Concurrency),
		},
		Enhancement: domain.EnhancementSettings{
			Endpoint:       s.getString(KeyImageEndpoint, defaults.Enhancement.Endpoint),
			Model:          s.getString(KeyImageModel, defaults.Enhancement.Model),
			ResponsesModel: s.getString(KeyResponsesModel, defaults.Enhancement.ResponsesModel),
			Quality:        s.getString(KeyImageQuality, defaults.Enhancement.Quality),
			OutputFormat:   s.configStore.GetString(KeyOutputFormat), // Empty keeps the source extension
		},
		OpenAI: domain.OpenAISettings{
			APIKey:  s.configStore.GetString(KeyOpenAIAPIKey),
			BaseURL: s.configStore.GetString(KeyOpenAIBaseURL),
			Timeout: s.getDuration(KeyOpenAITimeout, defaults.OpenAI.Timeout),
		},
		Server: domain.ServerSettings{
			Port: s.getInt(KeyServerPort, defaults.Server.Port),
		},
		Log: domain.LogSettings{
			Format:     s.getString(KeyLogFormat, defaults.Log.Format),
			File:       s.configStore.GetString(KeyLogFile),
			MaxSizeMB:  s.getInt(KeyLogMaxSizeMB, defaults.Log.MaxSizeMB),
			MaxBackups: s.getInt(KeyLogMaxBackups, defaults.Log.MaxBackups),
		},
	}

	return settings, nil
}

// Set stores a single setting by key.
func (s *SettingsService) Set(key string, value any) error {
	return s.configStore.Set(key, value)
}

// Validate checks settings structure, provider credentials and the
// enhancement allow-lists. All problems are joined into one error.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	var errs []error
	if s.validator != nil {
		if err := s.validator.Validate(settings); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, validateCredentials(settings)...)

	if _, err := domain.ResolveEnhancementOptions(settings.Enhancement); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateCredentials checks the secrets required by the selected provider.
func validateCredentials(settings *domain.AppSettings) []error {
	var errs []error

	switch settings.Provider {
	case domain.ProviderDropbox:
		db := settings.Dropbox
		switch {
		case db.UsesRefreshToken():
			if db.AppKey == "" || db.AppSecret == "" {
				errs = append(errs, domain.NewMissingConfigError("DROPBOX_APP_KEY",
					"DROPBOX_APP_KEY and DROPBOX_APP_SECRET are required with DROPBOX_REFRESH_TOKEN"))
			}
		case db.AccessToken == "":
			errs = append(errs, domain.NewMissingConfigError("DROPBOX_ACCESS_TOKEN",
				"set DROPBOX_ACCESS_TOKEN or DROPBOX_REFRESH_TOKEN + DROPBOX_APP_KEY + DROPBOX_APP_SECRET"))
		}
	case domain.ProviderFilesystem:
		if settings.Filesystem.BaseDir == "" {
			errs = append(errs, domain.NewMissingConfigError(KeyFilesystemBaseDir, "required for the filesystem provider"))
		}
	}

	if settings.OpenAI.APIKey == "" {
		errs = append(errs, domain.NewMissingConfigError("OPENAI_API_KEY", "required"))
	}

	return errs
}

// getString returns the stored value or a default if empty.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt returns the stored value or a default if zero.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val != 0 {
		return val
	}
	return defaultVal
}

// getDuration parses a duration string such as "15m".
// Falls back to the default on empty or invalid values.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
