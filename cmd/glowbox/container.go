package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/glowbox/internal/adapters/driven/config/env"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/config/file"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/config/validation"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/enhancer/openai"
	prommetrics "github.com/custodia-labs/glowbox/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/glowbox/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/glowbox/internal/adapters/driving/cli"
	"github.com/custodia-labs/glowbox/internal/connectors/dropbox"
	"github.com/custodia-labs/glowbox/internal/connectors/filesystem"
	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
	"github.com/custodia-labs/glowbox/internal/core/services"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// Ensure container implements the CLI services.
var _ cli.Services = (*container)(nil)

// container is the composition root. Components are built on first use
// so commands only need the configuration their components require.
type container struct {
	opts     cli.Options
	settings *domain.AppSettings
	config   *services.SettingsService
	metrics  *prommetrics.Metrics

	mu        sync.Mutex
	closers   []func() error
	cursors   driven.CursorStore
	schedules driven.SchedulerStore
	remote    driven.RemoteStorage
	verifier  driven.AccountVerifier
	local     *filesystem.Storage
	processor *services.DeltaProcessor
}

// newContainer loads configuration and logging. It does not touch any
// remote service.
func newContainer(opts cli.Options) (cli.Services, error) {
	if err := env.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	base, err := configStore(opts)
	if err != nil {
		return nil, err
	}
	config := services.NewSettingsService(env.NewOverlay(base, nil), validation.New())

	settings, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	logFile := settings.Log.File
	if opts.LogFile != "" {
		logFile = opts.LogFile
	}
	if err := logger.Configure(logger.Config{
		Format:     settings.Log.Format,
		File:       logFile,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
	}); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	if path := base.Path(); path != "" {
		logger.Debug("config: %s", path)
	}

	return &container{
		opts:     opts,
		settings: settings,
		config:   config,
		metrics:  prommetrics.New(),
	}, nil
}

// configStore opens the TOML config file, or an empty in-memory store
// when only the environment should be read.
func configStore(opts cli.Options) (driven.ConfigStore, error) {
	if opts.EnvOnly {
		return memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

func (c *container) Settings() (driving.SettingsService, error) {
	return c.config, nil
}

func (c *container) Authorizer() (cli.Authorizer, error) {
	a, err := dropbox.NewAuthorizer(c.settings.Dropbox)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (c *container) Metrics() cli.Metrics {
	return c.metrics
}

func (c *container) Cursor() (driving.CursorService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.openStores(); err != nil {
		return nil, err
	}
	return services.NewCursorService(c.cursors), nil
}

func (c *container) Processor() (driving.DeltaProcessor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildProcessor()
}

func (c *container) Scheduler() (driving.Scheduler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	processor, err := c.buildProcessor()
	if err != nil {
		return nil, err
	}
	return services.NewScheduler(domain.NewSchedulerConfig(c.settings.RunInterval), c.schedules, processor, uuid.NewString), nil
}

func (c *container) VerifyAccount(ctx context.Context) (string, error) {
	c.mu.Lock()
	err := c.openRemote()
	verifier := c.verifier
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	return verifier.VerifyAccount(ctx)
}

func (c *container) Watch(ctx context.Context, onChange func()) error {
	c.mu.Lock()
	err := c.openRemote()
	local := c.local
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if local == nil {
		return &domain.ConfigurationError{
			Key:    "GLOWBOX_PROVIDER",
			Value:  c.settings.Provider.String(),
			Reason: "watch requires the filesystem provider",
		}
	}

	w, err := local.NewWatcher(c.settings.Processing.InputPath, filesystem.DefaultDebounce)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, onChange)
}

// Close releases stores in reverse order of opening.
func (c *container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *container) buildProcessor() (*services.DeltaProcessor, error) {
	if c.processor != nil {
		return c.processor, nil
	}
	if err := c.config.Validate(c.settings); err != nil {
		return nil, err
	}
	if err := c.openStores(); err != nil {
		return nil, err
	}
	if err := c.openRemote(); err != nil {
		return nil, err
	}

	enhancer, err := openai.NewEnhancer(openai.Config{
		APIKey:   c.settings.OpenAI.APIKey,
		BaseURL:  c.settings.OpenAI.BaseURL,
		Timeout:  c.settings.OpenAI.Timeout,
		Settings: c.settings.Enhancement,
	})
	if err != nil {
		return nil, err
	}

	c.processor = services.NewDeltaProcessor(
		c.remote,
		c.cursors,
		enhancer,
		services.ProcessorConfigFromSettings(c.settings),
		c.metrics,
	)
	return c.processor, nil
}

// openStores opens the cursor and scheduler stores for the configured backend.
func (c *container) openStores() error {
	if c.cursors != nil {
		return nil
	}

	switch c.settings.Store {
	case domain.StoreMemory:
		c.cursors = memory.NewCursorStore()
		c.schedules = memory.NewSchedulerStore()

	case domain.StorePostgres:
		store, err := postgres.Open(context.Background(), c.settings.PostgresDSN)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, store.Close)
		c.cursors = store
		c.schedules = memory.NewSchedulerStore()

	default:
		dataDir := c.settings.DataDir
		if dataDir == "" && c.opts.ConfigDir != "" {
			dataDir = filepath.Join(c.opts.ConfigDir, "data")
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, store.Close)
		logger.Debug("store: %s", store.Path())
		c.cursors = store.CursorStore()
		c.schedules = store.SchedulerStore()
	}
	return nil
}

// openRemote creates the configured RemoteStorage provider.
func (c *container) openRemote() error {
	if c.remote != nil {
		return nil
	}

	switch c.settings.Provider {
	case domain.ProviderFilesystem:
		fs, err := filesystem.New(filesystem.Config{
			BaseDir:  c.settings.Filesystem.BaseDir,
			PageSize: c.settings.Filesystem.PageSize,
		})
		if err != nil {
			return err
		}
		c.remote, c.verifier, c.local = fs, fs, fs

	default:
		db, err := dropbox.New(dropbox.Config{Settings: c.settings.Dropbox})
		if err != nil {
			return err
		}
		c.remote, c.verifier = db, db
	}
	return nil
}
