// Package cli provides the glowbox command line interface.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipServices marks commands that run without the application services.
const skipServices = "skip-services"

// Options carries the global flags to the composition root.
type Options struct {
	Verbose   bool
	ConfigDir string
	LogFile   string

	// EnvOnly ignores the config file and reads the environment only.
	EnvOnly bool
}

// Metrics is the observability surface the triggers use.
type Metrics interface {
	// Handler serves the metrics scrape endpoint.
	Handler() http.Handler

	// RunRejected counts a trigger that found a run in progress.
	RunRejected(trigger domain.Trigger)
}

// Authorizer runs the browser authorization flow for the remote provider.
type Authorizer interface {
	// AuthCodeURL returns the consent page for the PKCE flow.
	AuthCodeURL(redirectURI, state, verifier string) string

	// Exchange trades the callback code for a refresh token.
	Exchange(ctx context.Context, code, redirectURI, verifier string) (string, error)
}

// Services is implemented by the composition root. Accessors build their
// component on first use, so a command only needs the configuration its
// components require.
type Services interface {
	Settings() (driving.SettingsService, error)
	Processor() (driving.DeltaProcessor, error)
	Cursor() (driving.CursorService, error)
	Scheduler() (driving.Scheduler, error)

	Authorizer() (Authorizer, error)

	// Metrics returns nil when metrics are disabled.
	Metrics() Metrics

	// VerifyAccount checks remote credentials and describes the account.
	VerifyAccount(ctx context.Context) (string, error)

	// Watch calls onChange after local changes under the input folder
	// settle. It blocks until ctx is cancelled.
	Watch(ctx context.Context, onChange func()) error

	Close() error
}

// Factory builds Services from the global flags.
type Factory func(opts Options) (Services, error)

var (
	opts        Options
	newServices Factory
	services    Services
)

var rootCmd = &cobra.Command{
	Use:   "glowbox",
	Short: "Enhance new Dropbox images with OpenAI",
	Long: `glowbox watches a Dropbox folder for new images, enhances each one with
the OpenAI image API and uploads the result to an output folder.

Runs are incremental: a stored listing cursor means only files added
since the previous run are processed.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "configuration directory (default ~/.glowbox)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&opts.EnvOnly, "env-only", false, "ignore the config file and read settings from the environment")
}

// Execute runs the root command with the given service factory.
func Execute(ctx context.Context, factory Factory, buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	newServices = factory
	defer func() {
		if services != nil {
			if err := services.Close(); err != nil {
				logger.Warn("closing services: %v", err)
			}
			services = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)

	if cmd.Annotations[skipServices] == "true" || services != nil {
		return nil
	}
	if newServices == nil {
		return errors.New("services not configured")
	}

	s, err := newServices(opts)
	if err != nil {
		return err
	}
	services = s
	return nil
}

// requireServices returns the wired services or a clear error.
func requireServices() (Services, error) {
	if services == nil {
		return nil, errors.New("services not configured")
	}
	return services, nil
}
