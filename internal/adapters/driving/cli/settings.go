package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Shows the effective settings (config file merged with the environment)
or stores a single value in the config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the config file",
	Long: `Stores a single dot-separated key in the config file, for example:

  glowbox settings set processing.concurrency 8
  glowbox settings set enhancement.endpoint images.generate

Whole numbers are stored as integers. Environment variables still take
precedence over the file.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	settingsService, err := svc.Settings()
	if err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[General]")
	cmd.Printf("  Provider: %s\n", settings.Provider.Description())
	cmd.Printf("  Store: %s\n", settings.Store)
	if settings.RunInterval > 0 {
		cmd.Printf("  Run interval: %s\n", settings.RunInterval)
	} else {
		cmd.Printf("  Run interval: disabled\n")
	}
	cmd.Println()

	cmd.Println("[Processing]")
	cmd.Printf("  Input: %s\n", settings.Processing.InputPath)
	cmd.Printf("  Output: %s\n", settings.Processing.OutputPath)
	cmd.Printf("  Suffix: %s\n", settings.Processing.Suffix)
	cmd.Printf("  Concurrency: %d\n", settings.Processing.Concurrency)
	cmd.Println()

	cmd.Println("[Enhancement]")
	cmd.Printf("  Endpoint: %s\n", settings.Enhancement.Endpoint)
	cmd.Printf("  Model: %s\n", settings.Enhancement.Model)
	cmd.Printf("  Responses model: %s\n", settings.Enhancement.ResponsesModel)
	cmd.Printf("  Quality: %s\n", settings.Enhancement.Quality)
	format := settings.Enhancement.OutputFormat
	if format == "" {
		format = "(source extension)"
	}
	cmd.Printf("  Output format: %s\n", format)
	cmd.Println()

	cmd.Println("[Credentials]")
	if settings.Provider == domain.ProviderDropbox {
		cmd.Printf("  Dropbox auth: %s\n", settings.Dropbox.AuthMode())
		cmd.Printf("  Dropbox app secret: %s\n", maskSecret(settings.Dropbox.AppSecret))
	} else {
		cmd.Printf("  Base dir: %s\n", settings.Filesystem.BaseDir)
	}
	cmd.Printf("  OpenAI API key: %s\n", maskSecret(settings.OpenAI.APIKey))
	cmd.Println()

	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	settingsService, err := svc.Settings()
	if err != nil {
		return err
	}

	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("key must not be empty")
	}

	if err := settingsService.Set(key, parseValue(args[1])); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	cmd.Printf("Saved %s.\n", key)
	return nil
}

// parseValue stores whole numbers as integers and everything else verbatim.
func parseValue(s string) any {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return s
}

// maskSecret shows the first and last four characters of long secrets.
func maskSecret(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
