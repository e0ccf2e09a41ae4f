package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run on local changes (filesystem provider)",
	Long: `Watches the input folder of the filesystem provider and runs a delta
pass whenever new files settle. One run is made at startup.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	processor, err := svc.Processor()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	run := func() {
		_, err := processor.RunOnce(ctx, domain.TriggerWatch, uuid.NewString())
		if err != nil {
			logger.Warn("watch run: %v", err)
		}
	}

	run()
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return svc.Watch(ctx, run)
}
