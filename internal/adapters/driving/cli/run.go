package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process everything new since the last run",
	Long: `Runs one delta pass: lists changes since the stored cursor, enhances
each new image under the input folder and uploads the result to the
output folder. Prints the run summary when done.`,
	RunE: runDelta,
}

func init() {
	runCmd.Flags().String("trigger", string(domain.TriggerManual), "trigger recorded in the summary")
	runCmd.Flags().Bool("json", false, "print the summary as JSON")
	runCmd.Flags().Bool("skip-verify", false, "skip the account check before running")
	rootCmd.AddCommand(runCmd)
}

func runDelta(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	processor, err := svc.Processor()
	if err != nil {
		return err
	}

	trigger, _ := cmd.Flags().GetString("trigger")
	asJSON, _ := cmd.Flags().GetBool("json")
	skipVerify, _ := cmd.Flags().GetBool("skip-verify")

	if !skipVerify {
		account, err := svc.VerifyAccount(cmd.Context())
		if err != nil {
			return fmt.Errorf("verifying account: %w", err)
		}
		cmd.Printf("Connected as %s\n", account)
	}

	summary, err := processor.RunOnce(cmd.Context(), domain.Trigger(trigger), uuid.NewString())
	if summary != nil {
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(summary); encErr != nil {
				return encErr
			}
		} else {
			printSummary(cmd, summary)
		}
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	cmd.Printf("Run %s (%s)\n", s.RequestID, s.Trigger)
	cmd.Printf("  Continued from cursor: %t\n", s.StartCursorPresent)
	cmd.Printf("  Pages scanned:  %d\n", s.PagesScanned)
	cmd.Printf("  Entries seen:   %d\n", s.EntriesSeen)
	cmd.Printf("  Files scanned:  %d\n", s.FilesScanned)
	cmd.Printf("  Skipped:        %d\n", s.SkippedTotal)
	for _, reason := range domain.SkipReasons {
		if n := s.Skipped[reason]; n > 0 {
			cmd.Printf("    %-16s %d\n", reason, n)
		}
	}
	cmd.Printf("  Enqueued:       %d\n", s.EnqueuedJobs)
	cmd.Printf("  Succeeded:      %d\n", s.SucceededJobs)
	cmd.Printf("  Failed:         %d\n", s.FailedJobs)
	cmd.Printf("  Duration:       %s\n", s.Duration.Round(time.Millisecond))
}
