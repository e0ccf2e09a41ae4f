package cli

import (
	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset the stored listing cursor",
}

var cursorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a cursor is stored",
	RunE:  runCursorShow,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the stored cursor",
	Long: `Clears the stored cursor. The next run lists the input folder from
scratch and processes every eligible image in it again.`,
	RunE: runCursorReset,
}

func init() {
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
	rootCmd.AddCommand(cursorCmd)
}

func runCursorShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	cursors, err := svc.Cursor()
	if err != nil {
		return err
	}

	status, err := cursors.Status(cmd.Context())
	if err != nil {
		return err
	}
	if !status.Present {
		cmd.Println("No cursor stored. The next run lists from scratch.")
		return nil
	}
	cmd.Printf("Cursor: %s (%d bytes)\n", status.Cursor, status.Length)
	return nil
}

func runCursorReset(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	cursors, err := svc.Cursor()
	if err != nil {
		return err
	}

	if err := cursors.Reset(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Cursor cleared.")
	return nil
}
