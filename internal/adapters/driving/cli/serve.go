package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/glowbox/internal/adapters/driving/webhook"
	"github.com/custodia-labs/glowbox/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts the HTTP trigger server:

  GET  /dropbox/webhook   verification challenge
  POST /dropbox/webhook   signed change notification, runs in the background
  POST /run               manual run, returns the summary
  GET  /health            liveness
  GET  /metrics           Prometheus metrics

When run.interval is set, a scheduler also triggers periodic runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "listen port (default: configured port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
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
		return fmt.Errorf("loading settings: %w", err)
	}
	processor, err := svc.Processor()
	if err != nil {
		return err
	}
	scheduler, err := svc.Scheduler()
	if err != nil {
		return err
	}

	account, err := svc.VerifyAccount(cmd.Context())
	if err != nil {
		return fmt.Errorf("verifying account: %w", err)
	}
	logger.Info("connected as %s", account)

	port := settings.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	cfg := webhook.Config{
		Addr:      fmt.Sprintf(":%d", port),
		AppSecret: settings.Dropbox.AppSecret,
	}
	if m := svc.Metrics(); m != nil {
		cfg.Metrics = m.Handler()
		cfg.OnBusy = m.RunRejected
	}
	server := webhook.NewServer(processor, cfg)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return server.ListenAndServe(ctx) })
	g.Go(func() error {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	cmd.Printf("Listening on http://localhost:%d\n", port)
	err = g.Wait()
	if stopErr := scheduler.Stop(); stopErr != nil {
		logger.Warn("stopping scheduler: %v", stopErr)
	}
	return err
}
