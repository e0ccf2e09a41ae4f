package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/adapters/driving/oauth"
	"github.com/custodia-labs/glowbox/internal/core/services"
)

// loginTimeout bounds the wait for the browser redirect.
const loginTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Dropbox authorization",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize glowbox and store a refresh token",
	Long: `Opens the Dropbox consent page and stores the resulting refresh token
in the config file, so access never expires.

Requires DROPBOX_APP_KEY and DROPBOX_APP_SECRET. Register the redirect URI
printed below (http://localhost:53682/callback by default) on the app.`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().Bool("no-browser", false, "print the URL instead of opening a browser")
	authCmd.AddCommand(authLoginCmd)
	rootCmd.AddCommand(authCmd)
}

// loginDeps are replaced in tests.
var (
	openBrowser = oauth.OpenBrowser
	findPort    = func() (int, error) { return oauth.FindAvailablePort(oauth.DefaultPortStart, oauth.DefaultPortEnd) }
)

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	authorizer, err := svc.Authorizer()
	if err != nil {
		return err
	}
	settingsService, err := svc.Settings()
	if err != nil {
		return err
	}

	port, err := findPort()
	if err != nil {
		return err
	}
	state, err := oauth.NewState()
	if err != nil {
		return fmt.Errorf("generating state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	server := oauth.NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop() //nolint:errcheck

	authURL := authorizer.AuthCodeURL(server.RedirectURI(), state, verifier)
	cmd.Printf("Redirect URI: %s\n", server.RedirectURI())
	cmd.Printf("Open this URL to authorize:\n\n  %s\n\n", authURL)

	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); !noBrowser {
		if err := openBrowser(authURL); err != nil {
			cmd.Printf("Could not open a browser (%v); open the URL manually.\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return err
	}

	token, err := authorizer.Exchange(ctx, code, server.RedirectURI(), verifier)
	if err != nil {
		return fmt.Errorf("exchanging code: %w", err)
	}
	if token == "" {
		return errors.New("empty refresh token")
	}

	if err := settingsService.Set(services.KeyDropboxRefreshToken, token); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	cmd.Println("Authorized. Refresh token saved.")
	return nil
}
