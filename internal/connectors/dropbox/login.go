package dropbox

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// AuthURL is the Dropbox OAuth2 authorization page.
const AuthURL = "https://www.dropbox.com/oauth2/authorize"

// Authorizer runs the authorization-code flow with PKCE that yields a
// long-lived refresh token.
type Authorizer struct {
	conf *oauth2.Config
}

// NewAuthorizer creates an authorizer for the app credentials in s.
func NewAuthorizer(s domain.DropboxSettings) (*Authorizer, error) {
	if strings.TrimSpace(s.AppKey) == "" || strings.TrimSpace(s.AppSecret) == "" {
		return nil, domain.NewMissingConfigError("DROPBOX_APP_KEY",
			"DROPBOX_APP_KEY and DROPBOX_APP_SECRET are required to log in")
	}
	return &Authorizer{conf: &oauth2.Config{
		ClientID:     s.AppKey,
		ClientSecret: s.AppSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}, nil
}

// AuthCodeURL returns the page the user approves access on.
func (a *Authorizer) AuthCodeURL(redirectURI, state, verifier string) string {
	conf := *a.conf
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("token_access_type", "offline"),
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades an authorization code for a refresh token.
func (a *Authorizer) Exchange(ctx context.Context, code, redirectURI, verifier string) (string, error) {
	conf := *a.conf
	conf.RedirectURL = redirectURI

	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", &domain.TransportError{
			Op:         "oauth2/token",
			Diagnostic: domain.ExtractDiagnostic(err, Extractors...),
			Err:        err,
		}
	}
	if token.RefreshToken == "" {
		return "", errors.New("no refresh token returned; check the app allows offline access")
	}
	return token.RefreshToken, nil
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}
