package dropbox

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// TokenURL is the Dropbox OAuth2 token endpoint.
const TokenURL = "https://api.dropboxapi.com/oauth2/token"

// TokenSource builds an OAuth2 token source for the configured auth mode.
// A refresh token takes precedence over an access token.
func TokenSource(ctx context.Context, s domain.DropboxSettings) (oauth2.TokenSource, error) {
	if s.UsesRefreshToken() {
		if s.AppKey == "" || s.AppSecret == "" {
			return nil, domain.NewMissingConfigError("DROPBOX_APP_KEY",
				"Missing DROPBOX_APP_KEY or DROPBOX_APP_SECRET for refresh auth (required with DROPBOX_REFRESH_TOKEN)")
		}
		conf := &oauth2.Config{
			ClientID:     s.AppKey,
			ClientSecret: s.AppSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.RefreshToken}), nil
	}

	if s.AccessToken == "" {
		return nil, domain.NewMissingConfigError("DROPBOX_ACCESS_TOKEN",
			"Missing Dropbox auth: set DROPBOX_ACCESS_TOKEN or set DROPBOX_REFRESH_TOKEN + DROPBOX_APP_KEY + DROPBOX_APP_SECRET")
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer"}), nil
}

// contextTransport binds every request to ctx. The Dropbox SDK has no
// per-call context, so a client is built per call around this transport.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// httpClient returns a client that authorises with tokens and honours ctx.
func httpClient(ctx context.Context, tokens oauth2.TokenSource, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: tokens,
			Base:   &contextTransport{ctx: ctx, base: base},
		},
	}
}
