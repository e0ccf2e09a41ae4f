//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func callback(t *testing.T, server *CallbackServer, params url.Values) (int, string) {
	t.Helper()
	resp, err := http.Get(server.RedirectURI() + "?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewCallbackServer(t *testing.T) {
	server := NewCallbackServer(8080, "state-123")

	assert.Equal(t, 8080, server.Port())
	assert.Equal(t, "http://localhost:8080/callback", server.RedirectURI())
}

func TestCallbackServer_StartPicksPort(t *testing.T) {
	server := startServer(t, "s")

	assert.NotZero(t, server.Port())
}

func TestCallbackServer_PortInUse(t *testing.T) {
	first := startServer(t, "s")

	second := NewCallbackServer(first.Port(), "s")
	err := second.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestCallbackServer_ReceivesCode(t *testing.T) {
	server := startServer(t, "good-state")

	status, body := callback(t, server, url.Values{"state": {"good-state"}, "code": {"auth-code"}})

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Authorization successful")

	code, err := server.WaitForCode(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "auth-code", code)
}

func TestCallbackServer_Failures(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		status  int
		wantErr string
	}{
		{
			name:    "state mismatch",
			params:  url.Values{"state": {"other"}, "code": {"c"}},
			status:  http.StatusBadRequest,
			wantErr: "state mismatch",
		},
		{
			name:    "missing code",
			params:  url.Values{"state": {"good-state"}},
			status:  http.StatusBadRequest,
			wantErr: "no authorization code",
		},
		{
			name:    "provider error",
			params:  url.Values{"error": {"access_denied"}, "error_description": {"The user chose not to give your app access."}},
			status:  http.StatusOK,
			wantErr: "access_denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, "good-state")

			status, body := callback(t, server, tt.params)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, "Authorization failed")

			_, err := server.WaitForCode(waitCtx(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCallbackServer_EscapesProviderText(t *testing.T) {
	server := startServer(t, "s")

	_, body := callback(t, server, url.Values{"error": {"x"}, "error_description": {"<script>alert(1)</script>"}})

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestCallbackServer_WaitCancelled(t *testing.T) {
	server := startServer(t, "s")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := server.WaitForCode(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewCallbackServer(0, "s").Stop())
}

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort(DefaultPortStart, DefaultPortEnd)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, DefaultPortStart)
	assert.LessOrEqual(t, port, DefaultPortEnd)
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
