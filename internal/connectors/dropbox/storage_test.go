package dropbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/ratelimit"
)

// fakeFiles records calls made through filesAPI.
type fakeFiles struct {
	mu           sync.Mutex
	listArgs     []*files.ListFolderArg
	continueArgs []*files.ListFolderContinueArg
	uploadArgs   []*files.UploadArg
	uploaded     [][]byte

	listResult *files.ListFolderResult
	content    map[string][]byte
	err        error
}

func (f *fakeFiles) ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listArgs = append(f.listArgs, arg)
	return f.listResult, f.err
}

func (f *fakeFiles) ListFolderContinue(arg *files.ListFolderContinueArg) (*files.ListFolderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continueArgs = append(f.continueArgs, arg)
	return f.listResult, f.err
}

func (f *fakeFiles) Download(arg *files.DownloadArg) (*files.FileMetadata, io.ReadCloser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &files.FileMetadata{}, io.NopCloser(bytes.NewReader(f.content[arg.Path])), nil
}

func (f *fakeFiles) Upload(arg *files.UploadArg, content io.Reader) (*files.FileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(content)
	f.uploadArgs = append(f.uploadArgs, arg)
	f.uploaded = append(f.uploaded, data)
	return &files.FileMetadata{}, nil
}

// fakeUsers returns queued errors before succeeding.
type fakeUsers struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	account *users.FullAccount
}

func (f *fakeUsers) GetCurrentAccount() (*users.FullAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.account, nil
}

func newTestStorage(fs *fakeFiles, us *fakeUsers) *Storage {
	return &Storage{
		limiter:       ratelimit.New(ratelimit.Config{}),
		verifyTimeout: 5 * time.Second,
		files:         func(context.Context) filesAPI { return fs },
		users:         func(context.Context) usersAPI { return us },
	}
}

func fileMeta(pathLower, pathDisplay string) *files.FileMetadata {
	m := &files.FileMetadata{Id: "id:" + pathLower, Rev: "rev1", Size: 42}
	m.PathLower = pathLower
	m.PathDisplay = pathDisplay
	return m
}

func TestNew_Credentials(t *testing.T) {
	tests := []struct {
		name    string
		s       domain.DropboxSettings
		wantKey string
	}{
		{"no credentials", domain.DropboxSettings{}, "DROPBOX_ACCESS_TOKEN"},
		{"refresh without app key", domain.DropboxSettings{RefreshToken: "r", AppSecret: "s"}, "DROPBOX_APP_KEY"},
		{"refresh without app secret", domain.DropboxSettings{RefreshToken: "r", AppKey: "k"}, "DROPBOX_APP_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{Settings: tt.s})
			require.Error(t, err)

			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}

	t.Run("access token", func(t *testing.T) {
		s, err := New(Config{Settings: domain.DropboxSettings{AccessToken: "t"}})
		require.NoError(t, err)
		assert.NotNil(t, s.files(context.Background()))
	})

	t.Run("refresh token", func(t *testing.T) {
		_, err := New(Config{Settings: domain.DropboxSettings{RefreshToken: "r", AppKey: "k", AppSecret: "s"}})
		require.NoError(t, err)
	})
}

func TestTokenSource_AccessToken(t *testing.T) {
	ts, err := TokenSource(context.Background(), domain.DropboxSettings{AccessToken: "abc", RefreshToken: ""})
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}

func TestHTTPClient_AuthorisesAndHonoursContext(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok", TokenType: "Bearer"})

	resp, err := httpClient(context.Background(), tokens, nil).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer tok", gotAuth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = httpClient(ctx, tokens, nil).Get(srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListChanges_Fresh(t *testing.T) {
	folder := &files.FolderMetadata{Id: "id:dir"}
	folder.PathLower = "/input/sub"
	deleted := &files.DeletedMetadata{}
	deleted.PathLower = "/input/gone.png"

	fs := &fakeFiles{listResult: &files.ListFolderResult{
		Entries: []files.IsMetadata{fileMeta("/input/a.png", "/INPUT/A.png"), folder, deleted},
		Cursor:  "c1",
		HasMore: true,
	}}
	s := newTestStorage(fs, nil)

	page, err := s.ListChanges(context.Background(), "/INPUT/", "")
	require.NoError(t, err)

	require.Len(t, fs.listArgs, 1)
	arg := fs.listArgs[0]
	assert.Equal(t, "/INPUT", arg.Path)
	assert.True(t, arg.Recursive)
	assert.False(t, arg.IncludeDeleted)
	assert.False(t, arg.IncludeNonDownloadableFiles)

	assert.Equal(t, "c1", page.Cursor)
	assert.True(t, page.HasMore)
	assert.Equal(t, []domain.Entry{
		{Kind: domain.EntryKindFile, Path: "/input/a.png", DisplayPath: "/INPUT/A.png", ID: "id:/input/a.png", Size: 42, Revision: "rev1"},
		{Kind: domain.EntryKindFolder, Path: "/input/sub", ID: "id:dir"},
		{Kind: domain.EntryKindDeleted, Path: "/input/gone.png"},
	}, page.Entries)
}

func TestListChanges_Continue(t *testing.T) {
	fs := &fakeFiles{listResult: &files.ListFolderResult{Cursor: "c2"}}
	s := newTestStorage(fs, nil)

	page, err := s.ListChanges(context.Background(), "/ignored", "c1")
	require.NoError(t, err)

	assert.Empty(t, fs.listArgs)
	require.Len(t, fs.continueArgs, 1)
	assert.Equal(t, "c1", fs.continueArgs[0].Cursor)
	assert.Equal(t, "c2", page.Cursor)
	assert.Empty(t, page.Entries)
}

func TestListChanges_EndpointError(t *testing.T) {
	fs := &fakeFiles{err: files.ListFolderAPIError{APIError: dropbox.APIError{ErrorSummary: "path/not_found/..."}}}
	s := newTestStorage(fs, nil)

	_, err := s.ListChanges(context.Background(), "/INPUT", "")
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "list_folder", transportErr.Op)
	assert.Equal(t, domain.Diagnostic{Status: 409, Tag: "path/not_found", Summary: "path/not_found/..."}, transportErr.Diagnostic)
}

func TestDownload(t *testing.T) {
	fs := &fakeFiles{content: map[string][]byte{"/input/a.png": []byte("png")}}
	s := newTestStorage(fs, nil)

	data, err := s.Download(context.Background(), "/input/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestDownload_Error(t *testing.T) {
	fs := &fakeFiles{err: files.DownloadAPIError{APIError: dropbox.APIError{ErrorSummary: "path/restricted_content/.."}}}
	s := newTestStorage(fs, nil)

	_, err := s.Download(context.Background(), "/input/a.png")
	require.Error(t, err)
	assert.Equal(t, "download /input/a.png: status=409 tag=path/restricted_content path/restricted_content/..", err.Error())
}

func TestUpload(t *testing.T) {
	fs := &fakeFiles{}
	s := newTestStorage(fs, nil)

	require.NoError(t, s.Upload(context.Background(), "/OUTPUT/a_ENHANCED.png", []byte("out")))

	require.Len(t, fs.uploadArgs, 1)
	arg := fs.uploadArgs[0]
	assert.Equal(t, "/OUTPUT/a_ENHANCED.png", arg.Path)
	require.NotNil(t, arg.Mode)
	assert.Equal(t, files.WriteModeOverwrite, arg.Mode.Tag)
	assert.False(t, arg.Autorename)
	assert.True(t, arg.Mute)
	assert.Equal(t, []byte("out"), fs.uploaded[0])
}

func TestRateLimitedSetsBackoff(t *testing.T) {
	fs := &fakeFiles{err: auth.RateLimitAPIError{
		APIError:       dropbox.APIError{ErrorSummary: "too_many_requests/.."},
		RateLimitError: &auth.RateLimitError{RetryAfter: 30},
	}}
	s := newTestStorage(fs, nil)

	err := s.Upload(context.Background(), "/OUTPUT/a.png", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusTooManyRequests, transportErr.Diagnostic.Status)

	until := time.Until(s.limiter.RetryAt())
	assert.Greater(t, until, 25*time.Second)
}

func TestVerifyAccount(t *testing.T) {
	t.Run("describes account", func(t *testing.T) {
		us := &fakeUsers{account: &users.FullAccount{Account: users.Account{
			Name:  &users.Name{DisplayName: "Ada Lovelace"},
			Email: "ada@example.com",
		}}}
		s := newTestStorage(nil, us)

		desc, err := s.VerifyAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace <ada@example.com>", desc)
		assert.Equal(t, 1, us.calls)
	})

	t.Run("does not retry auth failures", func(t *testing.T) {
		us := &fakeUsers{errs: []error{auth.AuthAPIError{
			APIError:  dropbox.APIError{ErrorSummary: "invalid_access_token/.."},
			AuthError: &auth.AuthError{Tagged: dropbox.Tagged{Tag: "invalid_access_token"}},
		}}}
		s := newTestStorage(nil, us)

		_, err := s.VerifyAccount(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, us.calls)

		var transportErr *domain.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "invalid_access_token", transportErr.Diagnostic.Tag)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		us := &fakeUsers{
			errs:    []error{dropbox.SDKInternalError{StatusCode: 503, Content: "unavailable"}},
			account: &users.FullAccount{Account: users.Account{Email: "ada@example.com"}},
		}
		s := newTestStorage(nil, us)

		desc, err := s.VerifyAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", desc)
		assert.Equal(t, 2, us.calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		us := &fakeUsers{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
		s := newTestStorage(nil, us)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.VerifyAccount(ctx)
		assert.Error(t, err)
	})
}

func TestExtractInternalError(t *testing.T) {
	d, ok := ExtractInternalError(dropbox.SDKInternalError{StatusCode: 500, Content: "boom"})
	require.True(t, ok)
	assert.Equal(t, domain.Diagnostic{Status: 500, Summary: "boom"}, d)

	_, ok = ExtractInternalError(errors.New("other"))
	assert.False(t, ok)
}

func TestSummaryTag(t *testing.T) {
	tests := map[string]string{
		"path/not_found/..":         "path/not_found",
		"path/not_found/...":        "path/not_found",
		"reset/..":                  "reset",
		"path/conflict/file/..":     "path/conflict/file",
		"too_many_write_operations": "too_many_write_operations",
	}
	for in, want := range tests {
		assert.Equal(t, want, summaryTag(in), in)
	}
}

func TestAPIPath(t *testing.T) {
	assert.Equal(t, "", apiPath("/"))
	assert.Equal(t, "", apiPath(""))
	assert.Equal(t, "/INPUT", apiPath("/INPUT/"))
	assert.Equal(t, "/INPUT", apiPath("INPUT"))
}

func TestWebURL(t *testing.T) {
	assert.Equal(t, "https://www.dropbox.com/home", WebURL("/"))
	assert.Equal(t, "https://www.dropbox.com/home/OUTPUT/a%20b.png", WebURL("/OUTPUT/a b.png"))
}
