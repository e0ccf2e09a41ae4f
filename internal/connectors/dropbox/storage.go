package dropbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/logger"
	"github.com/custodia-labs/glowbox/internal/ratelimit"
)

// Ensure Storage implements the interfaces.
var (
	_ driven.RemoteStorage   = (*Storage)(nil)
	_ driven.AccountVerifier = (*Storage)(nil)
)

// filesAPI is the subset of files.Client used here.
type filesAPI interface {
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
	ListFolderContinue(arg *files.ListFolderContinueArg) (*files.ListFolderResult, error)
	Download(arg *files.DownloadArg) (*files.FileMetadata, io.ReadCloser, error)
	Upload(arg *files.UploadArg, content io.Reader) (*files.FileMetadata, error)
}

// usersAPI is the subset of users.Client used here.
type usersAPI interface {
	GetCurrentAccount() (*users.FullAccount, error)
}

// Config configures the Dropbox provider.
type Config struct {
	// Settings carries the credentials.
	Settings domain.DropboxSettings

	// RateLimit overrides ratelimit.Dropbox when non-zero.
	RateLimit ratelimit.Config

	// Transport is the base HTTP transport (default: http.DefaultTransport).
	Transport http.RoundTripper

	// VerifyTimeout bounds boot-time account verification retries (default: 1m).
	VerifyTimeout time.Duration
}

// Storage implements RemoteStorage over the Dropbox API.
type Storage struct {
	limiter       *ratelimit.Limiter
	verifyTimeout time.Duration

	files func(ctx context.Context) filesAPI
	users func(ctx context.Context) usersAPI
}

// New validates credentials and creates the Dropbox provider.
// Missing credentials are returned as *domain.ConfigurationError.
func New(cfg Config) (*Storage, error) {
	tokens, err := TokenSource(context.Background(), cfg.Settings)
	if err != nil {
		return nil, err
	}
	tokens = oauth2.ReuseTokenSource(nil, tokens)

	if cfg.RateLimit == (ratelimit.Config{}) {
		cfg.RateLimit = ratelimit.Dropbox
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = time.Minute
	}

	sdkConfig := func(ctx context.Context) dropbox.Config {
		return dropbox.Config{
			LogLevel: dropbox.LogOff,
			Client:   httpClient(ctx, tokens, cfg.Transport),
		}
	}

	return &Storage{
		limiter:       ratelimit.New(cfg.RateLimit),
		verifyTimeout: cfg.VerifyTimeout,
		files:         func(ctx context.Context) filesAPI { return files.New(sdkConfig(ctx)) },
		users:         func(ctx context.Context) usersAPI { return users.New(sdkConfig(ctx)) },
	}, nil
}

// ListChanges starts a recursive listing of root, or continues from cursor.
func (s *Storage) ListChanges(ctx context.Context, root, cursor string) (*domain.ListingPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		res *files.ListFolderResult
		err error
		op  string
	)
	if cursor == "" {
		op = "list_folder"
		arg := files.NewListFolderArg(apiPath(root))
		arg.Recursive = true
		arg.IncludeDeleted = false
		arg.IncludeNonDownloadableFiles = false
		res, err = s.files(ctx).ListFolder(arg)
	} else {
		op = "list_folder/continue"
		res, err = s.files(ctx).ListFolderContinue(files.NewListFolderContinueArg(cursor))
	}
	if err != nil {
		return nil, s.transportError(op, root, err)
	}

	page := &domain.ListingPage{
		Entries: make([]domain.Entry, 0, len(res.Entries)),
		Cursor:  res.Cursor,
		HasMore: res.HasMore,
	}
	for _, md := range res.Entries {
		page.Entries = append(page.Entries, toEntry(md))
	}

	logger.Debug("dropbox: %s -> %d entries (has_more=%t)", op, len(page.Entries), page.HasMore)
	return page, nil
}

// Download fetches the file at path.
func (s *Storage) Download(ctx context.Context, path string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	_, content, err := s.files(ctx).Download(files.NewDownloadArg(path))
	if err != nil {
		return nil, s.transportError("download", path, err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, s.transportError("download", path, err)
	}
	return data, nil
}

// Upload writes data to path in overwrite mode, without autorename and
// without notifying the user's devices.
func (s *Storage) Upload(ctx context.Context, path string, data []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	arg.Autorename = false
	arg.Mute = true

	if _, err := s.files(ctx).Upload(arg, bytes.NewReader(data)); err != nil {
		return s.transportError("upload", path, err)
	}

	logger.Debug("dropbox: uploaded %d bytes to %s", len(data), WebURL(path))
	return nil
}

// VerifyAccount checks the credentials with users/get_current_account,
// retrying transient failures with exponential backoff. Authentication
// failures are not retried.
func (s *Storage) VerifyAccount(ctx context.Context) (string, error) {
	var account *users.FullAccount

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = s.verifyTimeout

	operation := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		res, err := s.users(ctx).GetCurrentAccount()
		if err != nil {
			wrapped := s.transportError("get_current_account", "", err)
			if d, ok := ExtractAuthError(err); ok && d.Status == http.StatusUnauthorized {
				return backoff.Permanent(wrapped)
			}
			logger.Warn("dropbox: account check failed, will retry: %v", wrapped)
			return wrapped
		}
		account = res
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return describeAccount(account), nil
}

func (s *Storage) transportError(op, path string, err error) error {
	if secs, ok := retryAfter(err); ok {
		s.limiter.Backoff(time.Duration(secs) * time.Second)
		err = fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return &domain.TransportError{
		Op:         op,
		Path:       path,
		Diagnostic: domain.ExtractDiagnostic(err, Extractors...),
		Err:        err,
	}
}

func toEntry(md files.IsMetadata) domain.Entry {
	switch m := md.(type) {
	case *files.FileMetadata:
		return domain.Entry{
			Kind:        domain.EntryKindFile,
			Path:        m.PathLower,
			DisplayPath: m.PathDisplay,
			ID:          m.Id,
			Size:        m.Size,
			Revision:    m.Rev,
		}
	case *files.FolderMetadata:
		return domain.Entry{
			Kind:        domain.EntryKindFolder,
			Path:        m.PathLower,
			DisplayPath: m.PathDisplay,
			ID:          m.Id,
		}
	case *files.DeletedMetadata:
		return domain.Entry{
			Kind:        domain.EntryKindDeleted,
			Path:        m.PathLower,
			DisplayPath: m.PathDisplay,
		}
	default:
		return domain.Entry{}
	}
}

// apiPath maps a root folder onto the API form: the namespace root is "".
func apiPath(root string) string {
	root = strings.TrimRight(strings.TrimSpace(root), "/")
	if root == "" {
		return ""
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	return root
}

func describeAccount(a *users.FullAccount) string {
	if a == nil {
		return ""
	}
	name := ""
	if a.Name != nil {
		name = a.Name.DisplayName
	}
	switch {
	case name != "" && a.Email != "":
		return fmt.Sprintf("%s <%s>", name, a.Email)
	case a.Email != "":
		return a.Email
	default:
		return name
	}
}

// WebURL returns the Dropbox web link for a path.
func WebURL(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "https://www.dropbox.com/home"
	}
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "https://www.dropbox.com/home/" + strings.Join(segments, "/")
}
