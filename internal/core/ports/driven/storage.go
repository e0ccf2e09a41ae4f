package driven

import (
	"context"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// RemoteStorage is the remote file namespace the delta run reads from and
// writes to.
type RemoteStorage interface {
	// ListChanges returns one listing page. With an empty cursor it starts a
	// recursive listing of root; otherwise it continues from cursor and root
	// is ignored.
	ListChanges(ctx context.Context, root, cursor string) (*domain.ListingPage, error)

	// Download fetches the contents of path.
	Download(ctx context.Context, path string) ([]byte, error)

	// Upload writes data to path, overwriting any existing file without
	// renaming on conflict.
	Upload(ctx context.Context, path string, data []byte) error
}

// AccountVerifier is implemented by storage providers that can check their
// credentials before the first run.
type AccountVerifier interface {
	// VerifyAccount returns a short description of the authenticated account.
	VerifyAccount(ctx context.Context) (string, error)
}
