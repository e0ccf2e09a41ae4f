package filesystem

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// Ensure Storage implements the interfaces.
var (
	_ driven.RemoteStorage   = (*Storage)(nil)
	_ driven.AccountVerifier = (*Storage)(nil)
)

// DefaultPageSize bounds entries per listing page when unset.
const DefaultPageSize = 500

// Config configures the filesystem provider.
type Config struct {
	// BaseDir is the local directory standing in for the remote root.
	BaseDir string

	// PageSize bounds entries per listing page.
	PageSize int
}

// Storage serves a local directory tree as a cursor-paginated change feed.
type Storage struct {
	base     string
	pageSize int
}

// listed is one walked item with its sort key.
type listed struct {
	mtime int64
	entry domain.Entry
}

// New creates a filesystem provider rooted at cfg.BaseDir.
func New(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, domain.NewMissingConfigError("filesystem.base_dir", "required when provider is filesystem")
	}
	base, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Storage{base: base, pageSize: cfg.PageSize}, nil
}

// BaseDir returns the absolute base directory.
func (s *Storage) BaseDir() string {
	return s.base
}

// VerifyAccount checks that the base directory exists.
func (s *Storage) VerifyAccount(_ context.Context) (string, error) {
	info, err := os.Stat(s.base)
	if err != nil {
		return "", s.transportError("verify", "/", err)
	}
	if !info.IsDir() {
		return "", s.transportError("verify", "/", fmt.Errorf("%s is not a directory", s.base))
	}
	return "local directory " + s.base, nil
}

// ListChanges returns files and folders beneath root that the cursor has
// not reported at their current revision, oldest first. Paths that no
// longer exist are dropped from the cursor.
func (s *Storage) ListChanges(ctx context.Context, root, cursor string) (*domain.ListingPage, error) {
	op := "list_folder"
	pos := position{Root: cleanRemote(root)}
	if cursor != "" {
		op = "list_folder/continue"
		p, err := decodeCursor(cursor)
		if err != nil {
			return nil, s.transportError(op, "", err)
		}
		pos = p
	}

	dir, err := s.resolve(pos.Root)
	if err != nil {
		return nil, s.transportError(op, pos.Root, err)
	}

	items, err := s.walk(ctx, dir)
	if err != nil {
		return nil, s.transportError(op, pos.Root, err)
	}
	slices.SortFunc(items, func(a, b listed) int {
		if c := cmp.Compare(a.mtime, b.mtime); c != 0 {
			return c
		}
		return strings.Compare(a.entry.Path, b.entry.Path)
	})

	pos.upgrade(items)

	next := position{Root: pos.Root, Seen: make(map[string]string, len(items))}
	for _, it := range items {
		if rev, ok := pos.Seen[it.entry.Path]; ok {
			next.Seen[it.entry.Path] = rev
		}
	}

	page := &domain.ListingPage{}
	for _, it := range items {
		if pos.reported(it.entry.Path, it.entry.Revision) {
			continue
		}
		if len(page.Entries) == s.pageSize {
			page.HasMore = true
			break
		}
		page.Entries = append(page.Entries, it.entry)
		next.Seen[it.entry.Path] = it.entry.Revision
	}
	page.Cursor = encodeCursor(next)

	logger.Debug("filesystem: %s %s -> %d entries (has_more=%t)", op, pos.Root, len(page.Entries), page.HasMore)
	return page, nil
}

// Download reads the file at remote path p. Path matching falls back to
// case-insensitive lookup so lowercase listing paths resolve.
func (s *Storage) Download(_ context.Context, p string) ([]byte, error) {
	local, err := s.resolve(p)
	if err != nil {
		return nil, s.transportError("download", p, err)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, s.transportError("download", p, err)
	}
	return data, nil
}

// Upload writes data to remote path p through a temporary file and rename,
// replacing any existing file.
func (s *Storage) Upload(_ context.Context, p string, data []byte) error {
	target := s.localPath(p)
	if err := writeAtomic(target, data); err != nil {
		return s.transportError("upload", p, err)
	}
	return nil
}

func (s *Storage) walk(ctx context.Context, dir string) ([]listed, error) {
	var items []listed
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		kind := domain.EntryKindFile
		switch {
		case d.IsDir():
			kind = domain.EntryKindFolder
		case !d.Type().IsRegular():
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		rel, err := filepath.Rel(s.base, p)
		if err != nil {
			return err
		}
		display := "/" + filepath.ToSlash(rel)
		entry := domain.Entry{
			Kind:        kind,
			Path:        strings.ToLower(display),
			DisplayPath: display,
		}
		if kind == domain.EntryKindFile {
			entry.Size = uint64(info.Size())
			entry.Revision = strconv.FormatInt(info.ModTime().UnixNano(), 36)
		}
		items = append(items, listed{mtime: info.ModTime().UnixNano(), entry: entry})
		return nil
	})
	return items, err
}

// localPath maps a remote path beneath the base directory.
func (s *Storage) localPath(p string) string {
	return filepath.Join(s.base, filepath.FromSlash(cleanRemote(p)))
}

// resolve finds the local file for a remote path, matching each element
// case-insensitively when the exact name does not exist.
func (s *Storage) resolve(p string) (string, error) {
	exact := s.localPath(p)
	if _, err := os.Lstat(exact); err == nil {
		return exact, nil
	}

	cur := s.base
	for _, seg := range strings.Split(strings.Trim(cleanRemote(p), "/"), "/") {
		if seg == "" {
			continue
		}
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", err
		}
		idx := slices.IndexFunc(entries, func(e fs.DirEntry) bool {
			return strings.EqualFold(e.Name(), seg)
		})
		if idx < 0 {
			return "", &fs.PathError{Op: "open", Path: exact, Err: fs.ErrNotExist}
		}
		cur = filepath.Join(cur, entries[idx].Name())
	}
	return cur, nil
}

func (s *Storage) transportError(op, p string, err error) error {
	return &domain.TransportError{
		Op:         op,
		Path:       p,
		Diagnostic: domain.ExtractDiagnostic(err, ExtractDiagnostic),
		Err:        err,
	}
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".glowbox-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// cleanRemote normalises a remote path to a rooted, slash-separated form
// that cannot climb above "/".
func cleanRemote(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

// isHidden reports whether a base name is a dotfile. "." and ".." are not hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ExtractDiagnostic maps local filesystem errors onto provider-style tags.
func ExtractDiagnostic(err error) (domain.Diagnostic, bool) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.Diagnostic{Tag: "path/not_found"}, true
	case errors.Is(err, fs.ErrPermission):
		return domain.Diagnostic{Tag: "path/no_permission"}, true
	case errors.Is(err, domain.ErrInvalidCursor):
		return domain.Diagnostic{Tag: "reset"}, true
	default:
		return domain.Diagnostic{}, false
	}
}
