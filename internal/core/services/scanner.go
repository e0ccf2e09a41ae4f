package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// DeltaScanner pages through a remote change feed, advancing the cursor
// store as each page is consumed and handing eligible entries to a visitor.
type DeltaScanner struct {
	storage driven.RemoteStorage
	cursors driven.CursorStore
}

// NewDeltaScanner creates a scanner over storage that persists into cursors.
func NewDeltaScanner(storage driven.RemoteStorage, cursors driven.CursorStore) *DeltaScanner {
	return &DeltaScanner{
		storage: storage,
		cursors: cursors,
	}
}

// Scan lists root (or continues from startCursor when it is non-empty) until
// the feed reports no more pages. visit is called for each eligible entry in
// listing order. Counters on summary are updated as pages are consumed.
//
// A page's cursor is persisted before any of that page's entries are
// visited. Listing failures are returned as *domain.ScanError.
func (s *DeltaScanner) Scan(
	ctx context.Context,
	root, startCursor string,
	summary *domain.RunSummary,
	visit func(domain.Entry),
) error {
	rootLower := strings.ToLower(root)
	cursor := startCursor

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return &domain.ScanError{Page: page, Err: err}
		}

		listing, err := s.storage.ListChanges(ctx, root, cursor)
		if err != nil {
			return &domain.ScanError{Page: page, Err: err}
		}
		summary.PagesScanned++

		if listing.Cursor != "" {
			if err := s.cursors.Set(ctx, listing.Cursor); err != nil {
				return fmt.Errorf("persisting cursor for page %d: %w", page, err)
			}
			cursor = listing.Cursor
			logger.Debug("scan: page %d cursor persisted (%d entries, has_more=%t)",
				page, len(listing.Entries), listing.HasMore)
		}

		for _, entry := range listing.Entries {
			summary.EntriesSeen++
			if entry.Kind == domain.EntryKindFile {
				summary.FilesScanned++
			}

			if reason, ok := Classify(entry, rootLower); !ok {
				summary.RecordSkip(reason)
				continue
			}
			visit(entry)
		}

		if !listing.HasMore {
			return nil
		}
		if listing.Cursor == "" {
			return &domain.ScanError{
				Page: page,
				Err:  fmt.Errorf("listing reported more entries without a cursor: %w", domain.ErrInvalidCursor),
			}
		}
	}
}

// Classify decides whether entry is eligible for enhancement. When it is
// not, the first failing check is returned as the skip reason.
func Classify(entry domain.Entry, rootLower string) (domain.SkipReason, bool) {
	switch {
	case entry.Kind != domain.EntryKindFile:
		return domain.SkipNonFile, false
	case entry.Path == "":
		return domain.SkipMissingPath, false
	case !domain.IsInsideRoot(entry.Path, rootLower):
		return domain.SkipOutsideRoot, false
	case !domain.IsEligibleImagePath(entry.Path):
		return domain.SkipNonImage, false
	default:
		return "", true
	}
}
