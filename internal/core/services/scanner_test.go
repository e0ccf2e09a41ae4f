package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

func file(path string) domain.Entry {
	return domain.Entry{Kind: domain.EntryKindFile, Path: path}
}

func TestDeltaScanner_Scan_ContinuesWithFreshCursor(t *testing.T) {
	storage := newMockStorage(
		&domain.ListingPage{Entries: []domain.Entry{file("/input/a.png")}, Cursor: "c1", HasMore: true},
		&domain.ListingPage{Entries: []domain.Entry{file("/input/b.png")}, Cursor: "c2", HasMore: false},
	)
	cursors := &mockCursorStore{}
	scanner := NewDeltaScanner(storage, cursors)
	summary := domain.NewRunSummary("req", domain.TriggerManual)

	var visited []string
	err := scanner.Scan(context.Background(), "/INPUT", "c0", summary, func(e domain.Entry) {
		visited = append(visited, e.Path)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, cursors.setCalls())

	calls := storage.listCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "c0", calls[0].cursor)
	assert.Equal(t, "c1", calls[1].cursor, "second call must use page 1's cursor")
	assert.Equal(t, "/INPUT", calls[0].root)

	assert.Equal(t, []string{"/input/a.png", "/input/b.png"}, visited)
	assert.Equal(t, 2, summary.PagesScanned)
	assert.Equal(t, 2, summary.EntriesSeen)
}

func TestDeltaScanner_Scan_InitialListingUsesEmptyCursor(t *testing.T) {
	storage := newMockStorage(&domain.ListingPage{Cursor: "c1"})
	cursors := &mockCursorStore{}
	scanner := NewDeltaScanner(storage, cursors)

	err := scanner.Scan(context.Background(), "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) {})

	require.NoError(t, err)
	calls := storage.listCalls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].cursor)
}

func TestDeltaScanner_Scan_PersistsCursorBeforeVisiting(t *testing.T) {
	storage := newMockStorage(
		&domain.ListingPage{Entries: []domain.Entry{file("/input/a.png")}, Cursor: "c1", HasMore: false},
	)
	cursors := &mockCursorStore{}
	scanner := NewDeltaScanner(storage, cursors)

	var seenAtVisit []string
	err := scanner.Scan(context.Background(), "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) {
		seenAtVisit = cursors.setCalls()
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, seenAtVisit)
}

func TestDeltaScanner_Scan_ClassifiesEntries(t *testing.T) {
	storage := newMockStorage(&domain.ListingPage{
		Entries: []domain.Entry{
			{Kind: domain.EntryKindFolder, Path: "/input/sub"},
			{Kind: domain.EntryKindDeleted, Path: "/input/old.png"},
			{Kind: domain.EntryKindFile, Path: ""},
			file("/input2/a.png"),
			file("/input/notes.txt"),
			file("/input/sub/photo.jpeg"),
			file("/input/b.webp"),
		},
		Cursor: "c1",
	})
	scanner := NewDeltaScanner(storage, &mockCursorStore{})
	summary := domain.NewRunSummary("r", domain.TriggerManual)

	var visited []string
	err := scanner.Scan(context.Background(), "/Input", "", summary, func(e domain.Entry) {
		visited = append(visited, e.Path)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"/input/sub/photo.jpeg", "/input/b.webp"}, visited)
	assert.Equal(t, 7, summary.EntriesSeen)
	assert.Equal(t, 5, summary.FilesScanned)
	assert.Equal(t, 2, summary.Skipped[domain.SkipNonFile])
	assert.Equal(t, 1, summary.Skipped[domain.SkipMissingPath])
	assert.Equal(t, 1, summary.Skipped[domain.SkipOutsideRoot])
	assert.Equal(t, 1, summary.Skipped[domain.SkipNonImage])
	assert.Equal(t, 5, summary.SkippedTotal)
}

func TestDeltaScanner_Scan_EmptyRoot(t *testing.T) {
	storage := newMockStorage(&domain.ListingPage{HasMore: false})
	cursors := &mockCursorStore{}
	scanner := NewDeltaScanner(storage, cursors)
	summary := domain.NewRunSummary("r", domain.TriggerManual)

	visits := 0
	err := scanner.Scan(context.Background(), "/input", "", summary, func(domain.Entry) { visits++ })

	require.NoError(t, err)
	assert.Zero(t, visits)
	assert.Equal(t, 1, summary.PagesScanned)
	assert.Zero(t, summary.EntriesSeen)
	assert.Empty(t, cursors.setCalls())
}

func TestDeltaScanner_Scan_ListingFailureIsScanError(t *testing.T) {
	storage := newMockStorage(
		&domain.ListingPage{Entries: []domain.Entry{file("/input/a.png")}, Cursor: "c1", HasMore: true},
	)
	storage.listErrAt = 2
	cursors := &mockCursorStore{}
	scanner := NewDeltaScanner(storage, cursors)

	visits := 0
	err := scanner.Scan(context.Background(), "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) { visits++ })

	require.Error(t, err)
	var scanErr *domain.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, 2, scanErr.Page)
	assert.Equal(t, 1, visits)
	assert.Equal(t, []string{"c1"}, cursors.setCalls(), "cursor stays at last persisted page")
}

func TestDeltaScanner_Scan_CursorWriteFailureAbortsBeforeVisiting(t *testing.T) {
	storage := newMockStorage(
		&domain.ListingPage{Entries: []domain.Entry{file("/input/a.png")}, Cursor: "c1"},
	)
	cursors := &mockCursorStore{setErr: errors.New("disk full")}
	scanner := NewDeltaScanner(storage, cursors)

	visits := 0
	err := scanner.Scan(context.Background(), "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) { visits++ })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, visits)
}

func TestDeltaScanner_Scan_HasMoreWithoutCursor(t *testing.T) {
	storage := newMockStorage(&domain.ListingPage{HasMore: true})
	scanner := NewDeltaScanner(storage, &mockCursorStore{})

	err := scanner.Scan(context.Background(), "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) {})

	require.Error(t, err)
	assert.True(t, domain.IsScanError(err))
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestDeltaScanner_Scan_CancelledContext(t *testing.T) {
	storage := newMockStorage(&domain.ListingPage{})
	scanner := NewDeltaScanner(storage, &mockCursorStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scanner.Scan(ctx, "/input", "", domain.NewRunSummary("r", domain.TriggerManual), func(domain.Entry) {})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, storage.listCalls())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		entry  domain.Entry
		reason domain.SkipReason
		ok     bool
	}{
		{"eligible", file("/input/a.png"), "", true},
		{"folder", domain.Entry{Kind: domain.EntryKindFolder, Path: "/input/a.png"}, domain.SkipNonFile, false},
		{"missing path", domain.Entry{Kind: domain.EntryKindFile}, domain.SkipMissingPath, false},
		{"outside root", file("/input2/a.png"), domain.SkipOutsideRoot, false},
		{"non image", file("/input/a.gif"), domain.SkipNonImage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := Classify(tt.entry, "/input")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
