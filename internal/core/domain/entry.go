package domain

// EntryKind classifies an item in a remote change feed.
type EntryKind string

const (
	// EntryKindFile is a regular file.
	EntryKindFile EntryKind = "file"

	// EntryKindFolder is a folder.
	EntryKindFolder EntryKind = "folder"

	// EntryKindDeleted marks a removed item.
	EntryKindDeleted EntryKind = "deleted"
)

// Entry is one remote item reported by a listing page.
type Entry struct {
	// Kind is file, folder or deleted.
	Kind EntryKind

	// Path is the lowercase-normalised remote path.
	Path string

	// DisplayPath preserves the original casing when the provider reports it.
	DisplayPath string

	// ID is the provider's stable identifier, if any.
	ID string

	// Size is the byte size for files.
	Size uint64

	// Revision is the provider's content revision, if any.
	Revision string
}

// ListingPage is the result of one pagination call.
type ListingPage struct {
	// Entries are in listing order.
	Entries []Entry

	// Cursor continues the listing after this page. Empty means none was returned.
	Cursor string

	// HasMore reports whether another page is available.
	HasMore bool
}
