package domain

// CursorStatus describes the stored delta cursor.
type CursorStatus struct {
	// Present is false when the next run starts a fresh listing.
	Present bool `json:"present"`

	// Cursor is the opaque token, abbreviated for display.
	Cursor string `json:"cursor,omitempty"`

	// Length is the full token length in bytes.
	Length int `json:"length"`
}

// cursorPreviewLen is how much of a cursor Abbreviate keeps on each side.
const cursorPreviewLen = 12

// NewCursorStatus builds a status for cursor. An empty cursor is absent.
func NewCursorStatus(cursor string) *CursorStatus {
	if cursor == "" {
		return &CursorStatus{}
	}
	return &CursorStatus{Present: true, Cursor: AbbreviateCursor(cursor), Length: len(cursor)}
}

// AbbreviateCursor shortens long opaque tokens to head...tail.
func AbbreviateCursor(cursor string) string {
	if len(cursor) <= 2*cursorPreviewLen+3 {
		return cursor
	}
	return cursor[:cursorPreviewLen] + "..." + cursor[len(cursor)-cursorPreviewLen:]
}
