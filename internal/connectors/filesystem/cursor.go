package filesystem

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

const (
	cursorVersion = 2

	// legacyCursorVersion cursors hold only the newest (mtime, path) reported.
	legacyCursorVersion = 1
)

// position is the decoded form of a listing cursor. Seen maps every path
// already reported to the revision it was reported at.
type position struct {
	V     int               `json:"v"`
	Root  string            `json:"root"`
	Seen  map[string]string `json:"seen,omitempty"`
	Since int64             `json:"since,omitempty"`
	After string            `json:"after,omitempty"`
}

// reported reports whether path was already listed at revision rev.
func (p position) reported(path, rev string) bool {
	seen, ok := p.Seen[path]
	return ok && seen == rev
}

// covers reports whether the file at (mtime, path) sorts at or before the
// high-water mark of a legacy cursor.
func (p position) covers(mtime int64, path string) bool {
	if mtime != p.Since {
		return mtime < p.Since
	}
	return path <= p.After
}

// upgrade converts a legacy cursor by marking everything at or before its
// high-water mark as reported.
func (p *position) upgrade(items []listed) {
	if p.V != legacyCursorVersion {
		return
	}
	p.Seen = make(map[string]string)
	for _, it := range items {
		if p.covers(it.mtime, it.entry.Path) {
			p.Seen[it.entry.Path] = it.entry.Revision
		}
	}
	p.V, p.Since, p.After = cursorVersion, 0, ""
}

func encodeCursor(p position) string {
	p.V = cursorVersion
	raw, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(cursor string) (position, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return position{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	var p position
	if err := json.Unmarshal(raw, &p); err != nil {
		return position{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	if p.V != cursorVersion && p.V != legacyCursorVersion {
		return position{}, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidCursor, p.V)
	}
	return p, nil
}
