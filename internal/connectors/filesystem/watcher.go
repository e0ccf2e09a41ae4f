package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/glowbox/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before a
// watcher fires.
const DefaultDebounce = 2 * time.Second

// Watcher reports settled bursts of file changes beneath a directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
}

// NewWatcher watches the remote root and every non-hidden directory below it.
func (s *Storage) NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	dir, err := s.resolve(root)
	if err != nil {
		return nil, s.transportError("watch", root, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{watcher: fw, dir: dir, debounce: debounce}
	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return w, nil
}

// Run calls onChange once per settled burst of relevant events until ctx
// is cancelled. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				logger.Debug("watch: %s %s", event.Op, event.Name)
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			onChange()
		}
	}
}

// Close stops watching without waiting for Run.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// handleEvent reports whether event could introduce a new or changed
// file. Newly created directories are added to the watch set.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("watch: cannot add %s: %v", event.Name, err)
			}
		}
	}
	return true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}
