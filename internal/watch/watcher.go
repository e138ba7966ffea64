// Package watch reports edits under a workspace so the current query can be
// re-run.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/altinukshini/fzsearch/internal/gitignore"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher emits one tick on Events per burst of file changes.
type Watcher struct {
	root     string
	globs    gitignore.Globs
	debounce time.Duration
	logger   *slog.Logger

	fsw    *fsnotify.Watcher
	events chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for root. Paths matched by globs are not watched and
// their changes are ignored.
func New(root string, globs gitignore.Globs, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		globs:    globs,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		events:   make(chan struct{}, 1),
	}, nil
}

// Events delivers a tick after changes settle. Ticks are coalesced while
// the receiver is busy.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Start adds watches for the workspace tree and begins processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop ends event processing and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".git" || filepath.Base(path) == ".git" {
		return true
	}
	return w.globs.Excludes(rel)
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handle(ev) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)
		case <-timer.C:
			select {
			case w.events <- struct{}{}:
			default:
			}
		}
	}
}

// handle reports whether ev should trigger a re-search.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addWatches(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "err", err)
			}
		}
	}
	w.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
	return true
}
