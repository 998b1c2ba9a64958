// Package watch re-runs analysis when dataset files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/facet/pkg/config"
	"github.com/panbanda/facet/pkg/loader"
)

// DefaultDebounce is how long a file must stay quiet before the callback
// fires. Spreadsheet exports and editors write in bursts.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors dataset files for changes and triggers re-analysis.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	file      string // non-empty when watching a single file
	callback  func(path string)
	quiet     bool
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a watcher over a dataset file or a directory of
// dataset files.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		pending:   make(map[string]time.Time),
	}
	if !info.IsDir() {
		// Watch the parent directory; editors replace files on save and a
		// direct file watch breaks on the rename.
		abs, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		w.file = abs
		w.path = filepath.Dir(abs)
	}
	return w, nil
}

// SetCallback sets the function to call when a dataset file settles.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// SetQuiet suppresses the change banners around callbacks.
func (w *Watcher) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Start begins watching. It blocks until the context is cancelled or the
// watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if w.file != "" {
		if err := w.fsWatcher.Add(w.path); err != nil {
			return err
		}
	} else {
		err := filepath.Walk(w.path, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				for _, excluded := range w.config.Exclude.Dirs {
					if info.Name() == excluded {
						return filepath.SkipDir
					}
				}
				return w.fsWatcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if !w.quiet {
		color.Cyan("Watching for changes in %s...", w.path)
		color.Cyan("Press Ctrl+C to stop")
		fmt.Println()
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)
		}
	}
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name

	if w.file != "" {
		abs, err := filepath.Abs(path)
		if err != nil || abs != w.file {
			return
		}
	} else {
		if w.config.ShouldExclude(path) {
			return
		}
		if !loader.IsSupported(path) {
			return
		}
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced processes pending changes after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending fires callbacks for files quiet past the debounce period.
func (w *Watcher) processPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string

	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}

	for _, path := range ready {
		delete(w.pending, path)
		if w.callback != nil {
			go w.runCallback(path)
		}
	}
}

// runCallback executes the callback for a changed file.
func (w *Watcher) runCallback(path string) {
	if w.quiet {
		w.callback(path)
		return
	}

	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		relPath = path
	}

	color.Yellow("\nDataset changed: %s", relPath)
	fmt.Println(strings.Repeat("-", 40))

	w.callback(path)

	fmt.Println()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedPaths returns the watched directories.
func (w *Watcher) WatchedPaths() []string {
	return w.fsWatcher.WatchList()
}
