// Package watch re-runs work when scene snapshots or rule files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of editor writes into one change.
const DefaultDebounce = 100 * time.Millisecond

// ChangeFunc receives the paths that changed during one debounce window.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher observes a set of files and directories.
type Watcher struct {
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for paths. A path naming a directory matches every
// file directly inside it. Files are watched through their parent directory
// so that editors replacing the file by rename are still seen.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
		logger:   logger,
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && info.IsDir():
			w.dirs[abs] = true
		case err == nil || errors.Is(err, os.ErrNotExist):
			w.files[abs] = true
		default:
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
	}
	return w, nil
}

// Run blocks until ctx is done, calling fn after each debounced change.
// fn runs on the watcher goroutine, so changes are handled one at a time.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.watchDirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debug("watching", "dir", dir)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending []string
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.matches(name) {
				continue
			}
			if !slices.Contains(pending, name) {
				pending = append(pending, name)
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := pending
			pending = nil
			w.logger.Info("change detected", "files", changed)
			fn(ctx, changed)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(name string) bool {
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

func (w *Watcher) watchDirs() []string {
	set := make(map[string]bool)
	for f := range w.files {
		set[filepath.Dir(f)] = true
	}
	for d := range w.dirs {
		set[d] = true
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}
