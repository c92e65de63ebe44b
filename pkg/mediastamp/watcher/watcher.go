// Package watcher triggers a callback when photo or video files appear or
// change in a single directory. Bursts of events are debounced into one call.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
)

// ErrNotDirectory is returned by New when the path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Filter reports whether an event for path should trigger a run.
type Filter func(path string) bool

// triggerOps are the operations that can introduce or change a media file.
const triggerOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// Watcher watches one directory, without descending into subdirectories.
type Watcher struct {
	dir      string
	debounce time.Duration
	filter   Filter
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	closed bool
}

// New starts watching dir. A nil filter accepts every path.
func New(dir string, debounce time.Duration, filter Filter) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", abs, err)
	}

	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Watcher{dir: abs, debounce: debounce, filter: filter, fsw: fsw}, nil
}

// Dir returns the absolute directory being watched.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run delivers debounced change notifications to onChange until ctx is
// cancelled, returning nil, or until onChange fails, returning its error.
// onChange runs on the calling goroutine, so calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	logger := logging.Get("watcher").With("dir", w.dir)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&triggerOps == 0 {
		return false
	}
	if filepath.Dir(event.Name) != w.dir {
		return false
	}
	return w.filter(event.Name)
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
