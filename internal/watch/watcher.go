// Package watch provides file system monitoring for automatic feed audits.
//
// New feed files dropped into a watched directory are debounced, checked
// for size stability (exporters write large feeds incrementally) and then
// handed to a caller-supplied handler that runs the audit.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// feedExtensions are the file suffixes treated as feed exports.
var feedExtensions = map[string]bool{
	".tsv": true,
	".txt": true,
}

// Handler processes one settled feed file.
type Handler func(ctx context.Context, path string) error

// Watcher monitors a directory for newly dropped feed files.
type Watcher struct {
	dir      string
	debounce time.Duration
	handler  Handler
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. debounce delays processing after the last
// write event so half-copied files are not audited.
func New(dir string, debounce time.Duration, handler Handler, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handler:  handler,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("watching for feed drops", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-fw.Events:
			if !open {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !feedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, open := <-fw.Errors:
			if !open {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

// schedule (re)arms the debounce timer for path. Every further write event
// pushes processing back by the full debounce interval.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

// process waits for the file size to settle, then invokes the handler.
func (w *Watcher) process(ctx context.Context, path string) {
	if !w.waitStable(ctx, path) {
		w.log.Warn("feed file never settled, skipping", "path", path)
		return
	}
	w.log.Info("auditing dropped feed", "path", path)
	if err := w.handler(ctx, path); err != nil {
		w.log.Error("feed audit failed", "path", path, "error", err)
	}
}

// waitStable polls the file size until two consecutive reads agree.
func (w *Watcher) waitStable(ctx context.Context, path string) bool {
	const interval = 500 * time.Millisecond
	const attempts = 20

	var lastSize int64 = -1
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
	}
	return false
}
