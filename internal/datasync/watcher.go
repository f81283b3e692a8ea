// Package datasync re-hydrates in-memory state when the SQLite database
// changes on disk, including writes made by other processes.
package datasync

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long writes must settle before a reload.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc re-reads the database and pushes the result into memory.
type ReloadFunc func(ctx context.Context) error

// Stats counts watcher activity.
type Stats struct {
	Events  int
	Reloads int
	Errors  int
}

// Watcher observes the database file and its WAL and calls reload once per
// burst of writes.
type Watcher struct {
	dbPath   string
	reload   ReloadFunc
	debounce time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher for the database at dbPath.
func New(dbPath string, reload ReloadFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dbPath:   dbPath,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("datasync")
	return w
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only if the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: SQLite recreates the WAL and journal files.
	dir := filepath.Dir(w.dbPath)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching database", zap.String("path", w.dbPath))

	base := filepath.Base(w.dbPath)
	relevant := map[string]bool{base: true, base + "-wal": true}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant[filepath.Base(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-timer.C:
			w.runReload(ctx)
		}
	}
}

func (w *Watcher) runReload(ctx context.Context) {
	err := w.reload(ctx)

	w.mu.Lock()
	w.stats.Reloads++
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if err != nil {
		// The last good snapshot stays in memory.
		w.logger.Warn("reload after database change failed", zap.Error(err))
		return
	}
	w.logger.Debug("reloaded from database")
}
