package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
)

// DefaultWatchDelay coalesces bursts of events on one store
const DefaultWatchDelay = 300 * time.Millisecond

// TargetFunc returns the directories to watch; it is called again after
// every change so that newly created configuration directories are picked up.
type TargetFunc func() []store.WatchTarget

// Watch invalidates the index and prefetches a new snapshot whenever a store
// changes. It blocks until ctx is done.
func (idx *Indexer) Watch(ctx context.Context, targets TargetFunc, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &storeWatcher{
		idx:     idx,
		watcher: watcher,
		targets: targets,
		delay:   delay,
		watched: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}
	w.retarget()
	w.run(ctx)
	return nil
}

// run dispatches watcher events until ctx is done or the watcher is closed.
// Pending refreshes are dropped on return.
func (w *storeWatcher) run(ctx context.Context) {
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			indexLog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}

type storeWatcher struct {
	idx     *Indexer
	watcher *fsnotify.Watcher
	targets TargetFunc
	delay   time.Duration

	mu      sync.Mutex
	stopped bool
	current []store.WatchTarget
	watched map[string]bool
	timers  map[string]*time.Timer // per changed file
}

// retarget adds watches for directories that appeared since the last call
func (w *storeWatcher) retarget() {
	targets := w.targets()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = targets
	for _, t := range targets {
		dir := filepath.Clean(t.Dir)
		if w.watched[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			indexLog.Debug("watch_skipped", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		w.watched[dir] = true
		indexLog.Debug("watch_added", slog.String("dir", dir))
	}
}

func (w *storeWatcher) matches(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.current {
		if t.Matches(path) {
			return true
		}
	}
	return false
}

// schedule debounces events per file, then refreshes
func (w *storeWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	if w.stopped {
		return
	}
	w.timers[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		stopped := w.stopped
		w.mu.Unlock()

		if stopped || ctx.Err() != nil {
			return
		}
		indexLog.Debug("store_changed", slog.String("path", path))
		w.idx.Invalidate()
		w.idx.Prefetch(ctx)
		w.retarget()
	})
}

func (w *storeWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
