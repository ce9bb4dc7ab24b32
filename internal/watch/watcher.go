// Package watch invalidates the dataset cache and notifies dashboards when
// a configured source file changes on disk. The original platform re-ran
// its pipeline reactively; here a write to a watched file becomes a cache
// invalidation plus a data:update push, and dashboards re-request their
// boards.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 500 * time.Millisecond

// Invalidator drops a cached table; the dashboard service implements it.
type Invalidator interface {
	Invalidate(path string)
}

// Broadcaster pushes a dataset change to connected clients; the websocket
// hub implements it.
type Broadcaster interface {
	BroadcastDataUpdate(dataset, path string)
}

// Watcher monitors the directories of the configured dataset paths.
// Directories, not files, are watched: editors and spreadsheet exports
// replace files, which drops a file-level watch.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// datasets maps an absolute file path to its dataset entry.
	datasets map[string]datasetEntry

	invalidator Invalidator
	broadcaster Broadcaster

	// pending holds one trailing-edge timer per path and lastEvent the
	// time of the newest event seen on it. The timer fires only once the
	// burst goes quiet, so the final save is never dropped.
	pending   map[string]*time.Timer
	lastEvent map[string]time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// datasetEntry ties a watched file back to its dataset name and the path
// the cache was keyed with.
type datasetEntry struct {
	name string
	path string
}

// New creates a watcher over the named dataset paths. datasets maps dataset
// name to file path, e.g. {"ridership": "data/ridership.csv"}.
func New(datasets map[string]string, invalidator Invalidator, broadcaster Broadcaster, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	byPath := make(map[string]datasetEntry, len(datasets))
	for name, path := range datasets {
		abs, err := filepath.Abs(path)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		byPath[abs] = datasetEntry{name: name, path: path}
	}

	return &Watcher{
		watcher:     fsw,
		logger:      logger.With(slog.String("component", "watch")),
		datasets:    byPath,
		invalidator: invalidator,
		broadcaster: broadcaster,
		pending:     make(map[string]*time.Timer),
		lastEvent:   make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds the dataset directories to the watch set and launches the
// event loop. A missing directory is logged and skipped; the watcher keeps
// serving the paths it could add.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]bool)
	for path := range w.datasets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("watch add failed",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		w.logger.Info("watching dataset directory", slog.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("close watcher", slog.String("error", err.Error()))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", slog.String("error", err.Error()))
		}
	}
}

// handle reacts to writes, creates, and renames of watched dataset files.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	entry, watched := w.datasets[abs]
	if !watched {
		return
	}

	op := event.Op.String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.lastEvent[abs] = time.Now()
	if _, scheduled := w.pending[abs]; scheduled {
		return
	}
	w.pending[abs] = time.AfterFunc(debounce, func() {
		w.notify(abs, entry, op)
	})
}

// notify fires when a timer for abs expires. If another event landed while
// the timer was pending, the timer re-arms for the remainder of the window;
// only a quiet path notifies. The timer resets itself exclusively, which
// keeps an expired-but-running timer from being re-armed concurrently.
func (w *Watcher) notify(abs string, entry datasetEntry, op string) {
	w.mu.Lock()
	if !w.running {
		delete(w.pending, abs)
		w.mu.Unlock()
		return
	}
	if remain := debounce - time.Since(w.lastEvent[abs]); remain > 0 {
		w.pending[abs].Reset(remain)
		w.mu.Unlock()
		return
	}
	delete(w.pending, abs)
	w.mu.Unlock()

	w.logger.Info("dataset changed",
		slog.String("dataset", entry.name),
		slog.String("path", entry.path),
		slog.String("op", op))

	// Invalidate with the configured path: the cache is keyed by it.
	w.invalidator.Invalidate(entry.path)
	w.broadcaster.BroadcastDataUpdate(entry.name, entry.path)
}
