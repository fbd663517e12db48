package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is how long the watcher collects changes before
// reporting them as one batch.
const DefaultDebounceDelay = 250 * time.Millisecond

// WatcherConfig configures a cache Watcher.
type WatcherConfig struct {
	DebounceDelay time.Duration
	Logger        *slog.Logger
}

// Watcher reports cache entries changed on disk by something other than
// Put, such as a hand-edited answer. Changed keys are dropped from the
// in-memory front before they are reported.
type Watcher struct {
	store    *AnswerStore
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// Debouncing: collect changes before reporting
	pendingMu sync.Mutex
	pending   map[Key]fsnotify.Op

	changes chan []Key
}

// NewWatcher creates a watcher over the store's root.
func NewWatcher(store *AnswerStore, config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = store.logger
	}
	debounce := config.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	return &Watcher{
		store:    store,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[Key]fsnotify.Op),
		changes:  make(chan []Key, 16),
	}, nil
}

// Changes returns the channel of changed key batches, sorted by key. It is
// closed when the watcher stops.
func (w *Watcher) Changes() <-chan []Key {
	return w.changes
}

// Start watches the root and every category directory.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.store.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.store.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(w.store.root, e.Name()))
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Cache watcher started", "root", w.store.root, "debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) addDir(path string) {
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch category directory", "path", path, "error", err)
		return
	}
	w.logger.Debug("Watching category directory", "path", path)
}

// scanDir queues entries written to a new category directory before its
// watch was added.
func (w *Watcher) scanDir(path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.logger.Warn("Failed to scan category directory", "path", path, "error", err)
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		k, err := w.store.KeyForPath(filepath.Join(path, e.Name()))
		if err != nil {
			continue
		}
		if _, ok := w.pending[k]; !ok {
			w.pending[k] = fsnotify.Create
		}
	}
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if !w.flushPending(ctx) {
				return
			}
		}
	}
}

// handleFSEvent records a change to a cache entry, or starts watching a new
// category directory.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.store.root) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
			w.scanDir(event.Name)
			return
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	k, err := w.store.KeyForPath(event.Name)
	if err != nil {
		if !errors.Is(err, ErrInvalidKey) {
			w.logger.Debug("Ignoring cache event", "path", event.Name, "error", err)
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[k] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Cache change detected", "key", k.String(), "op", event.Op.String())
}

// flushPending reports accumulated changes. It returns false if ctx ended
// while sending.
func (w *Watcher) flushPending(ctx context.Context) bool {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return true
	}
	batch := make([]Key, 0, len(w.pending))
	for k := range w.pending {
		batch = append(batch, k)
	}
	w.pending = make(map[Key]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].String() < batch[j].String() })
	for _, k := range batch {
		w.store.Forget(k)
	}

	select {
	case w.changes <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}
