package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = time.Second

// RebuildFunc is invoked after changes settle. Calls never overlap.
type RebuildFunc func(ctx context.Context) error

// Watcher monitors the knowledge directory and triggers a rebuild when
// supported files change.
type Watcher struct {
	dir      string
	debounce time.Duration
	filter   func(name string) bool
	rebuild  RebuildFunc

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	timer   *time.Timer
	trigger chan struct{}
}

// New creates a watcher for dir. filter receives a file name and reports
// whether changes to it matter; nil accepts everything.
func New(dir string, debounce time.Duration, filter func(name string) bool, rebuild RebuildFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		filter:   filter,
		rebuild:  rebuild,
		fsw:      fsw,
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Start begins watching. The directory must exist; on failure the
// underlying fsnotify watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		w.fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	slog.Info("knowledge watcher started", "dir", w.dir, "debounce", w.debounce)
	return nil
}

// Stop shuts down the watcher and waits for an in-flight rebuild.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("knowledge watcher error", "error", err)

		case <-w.trigger:
			w.runRebuild(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if !w.filter(filepath.Base(event.Name)) {
		return
	}

	slog.Debug("knowledge file changed", "path", event.Name, "op", event.Op.String())
	w.scheduleRebuild()
}

func (w *Watcher) scheduleRebuild() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) runRebuild(ctx context.Context) {
	start := time.Now()
	if err := w.rebuild(ctx); err != nil {
		slog.Error("knowledge rebuild failed", "error", err)
		return
	}
	slog.Info("knowledge rebuilt", "elapsed", time.Since(start).Round(time.Millisecond))
}
