package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Invalidator is anything that can drop a cached snapshot.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates the repository when a catalog file in the data directory changes.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	target      Invalidator
	log         *zap.Logger
	debounceDur time.Duration
	pendingAt   time.Time
	pending     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closed      bool
	fired       int
}

func NewWatcher(dir string, target Invalidator, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		target:      target,
		log:         log,
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start watches the directory in a goroutine until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.closed {
		w.mu.Unlock()
		return fsnotify.ErrClosed
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching catalog directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop if it runs and releases the fsnotify handle. It is
// safe to call after a failed Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.closed = true
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Error("closing catalog watcher", zap.Error(err))
	}
}

// Fired reports how many invalidations the watcher has issued.
func (w *Watcher) Fired() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("catalog watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isCatalogFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.pendingAt) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.fired++
	w.mu.Unlock()

	w.target.Invalidate()
}

func isCatalogFile(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return false
	}
	switch strings.TrimSuffix(base, ext) {
	case FileMaterials, FileSubstances, FileDualUse, FileTextsPL, FileTextsEN:
		return true
	}
	return false
}
