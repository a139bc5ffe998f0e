package observatory

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"prismdeck/internal/logging"
)

// WatchEvent announces a settled change to one recording file.
type WatchEvent struct {
	Path    string
	Removed bool
}

// Watcher keeps the run picker current as the backend writes
// recordings. Rapid writes to one file are debounced so a recording
// mid-write is announced once, after it settles.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	dir     string
	pending map[string]time.Time
	settle  time.Duration
	events  chan WatchEvent
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool
	log     *logging.Logger
}

// NewWatcher creates a watcher for the recordings directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		dir:     dir,
		pending: make(map[string]time.Time),
		settle:  500 * time.Millisecond,
		events:  make(chan WatchEvent, 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		log:     logging.Get(logging.CategoryWatch),
	}, nil
}

// Events delivers settled recording changes. The channel closes when
// the watcher stops.
func (w *Watcher) Events() <-chan WatchEvent { return w.events }

// Start begins watching. Non-blocking; the loop runs until Stop or
// context cancellation. A missing directory is created so the backend
// can write into it later.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.log.Warn("recordings dir %s: %v", w.dir, err)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		w.log.Warn("watch %s failed: %v", w.dir, err)
	} else {
		w.log.Info("watching recordings: %s", w.dir)
	}

	go w.run(ctx)
	return nil
}

// Stop halts the loop, waits for it to exit and closes the watcher.
// Stopping a watcher that never started still releases it; the watcher
// cannot be restarted afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	running := w.running
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.fsw.Close(); err != nil {
		w.log.Error("close watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.events)

	sweep := time.NewTicker(100 * time.Millisecond)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
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
			w.log.Error("watch error: %v", err)
		case <-sweep.C:
			w.flushSettled()
		}
	}
}

// handleEvent records a recording-file event for the next sweep.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, RecordingExt) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flushSettled announces paths whose last event is older than the
// settle window. Removal is decided by a stat at flush time, so a
// delete-then-rewrite announces the final state.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		_, err := os.Stat(path)
		ev := WatchEvent{Path: path, Removed: os.IsNotExist(err)}
		select {
		case w.events <- ev:
		default:
			// backpressure: drop event for slow subscriber
			w.log.Warn("dropped watch event for %s", path)
		}
	}
}
