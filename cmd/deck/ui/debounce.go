// Package ui provides debouncing utilities for event handling
package ui

import (
	"sync"
	"time"
)

// DefaultResizeDuration is the debounce window for resize events.
// Terminal emulators emit a burst of size messages while the user
// drags; relaying out the whole grid for each one wastes frames.
const DefaultResizeDuration = 300 * time.Millisecond

// Debouncer collapses rapid successive calls into one, executed after
// the window elapses without a new call.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

// NewDebouncer creates a debouncer with the specified window
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Debounce schedules fn after the window, resetting any pending call
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending call
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Immediate executes fn now and drops any pending call
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}

// ResizeDebouncer coalesces window size messages. Only the newest
// pending size is delivered when the window elapses.
type ResizeDebouncer struct {
	mu            sync.Mutex
	debouncer     *Debouncer
	lastWidth     int
	lastHeight    int
	pendingWidth  int
	pendingHeight int
}

// NewResizeDebouncer creates a debouncer for resize events
func NewResizeDebouncer(duration time.Duration) *ResizeDebouncer {
	return &ResizeDebouncer{debouncer: NewDebouncer(duration)}
}

// Resize records the newest size and schedules the handler. The
// handler runs on the timer goroutine; bubbletea callers should send
// a message from it rather than touch the model.
func (rd *ResizeDebouncer) Resize(width, height int, handler func(int, int)) {
	rd.mu.Lock()
	rd.pendingWidth = width
	rd.pendingHeight = height
	rd.mu.Unlock()

	rd.debouncer.Debounce(func() {
		rd.mu.Lock()
		w, h := rd.pendingWidth, rd.pendingHeight
		rd.lastWidth = w
		rd.lastHeight = h
		rd.mu.Unlock()

		handler(w, h)
	})
}

// LastSize returns the last delivered size
func (rd *ResizeDebouncer) LastSize() (width, height int) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.lastWidth, rd.lastHeight
}

// Cancel drops any pending resize
func (rd *ResizeDebouncer) Cancel() {
	rd.debouncer.Cancel()
}
