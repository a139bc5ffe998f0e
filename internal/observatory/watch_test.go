package observatory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher builds a watcher over dir with a short settle window so
// tests run in milliseconds instead of the production half second.
func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func waitEvent(t *testing.T, w *Watcher) WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed while waiting")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a watch event")
		return WatchEvent{}
	}
}

func TestWatcherAnnouncesNewRecording(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "run-1.prism.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	ev := waitEvent(t, w)
	assert.Equal(t, path, ev.Path)
	assert.False(t, ev.Removed)
}

func TestWatcherAnnouncesRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run-1.prism.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	w := startWatcher(t, dir)
	require.NoError(t, os.Remove(path))

	ev := waitEvent(t, w)
	assert.Equal(t, path, ev.Path)
	assert.True(t, ev.Removed)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	recording := filepath.Join(dir, "run-2.prism.json")
	require.NoError(t, os.WriteFile(recording, []byte("{}"), 0o644))

	ev := waitEvent(t, w)
	assert.Equal(t, recording, ev.Path, "non-recording writes must not surface")
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "run-3.prism.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	ev := waitEvent(t, w)
	assert.Equal(t, path, ev.Path)

	select {
	case extra, ok := <-w.Events():
		if ok {
			t.Fatalf("burst produced a second event: %+v", extra)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	w := startWatcher(t, dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	path := filepath.Join(dir, "run-4.prism.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	assert.Equal(t, path, waitEvent(t, w).Path)
}

func TestWatcherStopClosesEvents(t *testing.T) {
	w := startWatcher(t, t.TempDir())
	w.Stop()

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "events channel should close on stop")
	case <-time.After(3 * time.Second):
		t.Fatal("events channel did not close")
	}

	w.Stop()
}

func TestWatcherStartIsReentrant(t *testing.T) {
	w := startWatcher(t, t.TempDir())
	assert.NoError(t, w.Start(context.Background()))
}

func TestWatcherStopBeforeStart(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	w.Stop()

	// A stopped watcher stays stopped.
	assert.NoError(t, w.Start(context.Background()))
	w.Stop()
}
