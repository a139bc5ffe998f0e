package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "auto", cfg.Theme)
	assert.False(t, cfg.Bridge.Enabled)
	assert.Equal(t, "prismd", cfg.Bridge.Command)
	assert.Equal(t, 800*time.Millisecond, cfg.PlaybackInterval())
	assert.Equal(t, 120*time.Millisecond, cfg.StaggerBase())
	assert.Equal(t, 80*time.Millisecond, cfg.StaggerPerItem())
	assert.Equal(t, 2, cfg.UI.GridColumns)
	assert.NotEmpty(t, cfg.Lenses, "defaults ship with a few lenses")
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "deck.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Theme)
	assert.False(t, cfg.Bridge.Enabled)
}

func TestLoadParsesAndMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	content := `
theme: dark
recordings_dir: /data/recordings
bridge:
  enabled: true
  command: /usr/local/bin/prismd
  timeout: 30s
playback:
  interval: 500ms
  speeds: [1, 2]
habits:
  - id: water
    title: Drink water
    schedule: "0 9 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "/data/recordings", cfg.RecordingsDir)
	assert.True(t, cfg.Bridge.Enabled)
	assert.Equal(t, 30*time.Second, cfg.BridgeTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.PlaybackInterval())
	assert.Equal(t, []float64{1, 2}, cfg.SpeedSteps())
	require.Len(t, cfg.Habits, 1)
	assert.Equal(t, "water", cfg.Habits[0].ID)
	assert.Equal(t, "0 9 * * *", cfg.Habits[0].Schedule)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 2, cfg.UI.GridColumns)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("DECK_THEME overrides theme", func(t *testing.T) {
		t.Setenv("DECK_THEME", "light")
		cfg, err := Load(filepath.Join(t.TempDir(), "deck.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "light", cfg.Theme)
	})

	t.Run("DECK_RECORDINGS overrides recordings dir", func(t *testing.T) {
		t.Setenv("DECK_RECORDINGS", "/tmp/rec")
		cfg, err := Load(filepath.Join(t.TempDir(), "deck.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "/tmp/rec", cfg.RecordingsDir)
	})

	t.Run("PRISMD_COMMAND enables the bridge", func(t *testing.T) {
		t.Setenv("PRISMD_COMMAND", "/opt/prismd")
		cfg, err := Load(filepath.Join(t.TempDir(), "deck.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Bridge.Enabled)
		assert.Equal(t, "/opt/prismd", cfg.Bridge.Command)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deck.yaml")

	cfg := DefaultConfig()
	cfg.Theme = "dark"
	cfg.Habits = []HabitConfig{{ID: "run", Title: "Go for a run", Schedule: "30 6 * * 1-5"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.Theme)
	require.Len(t, loaded.Habits, 1)
	assert.Equal(t, "run", loaded.Habits[0].ID)
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.Timeout = "not-a-duration"
	cfg.Playback.Interval = "-5s"

	assert.Equal(t, 10*time.Second, cfg.BridgeTimeout())
	assert.Equal(t, 800*time.Millisecond, cfg.PlaybackInterval())
}

func TestSpeedStepsFiltersInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Playback.Speeds = []float64{-1, 0, 2, 4}
	assert.Equal(t, []float64{2, 4}, cfg.SpeedSteps())

	cfg.Playback.Speeds = []float64{-1, 0}
	assert.Equal(t, []float64{0.25, 0.5, 1, 2, 4}, cfg.SpeedSteps(), "all-invalid lists fall back to defaults")
}

func TestResolveRecordingsDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/home/u", ".deck-test", "recordings"),
		cfg.ResolveRecordingsDir(filepath.Join("/home/u", ".deck-test")))

	cfg.RecordingsDir = "/explicit"
	assert.Equal(t, "/explicit", cfg.ResolveRecordingsDir("/ignored"))
}
