// Package config loads prismdeck configuration from <home>/deck.yaml.
// Missing files yield defaults; the deck must come up with zero setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all prismdeck configuration.
type Config struct {
	// Theme selects the color theme: dark, light or auto.
	Theme string `yaml:"theme"`

	// RecordingsDir is where the backend writes .prism.json recordings.
	// Empty means <home>/recordings.
	RecordingsDir string `yaml:"recordings_dir"`

	// Bridge configures the prismd backend connection.
	Bridge BridgeConfig `yaml:"bridge"`

	// Playback tunes the observatory sequencer.
	Playback PlaybackConfig `yaml:"playback"`

	// UI holds board layout preferences.
	UI UIConfig `yaml:"ui"`

	// Habits defines the habit tracker entries and their schedules.
	Habits []HabitConfig `yaml:"habits"`

	// Lenses defines named filters over block items.
	Lenses []LensConfig `yaml:"lenses"`

	// Logging configures the category file logger.
	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig configures the backend bridge.
type BridgeConfig struct {
	// Enabled turns the bridge on. Disabled decks run on sample data.
	Enabled bool `yaml:"enabled"`

	// Command is the backend binary spawned for the stdio session.
	Command string `yaml:"command"`

	// Args are passed to the backend binary.
	Args []string `yaml:"args"`

	// Timeout bounds a single bridge call.
	Timeout string `yaml:"timeout"`
}

// PlaybackConfig tunes replay timing.
type PlaybackConfig struct {
	// Interval is the base advance interval at speed 1.
	Interval string `yaml:"interval"`

	// Speeds are the multiplier steps the speed keys cycle through.
	Speeds []float64 `yaml:"speeds"`

	// Stagger tunes the candidate reveal animation.
	Stagger StaggerConfig `yaml:"stagger"`
}

// StaggerConfig tunes the reveal windows of prism-style panels.
type StaggerConfig struct {
	Base    string `yaml:"base"`
	PerItem string `yaml:"per_item"`
}

// UIConfig holds board layout preferences.
type UIConfig struct {
	// GridColumns is the number of block columns on the deck page.
	GridColumns int `yaml:"grid_columns"`

	// ShowStatusLine toggles the bottom status line.
	ShowStatusLine bool `yaml:"show_status_line"`
}

// HabitConfig is one habit tracker entry.
type HabitConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	// Schedule is a cron expression (minute hour dom month dow).
	Schedule string `yaml:"schedule"`
}

// LensConfig is one named filter over a block's items.
type LensConfig struct {
	Name  string `yaml:"name"`
	Block string `yaml:"block"`
	// Filter is an expression over the item's fields.
	Filter string `yaml:"filter"`
}

// LoggingConfig configures the category file logger. Mirrored by the
// logging package, which reads deck.yaml itself to avoid importing us.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Theme: "auto",

		Bridge: BridgeConfig{
			Enabled: false,
			Command: "prismd",
			Timeout: "10s",
		},

		Playback: PlaybackConfig{
			Interval: "800ms",
			Speeds:   []float64{0.25, 0.5, 1, 2, 4},
			Stagger: StaggerConfig{
				Base:    "120ms",
				PerItem: "80ms",
			},
		},

		UI: UIConfig{
			GridColumns:    2,
			ShowStatusLine: true,
		},

		Lenses: []LensConfig{
			{Name: "pending", Block: "habits", Filter: "!done"},
			{Name: "streaks", Block: "habits", Filter: "streak >= 3"},
			{Name: "large", Block: "files", Filter: "size > 1048576"},
		},

		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// DefaultHome returns the deck home directory (~/.deck), creating
// nothing.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".deck"), nil
}

// Load loads configuration from a YAML file. A missing file returns
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFromHome loads <home>/deck.yaml.
func LoadFromHome(home string) (*Config, error) {
	return Load(filepath.Join(home, "deck.yaml"))
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if theme := os.Getenv("DECK_THEME"); theme != "" {
		c.Theme = theme
	}
	if dir := os.Getenv("DECK_RECORDINGS"); dir != "" {
		c.RecordingsDir = dir
	}
	if cmd := os.Getenv("PRISMD_COMMAND"); cmd != "" {
		c.Bridge.Command = cmd
		c.Bridge.Enabled = true
	}
}

// ResolveRecordingsDir returns the recordings directory for a given
// home, applying the default when unset.
func (c *Config) ResolveRecordingsDir(home string) string {
	if c.RecordingsDir != "" {
		return c.RecordingsDir
	}
	return filepath.Join(home, "recordings")
}

// BridgeTimeout returns the bridge call timeout as a duration.
func (c *Config) BridgeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Bridge.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// PlaybackInterval returns the base advance interval as a duration.
func (c *Config) PlaybackInterval() time.Duration {
	d, err := time.ParseDuration(c.Playback.Interval)
	if err != nil || d <= 0 {
		return 800 * time.Millisecond
	}
	return d
}

// StaggerBase returns the reveal base delay as a duration.
func (c *Config) StaggerBase() time.Duration {
	d, err := time.ParseDuration(c.Playback.Stagger.Base)
	if err != nil || d < 0 {
		return 120 * time.Millisecond
	}
	return d
}

// StaggerPerItem returns the per-item reveal delay as a duration.
func (c *Config) StaggerPerItem() time.Duration {
	d, err := time.ParseDuration(c.Playback.Stagger.PerItem)
	if err != nil || d < 0 {
		return 80 * time.Millisecond
	}
	return d
}

// SpeedSteps returns the playback speed steps, filtering non-positive
// entries. An empty list falls back to the defaults.
func (c *Config) SpeedSteps() []float64 {
	var steps []float64
	for _, s := range c.Playback.Speeds {
		if s > 0 {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return []float64{0.25, 0.5, 1, 2, 4}
	}
	return steps
}
