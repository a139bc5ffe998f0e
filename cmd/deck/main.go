package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prismdeck/cmd/deck/board"
	"prismdeck/internal/bridge"
	"prismdeck/internal/config"
	"prismdeck/internal/logging"
	"prismdeck/internal/observatory"
)

var (
	// Global flags
	verbose  bool
	homeFlag string
	offline  bool

	// Logger for non-interactive commands. The board has its own
	// file-backed logging; mixing zap output into the alt screen
	// would corrupt it, so interactive commands skip this.
	logger *zap.Logger
)

// rootCmd launches the interactive deck.
var rootCmd = &cobra.Command{
	Use:   "deck",
	Short: "prismdeck - presentation deck for prism refinement runs",
	Long: `prismdeck renders your working state as a deck of cards: habits,
calendar, contacts, files, projects, git status and the current
conversation. The observatory page replays refinement runs with
staggered candidate reveals, a resonance spring and convergence stats.

Run without arguments to start the interactive deck. Without a prismd
backend every page falls back to bundled sample payloads, so the deck
is fully explorable offline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, err := resolveHome()
		if err != nil {
			return err
		}
		if err := logging.Initialize(home); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if err := logging.InitAudit(); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}

		// Interactive commands own the terminal; no zap for them.
		switch cmd.Name() {
		case "deck", "replay":
			return nil
		}

		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAudit()
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoard("")
	},
}

// replayCmd opens the observatory directly on a recording file.
var replayCmd = &cobra.Command{
	Use:   "replay [recording]",
	Short: "Open the observatory on a saved recording",
	Long: `Starts the deck on the observatory page with the given recording
loaded and playing. The run picker still lists every other recording
in the recordings directory.

Example:
  deck replay ~/.deck/recordings/run-0142.prism.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoard(args[0])
	},
}

// inspectCmd validates and summarizes a recording without the UI.
var inspectCmd = &cobra.Command{
	Use:   "inspect [recording]",
	Short: "Validate a recording and print its summary",
	Long: `Parses a recording file, checks it against the recording schema and
prints the run summary. Exits non-zero when the file does not parse,
which makes it usable as a pre-commit gate for recording producers.

Example:
  deck inspect ~/.deck/recordings/run-0142.prism.json`,
	Args: cobra.ExactArgs(1),
	RunE: inspectRecording,
}

// initCmd creates the deck home with a default config.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the deck home directory and default config",
	Long: `Creates the deck home (~/.deck unless --home is set) with a
deck.yaml holding the default configuration and an empty recordings
directory. Refuses to overwrite an existing deck.yaml.`,
	RunE: runInit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "Deck home directory (default: ~/.deck)")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend and run on sample data")
	replayCmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend and run on sample data")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveHome picks the deck home directory without creating it.
func resolveHome() (string, error) {
	if homeFlag != "" {
		return homeFlag, nil
	}
	return config.DefaultHome()
}

// runBoard starts the interactive session, dialing the backend when
// the config asks for one.
func runBoard(replayPath string) error {
	home, err := resolveHome()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromHome(home)
	if err != nil {
		return err
	}

	opts := board.Options{ReplayPath: replayPath}
	if cfg.Bridge.Enabled && !offline {
		b, err := bridge.Dial(cfg.Bridge.Command, cfg.BridgeTimeout(), cfg.Bridge.Args...)
		if err != nil {
			// A missing backend is not fatal; the deck runs on samples.
			fmt.Fprintf(os.Stderr, "backend unavailable, running offline: %v\n", err)
		} else {
			opts.Bridge = b
		}
	}

	return board.Run(cfg, home, opts)
}

// inspectRecording parses one recording and prints what a reviewer
// needs to judge it: identity, size, score range and why it stopped.
func inspectRecording(cmd *cobra.Command, args []string) error {
	path := args[0]
	rec, err := observatory.LoadRecording(path)
	if err != nil {
		return err
	}
	logger.Debug("recording parsed",
		zap.String("path", path),
		zap.Int("iterations", len(rec.Iterations)))

	fmt.Printf("Run:        %s\n", rec.Run.ID)
	if rec.Run.Goal != "" {
		fmt.Printf("Goal:       %s\n", rec.Run.Goal)
	}
	if !rec.Run.StartedAt.IsZero() {
		fmt.Printf("Started:    %s\n", rec.Run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Printf("Iterations: %d\n", len(rec.Iterations))

	if len(rec.Iterations) == 0 {
		logger.Warn("recording has no iterations", zap.String("path", path))
		return nil
	}

	stats := observatory.ComputeStats(rec.Iterations, len(rec.Iterations)-1)
	fmt.Printf("Scores:     mean %.2f, best %.2f at iteration %d (scale %g)\n",
		stats.Mean, stats.Best, stats.BestIndex, rec.Scale())
	if r := rec.StopReason(); r != observatory.StopReasonNone {
		fmt.Printf("Stopped:    %s\n", r.Label())
	}
	return nil
}

// runInit lays down the deck home: config file plus recordings dir.
func runInit(cmd *cobra.Command, args []string) error {
	home, err := resolveHome()
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(home, "deck.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}
	recDir := cfg.ResolveRecordingsDir(home)
	if err := os.MkdirAll(recDir, 0o755); err != nil {
		return fmt.Errorf("failed to create recordings directory: %w", err)
	}

	logger.Info("deck home initialized",
		zap.String("config", cfgPath),
		zap.String("recordings", recDir))
	fmt.Printf("Created %s\n", cfgPath)
	fmt.Printf("Created %s\n", recDir)
	fmt.Println("Run `deck` to start; enable the bridge in deck.yaml once prismd is installed.")
	return nil
}
