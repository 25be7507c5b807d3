package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shirk33y/lv/internal/config"
	"github.com/shirk33y/lv/internal/store"
)

// version is overridden at build time via -ldflags, mirroring
// overlay.Version for the window-title "lv VERSION-GIT" suffix.
var version = "dev"

var (
	verbose bool
	dbFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "lv [PATH...]",
	Short: "A keyboard-driven local media viewer and library",
	Long: "lv indexes tracked directories into a local catalogue, watches them for\n" +
		"changes, and lets you browse images and video with a compact set of\n" +
		"keyboard shortcuts. Run with no arguments to open the viewer; any PATH\n" +
		"arguments are treated as if dropped onto the running viewer.",
	RunE: runGUI,
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the index database (overrides the saved config)")

	rootCmd.AddCommand(trackCmd, untrackCmd, watchCmd, unwatchCmd, scanCmd, statusCmd, workerCmd)
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// openStore resolves the configured database path (--db flag, saved
// config, or the default alongside the config file) and opens it.
func openStore() (*store.Store, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func resolveDBPath() (string, error) {
	if dbFlag != "" {
		return dbFlag, nil
	}
	cs, err := config.NewStore()
	if err != nil {
		return "", fmt.Errorf("resolving config: %w", err)
	}
	cfg, err := cs.Load()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return cs.DefaultDBPath(), nil
}
