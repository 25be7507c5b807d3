package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shirk33y/lv/internal/jobs"
	"github.com/shirk33y/lv/internal/metrics"
	"github.com/shirk33y/lv/internal/pathutil"
	"github.com/shirk33y/lv/internal/scanner"
	"github.com/shirk33y/lv/internal/store"
)

var trackCmd = &cobra.Command{
	Use:   "track PATH",
	Short: "Track a directory: canonicalize it, mark it tracked and recursive, and scan it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		dir := pathutil.Clean(abs)
		if err := db.Track(dir, true); err != nil {
			return err
		}
		added := scanner.Scan(db, dir)
		fmt.Printf("tracked %s (%d files indexed)\n", dir, added)
		return nil
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack PATH",
	Short: "Stop tracking and watching a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		dir, err := cleanArg(args[0])
		if err != nil {
			return err
		}
		return db.Untrack(dir)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch PATH",
	Short: "Start watching a tracked directory for changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		dir, err := cleanArg(args[0])
		if err != nil {
			return err
		}
		db.Watch(dir)
		return nil
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch PATH",
	Short: "Stop watching a directory for changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		dir, err := cleanArg(args[0])
		if err != nil {
			return err
		}
		db.Unwatch(dir)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "Scan a directory, or every tracked directory if none is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			dir, err := cleanArg(args[0])
			if err != nil {
				return err
			}
			n := scanner.Scan(db, dir)
			fmt.Printf("scanned %s (%d files indexed)\n", dir, n)
			return nil
		}

		for _, d := range db.ListTracked() {
			n := scanner.Scan(db, d.Path)
			fmt.Printf("scanned %s (%d files indexed)\n", d.Path, n)
		}
		return nil
	},
}

var statusOutput string

func init() {
	statusCmd.Flags().StringVar(&statusOutput, "output", "text", "output format: text or yaml")
	workerCmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090); disabled if empty")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print catalogue counts and the tracked directory list",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		st := db.CollectionStats()
		tracked := db.ListTracked()

		if statusOutput == "yaml" {
			out, err := yaml.Marshal(statusReport{
				Files:          st.TotalFiles,
				Directories:    st.TotalDirs,
				Hashed:         st.Hashed,
				WithDimensions: st.WithDimensions,
				Failures:       st.Failed,
				Tracked:        trackedPaths(tracked),
			})
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		}

		fmt.Printf("files:           %d\n", st.TotalFiles)
		fmt.Printf("directories:     %d\n", st.TotalDirs)
		fmt.Printf("hashed:          %d\n", st.Hashed)
		fmt.Printf("with dimensions: %d\n", st.WithDimensions)
		fmt.Printf("failures:        %d\n", st.Failed)
		fmt.Println("tracked:")
		for _, d := range tracked {
			fmt.Printf("  %s (watched=%v recursive=%v)\n", d.Path, d.Watched, d.Recursive)
		}
		return nil
	},
}

type statusReport struct {
	Files          int64    `yaml:"files"`
	Directories    int64    `yaml:"directories"`
	Hashed         int64    `yaml:"hashed"`
	WithDimensions int64    `yaml:"withDimensions"`
	Failures       int64    `yaml:"failures"`
	Tracked        []string `yaml:"tracked"`
}

func trackedPaths(dirs []store.Directory) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.Path
	}
	return out
}

// quiescentWindow is how long the Job Engine must report zero active
// jobs before the `worker` subcommand considers the backlog drained.
const quiescentWindow = 2 * time.Second

var workerMetricsAddr string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Job Engine in turbo mode until the backlog drains",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		engine := jobs.Start(db)
		engine.SetTurbo(true)
		defer engine.Stop()

		if workerMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{Addr: workerMetricsAddr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics server exited", "err", err)
				}
			}()
			defer srv.Close()
		}

		var idleSince time.Time
		for {
			time.Sleep(200 * time.Millisecond)
			if engine.Stats.Active() == 0 {
				if idleSince.IsZero() {
					idleSince = time.Now()
				} else if time.Since(idleSince) >= quiescentWindow {
					fmt.Printf("drained: %d done, %d failed\n", engine.Stats.Done(), engine.Stats.Failed())
					return nil
				}
			} else {
				idleSince = time.Time{}
			}
		}
	},
}

func cleanArg(raw string) (string, error) {
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", raw, err)
	}
	return pathutil.Clean(abs), nil
}
