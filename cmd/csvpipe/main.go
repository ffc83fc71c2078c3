// Command csvpipe filters and projects CSV files, sequentially or in
// parallel.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/csvpipe/csvpipe/internal/config"
	"github.com/csvpipe/csvpipe/internal/engine"
	"github.com/csvpipe/csvpipe/internal/report"
	"github.com/csvpipe/csvpipe/internal/server"
	"github.com/csvpipe/csvpipe/internal/splitter"
)

const version = "1.0.0"

// Cleanup functions registered by long-running commands, run in reverse
// order on SIGINT/SIGTERM.
var (
	shutdownChan = make(chan os.Signal, 1)
	cleanupFuncs []func()
)

func main() {
	setupSignalHandler()

	root := &cobra.Command{
		Use:           "csvpipe",
		Short:         "Filter and project CSV files, sequentially or in parallel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}

	root.AddCommand(newRunCmd(), newDaemonCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		rc         config.RunConfig
		configPath string
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform a CSV into its filtered, projected derivative",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				rc = *loaded
			}
			if err := rc.Validate(); err != nil {
				return err
			}

			input, err := normalizeInputPath(rc.Input)
			if err != nil {
				return err
			}
			output, err := normalizeOutputPath(rc.Output)
			if err != nil {
				return err
			}
			rc.Input, rc.Output = input, output
			if rc.Log == "" {
				rc.Log = strings.TrimSuffix(output, filepath.Ext(output)) + ".log"
			}

			mode := rc.EngineMode()
			cfg := rc.EngineConfig()
			if mode == engine.ModeParts {
				registerCleanup(func() { os.RemoveAll(splitter.TempDirFor(cfg.OutputPath)) })
			}

			logrus.Debugf("running %s: %s -> %s", mode, cfg.InputPath, cfg.OutputPath)

			start := time.Now()
			stats, err := engine.Run(mode, cfg)
			end := time.Now()
			if err != nil {
				return err
			}

			summary := report.Summary{
				Label:      mode.Label(),
				InputPath:  cfg.InputPath,
				OutputPath: cfg.OutputPath,
				LogPath:    cfg.LogPath,
				Start:      start,
				End:        end,
				Valid:      stats.Valid,
				Errors:     stats.Error,
			}
			if mode == engine.ModeParts {
				summary.TempDir = splitter.TempDirFor(cfg.OutputPath)
			}
			summary.Print(os.Stdout)

			if !noHistory {
				if err := report.AppendHistory(".", summary); err != nil {
					logrus.Warnf("history: %v", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&rc.Mode, "mode", "m", "sequential", "execution mode: sequential, parts or batch")
	flags.StringVarP(&rc.Input, "input", "i", "", "input CSV (bare names resolve under ./data/)")
	flags.StringVarP(&rc.Output, "output", "o", "", "output CSV (bare names resolve under ./output/)")
	flags.StringVarP(&rc.Columns, "columns", "c", "*", `column selection: "*" or 1-based numbers like "3,1"`)
	flags.StringVarP(&rc.Filter, "filter", "f", "", `row filter, e.g. 'age >= 18 AND city = "Roma"'`)
	flags.StringVarP(&rc.Separator, "separator", "s", ",", "single-character field separator")
	flags.IntVarP(&rc.Parts, "parts", "p", 0, "part/worker count (default: logical CPUs)")
	flags.IntVar(&rc.BatchLines, "batch-lines", 0, "batch size for the in-memory engine")
	flags.BoolVar(&rc.CompressParts, "compress-parts", false, "lz4-compress temp part files")
	flags.StringVar(&configPath, "config", "", "load the run configuration from a JSON file")
	flags.BoolVar(&noHistory, "no-history", false, "skip the execution-history record")

	return cmd
}

func newDaemonCmd() *cobra.Command {
	var (
		socketPath  string
		maxConc     int
		idleTimeout time.Duration
		historyDir  string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Serve transformation requests over a Unix socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := server.NewUDSDaemon(server.DaemonConfig{
				SocketPath:     socketPath,
				MaxConcurrency: maxConc,
				IdleTimeout:    idleTimeout,
				HistoryDir:     historyDir,
			})
			registerCleanup(d.Shutdown)
			return d.Start()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&socketPath, "socket", "", "socket path (default $CSVPIPE_SOCKET, else /tmp/csvpipe.sock)")
	flags.IntVar(&maxConc, "max-concurrency", 4, "maximum concurrent requests")
	flags.DurationVar(&idleTimeout, "idle-timeout", 30*time.Second, "per-connection idle timeout")
	flags.StringVar(&historyDir, "history-dir", "", "base dir for metrics/history.csv (empty disables)")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("csvpipe v%s\n", version)
		},
	}
}

func registerCleanup(fn func()) {
	cleanupFuncs = append(cleanupFuncs, fn)
}

func setupSignalHandler() {
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdownChan
		fmt.Fprintln(os.Stderr, "received shutdown signal, cleaning up...")
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
		os.Exit(130)
	}()
}
