package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/adapter/sdktrace"
	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/ingest"
	"github.com/blackwell-systems/renderlens/internal/store"
)

var (
	watchDebounce time.Duration
	watchQuiet    bool
	watchSave     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and analyze traces as they arrive",
	Long: `Monitor a directory for incoming trace files. Each file is analyzed
once it stops changing, and the result is compared against the previous run
of the same trace name; regressions are reported as alerts.

Examples:
  renderlens watch ./traces                 # foreground (ctrl-c to stop)
  renderlens watch ./traces --save          # persist every run
  renderlens watch ./traces --debounce 1s   # for slow exporters`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchCmd,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a file is ingested (default: from config, 100ms)")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Only print warnings and regressions")
	watchCmd.Flags().BoolVar(&watchSave, "save", false, "Persist every analyzed run to the runs database")
	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	debounce := watchDebounce
	if debounce <= 0 {
		debounce = cfg.Watch.Debounce
	}

	var db *store.DB
	if watchSave {
		db, err = openStore()
		if err != nil {
			return err
		}
		defer db.Close()
	}

	a := newAnalyzer(cfg)
	loader := sdktrace.New()
	loader.Warnf = verbosef

	analyze := func(path string) (*analyzer.Result, error) {
		snap, err := loader.Load(path)
		if err != nil {
			return nil, err
		}
		res, err := a.AnalyzeSnapshot(snap, analyzer.Options{TargetFps: cfg.Collection.TargetFps})
		if err != nil {
			return nil, err
		}
		if db != nil {
			if _, err := db.SaveResult(res); err != nil {
				verbosef("saving run: %v", err)
			}
		}
		return res, nil
	}

	in, err := ingest.New(ingest.Options{
		Dir:       args[0],
		Debounce:  debounce,
		Patterns:  cfg.Watch.Patterns,
		CacheSize: cfg.Watch.CacheSize,
	}, analyze, printIngestAlert)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	if !watchQuiet {
		fmt.Printf("renderlens watching %s (debounce %s)\n", args[0], debounce)
	}

	err = in.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Println("\nStopped.")
		}
		return nil
	}
	return err
}

// printIngestAlert formats and prints an alert to the terminal.
func printIngestAlert(a ingest.Alert) {
	if watchQuiet && a.Level == "info" {
		return
	}
	timestamp := a.Time.Format("15:04:05")
	fmt.Printf("[%s] %s %s\n", timestamp, alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Printf("         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return "\xf0\x9f\x94\xb4" // red circle
	case "warning":
		return "\xe2\x9a\xa0\xef\xb8\x8f" // warning sign
	case "info":
		return "\xe2\x9c\x93" // check mark
	default:
		return " "
	}
}
