package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/adapter/sdktrace"
	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/report"
)

var (
	analyzeName string
	analyzeSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <trace-file>",
	Short: "Analyze a trace file exported by the SDK",
	Long: `Parse a sanitized trace file, run every detector the file's data
supports, and print the ranked findings. Files from the on-device SDK lack
GPU and paint data, so those detectors are skipped with a warning.

Examples:
  renderlens analyze checkout.json
  renderlens analyze checkout.json --json
  renderlens analyze checkout.json --save     # persist for later comparison`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "Override the trace name")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Persist the result to the runs database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loader := sdktrace.New()
	loader.Warnf = func(format string, a ...any) {
		fmt.Fprintf(os.Stderr, "warning: "+format+"\n", a...)
	}
	snap, err := loader.Load(args[0])
	if err != nil {
		return err
	}
	if analyzeName != "" {
		snap.Name = analyzeName
	}

	res, err := newAnalyzer(cfg).AnalyzeSnapshot(snap, analyzer.Options{
		TargetFps: cfg.Collection.TargetFps,
	})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", args[0], err)
	}

	return emitResult(res)
}

// emitResult renders a result per the global output flags and optionally
// persists it.
func emitResult(res *analyzer.Result) error {
	if analyzeSave || collectSave {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveResult(res)
		if err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		verbosef("saved run %d", id)
	}

	if flagJSON {
		return report.JSON(os.Stdout, res)
	}
	report.Terminal(os.Stdout, res)
	return nil
}
