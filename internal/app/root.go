// Package app contains the Cobra command tree for renderlens.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagFps     int
)

var rootCmd = &cobra.Command{
	Use:   "renderlens",
	Short: "Browser rendering performance analysis",
	Long: `renderlens collects browser rendering traces and analyzes them for
performance bottlenecks: layout thrashing, long JS tasks, GPU stalls, and
heavy paints. Traces come from a live DevTools connection or from sanitized
trace files exported by the on-device SDK.

Every finding is scored for impact and ranked so the most expensive fix
comes first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			output.SetNoColor(true)
		} else {
			output.AutoDetectColor()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("renderlens", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  collect   Capture a trace from a running browser and analyze it")
		fmt.Println("  analyze   Analyze a trace file exported by the SDK")
		fmt.Println("  watch     Watch a directory and analyze traces as they arrive")
		fmt.Println("  compare   Compare two saved runs")
		fmt.Println("  runs      List saved runs")
		fmt.Println("  adapters  List available trace sources")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/renderlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().IntVar(&flagFps, "fps", 0, "Target frame rate (default: from config, 60)")
}

// verbosef prints diagnostics when --verbose is set.
func verbosef(format string, args ...any) {
	if flagVerbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
