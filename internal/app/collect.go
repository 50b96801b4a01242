package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/adapter"
	"github.com/blackwell-systems/renderlens/internal/adapter/cdp"
	"github.com/blackwell-systems/renderlens/internal/analyzer"
)

var (
	collectEndpoint string
	collectWindow   time.Duration
	collectName     string
	collectAdapter  string
	collectSave     bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Capture a trace from a running browser and analyze it",
	Long: `Attach to a browser's remote-debugging endpoint, record rendering
activity for the sampling window, and analyze the captured trace. The
browser must already be running with remote debugging enabled, e.g.:

  chromium --remote-debugging-port=9222

Examples:
  renderlens collect                          # 5s window on localhost:9222
  renderlens collect --window 10s --name checkout
  renderlens collect --endpoint http://192.168.1.20:9222 --save`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectEndpoint, "endpoint", "", "DevTools endpoint (default: from config)")
	collectCmd.Flags().DurationVar(&collectWindow, "window", 0, "Sampling window (default: from config, 5s)")
	collectCmd.Flags().StringVar(&collectName, "name", "", "Name for the captured trace")
	collectCmd.Flags().StringVar(&collectAdapter, "adapter", "", "Adapter type (default: auto-detect)")
	collectCmd.Flags().BoolVar(&collectSave, "save", false, "Persist the result to the runs database")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	endpoint := collectEndpoint
	if endpoint == "" {
		endpoint = cfg.Collection.Endpoint
	}
	window := collectWindow
	if window <= 0 {
		window = cfg.Collection.Window
	}
	adapterType := collectAdapter
	if adapterType == "" {
		adapterType = cfg.Collection.Adapter
	}

	registry := newRegistry()
	src, err := registry.Select(adapter.SelectOptions{
		Type:        adapterType,
		BrowserPath: cfg.Collection.BrowserPath,
	})
	if err != nil {
		return err
	}
	if c, ok := src.(*cdp.Adapter); ok {
		c.Endpoint = endpoint
	}

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	if err := src.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	defer src.Disconnect()

	fmt.Fprintf(os.Stderr, "recording for %s...\n", window)
	snap, err := src.Collect(ctx, adapter.CollectOptions{
		Window:    window,
		TargetFps: cfg.Collection.TargetFps,
		Name:      collectName,
		Source:    endpoint,
	})
	if err != nil {
		return fmt.Errorf("collecting trace: %w", err)
	}
	if snap.Name == "" {
		snap.Name = fmt.Sprintf("collect-%s", time.Now().Format("20060102-150405"))
	}

	res, err := newAnalyzer(cfg).AnalyzeSnapshot(snap, analyzer.Options{
		TargetFps: cfg.Collection.TargetFps,
	})
	if err != nil {
		return fmt.Errorf("analyzing trace: %w", err)
	}

	return emitResult(res)
}
