package app

import (
	"fmt"

	"github.com/blackwell-systems/renderlens/internal/adapter"
	"github.com/blackwell-systems/renderlens/internal/adapter/cdp"
	"github.com/blackwell-systems/renderlens/internal/adapter/sdktrace"
	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/config"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/store"
)

// loadConfig loads the effective configuration, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagFps > 0 {
		cfg.Collection.TargetFps = flagFps
	}
	return cfg, nil
}

// newRegistry builds the adapter registry with every built-in source.
func newRegistry() *adapter.Registry {
	r := adapter.NewRegistry()
	r.Register(cdp.Meta, cdp.Factory)
	r.Register(sdktrace.Meta, sdktrace.Factory)
	r.SetDefault(cdp.Type)
	r.Logf = verbosef
	return r
}

// newAnalyzer builds the analyzer from config.
func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	weights := scoring.Weights{
		Duration:  cfg.Scoring.Duration,
		Frequency: cfg.Scoring.Frequency,
		Impact:    cfg.Scoring.Impact,
	}
	a := analyzer.New(cfg.Detect, weights)
	a.Logf = verbosef
	return a
}

// openStore opens the runs database at the default location.
func openStore() (*store.DB, error) {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
