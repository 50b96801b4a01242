// Package config provides configuration loading and defaults for renderlens.
package config

import (
	"time"

	"github.com/blackwell-systems/renderlens/internal/detect"
)

// DefaultConfigDir is the default location for renderlens configuration.
const DefaultConfigDir = "~/.config/renderlens"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "renderlens.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultEndpoint is the default DevTools remote-debugging endpoint.
const DefaultEndpoint = "http://127.0.0.1:9222"

// DefaultCollection holds the default collection settings.
var DefaultCollection = Collection{
	Endpoint:  DefaultEndpoint,
	TargetFps: 60,
	Window:    5 * time.Second,
	Adapter:   "",
}

// DefaultWatch holds the default watched-directory ingestion settings.
var DefaultWatch = Watch{
	Debounce:  100 * time.Millisecond,
	CacheSize: 64,
	Patterns:  []string{".json", ".rltrace"},
}

// DefaultScoring holds the default scoring weights. They sum to 1; a config
// overriding them to all-zero falls back to these at load time.
var DefaultScoring = Scoring{
	Duration:  0.45,
	Frequency: 0.30,
	Impact:    0.25,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultDetect returns the calibrated detector thresholds.
func DefaultDetect() detect.Config {
	return detect.DefaultConfig()
}
