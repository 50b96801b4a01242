package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/renderlens/internal/detect"
)

// Config is the top-level renderlens configuration.
type Config struct {
	Collection Collection    `mapstructure:"collection"`
	Watch      Watch         `mapstructure:"watch"`
	Scoring    Scoring       `mapstructure:"scoring"`
	Detect     detect.Config `mapstructure:"detect"`
	Output     Output        `mapstructure:"output"`
}

// Collection defines how live traces are captured.
type Collection struct {
	// Endpoint is the DevTools remote-debugging endpoint to attach to.
	Endpoint string `mapstructure:"endpoint"`

	// Adapter forces a specific adapter type; empty means auto-detect.
	Adapter string `mapstructure:"adapter"`

	// BrowserPath hints adapter auto-detection.
	BrowserPath string `mapstructure:"browser_path"`

	TargetFps int           `mapstructure:"target_fps"`
	Window    time.Duration `mapstructure:"window"`
}

// Watch defines watched-directory ingestion behavior.
type Watch struct {
	// Dir is the directory to watch for incoming trace files.
	Dir string `mapstructure:"dir"`

	// Debounce is how long a file must be quiet before it is ingested.
	Debounce time.Duration `mapstructure:"debounce"`

	// CacheSize bounds the in-memory cache of recent run summaries.
	CacheSize int `mapstructure:"cache_size"`

	// Patterns are the filename suffixes treated as trace files.
	Patterns []string `mapstructure:"patterns"`
}

// Scoring defines the impact-score component weights.
type Scoring struct {
	Duration  float64 `mapstructure:"duration"`
	Frequency float64 `mapstructure:"frequency"`
	Impact    float64 `mapstructure:"impact"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	d := DefaultDetect()

	// Set defaults.
	v.SetDefault("collection.endpoint", DefaultCollection.Endpoint)
	v.SetDefault("collection.adapter", DefaultCollection.Adapter)
	v.SetDefault("collection.target_fps", DefaultCollection.TargetFps)
	v.SetDefault("collection.window", DefaultCollection.Window)
	v.SetDefault("watch.debounce", DefaultWatch.Debounce)
	v.SetDefault("watch.cache_size", DefaultWatch.CacheSize)
	v.SetDefault("watch.patterns", DefaultWatch.Patterns)
	v.SetDefault("scoring.duration", DefaultScoring.Duration)
	v.SetDefault("scoring.frequency", DefaultScoring.Frequency)
	v.SetDefault("scoring.impact", DefaultScoring.Impact)
	v.SetDefault("detect.long_task_threshold_ms", d.LongTaskThresholdMs)
	v.SetDefault("detect.thrash_gap_fraction", d.ThrashGapFraction)
	v.SetDefault("detect.min_thrash_occurrences", d.MinThrashOccurrences)
	v.SetDefault("detect.min_thrash_cost_ms", d.MinThrashCostMs)
	v.SetDefault("detect.heavy_paint_min_combined_ms", d.HeavyPaintMinCombinedMs)
	v.SetDefault("detect.heavy_paint_max_layers", d.HeavyPaintMaxLayers)
	v.SetDefault("detect.heavy_paint_collapse_threshold", d.HeavyPaintCollapseThreshold)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error for problems other than file not found.
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// A config zeroing out every weight would divide the score by zero
	// downstream; fall back to the calibrated defaults instead.
	if cfg.Scoring.Duration+cfg.Scoring.Frequency+cfg.Scoring.Impact == 0 {
		cfg.Scoring = DefaultScoring
	}

	cfg.Watch.Dir = expandPath(cfg.Watch.Dir)

	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
