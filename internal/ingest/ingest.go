// Package ingest watches a directory for incoming trace files, analyzes each
// file once it settles, and emits alerts when a run regresses against the
// previous run of the same trace name.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/compare"
)

// Alert represents a notable event detected during ingestion.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// AnalyzeFunc turns a trace file into an analysis result.
type AnalyzeFunc func(path string) (*analyzer.Result, error)

// Options tunes one ingestor.
type Options struct {
	// Dir is the directory to watch.
	Dir string

	// Debounce is how long a file must stay quiet before ingestion.
	// Editors and SDK exporters write in bursts; each new event resets
	// the file's timer.
	Debounce time.Duration

	// Patterns are the filename suffixes treated as trace files.
	Patterns []string

	// CacheSize bounds the recent-results cache.
	CacheSize int
}

// Ingestor owns the watch loop. One goroutine drains filesystem events,
// another drains watcher errors; per-path debounce timers fire ingestion.
type Ingestor struct {
	opts    Options
	analyze AnalyzeFunc
	alertFn func(Alert)

	mu         sync.Mutex
	timers     map[string]*time.Timer
	lastByName map[string]*analyzer.Result

	recent *lru.Cache[string, *analyzer.Result]
}

// New creates an ingestor. analyze is required; alertFn may be nil.
func New(opts Options, analyze AnalyzeFunc, alertFn func(Alert)) (*Ingestor, error) {
	if analyze == nil {
		return nil, fmt.Errorf("analyze function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{".json", ".rltrace"}
	}

	recent, err := lru.New[string, *analyzer.Result](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Ingestor{
		opts:       opts,
		analyze:    analyze,
		alertFn:    alertFn,
		timers:     make(map[string]*time.Timer),
		lastByName: make(map[string]*analyzer.Result),
		recent:     recent,
	}, nil
}

// Run starts the watch loop and blocks until ctx is cancelled.
func (in *Ingestor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(in.opts.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", in.opts.Dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				in.cancelTimers()
				return ctx.Err()
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				in.handleEvent(ev)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				in.emit(Alert{
					Level:   "warning",
					Title:   "Watcher error",
					Message: err.Error(),
					Time:    time.Now(),
				})
			}
		}
	})

	return g.Wait()
}

// handleEvent schedules ingestion for writes and creations of trace files.
// Repeated events for the same path reset its debounce timer.
func (in *Ingestor) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	if !in.matches(ev.Name) {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[ev.Name]; ok {
		t.Reset(in.opts.Debounce)
		return
	}
	path := ev.Name
	in.timers[path] = time.AfterFunc(in.opts.Debounce, func() {
		in.mu.Lock()
		delete(in.timers, path)
		in.mu.Unlock()
		in.ingest(path)
	})
}

func (in *Ingestor) matches(path string) bool {
	lower := strings.ToLower(filepath.Base(path))
	for _, p := range in.opts.Patterns {
		if strings.HasSuffix(lower, p) {
			return true
		}
	}
	return false
}

func (in *Ingestor) cancelTimers() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for path, t := range in.timers {
		t.Stop()
		delete(in.timers, path)
	}
}

// ingest analyzes one settled file, caches the result, and compares it to
// the previous run of the same trace name.
func (in *Ingestor) ingest(path string) {
	res, err := in.analyze(path)
	if err != nil {
		in.emit(Alert{
			Level:   "warning",
			Title:   "Ingestion failed",
			Message: fmt.Sprintf("%s: %v", filepath.Base(path), err),
			Time:    time.Now(),
		})
		return
	}

	in.recent.Add(res.Summary.ID, res)

	in.mu.Lock()
	prev := in.lastByName[res.Summary.Name]
	in.lastByName[res.Summary.Name] = res
	in.mu.Unlock()

	in.emit(Alert{
		Level:   "info",
		Title:   fmt.Sprintf("Trace ingested: %s", res.Summary.Name),
		Message: fmt.Sprintf("%d frames, %d dropped, %d findings", res.Summary.FrameMetrics.TotalFrames, res.Summary.FrameMetrics.DroppedFrames, len(res.Detections)),
		Time:    time.Now(),
	})

	if prev != nil {
		for _, a := range regressionAlerts(prev, res) {
			in.emit(a)
		}
	}
}

// Recent returns the cached recent results, most recently ingested last.
func (in *Ingestor) Recent() []*analyzer.Result {
	keys := in.recent.Keys()
	out := make([]*analyzer.Result, 0, len(keys))
	for _, k := range keys {
		if res, ok := in.recent.Get(k); ok {
			out = append(out, res)
		}
	}
	return out
}

// Lookup returns a cached result by trace ID.
func (in *Ingestor) Lookup(traceID string) (*analyzer.Result, bool) {
	return in.recent.Get(traceID)
}

func (in *Ingestor) emit(a Alert) {
	if in.alertFn != nil {
		in.alertFn(a)
	}
}

// regressionAlerts converts a comparison report into alerts. Frame-rate
// collapse is critical; any other regression is a warning; improvements are
// informational.
func regressionAlerts(prev, curr *analyzer.Result) []Alert {
	var alerts []Alert
	now := time.Now()
	report := compare.Results(prev, curr)

	for _, m := range report.Metrics {
		switch m.Direction {
		case compare.DirectionRegressed:
			level := "warning"
			if m.Name == "avg_fps" && m.DeltaPct < -20 {
				level = "critical"
			}
			alerts = append(alerts, Alert{
				Level:   level,
				Title:   fmt.Sprintf("Regression: %s", m.Name),
				Message: fmt.Sprintf("%.2f -> %.2f (%+.1f%%)", m.Before, m.After, m.DeltaPct),
				Time:    now,
			})
		case compare.DirectionImproved:
			alerts = append(alerts, Alert{
				Level:   "info",
				Title:   fmt.Sprintf("Improved: %s", m.Name),
				Message: fmt.Sprintf("%.2f -> %.2f (%+.1f%%)", m.Before, m.After, m.DeltaPct),
				Time:    now,
			})
		}
	}

	for _, d := range report.Detections {
		if d.Direction != compare.DirectionRegressed {
			continue
		}
		if d.BeforeCount == 0 {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   fmt.Sprintf("New issue type: %s", d.Type),
				Message: fmt.Sprintf("%d finding(s), combined impact %.1f", d.AfterCount, d.AfterScore),
				Time:    now,
			})
		} else {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   fmt.Sprintf("Issue worsened: %s", d.Type),
				Message: fmt.Sprintf("combined impact %.1f -> %.1f", d.BeforeScore, d.AfterScore),
				Time:    now,
			})
		}
	}

	return alerts
}
