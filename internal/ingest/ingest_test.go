package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

func resultFor(name string, avgFps float64, dropped int) *analyzer.Result {
	return &analyzer.Result{
		Summary: analyzer.Summary{
			ID:   name + "-" + time.Now().Format("150405.000000"),
			Name: name,
			FrameMetrics: trace.FrameMetricsSummary{
				TotalFrames:   100,
				DroppedFrames: dropped,
				AvgFps:        avgFps,
			},
		},
	}
}

func TestHandleEvent_DebouncesRepeatedWrites(t *testing.T) {
	var calls atomic.Int32
	in, err := New(Options{Dir: ".", Debounce: 20 * time.Millisecond}, func(path string) (*analyzer.Result, error) {
		calls.Add(1)
		return resultFor("demo", 60, 0), nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Three rapid writes to the same file must collapse into one ingestion.
	for i := 0; i < 3; i++ {
		in.handleEvent(fsnotify.Event{Name: "/tmp/demo.json", Op: fsnotify.Write})
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 ingestion, got %d", got)
	}
}

func TestHandleEvent_SeparatePathsGetSeparateTimers(t *testing.T) {
	var calls atomic.Int32
	in, err := New(Options{Dir: ".", Debounce: 10 * time.Millisecond}, func(path string) (*analyzer.Result, error) {
		calls.Add(1)
		return resultFor(filepath.Base(path), 60, 0), nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	in.handleEvent(fsnotify.Event{Name: "/tmp/a.json", Op: fsnotify.Write})
	in.handleEvent(fsnotify.Event{Name: "/tmp/b.json", Op: fsnotify.Create})
	time.Sleep(50 * time.Millisecond)

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 ingestions, got %d", got)
	}
}

func TestHandleEvent_IgnoresNonTraceFilesAndRemoves(t *testing.T) {
	var calls atomic.Int32
	in, err := New(Options{Dir: ".", Debounce: 5 * time.Millisecond}, func(path string) (*analyzer.Result, error) {
		calls.Add(1)
		return resultFor("x", 60, 0), nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	in.handleEvent(fsnotify.Event{Name: "/tmp/readme.txt", Op: fsnotify.Write})
	in.handleEvent(fsnotify.Event{Name: "/tmp/trace.json", Op: fsnotify.Remove})
	time.Sleep(30 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no ingestions, got %d", got)
	}
}

func TestIngest_RegressionAlerts(t *testing.T) {
	var mu sync.Mutex
	var alerts []Alert

	results := []*analyzer.Result{
		resultFor("checkout", 58, 1),
		func() *analyzer.Result {
			r := resultFor("checkout", 30, 20)
			r.Detections = []finding.Detection{{
				Type:    finding.TypeLongTask,
				Metrics: finding.Metrics{ImpactScore: 70},
			}}
			return r
		}(),
	}
	var next atomic.Int32

	in, err := New(Options{Dir: "."}, func(path string) (*analyzer.Result, error) {
		return results[next.Add(1)-1], nil
	}, func(a Alert) {
		mu.Lock()
		alerts = append(alerts, a)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	in.ingest("/tmp/checkout-1.json")
	in.ingest("/tmp/checkout-2.json")

	mu.Lock()
	defer mu.Unlock()

	var critical, newIssue bool
	for _, a := range alerts {
		if a.Level == "critical" && a.Title == "Regression: avg_fps" {
			critical = true
		}
		if a.Title == "New issue type: long-task" {
			newIssue = true
		}
	}
	if !critical {
		t.Errorf("58 -> 30 fps must be a critical regression, alerts: %+v", alerts)
	}
	if !newIssue {
		t.Errorf("a new detection type must alert, alerts: %+v", alerts)
	}
}

func TestIngest_AnalyzeFailureIsAWarning(t *testing.T) {
	var mu sync.Mutex
	var alerts []Alert

	in, err := New(Options{Dir: "."}, func(path string) (*analyzer.Result, error) {
		return nil, errors.New("corrupt file")
	}, func(a Alert) {
		mu.Lock()
		alerts = append(alerts, a)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	in.ingest("/tmp/bad.json")

	mu.Lock()
	defer mu.Unlock()
	if len(alerts) != 1 || alerts[0].Level != "warning" {
		t.Fatalf("expected one warning alert, got %+v", alerts)
	}
}

func TestRecentCache(t *testing.T) {
	in, err := New(Options{Dir: ".", CacheSize: 2}, func(path string) (*analyzer.Result, error) {
		return resultFor(filepath.Base(path), 60, 0), nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	in.ingest("a.json")
	in.ingest("b.json")
	in.ingest("c.json")

	recent := in.Recent()
	if len(recent) != 2 {
		t.Fatalf("cache must evict beyond its size, got %d entries", len(recent))
	}
	for _, r := range recent {
		if r.Summary.Name == "a.json" {
			t.Error("oldest entry should have been evicted")
		}
	}
}

func TestRun_WatchesDirectory(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	done := make(chan struct{}, 1)
	in, err := New(Options{Dir: dir, Debounce: 20 * time.Millisecond}, func(path string) (*analyzer.Result, error) {
		calls.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
		return resultFor("live", 60, 0), nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()

	// Give the watcher a moment to register, then drop a trace file in.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "run.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing trace: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ingestion")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from Run, got %v", err)
	}
	if calls.Load() < 1 {
		t.Error("expected at least one ingestion")
	}
}
