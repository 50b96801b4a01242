package sdktrace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/renderlens/internal/adapter"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

const validTrace = `{
	"version": "1.2",
	"traceId": "abc-123",
	"name": "product-grid-scroll",
	"durationMs": 1000,
	"frames": [
		{"id": 1, "startUs": 0, "endUs": 16667, "durationMs": 16.67},
		{"id": 2, "startUs": 16667, "endUs": 56667, "durationMs": 40},
		{"id": 3, "startUs": 56667, "endUs": 73334, "durationMs": 16.67, "dropped": true}
	],
	"longTasks": [
		{"startUs": 17000, "durationMs": 62, "functionName": "renderGrid", "file": "grid.js", "line": 42, "frameId": 2}
	],
	"domSignals": [
		{"type": "forcedReflow", "startUs": 18000, "durationMs": 4.5, "selector": ".grid-cell", "nodeCount": 120}
	],
	"metadata": {"timestamp": "2026-08-01T10:00:00Z", "fpsTarget": 60, "platform": "android", "browser": "webview"}
}`

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	a := New()
	snap, err := a.Load(writeTrace(t, validTrace))
	require.NoError(t, err)

	assert.Equal(t, "abc-123", snap.ID)
	assert.Equal(t, "product-grid-scroll", snap.Name)
	assert.Equal(t, Type, snap.Meta.AdapterType)
	assert.Equal(t, 60, snap.Meta.TargetFps)
	assert.Len(t, snap.Frames, 3)
	assert.Len(t, snap.LongTasks, 1)
	assert.Len(t, snap.DOMSignals, 1)

	// Sanitized files never carry GPU or paint data.
	assert.Empty(t, snap.GPUEvents)
	assert.Empty(t, snap.Paints)

	assert.Equal(t, trace.SignalForcedReflow, snap.DOMSignals[0].Type)
	assert.Equal(t, 2, snap.LongTasks[0].FrameID)
}

func TestLoad_DroppedFrames(t *testing.T) {
	a := New()
	snap, err := a.Load(writeTrace(t, validTrace))
	require.NoError(t, err)

	// Frame 2 exceeds the 16.67ms budget at 60fps; frame 3 is flagged
	// explicitly. Frame 1 is clean.
	assert.False(t, snap.Frames[0].Dropped)
	assert.True(t, snap.Frames[1].Dropped, "over-budget frame must count as dropped")
	assert.True(t, snap.Frames[2].Dropped, "explicit flag must be honored")
	assert.Equal(t, 2, snap.Metrics.DroppedFrames)
}

func TestLoad_MissingFpsTargetNamesTheField(t *testing.T) {
	content := `{
		"version": "1.2",
		"traceId": "t-1",
		"durationMs": 500,
		"frames": [],
		"longTasks": [],
		"metadata": {"timestamp": "2026-08-01T10:00:00Z"}
	}`
	a := New()
	_, err := a.Load(writeTrace(t, content))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a *ValidationError, got %T", err)

	var found bool
	for _, f := range verr.Fields {
		if f.Field == "metadata.fpsTarget" {
			found = true
		}
	}
	assert.True(t, found, "validation error must reference metadata.fpsTarget, got %v", verr.Fields)
}

func TestLoad_CollectsAllFieldErrors(t *testing.T) {
	content := `{
		"frames": [{"id": 1, "startUs": 100, "endUs": 50, "durationMs": -3}],
		"longTasks": [{"durationMs": -1}],
		"metadata": {}
	}`
	a := New()
	_, err := a.Load(writeTrace(t, content))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make(map[string]bool)
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{
		"version", "traceId", "metadata.timestamp", "metadata.fpsTarget",
		"frames[0]", "frames[0].durationMs", "longTasks[0].durationMs",
	} {
		assert.True(t, fields[want], "missing field error for %s (got %v)", want, verr.Fields)
	}
}

func TestLoad_UnknownVersionWarnsButParses(t *testing.T) {
	content := `{
		"version": "9.9",
		"traceId": "t-2",
		"durationMs": 100,
		"frames": [],
		"longTasks": [],
		"metadata": {"timestamp": "2026-08-01T10:00:00Z", "fpsTarget": 60}
	}`
	a := New()
	var warnings int
	a.Warnf = func(string, ...any) { warnings++ }

	snap, err := a.Load(writeTrace(t, content))
	require.NoError(t, err, "version drift must not be fatal")
	assert.Equal(t, 1, warnings)
	assert.Equal(t, "t-2", snap.ID)
}

func TestLoad_MalformedJSON(t *testing.T) {
	a := New()
	_, err := a.Load(writeTrace(t, "{not json"))
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr), "parse failure is not a validation error")
}

func TestLoad_UnknownFrameIDDefaultsToMinusOne(t *testing.T) {
	content := `{
		"version": "1.2",
		"traceId": "t-3",
		"durationMs": 100,
		"frames": [],
		"longTasks": [{"startUs": 0, "durationMs": 80, "functionName": "boot"}],
		"metadata": {"timestamp": "2026-08-01T10:00:00Z", "fpsTarget": 60}
	}`
	a := New()
	snap, err := a.Load(writeTrace(t, content))
	require.NoError(t, err)
	require.Len(t, snap.LongTasks, 1)
	assert.Equal(t, -1, snap.LongTasks[0].FrameID)
}

func TestCollect_RequiresConnection(t *testing.T) {
	a := New()
	_, err := a.Collect(context.Background(), adapter.CollectOptions{Source: "x.json"})
	require.Error(t, err)
}

func TestCollect_OverridesNameAndFps(t *testing.T) {
	a := New()
	require.NoError(t, a.Connect(context.Background()))
	defer a.Disconnect()

	snap, err := a.Collect(context.Background(), adapter.CollectOptions{
		Source:    writeTrace(t, validTrace),
		Name:      "renamed-run",
		TargetFps: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed-run", snap.Name)
	assert.Equal(t, 120, snap.Meta.TargetFps)
}

func TestCollect_MissingSourcePath(t *testing.T) {
	a := New()
	require.NoError(t, a.Connect(context.Background()))
	_, err := a.Collect(context.Background(), adapter.CollectOptions{})
	require.Error(t, err)
}
