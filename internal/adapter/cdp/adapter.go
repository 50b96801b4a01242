// Package cdp collects traces from a Chromium-family browser over the
// DevTools protocol. It attaches to an already-running remote-debugging
// endpoint; it never launches a browser itself.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/renderlens/internal/adapter"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Type is the registry identifier for this adapter.
const Type = "cdp"

// DefaultEndpoint is the conventional local remote-debugging endpoint.
const DefaultEndpoint = "http://127.0.0.1:9222"

// tracingCategories is the category set requested from the browser. It keeps
// the renderer pipeline, GPU, and script execution while excluding the
// high-volume categories the pipeline never reads.
const tracingCategories = "devtools.timeline,disabled-by-default-devtools.timeline,disabled-by-default-devtools.timeline.frame,disabled-by-default-gpu,v8.execute,blink"

// Meta describes the adapter: live, full-protocol, highest priority.
var Meta = adapter.Metadata{
	Type:     Type,
	Name:     "Chrome DevTools Protocol",
	Priority: 10,
	Patterns: []adapter.Pattern{
		{Fragment: "chrome", Priority: 5},
		{Fragment: "chromium", Priority: 5},
		{Fragment: "msedge", Priority: 4},
		{Fragment: "brave", Priority: 4},
	},
	Capabilities: []trace.Capability{
		trace.CapFullProtocol,
		trace.CapFrameTiming,
		trace.CapLongTasks,
		trace.CapDOMSignals,
		trace.CapGPUEvents,
		trace.CapPaintEvents,
		trace.CapLiveMonitoring,
	},
}

// Adapter drives one DevTools connection. Endpoint defaults to the local
// debugging port; override it before Connect or pass a ws:// URL as the
// collect Source.
type Adapter struct {
	Endpoint string

	// DialTimeout bounds endpoint discovery plus the websocket handshake.
	DialTimeout time.Duration

	client *Client
}

// New constructs a disconnected adapter against the default endpoint.
func New() *Adapter {
	return &Adapter{Endpoint: DefaultEndpoint, DialTimeout: 10 * time.Second}
}

// Factory is the registry constructor.
func Factory() adapter.Adapter { return New() }

func (a *Adapter) Metadata() adapter.Metadata { return Meta }

// Connect discovers the page target and dials its websocket.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}
	dialCtx := ctx
	if a.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, a.DialTimeout)
		defer cancel()
	}

	wsURL, err := DiscoverWebSocketURL(dialCtx, a.Endpoint)
	if err != nil {
		return err
	}
	client, err := Dial(dialCtx, wsURL)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// Disconnect closes the websocket. Idempotent.
func (a *Adapter) Disconnect() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *Adapter) Connected() bool { return a.client != nil }

// Collect runs one tracing window and reconstructs a snapshot from the
// collected events. The call blocks for the whole window; cancelling the
// context ends the window early and keeps whatever was captured.
func (a *Adapter) Collect(ctx context.Context, opts adapter.CollectOptions) (*trace.Snapshot, error) {
	if a.client == nil {
		return nil, fmt.Errorf("cdp adapter not connected")
	}
	window := opts.Window
	if window <= 0 {
		window = 5 * time.Second
	}

	startParams := map[string]any{
		"categories":   tracingCategories,
		"transferMode": "ReportEvents",
	}
	if _, err := a.client.Call(ctx, "Tracing.start", startParams); err != nil {
		return nil, fmt.Errorf("starting trace: %w", err)
	}

	select {
	case <-time.After(window):
	case <-ctx.Done():
		// Early cancellation still stops tracing cleanly below.
	}

	// Tracing.end must not inherit the (possibly cancelled) collect context
	// or the browser would be left tracing forever.
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := a.client.Call(stopCtx, "Tracing.end", nil); err != nil {
		return nil, fmt.Errorf("stopping trace: %w", err)
	}

	batches, err := a.drainTraceEvents(stopCtx)
	if err != nil {
		return nil, err
	}

	events := decodeEvents(batches)
	snap := Reconstruct(events, opts.Name, opts.TargetFps)
	snap.Meta.CollectedAt = time.Now().UTC().Format(time.RFC3339)
	snap.Meta.URL = opts.Source
	return snap, nil
}

// drainTraceEvents consumes Tracing.dataCollected batches until the browser
// signals Tracing.tracingComplete.
func (a *Adapter) drainTraceEvents(ctx context.Context) ([][]byte, error) {
	var batches [][]byte
	for {
		select {
		case msg, ok := <-a.client.Events():
			if !ok {
				return nil, fmt.Errorf("connection closed while draining trace")
			}
			switch msg.Method {
			case "Tracing.dataCollected":
				var payload struct {
					Value json.RawMessage `json:"value"`
				}
				if err := json.Unmarshal(msg.Params, &payload); err != nil {
					continue
				}
				batches = append(batches, payload.Value)
			case "Tracing.tracingComplete":
				return batches, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for trace completion: %w", ctx.Err())
		}
	}
}
