package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// devtoolsTarget is one entry from the /json/list discovery endpoint.
type devtoolsTarget struct {
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// DiscoverWebSocketURL resolves an endpoint to a page-target websocket URL.
// A ws:// or wss:// endpoint is returned as-is; an http:// endpoint is
// queried via /json/list and the first page target wins.
func DiscoverWebSocketURL(ctx context.Context, endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint, nil
	}

	listURL := strings.TrimRight(endpoint, "/") + "/json/list"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", fmt.Errorf("building discovery request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying devtools endpoint %s: %w", listURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("devtools endpoint %s returned %s", listURL, resp.Status)
	}

	var targets []devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("decoding target list: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("no debuggable page target at %s", endpoint)
}

// command is one outgoing protocol message.
type command struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// message is one incoming protocol message: either a command response (ID
// set) or an event (Method set).
type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

// Client is a minimal DevTools protocol client: synchronous commands plus a
// subscription channel for events. One read pump owns the connection's read
// side; Call and Close are safe for concurrent use.
type Client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan message
	closed  bool

	events chan message
	done   chan struct{}
}

// Dial connects to a page-target websocket URL and starts the read pump.
func Dial(ctx context.Context, wsURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	c := &Client{
		conn:    conn,
		pending: make(map[int64]chan message),
		events:  make(chan message, 256),
		done:    make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

func (c *Client) readPump() {
	defer close(c.done)
	for {
		var msg message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.failPending(err)
			return
		}
		if msg.ID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}
		select {
		case c.events <- msg:
		default:
			// Event buffer full: drop rather than stall the pump. Trace
			// payloads arrive in large batches and the consumer drains
			// between commands.
		}
	}
}

func (c *Client) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- message{ID: id, Error: &protocolError{Message: err.Error()}}
	}
}

// Call sends a command and waits for its response or context cancellation.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("connection closed")
	}
	c.nextID++
	id := c.nextID
	ch := make(chan message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.WriteJSON(command{ID: id, Method: method, Params: params}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, msg.Error)
		}
		return msg.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Events returns the incoming event stream.
func (c *Client) Events() <-chan message { return c.events }

// Close tears down the connection and waits briefly for the pump to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	err := c.conn.Close()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
	}
	return err
}
