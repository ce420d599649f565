package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// CommitRequest is the body of a batched write.
type CommitRequest struct {
	Ops []Op `json:"ops"`
}

// Client talks to a daygrid document store server. It satisfies the
// reconciler's RemoteStore contract: websocket subscriptions deliver
// full-collection snapshots and commits are atomic batches.
type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

func NewClient(base string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger,
	}
}

// Commit posts one atomic batch. Any non-2xx response is an error and means
// none of the batch was applied.
func (c *Client) Commit(ctx context.Context, ops []Op) error {
	body, err := json.Marshal(CommitRequest{Ops: ops})
	if err != nil {
		return fmt.Errorf("remote: encode commit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/commit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: build commit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: commit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote: commit rejected: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Subscribe opens the realtime stream for one collection. The server sends
// the full current snapshot on connect and again after every commit that
// touches the collection. The channel closes when the context is cancelled
// or the connection drops; the reconciler treats a drop as degraded
// connectivity, not an error to propagate.
func (c *Client) Subscribe(ctx context.Context, collection Collection) (<-chan Event, error) {
	wsBase := c.base
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}
	url := fmt.Sprintf("%s/api/v1/ws/%s", wsBase, collection)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: subscribe %s: %w", collection, err)
	}

	events := make(chan Event, 8)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					c.log.Warn("subscription dropped", "collection", string(collection), "error", err)
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
