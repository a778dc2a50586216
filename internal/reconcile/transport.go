package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/cargoflow/tracking-system/internal/broadcast"
	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// HTTPSnapshotter fetches the shipment snapshot from the tracking API.
type HTTPSnapshotter struct {
	BaseURL string // e.g. http://localhost:8080
	Region  string // optional region scope
	Client  *http.Client
}

func (h *HTTPSnapshotter) Snapshot(ctx context.Context) ([]*domain.Shipment, error) {
	u := h.BaseURL + "/api/shipments"
	if h.Region != "" {
		u += "?region=" + url.QueryEscape(h.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w: %v", domain.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: %w: status %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var shipments []*domain.Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipments); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return shipments, nil
}

// WSStream subscribes to the broadcast topic over a websocket. Each
// Subscribe call is one connection attempt; the reconciler redials after
// the returned channel closes.
type WSStream struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string
}

func (w *WSStream) Subscribe(ctx context.Context) (<-chan broadcast.Event, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w: %v", domain.ErrUnavailable, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	events := make(chan broadcast.Event, 64)
	done := make(chan struct{})

	// Close the connection when the caller goes away, and exit as soon
	// as the read loop does so redial cycles never accumulate watchers.
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer close(done)
		for {
			var ev broadcast.Event
			if err := conn.ReadJSON(&ev); err != nil {
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
