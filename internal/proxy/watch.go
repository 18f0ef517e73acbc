package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/logging"
)

// EventsURL turns a proxy base URL (http://host:3001 or ws://host:3001/events)
// into the websocket URL of its event feed
func EventsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid proxy URL %q: %w", base, err)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid proxy URL %q: unsupported scheme %s", base, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid proxy URL %q: missing host", base)
	}

	if !strings.HasSuffix(u.Path, "/events") {
		u.Path = strings.TrimRight(u.Path, "/") + "/events"
	}
	return u.String(), nil
}

// Watch subscribes to a proxy's event feed and calls handle for each event
// until ctx is cancelled or the proxy closes the connection.
func Watch(ctx context.Context, base string, handle func(Event)) error {
	wsURL, err := EventsURL(base)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	logging.Debug("Watching proxy events", zap.String("url", wsURL))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream failed: %w", err)
		}

		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			logging.Warn("Skipping undecodable event", zap.Error(err))
			continue
		}
		handle(e)
	}
}
