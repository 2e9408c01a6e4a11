package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// wireEvent is one frame of a subscription stream.
type wireEvent struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// SubscribePhotos attaches to the server's photo stream and merges each
// event into the cache. It blocks until the context is canceled or the
// connection drops.
func (c *Cache) SubscribePhotos(ctx context.Context, baseURL, token string) error {
	return c.subscribe(ctx, baseURL, "/api/subscriptions/photos", token, func(data json.RawMessage) error {
		var photo Photo
		if err := json.Unmarshal(data, &photo); err != nil {
			return fmt.Errorf("decoding photo event: %w", err)
		}
		c.ApplyPhotoAdded(photo)
		return nil
	})
}

// SubscribeUsers attaches to the server's user stream and merges each event
// into the cache.
func (c *Cache) SubscribeUsers(ctx context.Context, baseURL, token string) error {
	return c.subscribe(ctx, baseURL, "/api/subscriptions/users", token, func(data json.RawMessage) error {
		var user User
		if err := json.Unmarshal(data, &user); err != nil {
			return fmt.Errorf("decoding user event: %w", err)
		}
		c.ApplyUserAdded(user)
		return nil
	})
}

func (c *Cache) subscribe(ctx context.Context, baseURL, path, token string, apply func(json.RawMessage) error) error {
	wsURL, err := streamURL(baseURL, path, token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing subscription stream: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading subscription stream: %w", err)
		}
		if err := apply(ev.Data); err != nil {
			c.logger.Warn("discarding malformed event", "channel", ev.Channel, "error", err)
		}
	}
}

// streamURL builds the ws:// form of a subscription endpoint. The token
// travels as a query parameter because browser WebSocket clients cannot set
// headers.
func streamURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + path)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if token != "" {
		q := u.Query()
		q.Set("access_token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
