package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/pubsub"
)

// SubscriptionHandler upgrades requests to WebSocket streams fed from the
// broadcaster. A stream stays open until the client disconnects or the
// broadcaster shuts down.
type SubscriptionHandler struct {
	broadcaster  *pubsub.Broadcaster
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
}

// NewSubscriptionHandler creates a new SubscriptionHandler. checkOrigin nil
// accepts all origins.
func NewSubscriptionHandler(b *pubsub.Broadcaster, logger *slog.Logger, writeTimeout, pingInterval time.Duration, checkOrigin func(*http.Request) bool) *SubscriptionHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &SubscriptionHandler{
		broadcaster: b,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Photos handles GET /api/subscriptions/photos.
func (h *SubscriptionHandler) Photos(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, pubsub.ChannelPhotoAdded)
}

// Users handles GET /api/subscriptions/users.
func (h *SubscriptionHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, pubsub.ChannelUserAdded)
}

// subscriptionEvent is the wire form of one delivered event.
type subscriptionEvent struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

func (h *SubscriptionHandler) serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("websocket upgrade failed", "error", err, "channel", channel)
		return
	}
	defer conn.Close()

	sub := h.broadcaster.Subscribe(channel)
	defer sub.Close()

	// The read loop exists to detect client disconnect; inbound frames
	// carry no meaning on these streams.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.Events():
			if !ok {
				// Broadcaster shut down; tell the client we are going away.
				deadline := time.Now().Add(h.writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteJSON(subscriptionEvent{Channel: channel, Data: projectEvent(payload)}); err != nil {
				h.logger.Debug("subscription write failed", "error", err, "channel", channel)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(h.writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// projectEvent maps a broadcast payload to its public projection.
func projectEvent(payload any) any {
	switch v := payload.(type) {
	case *model.Photo:
		return photoResponse{
			ID:          v.CanonicalID(),
			URL:         v.URL(),
			Name:        v.Name,
			Description: v.Description,
			Category:    string(v.Category),
			PostedBy:    v.UserID,
			Created:     v.Created.Format(time.RFC3339),
		}
	case *model.User:
		return toUserResponse(v)
	default:
		return payload
	}
}
