// Package pubsub provides in-process fan-out of entity creation events.
//
// A Broadcaster owns a set of named channels. Publishing delivers the payload
// to every listener attached to that channel at the moment of publish, at
// most once each; listeners that attach later never see earlier events.
// Broadcasters are plain values wired in at the composition root, so tests
// can run several independent instances side by side.
package pubsub

import (
	"log/slog"
	"sync"

	"github.com/photoshare/photoshare/internal/metrics"
)

// Channel names for creation events.
const (
	ChannelPhotoAdded = "photo-added"
	ChannelUserAdded  = "user-added"
)

// DefaultSubscriberBuffer is the per-subscription delivery buffer.
const DefaultSubscriberBuffer = 16

// Broadcaster fans out events to active subscriptions.
type Broadcaster struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	buffer  int

	mu     sync.Mutex
	closed bool
	subs   map[string]map[*Subscription]struct{}
}

// Subscription is one listener's view of a channel.
type Subscription struct {
	broadcaster *Broadcaster
	channel     string
	events      chan any
	closed      bool
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(logger *slog.Logger, recorder metrics.Recorder, buffer int) *Broadcaster {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Broadcaster{
		logger:  logger.With("component", "pubsub.broadcaster"),
		metrics: recorder,
		buffer:  buffer,
		subs:    make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe attaches a new listener to a channel.
// Subscribing to a shut-down broadcaster yields an already-closed stream.
func (b *Broadcaster) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		broadcaster: b,
		channel:     channel,
		events:      make(chan any, b.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.closed = true
		close(sub.events)
		return sub
	}

	listeners, ok := b.subs[channel]
	if !ok {
		listeners = make(map[*Subscription]struct{})
		b.subs[channel] = listeners
	}
	listeners[sub] = struct{}{}

	b.metrics.IncSubscriberAttached(channel)
	b.logger.Debug("subscriber attached", "channel", channel, "listeners", len(listeners))

	return sub
}

// Publish delivers payload to every listener currently attached to channel.
// Delivery is best effort per listener: a listener whose buffer is full has
// this event dropped, without affecting other listeners or the publisher.
func (b *Broadcaster) Publish(channel string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.metrics.IncEventPublished(channel)

	for sub := range b.subs[channel] {
		select {
		case sub.events <- payload:
		default:
			b.metrics.IncEventDropped(channel)
			b.logger.Warn("event dropped, slow subscriber", "channel", channel)
		}
	}
}

// Close shuts down the broadcaster and terminates every open subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for channel, listeners := range b.subs {
		for sub := range listeners {
			sub.closed = true
			close(sub.events)
			b.metrics.IncSubscriberDetached(channel)
		}
	}
	b.subs = nil
}

// Events returns the stream of payloads for this subscription.
// The channel is closed only by Close or broadcaster shutdown; it never
// completes on its own.
func (s *Subscription) Events() <-chan any {
	return s.events
}

// Channel returns the channel name this subscription is attached to.
func (s *Subscription) Channel() string {
	return s.channel
}

// Close detaches the listener. No payload is delivered after Close returns;
// buffered but unread events are discarded by closing the stream. Close is
// safe to call multiple times and safe concurrently with Publish.
func (s *Subscription) Close() {
	b := s.broadcaster

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if listeners, ok := b.subs[s.channel]; ok {
		delete(listeners, s)
		if len(listeners) == 0 {
			delete(b.subs, s.channel)
		}
	}
	close(s.events)

	b.metrics.IncSubscriberDetached(s.channel)
}
