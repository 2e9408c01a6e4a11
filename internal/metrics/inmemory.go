package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PhotosPosted        uint64            `json:"photos_posted"`
	UsersReplaced       uint64            `json:"users_replaced"`
	SyntheticUsersAdded uint64            `json:"synthetic_users_added"`
	EventsPublished     map[string]uint64 `json:"events_published"`
	EventsDropped       map[string]uint64 `json:"events_dropped"`
	SubscribersAttached map[string]uint64 `json:"subscribers_attached"`
	SubscribersDetached map[string]uint64 `json:"subscribers_detached"`
	QueryCostCount      uint64            `json:"query_cost_count"`
	QueryCostTotal      uint64            `json:"query_cost_total"`
	QueriesRejected     map[string]uint64 `json:"queries_rejected"`
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	photosPosted        uint64
	usersReplaced       uint64
	syntheticUsersAdded uint64
	queryCostCount      uint64
	queryCostTotal      uint64

	mu                  sync.Mutex
	eventsPublished     map[string]uint64
	eventsDropped       map[string]uint64
	subscribersAttached map[string]uint64
	subscribersDetached map[string]uint64
	queriesRejected     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		eventsPublished:     make(map[string]uint64),
		eventsDropped:       make(map[string]uint64),
		subscribersAttached: make(map[string]uint64),
		subscribersDetached: make(map[string]uint64),
		queriesRejected:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		PhotosPosted:        atomic.LoadUint64(&m.photosPosted),
		UsersReplaced:       atomic.LoadUint64(&m.usersReplaced),
		SyntheticUsersAdded: atomic.LoadUint64(&m.syntheticUsersAdded),
		EventsPublished:     copyCounters(m.eventsPublished),
		EventsDropped:       copyCounters(m.eventsDropped),
		SubscribersAttached: copyCounters(m.subscribersAttached),
		SubscribersDetached: copyCounters(m.subscribersDetached),
		QueryCostCount:      atomic.LoadUint64(&m.queryCostCount),
		QueryCostTotal:      atomic.LoadUint64(&m.queryCostTotal),
		QueriesRejected:     copyCounters(m.queriesRejected),
	}
}

// IncPhotoPosted increments the photo posted counter.
func (m *InMemoryRecorder) IncPhotoPosted() {
	atomic.AddUint64(&m.photosPosted, 1)
}

// IncUserReplaced increments the user replaced counter.
func (m *InMemoryRecorder) IncUserReplaced() {
	atomic.AddUint64(&m.usersReplaced, 1)
}

// IncSyntheticUsersAdded adds to the synthetic users counter.
func (m *InMemoryRecorder) IncSyntheticUsersAdded(count int) {
	if count > 0 {
		atomic.AddUint64(&m.syntheticUsersAdded, uint64(count))
	}
}

// IncEventPublished increments the published counter for a channel.
func (m *InMemoryRecorder) IncEventPublished(channel string) {
	m.incCounter(m.eventsPublished, channel)
}

// IncEventDropped increments the dropped counter for a channel.
func (m *InMemoryRecorder) IncEventDropped(channel string) {
	m.incCounter(m.eventsDropped, channel)
}

// IncSubscriberAttached increments the attach counter for a channel.
func (m *InMemoryRecorder) IncSubscriberAttached(channel string) {
	m.incCounter(m.subscribersAttached, channel)
}

// IncSubscriberDetached increments the detach counter for a channel.
func (m *InMemoryRecorder) IncSubscriberDetached(channel string) {
	m.incCounter(m.subscribersDetached, channel)
}

// ObserveQueryCost records a computed query cost.
func (m *InMemoryRecorder) ObserveQueryCost(cost int) {
	atomic.AddUint64(&m.queryCostCount, 1)
	if cost > 0 {
		atomic.AddUint64(&m.queryCostTotal, uint64(cost))
	}
}

// IncQueryRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncQueryRejected(reason string) {
	m.incCounter(m.queriesRejected, reason)
}

func (m *InMemoryRecorder) incCounter(counters map[string]uint64, key string) {
	m.mu.Lock()
	counters[key]++
	m.mu.Unlock()
}

func copyCounters(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
