// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Mutation gateway metrics
	IncPhotoPosted()
	IncUserReplaced()
	IncSyntheticUsersAdded(count int)

	// Broadcast metrics
	IncEventPublished(channel string)
	IncEventDropped(channel string)
	IncSubscriberAttached(channel string)
	IncSubscriberDetached(channel string)

	// Query surface metrics
	ObserveQueryCost(cost int)
	IncQueryRejected(reason string) // "depth", "cost", "unknown_field", "shape"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
