package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPhotoPosted is a no-op.
func (n *NoopRecorder) IncPhotoPosted() {}

// IncUserReplaced is a no-op.
func (n *NoopRecorder) IncUserReplaced() {}

// IncSyntheticUsersAdded is a no-op.
func (n *NoopRecorder) IncSyntheticUsersAdded(count int) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(channel string) {}

// IncEventDropped is a no-op.
func (n *NoopRecorder) IncEventDropped(channel string) {}

// IncSubscriberAttached is a no-op.
func (n *NoopRecorder) IncSubscriberAttached(channel string) {}

// IncSubscriberDetached is a no-op.
func (n *NoopRecorder) IncSubscriberDetached(channel string) {}

// ObserveQueryCost is a no-op.
func (n *NoopRecorder) ObserveQueryCost(cost int) {}

// IncQueryRejected is a no-op.
func (n *NoopRecorder) IncQueryRejected(reason string) {}
