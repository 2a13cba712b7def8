package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncAuthRejected is a no-op.
func (n *NoopRecorder) IncAuthRejected(reason string) {}

// IncTaskCreated is a no-op.
func (n *NoopRecorder) IncTaskCreated() {}

// IncTaskUpdated is a no-op.
func (n *NoopRecorder) IncTaskUpdated() {}

// IncTaskDeleted is a no-op.
func (n *NoopRecorder) IncTaskDeleted() {}

// ObserveStoreDuration is a no-op.
func (n *NoopRecorder) ObserveStoreDuration(duration time.Duration) {}
