package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncSessionRejected is a no-op.
func (n *NoopRecorder) IncSessionRejected() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// ObserveCompletion is a no-op.
func (n *NoopRecorder) ObserveCompletion(status string, duration time.Duration) {}

// IncChatCleared is a no-op.
func (n *NoopRecorder) IncChatCleared() {}
