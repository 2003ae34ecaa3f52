// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncSignup()
	IncLogin(status string) // status: "success" or "failure"
	IncSessionRejected()
	IncRateLimited()

	// Chat metrics
	ObserveCompletion(status string, duration time.Duration)
	IncChatCleared()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
