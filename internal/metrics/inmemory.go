package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups                   uint64
	LoginsSucceeded           uint64
	LoginsFailed              uint64
	SessionsRejected          uint64
	RateLimited               uint64
	CompletionsSucceeded      uint64
	CompletionsFailed         uint64
	CompletionDurationCount   uint64
	CompletionDurationTotalNs int64
	ChatsCleared              uint64
}

// InMemoryRecorder keeps counters in memory. It backs the /metrics endpoint
// and is convenient in tests.
type InMemoryRecorder struct {
	signups                   uint64
	loginsSucceeded           uint64
	loginsFailed              uint64
	sessionsRejected          uint64
	rateLimited               uint64
	completionsSucceeded      uint64
	completionsFailed         uint64
	completionDurationCount   uint64
	completionDurationTotalNs int64
	chatsCleared              uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:                   atomic.LoadUint64(&m.signups),
		LoginsSucceeded:           atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:              atomic.LoadUint64(&m.loginsFailed),
		SessionsRejected:          atomic.LoadUint64(&m.sessionsRejected),
		RateLimited:               atomic.LoadUint64(&m.rateLimited),
		CompletionsSucceeded:      atomic.LoadUint64(&m.completionsSucceeded),
		CompletionsFailed:         atomic.LoadUint64(&m.completionsFailed),
		CompletionDurationCount:   atomic.LoadUint64(&m.completionDurationCount),
		CompletionDurationTotalNs: atomic.LoadInt64(&m.completionDurationTotalNs),
		ChatsCleared:              atomic.LoadUint64(&m.chatsCleared),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncSessionRejected increments the rejected session counter.
func (m *InMemoryRecorder) IncSessionRejected() {
	atomic.AddUint64(&m.sessionsRejected, 1)
}

// IncRateLimited increments the rate limited request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// ObserveCompletion records the outcome and duration of a completion call.
func (m *InMemoryRecorder) ObserveCompletion(status string, duration time.Duration) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.completionsSucceeded, 1)
	} else {
		atomic.AddUint64(&m.completionsFailed, 1)
	}
	atomic.AddUint64(&m.completionDurationCount, 1)
	atomic.AddInt64(&m.completionDurationTotalNs, duration.Nanoseconds())
}

// IncChatCleared increments the history cleared counter.
func (m *InMemoryRecorder) IncChatCleared() {
	atomic.AddUint64(&m.chatsCleared, 1)
}
