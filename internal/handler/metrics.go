package handler

import (
	"fmt"
	"net/http"

	"github.com/tutormatematica/tutorchat/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "tutorchat_signups_total %d\n", snap.Signups)
	writeMetric(w, "tutorchat_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "tutorchat_logins_total{status=\"failure\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "tutorchat_sessions_rejected_total %d\n", snap.SessionsRejected)
	writeMetric(w, "tutorchat_rate_limited_total %d\n", snap.RateLimited)

	writeMetric(w, "tutorchat_completions_total{status=\"success\"} %d\n", snap.CompletionsSucceeded)
	writeMetric(w, "tutorchat_completions_total{status=\"failure\"} %d\n", snap.CompletionsFailed)
	writeMetric(w, "tutorchat_completion_duration_seconds_count %d\n", snap.CompletionDurationCount)
	writeMetric(w, "tutorchat_completion_duration_seconds_sum %.6f\n", float64(snap.CompletionDurationTotalNs)/1e9)

	writeMetric(w, "tutorchat_chats_cleared_total %d\n", snap.ChatsCleared)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
