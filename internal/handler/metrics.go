package handler

import (
	"fmt"
	"net/http"

	"github.com/tasklist/tasklist/internal/metrics"
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
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "tasklist_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "tasklist_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "tasklist_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "tasklist_auth_rejected_total{reason=\"missing\"} %d\n", snap.AuthRejectedMissing)
	writeMetric(w, "tasklist_auth_rejected_total{reason=\"invalid\"} %d\n", snap.AuthRejectedInvalid)

	writeMetric(w, "tasklist_tasks_created_total %d\n", snap.TasksCreated)
	writeMetric(w, "tasklist_tasks_updated_total %d\n", snap.TasksUpdated)
	writeMetric(w, "tasklist_tasks_deleted_total %d\n", snap.TasksDeleted)

	writeMetric(w, "tasklist_store_duration_seconds_count %d\n", snap.StoreDurationCount)
	writeMetric(w, "tasklist_store_duration_seconds_sum %.6f\n", float64(snap.StoreDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
