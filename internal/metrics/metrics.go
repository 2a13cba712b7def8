// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failed"

	// Authorization gate metrics
	IncAuthRejected(reason string) // reason: "missing" or "invalid"

	// Task management metrics
	IncTaskCreated()
	IncTaskUpdated()
	IncTaskDeleted()

	// Store latency
	ObserveStoreDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
