package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered      uint64
	LoginsSucceeded      uint64
	LoginsFailed         uint64
	AuthRejectedMissing  uint64
	AuthRejectedInvalid  uint64
	TasksCreated         uint64
	TasksUpdated         uint64
	TasksDeleted         uint64
	StoreDurationCount   uint64
	StoreDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	usersRegistered      uint64
	loginsSucceeded      uint64
	loginsFailed         uint64
	authRejectedMissing  uint64
	authRejectedInvalid  uint64
	tasksCreated         uint64
	tasksUpdated         uint64
	tasksDeleted         uint64
	storeDurationCount   uint64
	storeDurationTotalNs int64
}

var _ Recorder = (*InMemoryRecorder)(nil)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:      atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded:      atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:         atomic.LoadUint64(&m.loginsFailed),
		AuthRejectedMissing:  atomic.LoadUint64(&m.authRejectedMissing),
		AuthRejectedInvalid:  atomic.LoadUint64(&m.authRejectedInvalid),
		TasksCreated:         atomic.LoadUint64(&m.tasksCreated),
		TasksUpdated:         atomic.LoadUint64(&m.tasksUpdated),
		TasksDeleted:         atomic.LoadUint64(&m.tasksDeleted),
		StoreDurationCount:   atomic.LoadUint64(&m.storeDurationCount),
		StoreDurationTotalNs: atomic.LoadInt64(&m.storeDurationTotalNs),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for the given status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncAuthRejected increments the gate rejection counter for the given reason.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	if reason == "missing" {
		atomic.AddUint64(&m.authRejectedMissing, 1)
		return
	}
	atomic.AddUint64(&m.authRejectedInvalid, 1)
}

// IncTaskCreated increments task created counter.
func (m *InMemoryRecorder) IncTaskCreated() {
	atomic.AddUint64(&m.tasksCreated, 1)
}

// IncTaskUpdated increments task updated counter.
func (m *InMemoryRecorder) IncTaskUpdated() {
	atomic.AddUint64(&m.tasksUpdated, 1)
}

// IncTaskDeleted increments task deleted counter.
func (m *InMemoryRecorder) IncTaskDeleted() {
	atomic.AddUint64(&m.tasksDeleted, 1)
}

// ObserveStoreDuration records the latency of a store call.
func (m *InMemoryRecorder) ObserveStoreDuration(duration time.Duration) {
	atomic.AddUint64(&m.storeDurationCount, 1)
	atomic.AddInt64(&m.storeDurationTotalNs, duration.Nanoseconds())
}
