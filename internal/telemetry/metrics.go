package telemetry

import (
	"sync"
	"time"
)

// Metrics tracks telemetry processing counts.
type Metrics struct {
	SamplesProcessed  int64
	SamplesFailed     int64
	BreachesDetected  int64
	ReentriesDetected int64
	AlertsRaised      int64
	LastProcessedAt   time.Time
}

// MetricsTracker is a goroutine-safe wrapper around Metrics.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics Metrics
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation under the lock.
func (t *MetricsTracker) Update(fn func(*Metrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.metrics)
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Reset clears accumulated metrics.
func (t *MetricsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = Metrics{}
}
