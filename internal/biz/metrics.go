package biz

import (
	"math"
	"sync"
	"time"

	"PulseWatch/internal/model"
)

// ServiceMetrics accumulates rolling reliability statistics for one
// service over the life of its checker. A circuit-open skip is never
// recorded here: failure rates describe probes actually attempted.
type ServiceMetrics struct {
	mu              sync.Mutex
	totalChecks     int64
	totalFailures   int64
	avgResponseTime float64
	minResponseTime float64
	maxResponseTime float64
	lastCheckTime   time.Time

	now func() time.Time
}

// NewServiceMetrics creates an empty accumulator.
func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		minResponseTime: math.Inf(1),
		now:             time.Now,
	}
}

// Record folds one completed probe sequence into the aggregates. The
// running average is recomputed as (prevAvg*(n-1) + rt) / n with n the
// post-increment check count, so feeding [t1..tn] in any order yields
// their arithmetic mean.
func (m *ServiceMetrics) Record(responseTime float64, isFailure bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalChecks++
	if isFailure {
		m.totalFailures++
	}
	if responseTime < m.minResponseTime {
		m.minResponseTime = responseTime
	}
	if responseTime > m.maxResponseTime {
		m.maxResponseTime = responseTime
	}
	n := float64(m.totalChecks)
	m.avgResponseTime = (m.avgResponseTime*(n-1) + responseTime) / n
	m.lastCheckTime = m.now()
}

// Snapshot returns a point-in-time copy of the aggregates. Min is
// flattened to 0 when nothing has been recorded so the JSON report
// never carries +Inf.
func (m *ServiceMetrics) Snapshot() *model.MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &model.MetricsSnapshot{
		TotalChecks:     m.totalChecks,
		TotalFailures:   m.totalFailures,
		AvgResponseTime: m.avgResponseTime,
		MaxResponseTime: m.maxResponseTime,
	}
	if m.totalChecks > 0 {
		snap.FailureRate = float64(m.totalFailures) / float64(m.totalChecks)
	}
	if !math.IsInf(m.minResponseTime, 1) {
		snap.MinResponseTime = m.minResponseTime
	}
	if !m.lastCheckTime.IsZero() {
		t := m.lastCheckTime
		snap.LastCheckTime = &t
	}
	return snap
}
