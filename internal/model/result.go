package model

import "time"

// CheckStatus classifies the outcome of one probe sequence
type CheckStatus string

const (
	StatusHealthy     CheckStatus = "healthy"
	StatusUnhealthy   CheckStatus = "unhealthy"
	StatusCircuitOpen CheckStatus = "circuit_open"
)

// CheckResult represents the outcome of checking one service once.
// Immutable once produced. StatusCode is a pointer so a probe that never
// got a response serializes as "status_code": null, matching the alert
// consumers' expectations.
type CheckResult struct {
	Name           string      `json:"name"`
	Type           ServiceType `json:"type"`
	Status         CheckStatus `json:"status"`
	ResponseTime   *float64    `json:"response_time,omitempty"`
	StatusCode     *int        `json:"status_code"`
	ExpectedStatus int         `json:"expected_status"`
	Attempt        int         `json:"attempt"`
	Timestamp      time.Time   `json:"timestamp"`
	Error          string      `json:"error,omitempty"`
}

// Anomalous reports whether the result should appear in an alert:
// a wrong status code, an error, or a circuit-open skip all qualify.
func (r *CheckResult) Anomalous() bool {
	if r.Status == StatusCircuitOpen {
		return true
	}
	if r.Status != StatusUnhealthy {
		return false
	}
	if r.StatusCode != nil && *r.StatusCode != r.ExpectedStatus {
		return true
	}
	return r.Error != ""
}

// MetricsSnapshot is a point-in-time view of one service's accumulated
// reliability metrics. MinResponseTime is 0 when nothing was recorded yet.
type MetricsSnapshot struct {
	TotalChecks     int64      `json:"total_checks"`
	TotalFailures   int64      `json:"total_failures"`
	FailureRate     float64    `json:"failure_rate"`
	AvgResponseTime float64    `json:"avg_response_time"`
	MinResponseTime float64    `json:"min_response_time"`
	MaxResponseTime float64    `json:"max_response_time"`
	LastCheckTime   *time.Time `json:"last_check_time,omitempty"`
}
