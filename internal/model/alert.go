package model

import "time"

// AlertEntry is one anomalous service as it appears in the outbound
// notification. FailureRate is sampled from the metrics snapshot at
// dispatch time.
type AlertEntry struct {
	Name           string
	Type           ServiceType
	Status         CheckStatus
	StatusCode     *int
	ExpectedStatus int
	ResponseTime   *float64
	FailureRate    float64
	Error          string
	Timestamp      time.Time
	CanReset       bool // circuit-open entries carry a reset affordance
}

// AlertGroup collects the entries of one service type, in first-seen order
type AlertGroup struct {
	Type    ServiceType
	Entries []AlertEntry
}

// Alert is the single consolidated notification for one run
type Alert struct {
	Environment    string
	Groups         []AlertGroup
	TotalUnhealthy int
	SentAt         time.Time
}
