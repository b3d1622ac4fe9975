package model

import "time"

// ServiceType classifies a probe target
type ServiceType string

const (
	ServiceTypeBackend  ServiceType = "backend"
	ServiceTypeFrontend ServiceType = "frontend"
)

// Valid reports whether t is one of the recognized service types
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeBackend, ServiceTypeFrontend:
		return true
	}
	return false
}

// Service represents one probe target with all defaults resolved.
// Immutable after configuration load; the checker owns one circuit
// breaker and one metrics accumulator per Service.
type Service struct {
	Name             string
	URL              string
	Type             ServiceType
	Timeout          time.Duration
	ExpectedStatus   int
	CustomHeaders    map[string]string
	RetryAttempts    int
	RetryDelay       time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
}
