package models

import "time"

// HealthStatus represents the health status of the service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Health is the body of the liveness and readiness endpoints.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    time.Time      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// DependencyStatus reports one downstream dependency.
type DependencyStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	Circuit       string       `json:"circuit,omitempty"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time   `json:"lastFailureAt,omitempty"`
	Message       string       `json:"message,omitempty"`
}

// SystemStatus is the operator view of the service.
type SystemStatus struct {
	Status       HealthStatus       `json:"status"`
	Time         time.Time          `json:"time"`
	Version      string             `json:"version"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Flags        map[string]any     `json:"flags,omitempty"`
}
