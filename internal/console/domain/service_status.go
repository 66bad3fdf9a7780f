package domain

import "time"

type HealthState string

const (
	HealthUnknown   HealthState = "unknown"
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
)

// ServiceStatus is the last observed health of one upstream service.
type ServiceStatus struct {
	Name        string      `json:"name"`
	Status      HealthState `json:"status"`
	LastChecked time.Time   `json:"lastChecked"`
}
