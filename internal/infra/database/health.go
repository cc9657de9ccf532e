// Package database holds types shared by the postgres and sqlite stores.
package database

import "time"

// HealthStatus represents database health status
type HealthStatus struct {
	Driver       string    `json:"driver"`
	Status       string    `json:"status"`        // "healthy", "degraded", "unhealthy"
	ResponseTime string    `json:"response_time"` // e.g., "5ms"
	ActiveConns  int32     `json:"active_conns"`
	IdleConns    int32     `json:"idle_conns"`
	TotalConns   int32     `json:"total_conns"`
	MaxConns     int32     `json:"max_conns"`
	CheckedAt    time.Time `json:"checked_at"`
	Error        string    `json:"error,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// IsHealthy reports whether the status is fully healthy
func (s *HealthStatus) IsHealthy() bool {
	return s != nil && s.Status == StatusHealthy
}
