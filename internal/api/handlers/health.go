package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/sectorwatch/internal/api/response"
	"github.com/wonny/sectorwatch/internal/infra/database"
)

// HealthChecker is implemented by the postgres pool and the sqlite store
type HealthChecker interface {
	Health(ctx context.Context) *database.HealthStatus
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        HealthChecker
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		version:   version,
	}
}

// SimpleHealthResponse represents a simple health check response
type SimpleHealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReadyResponse represents a readiness check response
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Database  *database.HealthStatus `json:"database"`
	Message   string                 `json:"message,omitempty"`
}

// Health returns simple liveness check
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, SimpleHealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now(),
	})
}

// Ready returns readiness with the store check. A degraded store is still ready.
// GET /health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.db.Health(r.Context())

	resp := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Database:  status,
	}
	code := http.StatusOK
	if status == nil || status.Status == database.StatusUnhealthy {
		resp.Status = "not_ready"
		resp.Message = "Database connection failed"
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, code, resp)
}
