package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fincept/analytics/pkg/database"
)

// DatabaseChecker reports Postgres pool health
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// CacheChecker reports Redis availability
type CacheChecker interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// HealthHandler serves /health. Both dependencies are optional.
type HealthHandler struct {
	service string
	db      DatabaseChecker
	cache   CacheChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service string, db DatabaseChecker, cache CacheChecker) *HealthHandler {
	return &HealthHandler{
		service: service,
		db:      db,
		cache:   cache,
	}
}

// Health returns server health status. Degraded dependencies give 503.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
	}

	if h.db != nil {
		dbStatus := h.db.HealthCheck(ctx)
		body["database"] = dbStatus
		if !dbStatus.Healthy {
			status = http.StatusServiceUnavailable
		}
	}

	if h.cache != nil && h.cache.Enabled() {
		cacheStatus := map[string]interface{}{"healthy": true}
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus["healthy"] = false
			cacheStatus["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		body["redis"] = cacheStatus
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	respondJSON(w, status, body)
}
