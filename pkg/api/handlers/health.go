package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	realm   *realm.Realm
	sources datasource.Set
}

// NewHealthHandler creates a new health handler. Either argument may be
// nil, in which case readiness fails.
func NewHealthHandler(r *realm.Realm, sources datasource.Set) *HealthHandler {
	return &HealthHandler{realm: r, sources: sources}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "sqlrealm",
	}))
}

// Readiness handles GET /health/ready. It returns 503 until the realm is
// built and every data source answers a ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.realm == nil || h.sources == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("realm not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if failures := h.sources.Ping(ctx); len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("data source unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"queries":     len(h.realm.Configurations()),
		"datasources": len(h.sources),
	}))
}

// DataSourceHealth is the health status of a single data source.
type DataSourceHealth struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DataSources handles GET /health/datasources, pinging each source.
func (h *HealthHandler) DataSources(w http.ResponseWriter, r *http.Request) {
	if h.sources == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("realm not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	response := make([]DataSourceHealth, 0, len(names))
	allHealthy := true

	for _, name := range names {
		src := h.sources[name]

		start := time.Now()
		err := src.Ping(ctx)
		health := DataSourceHealth{
			Name:    name,
			Type:    string(src.Type()),
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
		if err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			allHealthy = false
		}
		response = append(response, health)
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(response))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(response))
	}
}
