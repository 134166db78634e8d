package handlers

import (
	"context"
	"net/http"
	"time"
)

// Checker is a component whose health is reported by /health/ready.
type Checker interface {
	Name() string
	Healthcheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checkers []Checker
}

// NewHealthHandler creates a handler over checkers. With no checkers the
// service is always ready.
func NewHealthHandler(checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "cafefs",
	}))
}

// ComponentHealth is the health of one checked component.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Readiness handles GET /health/ready. It runs every checker and returns
// 503 if any of them fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make([]ComponentHealth, 0, len(h.checkers))
	allHealthy := true

	for _, c := range h.checkers {
		start := time.Now()
		err := c.Healthcheck(ctx)

		health := ComponentHealth{
			Name:    c.Name(),
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
		if err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			allHealthy = false
		}
		components = append(components, health)
	}

	if !allHealthy {
		resp := unhealthyResponse("one or more components are unhealthy")
		resp.Data = components
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(components))
}
