package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Components: make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			resp.Components[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
