package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy or unhealthy"`
	Version    string                     `json:"version" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	db := s.checkDatabase()
	components["database"] = db
	if db.Status != "healthy" {
		overall = "unhealthy"
	}

	idx := s.checkSearchIndex()
	components["search"] = idx
	if idx.Status != "healthy" {
		overall = "unhealthy"
	}

	components["sweep"] = ComponentHealth{
		Status:  "healthy",
		Message: string(s.tracker.Get().Phase),
	}

	components["events"] = ComponentHealth{
		Status:  "healthy",
		Message: fmt.Sprintf("%d subscribers", s.sse.ClientCount()),
	}

	return &HealthOutput{Body: HealthResponse{
		Status:     overall,
		Version:    s.version,
		Components: components,
	}}, nil
}

func (s *Server) checkDatabase() ComponentHealth {
	started := time.Now()
	if err := s.store.Health(); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: time.Since(started).Truncate(time.Microsecond).String(),
	}
}

func (s *Server) checkSearchIndex() ComponentHealth {
	started := time.Now()
	if _, err := s.index.DocumentCount(); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: time.Since(started).Truncate(time.Microsecond).String(),
	}
}
