package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/service"
	"github.com/chaptrailapp/chaptrail-server/internal/sweep"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Bot statistics",
		Description: "Returns catalog totals and currently excluded origins",
		Tags:        []string{"Stats"},
	}, s.handleGetStats)
}

func (s *Server) registerSweepRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSweepStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sweep",
		Summary:     "Sweep progress",
		Description: "Returns the current sweep phase and progress counters",
		Tags:        []string{"Sweep"},
	}, s.handleGetSweepStatus)
}

// StatsOutput wraps catalog totals for Huma.
type StatsOutput struct {
	Body service.Stats
}

func (s *Server) handleGetStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{Body: s.stats.Totals()}, nil
}

// SweepStatusResponse contains sweep progress in API responses.
type SweepStatusResponse struct {
	sweep.Snapshot
	Activity    string   `json:"activity" doc:"Human-readable position in the sweep"`
	OriginsDown []string `json:"origins_down,omitempty" doc:"Origins currently excluded by the circuit breaker"`
	LibraryAt   string   `json:"library_built_at,omitempty" doc:"When the library snapshot was last rebuilt"`
}

// SweepStatusOutput wraps the sweep status response for Huma.
type SweepStatusOutput struct {
	Body SweepStatusResponse
}

func (s *Server) handleGetSweepStatus(_ context.Context, _ *struct{}) (*SweepStatusOutput, error) {
	resp := SweepStatusResponse{
		Snapshot:    s.tracker.Get(),
		Activity:    s.tracker.Activity(),
		OriginsDown: s.breaker.Down(),
	}
	if builtAt := s.library.BuiltAt(); !builtAt.IsZero() {
		resp.LibraryAt = builtAt.Format(time.RFC3339)
	}
	return &SweepStatusOutput{Body: resp}, nil
}
