// Package api provides the operational HTTP API: health, stats, sweep
// progress, library browse/search, per-user unread queues, and the SSE
// event stream. The API is read-only; all mutations flow through the chat
// transport and the service layer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
	"github.com/chaptrailapp/chaptrail-server/internal/search"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
	"github.com/chaptrailapp/chaptrail-server/internal/sweep"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   *store.Store
	catalog *store.Catalog
	library *service.LibraryService
	unread  *service.UnreadService
	stats   *service.StatsService
	index   *search.Index
	breaker *breaker.Breaker
	tracker *sweep.Tracker
	sse     *events.Handler
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
	version string
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(
	st *store.Store,
	catalog *store.Catalog,
	library *service.LibraryService,
	unread *service.UnreadService,
	stats *service.StatsService,
	index *search.Index,
	brk *breaker.Breaker,
	tracker *sweep.Tracker,
	sse *events.Handler,
	logger *slog.Logger,
	version string,
) *Server {
	s := &Server{
		store:   st,
		catalog: catalog,
		library: library,
		unread:  unread,
		stats:   stats,
		index:   index,
		breaker: brk,
		tracker: tracker,
		sse:     sse,
		router:  chi.NewRouter(),
		logger:  logger,
		version: version,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("ChapTrail API", version)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerStatsRoutes()
	s.registerSweepRoutes()
	s.registerLibraryRoutes()
	s.registerUnreadRoutes()

	// SSE bypasses huma: the stream is long-lived and hand-flushed.
	s.router.Get("/api/v1/events", s.sse.ServeHTTP)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))
}
