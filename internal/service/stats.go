package service

import (
	"log/slog"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

// StatsService aggregates catalog totals for the stats endpoint.
type StatsService struct {
	catalog *store.Catalog
	library *LibraryService
	breaker *breaker.Breaker
	logger  *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(catalog *store.Catalog, lib *LibraryService, br *breaker.Breaker, logger *slog.Logger) *StatsService {
	return &StatsService{
		catalog: catalog,
		library: lib,
		breaker: br,
		logger:  logger,
	}
}

// Stats are catalog-wide totals.
type Stats struct {
	Users          int      `json:"users"`
	Servers        int      `json:"servers"`
	TrackedTitles  int      `json:"tracked_titles"`
	LibraryEntries int      `json:"library_entries"`
	UnreadChapters int      `json:"unread_chapters"`
	OriginsDown    []string `json:"origins_down,omitempty"`
}

// Totals computes current catalog totals. TrackedTitles counts every
// followed source; LibraryEntries counts distinct titles after merging.
func (s *StatsService) Totals() Stats {
	stats := Stats{
		LibraryEntries: len(s.library.Entries()),
		OriginsDown:    s.breaker.Down(),
	}

	users := s.catalog.Users()
	stats.Users = len(users)
	for _, u := range users {
		stats.TrackedTitles += len(u.Titles)
		stats.UnreadChapters += len(u.Unread)
	}

	servers := s.catalog.Servers()
	stats.Servers = len(servers)
	for _, sv := range servers {
		stats.TrackedTitles += len(sv.Titles)
	}

	return stats
}
