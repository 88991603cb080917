package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/library"
	"github.com/chaptrailapp/chaptrail-server/internal/search"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

// LibraryService owns the merged library: it rebuilds the snapshot from the
// catalog after each sweep, persists it, and keeps the search index in sync.
type LibraryService struct {
	catalog *store.Catalog
	store   *store.Store
	index   *search.Index
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []domain.LibraryEntry
	builtAt time.Time
}

// NewLibraryService creates a new library service.
func NewLibraryService(catalog *store.Catalog, st *store.Store, index *search.Index, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		catalog: catalog,
		store:   st,
		index:   index,
		logger:  logger,
	}
}

// Restore loads the persisted snapshot so the library is servable before the
// first sweep completes after a restart.
func (s *LibraryService) Restore() error {
	snap, err := s.store.LoadLibrary()
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	s.entries = snap.Entries
	s.builtAt = snap.BuiltAt
	s.mu.Unlock()

	s.logger.Info("library snapshot restored",
		slog.Int("entries", len(snap.Entries)),
		slog.Time("built_at", snap.BuiltAt))
	return nil
}

// Rebuild merges all server and user title lists into a fresh library,
// persists the snapshot, and reindexes search. Called at the end of a sweep.
func (s *LibraryService) Rebuild(sweepSeq uint64) ([]domain.LibraryEntry, error) {
	var serverTitles, userTitles [][]domain.Title
	titleScan := 0
	for _, sv := range s.catalog.Servers() {
		serverTitles = append(serverTitles, sv.Titles)
		titleScan += len(sv.Titles)
	}
	for _, u := range s.catalog.Users() {
		userTitles = append(userTitles, u.Titles)
		titleScan += len(u.Titles)
	}

	entries := library.Rebuild(serverTitles, userTitles)
	builtAt := time.Now()

	s.mu.Lock()
	s.entries = entries
	s.builtAt = builtAt
	s.mu.Unlock()

	if err := s.store.SaveLibrary(&store.LibrarySnapshot{
		Entries:   entries,
		BuiltAt:   builtAt,
		SweepSeq:  sweepSeq,
		TitleScan: titleScan,
	}); err != nil {
		return entries, err
	}

	if err := s.index.Reindex(entries); err != nil {
		s.logger.Error("library reindex failed", slog.String("error", err.Error()))
	}

	s.logger.Info("library rebuilt",
		slog.Int("entries", len(entries)),
		slog.Int("titles_scanned", titleScan))
	return entries, nil
}

// Entries returns the current library snapshot.
func (s *LibraryService) Entries() []domain.LibraryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// BuiltAt returns when the current snapshot was built.
func (s *LibraryService) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

// Suggest returns autocomplete suggestions for a partial title query,
// ranked by fuzzy match quality, falling back to the most-read entries for
// an empty query.
func (s *LibraryService) Suggest(query string) []string {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()
	return library.Suggest(entries, query)
}
