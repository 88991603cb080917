package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
	"github.com/chaptrailapp/chaptrail-server/internal/search"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

// EventsManagerHandle wraps the SSE manager with its context for lifecycle
// management.
type EventsManagerHandle struct {
	*events.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EventsManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideEventsManager provides the server-sent events manager.
func ProvideEventsManager(i do.Injector) (*EventsManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := events.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("Event stream manager started")

	return &EventsManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	eventsHandle := do.MustInvoke[*EventsManagerHandle](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger, eventsHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)
	return &StoreHandle{Store: db}, nil
}

// CatalogHandle wraps the catalog with its flusher lifecycle.
type CatalogHandle struct {
	*store.Catalog
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable: stops the flusher and writes the
// final snapshot.
func (h *CatalogHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Flush(ctx)
}

// ProvideCatalog loads the in-memory working set and starts the periodic
// flusher.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	catalog := store.NewCatalog(storeHandle.Store, log.Logger)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer loadCancel()
	if err := catalog.Load(loadCtx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go catalog.RunFlusher(ctx, cfg.Data.FlushInterval)

	log.Info("Catalog loaded", "flush_interval", cfg.Data.FlushInterval)

	return &CatalogHandle{Catalog: catalog, cancel: cancel}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the full-text library index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Search index opened")
	return &SearchIndexHandle{Index: index}, nil
}
