package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/api"
	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the operational HTTP server and starts
// listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	eventsHandle := do.MustInvoke[*EventsManagerHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)
	unread := do.MustInvoke[*service.UnreadService](i)
	stats := do.MustInvoke[*service.StatsService](i)
	brk := do.MustInvoke[*breaker.Breaker](i)
	schedulerHandle := do.MustInvoke[*SchedulerHandle](i)

	sseHandler := events.NewHandler(eventsHandle.Manager, log.Logger)

	server := api.NewServer(
		storeHandle.Store,
		catalogHandle.Catalog,
		library,
		unread,
		stats,
		indexHandle.Index,
		brk,
		schedulerHandle.Tracker(),
		sseHandler,
		log.Logger,
		config.Version,
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: httpServer}, nil
}
