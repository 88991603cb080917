package providers

import (
	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
	"github.com/chaptrailapp/chaptrail-server/internal/ratelimit"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
)

// ProvideScraper provides the HTTP scraper with per-origin pacing.
func ProvideScraper(i do.Injector) (scraper.Scraper, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(cfg.Scraper.RequestsPerSecond, 1)
	return scraper.NewHTTPScraper(cfg.Scraper.Timeout, cfg.Scraper.UserAgent, limiter, log.Logger), nil
}

// ProvideNotifier provides the delivery transport. The chat transport
// registers itself here when built in; the default logs messages.
func ProvideNotifier(i do.Injector) (notify.Notifier, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return notify.NewLogNotifier(log.Logger), nil
}

// ProvideBreaker provides the per-origin circuit breaker.
func ProvideBreaker(i do.Injector) (*breaker.Breaker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return breaker.New(cfg.Breaker.TimeoutThreshold, cfg.Breaker.TimeoutOverrides, log.Logger), nil
}

// ProvideTitleService provides follow/unfollow/replace/transfer operations.
func ProvideTitleService(i do.Injector) (*service.TitleService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	sc := do.MustInvoke[scraper.Scraper](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTitleService(catalogHandle.Catalog, sc, log.Logger), nil
}

// ProvideUnreadService provides unread queue operations.
func ProvideUnreadService(i do.Injector) (*service.UnreadService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUnreadService(catalogHandle.Catalog, log.Logger), nil
}

// ProvideLibraryService provides the merged library, restored from the last
// persisted snapshot so it is servable before the first sweep completes.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	library := service.NewLibraryService(catalogHandle.Catalog, storeHandle.Store, indexHandle.Index, log.Logger)
	if err := library.Restore(); err != nil {
		log.Warn("Library snapshot restore failed, waiting for first sweep", "error", err)
	}
	return library, nil
}

// ProvideStatsService provides catalog totals.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)
	brk := do.MustInvoke[*breaker.Breaker](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(catalogHandle.Catalog, library, brk, log.Logger), nil
}
