// Package di provides dependency injection configuration for the ChapTrail server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/di/providers"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideEventsManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Collaborators
	do.Provide(injector, providers.ProvideScraper)
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvideBreaker)

	// Business services
	do.Provide(injector, providers.ProvideTitleService)
	do.Provide(injector, providers.ProvideUnreadService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideStatsService)

	// Workers and server
	do.Provide(injector, providers.ProvideScheduler)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	invocations := []func() error{
		func() error { _, err := do.Invoke[*config.Config](injector); return err },
		func() error { _, err := do.Invoke[*logger.Logger](injector); return err },
		func() error { _, err := do.Invoke[*providers.EventsManagerHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.StoreHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.CatalogHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.SearchIndexHandle](injector); return err },
		func() error { _, err := do.Invoke[scraper.Scraper](injector); return err },
		func() error { _, err := do.Invoke[notify.Notifier](injector); return err },
		func() error { _, err := do.Invoke[*breaker.Breaker](injector); return err },
		func() error { _, err := do.Invoke[*service.TitleService](injector); return err },
		func() error { _, err := do.Invoke[*service.UnreadService](injector); return err },
		func() error { _, err := do.Invoke[*service.LibraryService](injector); return err },
		func() error { _, err := do.Invoke[*service.StatsService](injector); return err },
		func() error { _, err := do.Invoke[*providers.SchedulerHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.HTTPServerHandle](injector); return err },
	}

	for _, invoke := range invocations {
		if err := invoke(); err != nil {
			return err
		}
	}
	return nil
}
