package providers

import (
	"context"
	"errors"
	"time"

	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
	"github.com/chaptrailapp/chaptrail-server/internal/sweep"
)

// SchedulerHandle wraps the sweep scheduler with its run loop lifecycle.
type SchedulerHandle struct {
	*sweep.Scheduler
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable. The sweep loop has no mid-sweep
// cancellation point beyond scrape calls, so this waits for the loop to
// notice the cancel, bounded by the shutdown timeout.
func (h *SchedulerHandle) Shutdown() error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(shutdownTimeout):
		return errors.New("sweep loop did not stop in time")
	}
}

// ProvideScheduler provides the sweep scheduler and starts its loop.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	sc := do.MustInvoke[scraper.Scraper](i)
	notifier := do.MustInvoke[notify.Notifier](i)
	brk := do.MustInvoke[*breaker.Breaker](i)
	library := do.MustInvoke[*service.LibraryService](i)
	eventsHandle := do.MustInvoke[*EventsManagerHandle](i)

	scheduler := sweep.New(catalogHandle.Catalog, sc, notifier, brk, library,
		eventsHandle.Manager, log.Logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Sweep loop stopped", "error", err)
		}
	}()

	log.Info("Sweep scheduler started", "interval", cfg.Sweep.Interval)

	return &SchedulerHandle{Scheduler: scheduler, cancel: cancel, done: done}, nil
}
