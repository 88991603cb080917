// Package sweep implements the top-level control loop: every interval it
// walks all tracked titles across servers then users, scrapes each distinct
// source once through a per-sweep cache, diffs against stored markers,
// queues unread chapters and dispatches notifications, then rebuilds the
// library. A watchdog restarts the whole process when a sweep hangs.
package sweep

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

// watchdogTick is how often the watchdog re-checks sweep liveness.
const watchdogTick = 30 * time.Second

// Scheduler owns the sweep loop. Titles are processed strictly
// sequentially: the scraper wraps a shared stateful fetch resource, so
// there is exactly one in-flight fetch at any time. All shared sweep state
// (cache, counters) has a single writer, the loop itself; the tracker and
// breaker carry their own locks for concurrent readers.
type Scheduler struct {
	catalog  *store.Catalog
	scraper  scraper.Scraper
	notifier notify.Notifier
	breaker  *breaker.Breaker
	load     *breaker.LoadStats
	library  *service.LibraryService
	emitter  store.EventEmitter
	logger   *slog.Logger
	cfg      config.SweepConfig

	breakerReset time.Duration
	tracker      *Tracker
	seq          atomic.Uint64

	// restart is invoked by the watchdog when a sweep is declared hung.
	// The default exits the process; tests swap it out.
	restart func(reason string)
}

// New creates a scheduler wired to its collaborators.
func New(
	catalog *store.Catalog,
	sc scraper.Scraper,
	notifier notify.Notifier,
	brk *breaker.Breaker,
	library *service.LibraryService,
	emitter store.EventEmitter,
	logger *slog.Logger,
	cfg *config.Config,
) *Scheduler {
	s := &Scheduler{
		catalog:      catalog,
		scraper:      sc,
		notifier:     notifier,
		breaker:      brk,
		load:         breaker.NewLoadStats(),
		library:      library,
		emitter:      emitter,
		logger:       logger.With("component", "sweep"),
		cfg:          cfg.Sweep,
		breakerReset: cfg.Breaker.ResetInterval,
		tracker:      NewTracker(),
	}
	s.restart = func(reason string) {
		s.logger.Error("sweep hung, restarting process", "reason", reason)
		os.Exit(1)
	}
	return s
}

// Tracker exposes progress for the stats endpoint.
func (s *Scheduler) Tracker() *Tracker { return s.tracker }

// SetRestartFunc overrides the watchdog's restart action.
func (s *Scheduler) SetRestartFunc(fn func(reason string)) { s.restart = fn }

// Run drives the sweep loop until ctx is cancelled. The first sweep starts
// immediately; each subsequent one after the configured interval, measured
// from the end of the previous sweep.
func (s *Scheduler) Run(ctx context.Context) error {
	s.breaker.ResetAll()
	go s.runBreakerReset(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

// runBreakerReset clears origin exclusions on a fixed interval so a site
// that was down gets re-attempted.
func (s *Scheduler) runBreakerReset(ctx context.Context) {
	ticker := time.NewTicker(s.breakerReset)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.breaker.ResetAll()
		}
	}
}

// RunOnce executes one complete sweep: servers, then users, then the
// library rebuild and summary. Per-title errors never abort the sweep.
func (s *Scheduler) RunOnce(ctx context.Context) {
	seq := s.seq.Add(1)

	servers := s.catalog.Servers()
	users := s.catalog.Users()
	slices.SortFunc(servers, func(a, b *domain.Server) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(users, func(a, b *domain.User) int { return strings.Compare(a.ID, b.ID) })

	titles := 0
	for _, sv := range servers {
		titles += len(sv.Titles)
	}
	for _, u := range users {
		titles += len(u.Titles)
	}

	// The run ID ties one sweep's log lines together across restarts, where
	// the bare sequence number starts over from one.
	runID := uuid.NewString()

	s.tracker.Begin(seq, len(servers)+len(users), titles)
	s.load.Reset()
	s.emitter.Emit(events.NewSweepStartedEvent(seq, len(servers), len(users)))
	s.logger.Info("sweep started", "seq", seq, "run_id", runID, "servers", len(servers), "users", len(users), "titles", titles)

	watchdogDone := make(chan struct{})
	go s.watch(watchdogDone)
	defer close(watchdogDone)

	run := &sweepRun{Scheduler: s, cache: newScrapeCache(), overflowWarned: make(map[string]bool)}
	started := time.Now()

	run.sweepServers(ctx, servers)
	run.sweepUsers(ctx, users)

	s.tracker.SetPhase(PhaseSummarizing)
	s.summarize(ctx, run, seq, runID, started)
	s.tracker.SetPhase(PhaseIdle)
}

// watch enforces the two hang limits: total sweep runtime and time without
// progress. Either one triggers the restart hook; a stuck sweep means a
// wedged fetch resource, which is cheaper to recover by full restart than
// to diagnose live.
func (s *Scheduler) watch(done <-chan struct{}) {
	ticker := time.NewTicker(watchdogTick)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if elapsed := s.tracker.elapsed(); elapsed > s.cfg.RestartCeiling {
				s.restart("sweep exceeded " + s.cfg.RestartCeiling.String() + " at " + s.tracker.Activity())
				return
			}
			if stalled := s.tracker.sinceProgress(); stalled > s.cfg.StallWindow {
				s.restart("no progress for " + stalled.Truncate(time.Second).String() + " at " + s.tracker.Activity())
				return
			}
		}
	}
}

// summarize closes out a sweep: rebuilds the library snapshot, flushes
// dirty catalog records, and logs the per-origin load report.
func (s *Scheduler) summarize(ctx context.Context, run *sweepRun, seq uint64, runID string, started time.Time) {
	if _, err := s.library.Rebuild(seq); err != nil {
		s.logger.Error("library rebuild failed", "seq", seq, "error", err)
	}
	if err := s.catalog.Flush(ctx); err != nil {
		s.logger.Error("catalog flush failed", "seq", seq, "error", err)
	}

	snap := s.tracker.Get()
	duration := time.Since(started)
	s.emitter.Emit(events.NewSweepCompletedEvent(seq, duration, snap.TitlesDone, snap.NewChapters, snap.Errors))

	s.logger.Info("sweep completed",
		"seq", seq,
		"run_id", runID,
		"duration", duration.Truncate(time.Millisecond),
		"titles", snap.TitlesDone,
		"new_chapters", snap.NewChapters,
		"errors", snap.Errors,
		"skipped", snap.Skipped,
		"cached_urls", run.cache.size(),
		"origins_down", s.breaker.Down(),
	)
	for _, report := range s.load.Slowest(10) {
		s.logger.Info("origin load",
			"origin", report.Origin,
			"fetches", report.Fetches,
			"avg", report.Average.Truncate(time.Millisecond),
			"total", report.Total.Truncate(time.Millisecond),
		)
	}
}
