// Package breaker tracks per-origin health and temporarily excludes origins
// that look down, so one dead website cannot slow a whole sweep to a crawl.
package breaker

import (
	"log/slog"
	"sync"
)

// DefaultTimeoutThreshold is how many timeouts within one window mark an
// origin down.
const DefaultTimeoutThreshold = 5

// Breaker keeps failure counters per website origin. A fatal status (521,
// 403, unresolved name) is one strike; timeouts only count against a
// threshold, overridable per origin for sites with naturally high latency.
// Counters reset wholesale on a fixed interval via ResetAll — exclusion is
// temporary, never a deletion.
//
// The sweep loop is the only writer during a sweep, but ResetAll runs from a
// timer goroutine and the HTTP stats endpoint reads concurrently, so all
// state sits behind a mutex.
type Breaker struct {
	mu sync.Mutex

	down      map[string]bool
	timeouts  map[string]int
	threshold int
	overrides map[string]int

	logger *slog.Logger
}

// New creates a breaker with the given default timeout threshold and
// per-origin overrides (origin -> threshold).
func New(threshold int, overrides map[string]int, logger *slog.Logger) *Breaker {
	if threshold <= 0 {
		threshold = DefaultTimeoutThreshold
	}
	return &Breaker{
		down:      make(map[string]bool),
		timeouts:  make(map[string]int),
		threshold: threshold,
		overrides: overrides,
		logger:    logger,
	}
}

// RecordTimeout counts one navigation timeout against origin and reports
// whether that tipped it over the threshold.
func (b *Breaker) RecordTimeout(origin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timeouts[origin]++

	threshold := b.threshold
	if o, ok := b.overrides[origin]; ok {
		threshold = o
	}
	if b.timeouts[origin] < threshold || b.down[origin] {
		return false
	}

	b.down[origin] = true
	b.logger.Warn("origin marked down", "origin", origin, "reason", "timeouts", "count", b.timeouts[origin])
	return true
}

// RecordFatal marks origin down immediately: one fatal HTTP status or an
// unresolvable name is enough.
func (b *Breaker) RecordFatal(origin, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.down[origin] {
		return
	}
	b.down[origin] = true
	b.logger.Warn("origin marked down", "origin", origin, "reason", reason)
}

// IsDown reports whether origin is excluded for the current window.
func (b *Breaker) IsDown(origin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.down[origin]
}

// Down returns the currently excluded origins.
func (b *Breaker) Down() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.down))
	for origin, isDown := range b.down {
		if isDown {
			out = append(out, origin)
		}
	}
	return out
}

// ResetAll clears every counter and exclusion. Called at process start and
// on the reset interval.
func (b *Breaker) ResetAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.down)
	clear(b.timeouts)
	b.logger.Info("origin down-list reset")
}
