package breaker

import (
	"sort"
	"sync"
	"time"
)

// LoadStats accumulates per-origin fetch timings for one sweep, feeding the
// end-of-sweep summary. Reset between sweeps.
type LoadStats struct {
	mu      sync.Mutex
	origins map[string]*originTimes
}

type originTimes struct {
	count    int
	shortest time.Duration
	longest  time.Duration
	total    time.Duration
}

// NewLoadStats returns an empty accumulator.
func NewLoadStats() *LoadStats {
	return &LoadStats{origins: make(map[string]*originTimes)}
}

// Add records one fetch duration for origin.
func (l *LoadStats) Add(origin string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.origins[origin]
	if !ok {
		t = &originTimes{shortest: d, longest: d}
		l.origins[origin] = t
	}

	t.count++
	t.total += d
	if d < t.shortest {
		t.shortest = d
	}
	if d > t.longest {
		t.longest = d
	}
}

// Reset discards all accumulated timings.
func (l *LoadStats) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.origins)
}

// OriginReport is one origin's timing summary.
type OriginReport struct {
	Origin   string        `json:"origin"`
	Fetches  int           `json:"fetches"`
	Shortest time.Duration `json:"shortest"`
	Average  time.Duration `json:"average"`
	Longest  time.Duration `json:"longest"`
	Total    time.Duration `json:"total"`
}

// Slowest returns up to n origins ordered by total time spent, longest
// first.
func (l *LoadStats) Slowest(n int) []OriginReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]OriginReport, 0, len(l.origins))
	for origin, t := range l.origins {
		out = append(out, OriginReport{
			Origin:   origin,
			Fetches:  t.count,
			Shortest: t.shortest,
			Average:  t.total / time.Duration(t.count),
			Longest:  t.longest,
			Total:    t.total,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
