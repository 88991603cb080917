package sweep

import (
	"fmt"
	"sync"
	"time"
)

// Phase is the sweep state machine's current stage.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseServers     Phase = "running_servers"
	PhaseUsers       Phase = "running_users"
	PhaseSummarizing Phase = "summarizing"
)

// Tracker holds one sweep's progress counters. The scheduler loop is the
// only writer; the watchdog and the stats endpoint read concurrently, so
// all access goes through the mutex. Counters are monotonically
// non-decreasing within a sweep, which is what the watchdog's stall
// detection relies on.
type Tracker struct {
	mu sync.Mutex

	phase Phase
	seq   uint64

	startedAt      time.Time
	lastProgressAt time.Time

	ownersDone  int
	ownersTotal int
	titlesDone  int
	titlesTotal int

	skipped     map[string]int
	errors      int
	newChapters int
}

// Snapshot is a point-in-time copy of the tracker for readers.
type Snapshot struct {
	Phase       Phase          `json:"phase"`
	Seq         uint64         `json:"seq"`
	StartedAt   time.Time      `json:"started_at"`
	OwnersDone  int            `json:"owners_done"`
	OwnersTotal int            `json:"owners_total"`
	TitlesDone  int            `json:"titles_done"`
	TitlesTotal int            `json:"titles_total"`
	Skipped     map[string]int `json:"skipped,omitempty"`
	Errors      int            `json:"errors"`
	NewChapters int            `json:"new_chapters"`
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{phase: PhaseIdle, skipped: make(map[string]int)}
}

// Begin resets all counters for a new sweep.
func (t *Tracker) Begin(seq uint64, owners, titles int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.phase = PhaseServers
	t.seq = seq
	t.startedAt = now
	t.lastProgressAt = now
	t.ownersDone = 0
	t.ownersTotal = owners
	t.titlesDone = 0
	t.titlesTotal = titles
	t.skipped = make(map[string]int)
	t.errors = 0
	t.newChapters = 0
}

// SetPhase advances the state machine. Counts as progress.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = p
	t.lastProgressAt = time.Now()
}

// OwnerDone records one owner fully processed.
func (t *Tracker) OwnerDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ownersDone++
	t.lastProgressAt = time.Now()
}

// TitleDone records one title processed, successfully or not.
func (t *Tracker) TitleDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titlesDone++
	t.lastProgressAt = time.Now()
}

// TitleSkipped records a title counted without work, bucketed by reason.
// Skips count toward the progress denominator so the stall watchdog sees
// movement even when whole origins are down.
func (t *Tracker) TitleSkipped(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titlesDone++
	t.skipped[reason]++
	t.lastProgressAt = time.Now()
}

// noteSkip buckets a skip reason without advancing the title counter, for
// titles that are still processed (e.g. markers advanced, delivery paused).
func (t *Tracker) noteSkip(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipped[reason]++
}

// TitleFailed records one per-title error.
func (t *Tracker) TitleFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors++
	t.lastProgressAt = time.Now()
}

// ChaptersFound adds to the sweep's new-chapter total.
func (t *Tracker) ChaptersFound(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newChapters += n
}

// Get returns a copy of the current counters.
func (t *Tracker) Get() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	skipped := make(map[string]int, len(t.skipped))
	for k, v := range t.skipped {
		skipped[k] = v
	}

	return Snapshot{
		Phase:       t.phase,
		Seq:         t.seq,
		StartedAt:   t.startedAt,
		OwnersDone:  t.ownersDone,
		OwnersTotal: t.ownersTotal,
		TitlesDone:  t.titlesDone,
		TitlesTotal: t.titlesTotal,
		Skipped:     skipped,
		Errors:      t.errors,
		NewChapters: t.newChapters,
	}
}

// Activity renders a short human-readable position, used in watchdog
// restart reasons and progress events.
func (t *Tracker) Activity() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("%s %d/%d owners (%d/%d titles)",
		t.phase, t.ownersDone, t.ownersTotal, t.titlesDone, t.titlesTotal)
}

// elapsed and sinceProgress feed the watchdog.
func (t *Tracker) elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.startedAt)
}

func (t *Tracker) sinceProgress() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastProgressAt)
}
