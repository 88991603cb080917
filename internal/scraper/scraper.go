package scraper

import "context"

// Scraper turns a title page URL into an ordered chapter list or a typed
// failure. Implementations may take seconds per call and must never panic or
// return page-level problems as errors; the only error returned is the
// context's, so the scheduler can distinguish shutdown from scrape failure.
//
// The underlying fetch resource is assumed stateful and non-reentrant (the
// original uses a single shared browser session), so callers serialize
// Fetch calls; see the sweep scheduler.
type Scraper interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Func adapts a function to the Scraper interface, mainly for tests.
type Func func(ctx context.Context, url string) (*Result, error)

// Fetch implements Scraper.
func (f Func) Fetch(ctx context.Context, url string) (*Result, error) {
	return f(ctx, url)
}
