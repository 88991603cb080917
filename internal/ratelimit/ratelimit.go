// Package ratelimit provides a per-origin token bucket limiter used to pace
// outbound scrapes so that one sweep cannot hammer a single website.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// PerOrigin manages one independent rate limiter per website origin.
type PerOrigin struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a per-origin limiter allowing rps requests per second with the
// given burst against each individual origin.
func New(rps float64, burst int) *PerOrigin {
	return &PerOrigin{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a fetch against origin is allowed or ctx is canceled.
func (p *PerOrigin) Wait(ctx context.Context, origin string) error {
	return p.limiter(origin).Wait(ctx)
}

// Allow reports whether a fetch against origin may proceed right now.
func (p *PerOrigin) Allow(origin string) bool {
	return p.limiter(origin).Allow()
}

func (p *PerOrigin) limiter(origin string) *rate.Limiter {
	p.mu.RLock()
	l, ok := p.limiters[origin]
	p.mu.RUnlock()
	if ok {
		return l
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok = p.limiters[origin]; ok {
		return l
	}
	l = rate.NewLimiter(p.limit, p.burst)
	p.limiters[origin] = l
	return l
}
