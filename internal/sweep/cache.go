package sweep

import (
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
)

// scrapeCache holds one sweep's scrape results keyed by canonical URL, so a
// title followed by many owners costs one physical fetch per sweep. Results
// are stored under both the requested and the post-redirect URL. The cache
// lives for exactly one sweep and is only touched by the scheduler loop, so
// it carries no lock.
type scrapeCache struct {
	results map[string]*scraper.Result
}

func newScrapeCache() *scrapeCache {
	return &scrapeCache{results: make(map[string]*scraper.Result)}
}

// get returns the cached result for a canonical URL, or nil.
func (c *scrapeCache) get(canonicalURL string) *scraper.Result {
	return c.results[canonicalURL]
}

// put stores a result under every canonical URL it serves. Failures are
// cached too: a URL that just failed is not retried within the same sweep.
func (c *scrapeCache) put(res *scraper.Result) {
	c.results[normalize.CanonicalURL(res.StartURL)] = res
	if res.FinalURL != "" {
		c.results[normalize.CanonicalURL(res.FinalURL)] = res
	}
}

func (c *scrapeCache) size() int {
	return len(c.results)
}
