// Package scraper defines the collaborator interface the sweep engine uses
// to turn a title URL into an ordered chapter list, plus a generic HTTP
// implementation. Site-specific markup handling lives behind this interface
// and is not part of the core.
package scraper

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

// Status is the typed outcome of one scrape. A Scraper never returns a Go
// error for page-level problems; every failure mode surfaces here so the
// scheduler can classify it.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusUnknown           Status = "unknown"
	StatusNoResponse        Status = "no_response"
	StatusNoChapters        Status = "no_chapters"
	StatusNameNotResolved   Status = "name_not_resolved"
	StatusNavigationTimeout Status = "navigation_timeout"
	StatusTooManyRedirects  Status = "too_many_redirects"
	StatusError             Status = "status_error"
	StatusTypeError         Status = "type_error"
)

// Result is the ephemeral product of one scrape. Chapters are ordered
// newest-first; that ordering is the single source of truth for "what is
// new" during diffing.
type Result struct {
	Name        string
	Description string
	Image       string

	// StartURL is the URL the scrape was asked for, FinalURL the URL after
	// redirects. Both participate in the within-sweep cache key.
	StartURL string
	FinalURL string

	// Chapters holds chapter page URLs, index 0 = newest.
	Chapters []string

	Status Status
	// HTTPStatus is set for StatusError results (e.g. 403, 521).
	HTTPStatus int
	// Detail carries a human-readable failure note for logs and alerts.
	Detail string
}

// OK reports whether the scrape succeeded.
func (r *Result) OK() bool { return r.Status == StatusSuccess }

// HasValidImage reports whether the scraped cover URL is usable.
func (r *Result) HasValidImage() bool {
	return r.Image != "" && strings.HasPrefix(r.Image, "http")
}

// Matches reports whether this result serves the given canonical URL, either
// as requested or after redirects.
func (r *Result) Matches(canonicalURL string) bool {
	return normalize.CanonicalURL(r.StartURL) == canonicalURL ||
		normalize.CanonicalURL(r.FinalURL) == canonicalURL
}

// Failure builds a failed result for url.
func Failure(url string, status Status, detail string) *Result {
	return &Result{StartURL: url, FinalURL: url, Status: status, Detail: detail}
}

// Clean normalizes a successful result in place: the name loses NEW/HOT
// badges and listing suffixes, an empty name is derived from the final URL
// slug, HTML descriptions become plain markdown, and image URLs get spaces
// escaped. Marks the result successful.
func (r *Result) Clean() {
	r.Image = strings.ReplaceAll(r.Image, " ", "%20")

	if strings.ContainsAny(r.Description, "<>") {
		if md, err := htmltomarkdown.ConvertString(r.Description); err == nil {
			r.Description = md
		}
	}
	r.Description = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(r.Description), "Read more"))

	name := r.Name
	name = strings.NewReplacer("\n", "", "\t", "").Replace(name)
	name = strings.TrimPrefix(name, "NEW")
	name = strings.TrimPrefix(name, "HOT")
	name = strings.TrimSuffix(name, " – Manhwa")
	name = strings.TrimSpace(name)

	if name == "" {
		parts := strings.Split(strings.TrimSuffix(r.FinalURL, "/"), "/")
		name = normalize.CanonicalTitle(parts[len(parts)-1])
	}
	r.Name = name

	r.Status = StatusSuccess
}
