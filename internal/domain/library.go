package domain

import "github.com/chaptrailapp/chaptrail-server/internal/normalize"

// LibraryEntry aggregates every occurrence of one canonical title across all
// owners: one URL (and last-chapter marker) per distinct origin, plus reader
// and server counts. Entries are fully derived; the catalog is rebuilt from
// scratch on every regeneration and never patched incrementally.
type LibraryEntry struct {
	Name         string   `json:"name"`
	URLs         []string `json:"urls"`
	LastChapters []string `json:"last_chapters"`
	Image        string   `json:"image,omitempty"`
	Description  string   `json:"description,omitempty"`

	Readers int `json:"readers"`
	Servers int `json:"servers"`
}

// Match classifies a title against this entry. FullMatch requires the
// candidate's origin to already be one of the entry's sources.
func (e *LibraryEntry) Match(t *Title) MatchType {
	if normalize.CanonicalTitle(e.Name) != t.CanonicalName() {
		return NoMatch
	}
	origin := t.Origin()
	for _, u := range e.URLs {
		if normalize.Origin(u) == origin {
			return FullMatch
		}
	}
	return PartialMatch
}
