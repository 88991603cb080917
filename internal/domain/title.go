// Package domain contains the core entities of the chapter notifier: tracked
// titles, their owners (users and servers), unread chapters, and the derived
// library catalog.
package domain

import (
	"strings"

	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

// MatchType classifies how a candidate title relates to an existing one.
type MatchType int

const (
	// NoMatch means the canonical names differ.
	NoMatch MatchType = iota
	// PartialMatch means same canonical name but a different source website.
	PartialMatch
	// FullMatch means same canonical name and same source website.
	FullMatch
)

func (m MatchType) String() string {
	switch m {
	case FullMatch:
		return "full"
	case PartialMatch:
		return "partial"
	default:
		return "none"
	}
}

// Title is one tracked manga/manhwa entry. A Title is owned by exactly one
// User or one Server, never shared; the library catalog is a derived view.
type Title struct {
	// Name is the display name. It is refreshed from scrape results as the
	// scraper learns the canonical spelling.
	Name string `json:"name"`
	// URL is the double-slash-normalized source page URL.
	URL string `json:"url"`
	// Chapter is the marker of the last known chapter: the raw chapter URL,
	// compared by derived label rather than by string equality.
	Chapter string `json:"chapter"`
	// PreviousChapter is the second most recent known chapter, kept so the
	// diff engine tolerates a chapter being removed upstream between sweeps.
	PreviousChapter string `json:"previous_chapter"`
	Image           string `json:"image,omitempty"`
	Description     string `json:"description,omitempty"`

	// RoleID is the chat role to mention on new chapters. Server-owned only.
	RoleID string `json:"role_id,omitempty"`
}

// CanonicalName returns the identity form of the title's name.
func (t *Title) CanonicalName() string { return normalize.CanonicalTitle(t.Name) }

// Origin returns the humanized website name this title is tracked on.
func (t *Title) Origin() string { return normalize.Origin(t.URL) }

// ChapterLabel returns the displayable label of the current marker.
func (t *Title) ChapterLabel() string { return normalize.ChapterLabel(t.Chapter) }

// IsRecognized reports whether the title carries enough well-formed data to
// appear in the library: a parseable chapter marker, a name, and a URL.
func (t *Title) IsRecognized() bool {
	return normalize.ChapterLabel(t.Chapter) != normalize.UnknownChapter &&
		t.Name != "" && t.URL != ""
}

// HasValidImage reports whether the cover image URL is usable.
func (t *Title) HasValidImage() bool {
	return t.Image != "" && strings.HasPrefix(t.Image, "http")
}

// Match classifies another name/URL pair against this title. Classification
// depends only on canonical-name equality and origin equality.
func (t *Title) Match(name, url string) MatchType {
	if t.CanonicalName() != normalize.CanonicalTitle(name) {
		return NoMatch
	}
	if t.Origin() == normalize.Origin(url) {
		return FullMatch
	}
	return PartialMatch
}

// MatchTitles scans titles in order and returns the classification of the
// first identity match together with its index. The scan short-circuits on
// the first canonical-name hit; ties resolve by first occurrence.
func MatchTitles(titles []Title, name, url string) (MatchType, int) {
	canonical := normalize.CanonicalTitle(name)
	for i := range titles {
		if titles[i].CanonicalName() != canonical {
			continue
		}
		if titles[i].Origin() == normalize.Origin(url) {
			return FullMatch, i
		}
		return PartialMatch, i
	}
	return NoMatch, -1
}
