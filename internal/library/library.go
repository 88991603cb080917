// Package library builds the deduplicated cross-owner catalog used for
// discovery and autocomplete. The catalog is fully derived state: Rebuild
// recomputes it from scratch and callers replace their copy wholesale.
package library

import (
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
)

// Rebuild folds every owner's titles into library entries. Titles failing
// the recognized predicate (sentinel chapter label, empty name or URL) are
// skipped. A PartialMatch appends the title's URL/chapter as an extra source
// on the existing entry and backfills image/description if missing; a
// FullMatch only bumps the ownership counters.
//
// Matching each title against the accumulated entries is O(N*M); fine at the
// expected scale of a few thousand titles. Index by canonical name before
// growing past that.
func Rebuild(serverTitles [][]domain.Title, userTitles [][]domain.Title) []domain.LibraryEntry {
	var entries []domain.LibraryEntry

	add := func(t *domain.Title, fromServer bool) {
		if !t.IsRecognized() {
			return
		}

		match, idx := domain.NoMatch, -1
		for i := range entries {
			if m := entries[i].Match(t); m != domain.NoMatch {
				match, idx = m, i
				break
			}
		}

		switch match {
		case domain.NoMatch:
			entries = append(entries, domain.LibraryEntry{
				Name:         t.Name,
				URLs:         []string{t.URL},
				LastChapters: []string{t.Chapter},
				Image:        t.Image,
				Description:  t.Description,
			})
			idx = len(entries) - 1
		case domain.PartialMatch:
			e := &entries[idx]
			e.URLs = append(e.URLs, t.URL)
			e.LastChapters = append(e.LastChapters, t.Chapter)
			if e.Image == "" {
				e.Image = t.Image
			}
			if e.Description == "" {
				e.Description = t.Description
			}
		case domain.FullMatch:
			// Same title, same source, different owner: counters only.
		}

		if fromServer {
			entries[idx].Servers++
		} else {
			entries[idx].Readers++
		}
	}

	for _, titles := range serverTitles {
		for i := range titles {
			add(&titles[i], true)
		}
	}
	for _, titles := range userTitles {
		for i := range titles {
			add(&titles[i], false)
		}
	}

	return entries
}
