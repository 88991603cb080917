package library

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
)

// maxSuggestions caps autocomplete responses; chat platforms show at most 25
// choices per autocomplete interaction.
const maxSuggestions = 25

// Suggest returns up to 25 entry names matching the typed prefix, best
// matches first. An empty query returns the most-read entries instead.
func Suggest(entries []domain.LibraryEntry, query string) []string {
	if query == "" {
		return topRead(entries)
	}

	names := make([]string, len(entries))
	for i := range entries {
		names[i] = entries[i].Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	out := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		out = append(out, r.Target)
		if len(out) == maxSuggestions {
			break
		}
	}

	// Fall back to substring matching when fuzzy ranking finds nothing,
	// e.g. for queries longer than the target name.
	if len(out) == 0 {
		lower := strings.ToLower(query)
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), lower) {
				out = append(out, name)
				if len(out) == maxSuggestions {
					break
				}
			}
		}
	}

	return out
}

func topRead(entries []domain.LibraryEntry) []string {
	sorted := make([]domain.LibraryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Readers+sorted[i].Servers > sorted[j].Readers+sorted[j].Servers
	})

	out := make([]string, 0, maxSuggestions)
	for i := range sorted {
		out = append(out, sorted[i].Name)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
