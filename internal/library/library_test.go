package library_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/library"
)

func soloOnAsura() domain.Title {
	return domain.Title{
		Name:    "Solo Leveling",
		URL:     "https://asuracomic.net/series/solo-leveling",
		Chapter: "https://asuracomic.net/series/solo-leveling/chapter/180",
		Image:   "https://asuracomic.net/covers/solo-leveling.webp",
	}
}

func soloOnFlame() domain.Title {
	return domain.Title{
		Name:        "solo-leveling",
		URL:         "https://flamescans.org/series/solo-leveling",
		Chapter:     "https://flamescans.org/series/solo-leveling/chapter-178",
		Description: "The weakest hunter.",
	}
}

func TestRebuildMergesSameTitleAcrossSources(t *testing.T) {
	entries := library.Rebuild(
		[][]domain.Title{{soloOnAsura()}},
		[][]domain.Title{{soloOnFlame()}},
	)

	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, "Solo Leveling", e.Name)
	require.Len(t, e.URLs, 2)
	require.Len(t, e.LastChapters, 2)
	require.Equal(t, 1, e.Servers)
	require.Equal(t, 1, e.Readers)
	// Partial match backfills what the first source lacked.
	require.Equal(t, "https://asuracomic.net/covers/solo-leveling.webp", e.Image)
	require.Equal(t, "The weakest hunter.", e.Description)
}

func TestRebuildFullMatchOnlyBumpsCounters(t *testing.T) {
	entries := library.Rebuild(
		nil,
		[][]domain.Title{{soloOnAsura()}, {soloOnAsura()}, {soloOnAsura()}},
	)

	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].Readers)
	require.Equal(t, 0, entries[0].Servers)
	require.Len(t, entries[0].URLs, 1)
}

func TestRebuildSkipsUnrecognizedTitles(t *testing.T) {
	broken := domain.Title{
		Name:    "Partially Added",
		URL:     "https://asuracomic.net/series/partially-added",
		Chapter: "", // marker never established
	}
	unnamed := domain.Title{
		URL:     "https://asuracomic.net/series/x",
		Chapter: "https://asuracomic.net/series/x/chapter/1",
	}

	entries := library.Rebuild(
		[][]domain.Title{{broken, unnamed, soloOnAsura()}},
		nil,
	)

	require.Len(t, entries, 1)
	require.Equal(t, "Solo Leveling", entries[0].Name)
}

func TestRebuildKeepsDistinctTitlesApart(t *testing.T) {
	eleceed := domain.Title{
		Name:    "Eleceed",
		URL:     "https://mangabuddy.com/eleceed",
		Chapter: "https://mangabuddy.com/eleceed/chapter-300",
	}

	entries := library.Rebuild(
		[][]domain.Title{{soloOnAsura(), eleceed}},
		nil,
	)

	require.Len(t, entries, 2)
}

func TestSuggestRanksFuzzyMatches(t *testing.T) {
	entries := []domain.LibraryEntry{
		{Name: "Solo Leveling"},
		{Name: "Eleceed"},
		{Name: "Solo Max-Level Newbie"},
	}

	got := library.Suggest(entries, "solo")
	require.NotEmpty(t, got)
	require.Contains(t, got, "Solo Leveling")
	require.Contains(t, got, "Solo Max-Level Newbie")
	require.NotContains(t, got, "Eleceed")
}

func TestSuggestEmptyQueryReturnsMostRead(t *testing.T) {
	entries := []domain.LibraryEntry{
		{Name: "Eleceed", Readers: 1},
		{Name: "Solo Leveling", Readers: 5, Servers: 2},
		{Name: "Tower of God", Readers: 3},
	}

	got := library.Suggest(entries, "")
	require.Equal(t, []string{"Solo Leveling", "Tower of God", "Eleceed"}, got)
}

func TestSuggestMatchesMidNameQuery(t *testing.T) {
	entries := []domain.LibraryEntry{
		{Name: "Omniscient Reader's Viewpoint"},
		{Name: "Eleceed"},
	}

	got := library.Suggest(entries, "reader's view")
	require.Equal(t, []string{"Omniscient Reader's Viewpoint"}, got)
}
