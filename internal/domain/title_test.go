package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
)

func tracked() *domain.Title {
	return &domain.Title{
		Name:    "Solo Leveling",
		URL:     "https://asuracomic.net/series/solo-leveling",
		Chapter: "https://asuracomic.net/series/solo-leveling/chapter/180",
	}
}

func TestTitleMatch(t *testing.T) {
	title := tracked()

	require.Equal(t, domain.FullMatch, title.Match("solo-leveling", "https://asuracomic.net/series/solo-leveling-v2"))
	require.Equal(t, domain.PartialMatch, title.Match("Solo Leveling!", "https://flamescans.org/series/solo-leveling"))
	require.Equal(t, domain.NoMatch, title.Match("Eleceed", "https://asuracomic.net/series/eleceed"))
}

func TestMatchTitlesShortCircuitsOnFirstNameHit(t *testing.T) {
	titles := []domain.Title{
		{Name: "Eleceed", URL: "https://mangabuddy.com/eleceed"},
		// Same canonical name twice; the scan must settle on the first.
		{Name: "Solo Leveling", URL: "https://flamescans.org/series/solo-leveling"},
		{Name: "solo-leveling", URL: "https://asuracomic.net/series/solo-leveling"},
	}

	match, idx := domain.MatchTitles(titles, "Solo Leveling", "https://asuracomic.net/series/solo-leveling")
	require.Equal(t, domain.PartialMatch, match)
	require.Equal(t, 1, idx)

	match, idx = domain.MatchTitles(titles, "Tower of God", "https://asuracomic.net/series/tower-of-god")
	require.Equal(t, domain.NoMatch, match)
	require.Equal(t, -1, idx)
}

func TestIsRecognized(t *testing.T) {
	title := tracked()
	require.True(t, title.IsRecognized())

	noMarker := tracked()
	noMarker.Chapter = ""
	require.False(t, noMarker.IsRecognized())

	noName := tracked()
	noName.Name = ""
	require.False(t, noName.IsRecognized())
}

func TestHasValidImage(t *testing.T) {
	title := tracked()
	require.False(t, title.HasValidImage())

	title.Image = "https://asuracomic.net/covers/solo-leveling.webp"
	require.True(t, title.HasValidImage())

	title.Image = "covers/solo-leveling.webp"
	require.False(t, title.HasValidImage())
}
