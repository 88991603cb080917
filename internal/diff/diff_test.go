package diff_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/diff"
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
)

func chapterURL(n int) string {
	return fmt.Sprintf("https://asuracomic.net/series/solo-leveling/chapter/%d", n)
}

// chapters builds a newest-first scrape list from newest down to oldest.
func chapters(newest, oldest int) []string {
	var out []string
	for n := newest; n >= oldest; n-- {
		out = append(out, chapterURL(n))
	}
	return out
}

func trackedTitle(current, previous int) *domain.Title {
	return &domain.Title{
		Name:            "Solo Leveling",
		URL:             "https://asuracomic.net/series/solo-leveling",
		Chapter:         chapterURL(current),
		PreviousChapter: chapterURL(previous),
	}
}

func scrape(list []string) *scraper.Result {
	return &scraper.Result{
		StartURL: "https://asuracomic.net/series/solo-leveling",
		FinalURL: "https://asuracomic.net/series/solo-leveling",
		Chapters: list,
		Status:   scraper.StatusSuccess,
	}
}

func TestDiffCollectsNewChaptersOldestFirst(t *testing.T) {
	title := trackedTitle(180, 179)

	res := diff.Diff(title, scrape(chapters(183, 175)))

	require.False(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(181), chapterURL(182), chapterURL(183)}, res.NewChapters)
	require.Equal(t, chapterURL(183), res.Chapter)
	require.Equal(t, chapterURL(182), res.PreviousChapter)
}

func TestDiffNoticeOnlyWhenMarkerIsNewest(t *testing.T) {
	title := trackedTitle(183, 182)

	res := diff.Diff(title, scrape(chapters(183, 175)))

	require.True(t, res.NoticeOnly())
	require.False(t, res.MarkerStale)
	// The marker pair still normalizes to the two newest scraped URLs.
	require.Equal(t, chapterURL(183), res.Chapter)
	require.Equal(t, chapterURL(182), res.PreviousChapter)
}

func TestDiffStopsOnPreviousMarkerWhenCurrentDeleted(t *testing.T) {
	title := trackedTitle(180, 179)

	// Chapter 180 was pulled from the source; 179 still anchors the walk.
	list := []string{chapterURL(182), chapterURL(181), chapterURL(179), chapterURL(178)}
	res := diff.Diff(title, scrape(list))

	require.False(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(181), chapterURL(182)}, res.NewChapters)
}

func TestDiffStaleMarkerReportsNewestOnly(t *testing.T) {
	title := trackedTitle(500, 499)

	res := diff.Diff(title, scrape(chapters(183, 175)))

	require.True(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(183)}, res.NewChapters)
	require.Equal(t, chapterURL(183), res.Chapter)
	require.Equal(t, chapterURL(182), res.PreviousChapter)
}

func TestDiffUnparseableMarkerNeverStopsTheWalk(t *testing.T) {
	// A marker whose label cannot be derived must not silently match a
	// malformed scrape entry; the diff degrades to the stale-marker path.
	title := &domain.Title{
		Name:    "Solo Leveling",
		URL:     "https://asuracomic.net/series/solo-leveling",
		Chapter: "garbage",
	}

	res := diff.Diff(title, scrape(chapters(183, 180)))

	require.True(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(183)}, res.NewChapters)
}

func TestDiffMatchesMarkerByLabelNotURL(t *testing.T) {
	// The stored marker points at the old host; the scrape at the new one.
	// Labels still line up, so nothing floods.
	title := &domain.Title{
		Name:            "Solo Leveling",
		URL:             "https://flamescans.org/series/solo-leveling",
		Chapter:         "https://flamescans.org/series/solo-leveling/chapter-180",
		PreviousChapter: "https://flamescans.org/series/solo-leveling/chapter-179",
	}

	res := diff.Diff(title, scrape(chapters(182, 175)))

	require.False(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(181), chapterURL(182)}, res.NewChapters)
}

func TestDiffSingleChapterScrape(t *testing.T) {
	title := trackedTitle(180, 179)

	res := diff.Diff(title, scrape([]string{chapterURL(181)}))

	require.True(t, res.MarkerStale)
	require.Equal(t, []string{chapterURL(181)}, res.NewChapters)
	require.Equal(t, chapterURL(181), res.Chapter)
	require.Empty(t, res.PreviousChapter)
}

func TestApplyAdvancesMarkerPair(t *testing.T) {
	title := trackedTitle(180, 179)

	res := diff.Diff(title, scrape(chapters(183, 175)))
	res.Apply(title)

	require.Equal(t, chapterURL(183), title.Chapter)
	require.Equal(t, chapterURL(182), title.PreviousChapter)
}
