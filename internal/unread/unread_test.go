package unread_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/unread"
)

func entry(title string, n int) domain.UnreadChapter {
	return domain.UnreadChapter{
		TitleName: title,
		URL:       fmt.Sprintf("https://asuracomic.net/series/%s/chapter/%d", title, n),
	}
}

func sampleQueue() []domain.UnreadChapter {
	return []domain.UnreadChapter{
		entry("solo-leveling", 178),
		entry("eleceed", 299),
		entry("solo-leveling", 179),
		entry("eleceed", 300),
	}
}

func TestInsertAppendsAtEnd(t *testing.T) {
	q := sampleQueue()

	q = unread.Insert(q, []domain.UnreadChapter{entry("solo-leveling", 180)}, unread.End)

	require.Len(t, q, 5)
	require.Equal(t, entry("solo-leveling", 180), q[4])
}

func TestInsertSplicesAtIndex(t *testing.T) {
	q := sampleQueue()

	q = unread.Insert(q, []domain.UnreadChapter{entry("solo-leveling", 180)}, 1)

	require.Len(t, q, 5)
	require.Equal(t, entry("solo-leveling", 178), q[0])
	require.Equal(t, entry("solo-leveling", 180), q[1])
	require.Equal(t, entry("eleceed", 299), q[2])
}

func TestInsertPastLengthFallsBackToAppend(t *testing.T) {
	q := sampleQueue()

	q = unread.Insert(q, []domain.UnreadChapter{entry("solo-leveling", 180)}, 99)

	require.Len(t, q, 5)
	require.Equal(t, entry("solo-leveling", 180), q[4])
}

func TestReadRemovesAllEntriesOfATitle(t *testing.T) {
	q, res := unread.Read(sampleQueue(), "Solo Leveling", nil)

	require.Equal(t, 0, res.FirstIndex)
	require.Equal(t, []domain.UnreadChapter{
		entry("solo-leveling", 178),
		entry("solo-leveling", 179),
	}, res.Removed)

	// Survivors keep their relative order.
	require.Equal(t, []domain.UnreadChapter{
		entry("eleceed", 299),
		entry("eleceed", 300),
	}, q)
}

func TestReadFiltersBySpecificURLs(t *testing.T) {
	want := entry("solo-leveling", 179)

	q, res := unread.Read(sampleQueue(), "solo-leveling", []string{want.URL})

	require.Equal(t, []domain.UnreadChapter{want}, res.Removed)
	require.Equal(t, 2, res.FirstIndex)
	require.Len(t, q, 3)
}

func TestReadNoMatch(t *testing.T) {
	q, res := unread.Read(sampleQueue(), "Tower of God", nil)

	require.Equal(t, -1, res.FirstIndex)
	require.Empty(t, res.Removed)
	require.Len(t, q, 4)
}

func TestGroupByTitlePreservesInsertionOrder(t *testing.T) {
	order, groups := unread.GroupByTitle(sampleQueue())

	require.Equal(t, []string{"Solo Leveling", "Eleceed"}, order)
	require.Len(t, groups["Solo Leveling"], 2)
	require.Len(t, groups["Eleceed"], 2)
}

func TestUndoStackRoundTrip(t *testing.T) {
	q, res := unread.Read(sampleQueue(), "eleceed", nil)
	require.Len(t, q, 2)

	var stack unread.UndoStack
	stack.Push(unread.UndoRecord{Entries: res.Removed, Index: res.FirstIndex, Page: 3})

	rec, ok := stack.Pop()
	require.True(t, ok)
	require.Equal(t, 3, rec.Page)

	q = rec.Apply(q)
	require.Len(t, q, 4)
	// The first removed entry returns to its recorded position.
	require.Equal(t, entry("eleceed", 299), q[1])
	require.Equal(t, entry("eleceed", 300), q[2])
}

func TestUndoStackPopEmpty(t *testing.T) {
	var stack unread.UndoStack

	_, ok := stack.Pop()
	require.False(t, ok)
}

func TestUndoStackEvictsOldestAtCapacity(t *testing.T) {
	var stack unread.UndoStack
	for i := range 25 {
		stack.Push(unread.UndoRecord{Page: i})
	}

	require.Equal(t, 20, stack.Len())

	// Most recent first; the five oldest records are gone.
	for want := 24; want >= 5; want-- {
		rec, ok := stack.Pop()
		require.True(t, ok)
		require.Equal(t, want, rec.Page)
	}
	_, ok := stack.Pop()
	require.False(t, ok)
}

func TestUndoRecordAppliesToShrunkQueue(t *testing.T) {
	rec := unread.UndoRecord{Entries: []domain.UnreadChapter{entry("eleceed", 299)}, Index: 3}

	q := rec.Apply([]domain.UnreadChapter{entry("solo-leveling", 178)})

	require.Len(t, q, 2)
	require.Equal(t, entry("eleceed", 299), q[1])
}

func TestHealURLsRepointsRewrittenChapters(t *testing.T) {
	q := []domain.UnreadChapter{
		{TitleName: "Solo Leveling", URL: "https://old-site.example/series/solo-leveling/chapter-179"},
		{TitleName: "Eleceed", URL: "https://mangabuddy.com/eleceed/chapter-300"},
		{TitleName: "Solo Leveling", URL: "https://old-site.example/series/solo-leveling/chapter-180"},
	}

	unread.HealURLs(q, "solo-leveling", []string{
		"https://asuracomic.net/series/solo-leveling/chapter/180",
		"https://asuracomic.net/series/solo-leveling/chapter/179",
		"https://asuracomic.net/series/solo-leveling/chapter/178",
	})

	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/179", q[0].URL)
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/180", q[2].URL)
	// Another title's entries are untouched.
	require.Equal(t, "https://mangabuddy.com/eleceed/chapter-300", q[1].URL)
}

func TestHealURLsStopsAtFirstUnqueuedChapter(t *testing.T) {
	q := []domain.UnreadChapter{
		{TitleName: "Solo Leveling", URL: "https://old-site.example/series/solo-leveling/chapter-100"},
	}

	// Chapter 180 has no queued counterpart, so nothing older is examined
	// and the lone stale entry keeps its URL.
	unread.HealURLs(q, "Solo Leveling", []string{
		"https://asuracomic.net/series/solo-leveling/chapter/180",
		"https://asuracomic.net/series/solo-leveling/chapter/100",
	})

	require.Equal(t, "https://old-site.example/series/solo-leveling/chapter-100", q[0].URL)
}
