package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

func TestCanonicalTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Solo Leveling", "Solo Leveling"},
		{"punctuation stripped", "Solo Leveling!", "Solo Leveling"},
		{"slug form", "solo-leveling", "Solo Leveling"},
		{"case folded", "SOLO leveling", "Solo Leveling"},
		{"apostrophe", "Omniscient Reader's Viewpoint", "Omniscient Readers Viewpoint"},
		{"collapsed whitespace", "  solo   leveling ", "Solo Leveling"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.CanonicalTitle(tt.in))
		})
	}
}

func TestCanonicalTitleIdentity(t *testing.T) {
	// The whole point: different spellings of the same title collapse to one
	// identity string.
	a := normalize.CanonicalTitle("solo-leveling")
	b := normalize.CanonicalTitle("Solo Leveling!")
	require.Equal(t, a, b)
}

func TestSlugFromTitle(t *testing.T) {
	require.Equal(t, "solo-leveling", normalize.SlugFromTitle("Solo Leveling"))
	require.Equal(t, "kaiju-no-8", normalize.SlugFromTitle("Kaiju No. 8"))
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"simple host", "https://asuracomic.net/series/solo-leveling", "Asuracomic"},
		{"www stripped", "https://www.mangabuddy.com/eleceed", "Mangabuddy"},
		{"subdomain contributes", "https://comic.naver.com/webtoon", "Comic Naver"},
		{"not a url", "solo-leveling", normalize.OriginUnknown},
		{"empty", "", normalize.OriginUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.Origin(tt.url))
		})
	}
}

func TestOriginFromHost(t *testing.T) {
	// The host form must collapse to the same identity Origin derives from
	// a full URL; breaker override keys depend on it.
	require.Equal(t, normalize.Origin("https://asuracomic.net/series/x"), normalize.OriginFromHost("asuracomic.net"))
	require.Equal(t, "Mangabuddy", normalize.OriginFromHost("www.mangabuddy.com"))
	require.Equal(t, normalize.OriginUnknown, normalize.OriginFromHost("localhost"))
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"doubled path slash", "https://asuracomic.net//series//solo-leveling", "https://asuracomic.net/series/solo-leveling"},
		{"scheme preserved", "https://asuracomic.net/series/solo-leveling", "https://asuracomic.net/series/solo-leveling"},
		{"doubled hyphen", "https://asuracomic.net/series/solo--leveling", "https://asuracomic.net/series/solo-leveling"},
		{"trailing slash", "https://asuracomic.net/series/solo-leveling/", "https://asuracomic.net/series/solo-leveling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.CanonicalURL(tt.in))
		})
	}
}

func TestChapterLabel(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"empty", "", normalize.UnknownChapter},
		{"asura last segment", "https://asuracomic.net/series/solo-leveling/chapter/180", "Chapter 180"},
		{"decimal chapter", "https://asuracomic.net/series/solo-leveling/chapter-21-5", "Chapter 21.5"},
		{"default layout", "https://flamescans.org/series/omniscient-reader/chapter-99", "Chapter 99"},
		{"manganato fixed index", "https://manganato.com/manga-dr980474/chapter-50", "Chapter 50"},
		{"naver episode number", "https://comic.naver.com/webtoon/detail?titleId=783053&no=143", "Chapter 143"},
		{"too short for default", "https://example.com/x", normalize.UnknownChapter},
		{"no digits anywhere", "https://flamescans.org/series/omniscient-reader/prologue", normalize.UnknownChapter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.ChapterLabel(tt.url))
		})
	}
}

func TestSameChapter(t *testing.T) {
	// Same chapter number on different hosts is the same chapter.
	require.True(t, normalize.SameChapter(
		"https://asuracomic.net/series/solo-leveling/chapter/180",
		"https://flamescans.org/series/solo-leveling/chapter-180",
	))

	require.False(t, normalize.SameChapter(
		"https://asuracomic.net/series/solo-leveling/chapter/180",
		"https://asuracomic.net/series/solo-leveling/chapter/181",
	))

	// Unparseable labels only match on literal URL equality; the sentinel
	// never equals itself across two different URLs.
	require.True(t, normalize.SameChapter("not-a-url", "not-a-url"))
	require.False(t, normalize.SameChapter("not-a-url", "also-not-a-url"))
}
