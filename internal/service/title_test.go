package service_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	apperrors "github.com/chaptrailapp/chaptrail-server/internal/errors"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupCatalog(t *testing.T) *store.Catalog {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	catalog := store.NewCatalog(s, nil)
	require.NoError(t, catalog.Load(context.Background()))
	return catalog
}

// fixedScraper serves canned results keyed by URL.
func fixedScraper(results map[string]*scraper.Result) scraper.Scraper {
	return scraper.Func(func(_ context.Context, url string) (*scraper.Result, error) {
		if r, ok := results[url]; ok {
			res := *r
			res.Chapters = append([]string(nil), r.Chapters...)
			return &res, nil
		}
		return scraper.Failure(url, scraper.StatusNoResponse, "no canned result"), nil
	})
}

func soloLevelingResult() *scraper.Result {
	return &scraper.Result{
		Name:     "Solo Leveling",
		StartURL: "https://asuracomic.net/series/solo-leveling",
		FinalURL: "https://asuracomic.net/series/solo-leveling",
		Chapters: []string{
			"https://asuracomic.net/series/solo-leveling/chapter/180",
			"https://asuracomic.net/series/solo-leveling/chapter/179",
			"https://asuracomic.net/series/solo-leveling/chapter/178",
		},
		Status: scraper.StatusSuccess,
	}
}

func TestTitleService_Follow(t *testing.T) {
	catalog := setupCatalog(t)
	catalog.PutUser(domain.NewUser("user-1"))

	sc := fixedScraper(map[string]*scraper.Result{
		"https://asuracomic.net/series/solo-leveling": soloLevelingResult(),
	})
	svc := service.NewTitleService(catalog, sc, testLogger())

	title, err := svc.Follow(context.Background(), service.OwnerUser, "user-1",
		"https://asuracomic.net/series/solo-leveling/")
	require.NoError(t, err)
	require.Equal(t, "Solo Leveling", title.Name)
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/180", title.Chapter)
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/179", title.PreviousChapter)

	user := catalog.User("user-1")
	require.Len(t, user.Titles, 1)
}

func TestTitleService_Follow_SameOriginTwice(t *testing.T) {
	catalog := setupCatalog(t)
	catalog.PutUser(domain.NewUser("user-1"))

	sc := fixedScraper(map[string]*scraper.Result{
		"https://asuracomic.net/series/solo-leveling": soloLevelingResult(),
	})
	svc := service.NewTitleService(catalog, sc, testLogger())

	_, err := svc.Follow(context.Background(), service.OwnerUser, "user-1",
		"https://asuracomic.net/series/solo-leveling")
	require.NoError(t, err)

	_, err = svc.Follow(context.Background(), service.OwnerUser, "user-1",
		"https://asuracomic.net/series/solo-leveling")
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestTitleService_Follow_NewOriginAddsSource(t *testing.T) {
	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Titles = append(user.Titles, domain.Title{
		Name: "Solo Leveling",
		URL:  "https://flamecomics.xyz/series/solo-leveling",
	})
	catalog.PutUser(user)

	sc := fixedScraper(map[string]*scraper.Result{
		"https://asuracomic.net/series/solo-leveling": soloLevelingResult(),
	})
	svc := service.NewTitleService(catalog, sc, testLogger())

	title, err := svc.Follow(context.Background(), service.OwnerUser, "user-1",
		"https://asuracomic.net/series/solo-leveling")
	require.NoError(t, err)
	require.Equal(t, "Solo Leveling", title.Name)
	require.Len(t, catalog.User("user-1").Titles, 2)
}

func TestTitleService_Unfollow_DropsAllSourcesAndUnread(t *testing.T) {
	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Titles = []domain.Title{
		{Name: "Solo Leveling", URL: "https://asuracomic.net/series/solo-leveling"},
		{Name: "Solo Leveling", URL: "https://flamecomics.xyz/series/solo-leveling"},
		{Name: "Eleceed", URL: "https://mangabuddy.com/eleceed"},
	}
	user.Unread = []domain.UnreadChapter{
		{TitleName: "Solo Leveling", URL: "https://asuracomic.net/series/solo-leveling/chapter/179"},
		{TitleName: "Eleceed", URL: "https://mangabuddy.com/eleceed/chapter-300"},
	}
	catalog.PutUser(user)

	svc := service.NewTitleService(catalog, fixedScraper(nil), testLogger())

	removed, err := svc.Unfollow(context.Background(), service.OwnerUser, "user-1", "Solo Leveling")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	after := catalog.User("user-1")
	require.Len(t, after.Titles, 1)
	require.Equal(t, "Eleceed", after.Titles[0].Name)
	require.Len(t, after.Unread, 1)
	require.Equal(t, "Eleceed", after.Unread[0].TitleName)
}

func TestTitleService_ReplaceSource_ReanchorsByLabel(t *testing.T) {
	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Titles = []domain.Title{{
		Name:    "Solo Leveling",
		URL:     "https://flamecomics.xyz/series/solo-leveling",
		Chapter: "https://flamecomics.xyz/series/solo-leveling/chapter-179",
	}}
	catalog.PutUser(user)

	sc := fixedScraper(map[string]*scraper.Result{
		"https://asuracomic.net/series/solo-leveling": soloLevelingResult(),
	})
	svc := service.NewTitleService(catalog, sc, testLogger())

	title, err := svc.ReplaceSource(context.Background(), service.OwnerUser, "user-1",
		"Solo Leveling", "https://asuracomic.net/series/solo-leveling")
	require.NoError(t, err)

	// Marker re-anchored at chapter 179 in the new source's list.
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/179", title.Chapter)
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/178", title.PreviousChapter)
}

func TestTitleService_Transfer_UserToServer(t *testing.T) {
	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Titles = []domain.Title{{
		Name:    "Solo Leveling",
		URL:     "https://asuracomic.net/series/solo-leveling",
		Chapter: "https://asuracomic.net/series/solo-leveling/chapter/180",
	}}
	catalog.PutUser(user)
	catalog.PutServer(&domain.Server{ID: "guild-1", ChannelID: "chan-1"})

	svc := service.NewTitleService(catalog, fixedScraper(nil), testLogger())

	err := svc.Transfer(context.Background(),
		service.OwnerUser, "user-1",
		service.OwnerServer, "guild-1",
		"Solo Leveling")
	require.NoError(t, err)

	require.Empty(t, catalog.User("user-1").Titles)
	server := catalog.Server("guild-1")
	require.Len(t, server.Titles, 1)
	// Markers travel with the title.
	require.Equal(t, "https://asuracomic.net/series/solo-leveling/chapter/180", server.Titles[0].Chapter)
}

func TestTitleService_Transfer_ConflictLeavesSourceIntact(t *testing.T) {
	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Titles = []domain.Title{
		{
			Name:    "Eleceed",
			URL:     "https://mangabuddy.com/eleceed",
			Chapter: "https://mangabuddy.com/eleceed/chapter-300",
		},
		{
			Name:    "Solo Leveling",
			URL:     "https://asuracomic.net/series/solo-leveling",
			Chapter: "https://asuracomic.net/series/solo-leveling/chapter/180",
		},
		{
			Name:    "Omniscient Reader",
			URL:     "https://asuracomic.net/series/omniscient-reader",
			Chapter: "https://asuracomic.net/series/omniscient-reader/chapter/10",
		},
	}
	catalog.PutUser(user)
	catalog.PutServer(&domain.Server{
		ID:        "guild-1",
		ChannelID: "chan-1",
		Titles: []domain.Title{{
			Name:    "Solo Leveling",
			URL:     "https://asuracomic.net/series/solo-leveling",
			Chapter: "https://asuracomic.net/series/solo-leveling/chapter/175",
		}},
	})

	svc := service.NewTitleService(catalog, fixedScraper(nil), testLogger())

	err := svc.Transfer(context.Background(),
		service.OwnerUser, "user-1",
		service.OwnerServer, "guild-1",
		"Solo Leveling")
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	// The failed transfer must not touch either list: same titles, same
	// order, no duplicated entries.
	titles := catalog.User("user-1").Titles
	require.Len(t, titles, 3)
	require.Equal(t, "Eleceed", titles[0].Name)
	require.Equal(t, "Solo Leveling", titles[1].Name)
	require.Equal(t, "Omniscient Reader", titles[2].Name)
	require.Len(t, catalog.Server("guild-1").Titles, 1)
}
