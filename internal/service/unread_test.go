package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	apperrors "github.com/chaptrailapp/chaptrail-server/internal/errors"
	"github.com/chaptrailapp/chaptrail-server/internal/service"
)

func seedUnreadUser(t *testing.T) (*service.UnreadService, *domain.User) {
	t.Helper()

	catalog := setupCatalog(t)
	user := domain.NewUser("user-1")
	user.Unread = []domain.UnreadChapter{
		{TitleName: "Solo Leveling", URL: "https://asuracomic.net/series/solo-leveling/chapter/178"},
		{TitleName: "Eleceed", URL: "https://mangabuddy.com/eleceed/chapter-299"},
		{TitleName: "Solo Leveling", URL: "https://asuracomic.net/series/solo-leveling/chapter/179"},
		{TitleName: "Eleceed", URL: "https://mangabuddy.com/eleceed/chapter-300"},
	}
	catalog.PutUser(user)

	return service.NewUnreadService(catalog, testLogger()), user
}

func TestUnreadService_List_GroupsByTitle(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	groups, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "Solo Leveling", groups[0].Title)
	require.Len(t, groups[0].Chapters, 2)
	require.Equal(t, "Eleceed", groups[1].Title)
	require.Len(t, groups[1].Chapters, 2)
}

func TestUnreadService_ReadAndUndo_RoundTrip(t *testing.T) {
	svc, user := seedUnreadUser(t)

	removed, err := svc.Read("user-1", "Solo Leveling", nil, 3)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	count, err := svc.Count("user-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	page, restored, err := svc.Undo("user-1")
	require.NoError(t, err)
	require.Equal(t, 3, page)
	require.Equal(t, 2, restored)

	// Queue back to the original length with the first removed entry at
	// its recorded position.
	count, err = svc.Count("user-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.Equal(t, "Solo Leveling", user.Unread[0].TitleName)
}

func TestUnreadService_Read_SpecificURLs(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	removed, err := svc.Read("user-1", "Eleceed",
		[]string{"https://mangabuddy.com/eleceed/chapter-299"}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	groups, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Len(t, groups[1].Chapters, 1)
	require.Equal(t, "https://mangabuddy.com/eleceed/chapter-300", groups[1].Chapters[0].URL)
}

func TestUnreadService_Undo_Empty(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	_, _, err := svc.Undo("user-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnreadService_Read_NoMatches(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	_, err := svc.Read("user-1", "Tower of God", nil, 0)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnreadService_ClearAll_EmptiesQueueUndoably(t *testing.T) {
	svc, user := seedUnreadUser(t)
	original := append([]domain.UnreadChapter(nil), user.Unread...)

	cleared, err := svc.ClearAll("user-1")
	require.NoError(t, err)
	require.Equal(t, 4, cleared)

	count, err := svc.Count("user-1")
	require.NoError(t, err)
	require.Zero(t, count)

	// One undo brings the whole queue back in its original order.
	_, restored, err := svc.Undo("user-1")
	require.NoError(t, err)
	require.Equal(t, 4, restored)
	require.Equal(t, original, user.Unread)
}

func TestUnreadService_ClearAll_EmptyQueueIsNoop(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	_, err := svc.ClearAll("user-1")
	require.NoError(t, err)

	cleared, err := svc.ClearAll("user-1")
	require.NoError(t, err)
	require.Zero(t, cleared)

	// The second clear pushed nothing; the single undo restores the queue
	// and a further undo has nothing to work with.
	_, restored, err := svc.Undo("user-1")
	require.NoError(t, err)
	require.Equal(t, 4, restored)
	_, _, err = svc.Undo("user-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnreadService_ClearAll_UnknownUser(t *testing.T) {
	svc, _ := seedUnreadUser(t)

	_, err := svc.ClearAll("ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
