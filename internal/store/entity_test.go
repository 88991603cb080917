package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	apperrors "github.com/chaptrailapp/chaptrail-server/internal/errors"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestEntity_Create_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	user := domain.NewUser("111222333")
	user.Titles = append(user.Titles, domain.Title{
		Name:    "Solo Leveling",
		URL:     "https://asuracomic.net/series/solo-leveling",
		Chapter: "https://asuracomic.net/series/solo-leveling/chapter/180",
	})

	err := s.Users.Create(context.Background(), user.ID, user)
	require.NoError(t, err)

	retrieved, err := s.Users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, retrieved.ID)
	require.Len(t, retrieved.Titles, 1)
	require.Equal(t, "Solo Leveling", retrieved.Titles[0].Name)
	require.True(t, retrieved.UnreadEnabled)
}

func TestEntity_Create_AlreadyExists(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	user := domain.NewUser("111222333")

	err := s.Users.Create(context.Background(), user.ID, user)
	require.NoError(t, err)

	err = s.Users.Create(context.Background(), user.ID, user)
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.Users.Get(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEntity_Put_CreatesAndReplaces(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	user := domain.NewUser("111222333")

	// Put on a missing record creates it.
	err := s.Users.Put(context.Background(), user.ID, user)
	require.NoError(t, err)

	// Put on an existing record replaces it.
	user.ShowAlerts = false
	err = s.Users.Put(context.Background(), user.ID, user)
	require.NoError(t, err)

	retrieved, err := s.Users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, retrieved.ShowAlerts)
}

func TestEntity_Put_RewritesIndexes(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	server := &domain.Server{ID: "guild-1", ChannelID: "chan-old"}
	require.NoError(t, s.Servers.Put(context.Background(), server.ID, server))

	found, err := s.Servers.GetByIndex(context.Background(), "channel", "chan-old")
	require.NoError(t, err)
	require.Equal(t, "guild-1", found.ID)

	server.ChannelID = "chan-new"
	require.NoError(t, s.Servers.Put(context.Background(), server.ID, server))

	_, err = s.Servers.GetByIndex(context.Background(), "channel", "chan-old")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	found, err = s.Servers.GetByIndex(context.Background(), "channel", "chan-new")
	require.NoError(t, err)
	require.Equal(t, "guild-1", found.ID)
}

func TestEntity_Delete_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	user := domain.NewUser("111222333")
	require.NoError(t, s.Users.Create(context.Background(), user.ID, user))

	require.NoError(t, s.Users.Delete(context.Background(), user.ID))
	require.NoError(t, s.Users.Delete(context.Background(), user.ID))

	_, err := s.Users.Get(context.Background(), user.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	for _, id := range []string{"guild-1", "guild-2", "guild-3"} {
		sv := &domain.Server{ID: id, ChannelID: "chan-" + id}
		require.NoError(t, s.Servers.Create(context.Background(), id, sv))
	}

	var ids []string
	for sv, err := range s.Servers.List(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, sv.ID)
	}
	require.ElementsMatch(t, []string{"guild-1", "guild-2", "guild-3"}, ids)
}

func TestEntity_List_SurfacesClosedStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sv := &domain.Server{ID: "guild-1", ChannelID: "chan-1"}
	require.NoError(t, s.Servers.Create(context.Background(), "guild-1", sv))
	require.NoError(t, s.Close())

	var listErr error
	for _, err := range s.Servers.List(context.Background()) {
		if err != nil {
			listErr = err
		}
	}
	require.Error(t, listErr)
}
