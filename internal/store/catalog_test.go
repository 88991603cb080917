package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
)

func TestCatalog_LoadAndFlush(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.NewCatalog(s, nil)
	require.NoError(t, catalog.Load(ctx))

	user := domain.NewUser("111222333")
	user.Titles = append(user.Titles, domain.Title{
		Name: "Omniscient Reader",
		URL:  "https://flamecomics.xyz/series/omniscient-reader",
	})
	catalog.PutUser(user)

	server := &domain.Server{ID: "guild-1", ChannelID: "chan-1"}
	catalog.PutServer(server)

	// Dirty records are in memory before the flush, not yet on disk.
	require.NotNil(t, catalog.User("111222333"))
	require.NotNil(t, catalog.Server("guild-1"))

	require.NoError(t, catalog.Flush(ctx))

	stored, err := s.Users.Get(ctx, "111222333")
	require.NoError(t, err)
	require.Len(t, stored.Titles, 1)

	// A fresh catalog sees the flushed state.
	reloaded := store.NewCatalog(s, nil)
	require.NoError(t, reloaded.Load(ctx))
	require.NotNil(t, reloaded.User("111222333"))
	require.NotNil(t, reloaded.Server("guild-1"))
	require.Len(t, reloaded.Users(), 1)
	require.Len(t, reloaded.Servers(), 1)
}

func TestCatalog_DeleteUser_RemovesFromStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.NewCatalog(s, nil)
	require.NoError(t, catalog.Load(ctx))

	catalog.PutUser(domain.NewUser("111222333"))
	require.NoError(t, catalog.Flush(ctx))

	require.NoError(t, catalog.DeleteUser(ctx, "111222333"))
	require.Nil(t, catalog.User("111222333"))

	reloaded := store.NewCatalog(s, nil)
	require.NoError(t, reloaded.Load(ctx))
	require.Nil(t, reloaded.User("111222333"))
}

func TestCatalog_Flush_OnlyWritesDirty(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.NewCatalog(s, nil)
	require.NoError(t, catalog.Load(ctx))

	catalog.PutUser(domain.NewUser("user-a"))
	require.NoError(t, catalog.Flush(ctx))

	// Second flush with nothing dirty is a no-op and must not error.
	require.NoError(t, catalog.Flush(ctx))
}
