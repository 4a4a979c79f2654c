package badger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

func newTestStorage(t *testing.T) *UserStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	storage := NewUserStorage(db, logger)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestUserStorage_SaveGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := &models.User{ID: 42, Username: "trader", Timezone: "Europe/Moscow", Active: true}
	require.NoError(t, s.SaveUser(ctx, user))

	got, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "trader", got.Username)
	assert.Equal(t, "Europe/Moscow", got.Timezone)
	assert.False(t, got.RegisteredAt.IsZero())

	registered := got.RegisteredAt
	got.Username = "renamed"
	require.NoError(t, s.SaveUser(ctx, got))

	again, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "renamed", again.Username)
	assert.True(t, registered.Equal(again.RegisteredAt), "registration time preserved")
}

func TestUserStorage_NotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, 7)
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	_, err = s.GetSymbols(ctx, 7)
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	err = s.AddAsset(ctx, 7, models.Asset{Symbol: "AAPL", Quantity: 1})
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	assert.NoError(t, s.DeleteUser(ctx, 7))
}

func TestUserStorage_Assets(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 1}))

	require.NoError(t, s.AddAsset(ctx, 1, models.Asset{Symbol: "aapl", Quantity: 10}))
	require.NoError(t, s.AddAsset(ctx, 1, models.Asset{Symbol: "MSFT", Quantity: 5}))
	require.NoError(t, s.AddAsset(ctx, 1, models.Asset{Symbol: "AAPL", Quantity: 2}))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Asset{{Symbol: "AAPL", Quantity: 12}, {Symbol: "MSFT", Quantity: 5}}, user.Assets)

	require.NoError(t, s.ReduceAsset(ctx, 1, models.Asset{Symbol: "AAPL", Quantity: 2}))
	require.NoError(t, s.ReduceAsset(ctx, 1, models.Asset{Symbol: "MSFT", Quantity: 9}))
	require.NoError(t, s.ReduceAsset(ctx, 1, models.Asset{Symbol: "QIWI", Quantity: 1}))

	symbols, err := s.GetSymbols(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)

	require.NoError(t, s.RemoveAsset(ctx, 1, "aapl"))
	symbols, err = s.GetSymbols(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	err = s.AddAsset(ctx, 1, models.Asset{Symbol: "AAPL", Quantity: 0})
	assert.ErrorIs(t, err, interfaces.ErrDataFormat)
}

func TestUserStorage_Settings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 3}))

	require.NoError(t, s.SetTimezone(ctx, 3, "Europe/Moscow"))
	require.NoError(t, s.SetNewsWindow(ctx, 3, " 3 HOURS "))

	tz, err := s.GetTimezone(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", tz)

	window, err := s.GetNewsWindow(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "3 hours", window)

	assert.ErrorIs(t, s.SetTimezone(ctx, 3, "Mars/Olympus"), interfaces.ErrConfiguration)
	assert.ErrorIs(t, s.SetNewsWindow(ctx, 3, "soon"), interfaces.ErrConfiguration)

	tz, err = s.GetTimezone(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", tz, "rejected value leaves setting unchanged")
}

func TestUserStorage_ListActive(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 3, Active: true}))
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 1, Active: true}))
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 2}))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, models.UserID(1), active[0].ID)
	assert.Equal(t, models.UserID(3), active[1].ID)

	require.NoError(t, s.SetActive(ctx, 3, false))
	require.NoError(t, s.SetActive(ctx, 2, true))

	active, err = s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, models.UserID(1), active[0].ID)
	assert.Equal(t, models.UserID(2), active[1].ID)
}

func TestUserStorage_ConcurrentAdds(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 9}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddAsset(ctx, 9, models.Asset{Symbol: "AAPL", Quantity: 1}))
		}()
	}
	wg.Wait()

	user, err := s.GetUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, user.Assets, 1)
	assert.Equal(t, int64(20), user.Assets[0].Quantity)
}

func TestNewBadgerDB_ResetOnStartup(t *testing.T) {
	logger := arbor.NewLogger()
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, NewUserStorage(db, logger).SaveUser(ctx, &models.User{ID: 5}))
	require.NoError(t, db.Close())

	db, err = NewBadgerDB(logger, &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	_, err = NewUserStorage(db, logger).GetUser(ctx, 5)
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)
}
