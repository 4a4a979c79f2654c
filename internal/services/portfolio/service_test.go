package portfolio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/storage/badger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	store := badger.NewUserStorage(db, logger)
	t.Cleanup(func() { store.Close() })
	return NewService(store, logger)
}

func TestService_RegisterIsIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.Register(ctx, 10, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)

	second, err := s.Register(ctx, 10, "other")
	require.NoError(t, err)
	assert.Equal(t, "alice", second.Username)
}

func TestService_AddReduce(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, 10, "alice")
	require.NoError(t, err)

	assets, err := s.AddAssets(ctx, 10, "AAPL, 10 | MSFT, 5")
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	assets, err = s.ReduceAssets(ctx, 10, "MSFT, 5 | AAPL, 4")
	require.NoError(t, err)
	assert.Equal(t, []models.Asset{{Symbol: "AAPL", Quantity: 6}}, assets)

	text, err := s.Describe(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "AAPL: 6", text)
}

func TestService_BadInputStoresNothing(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, 10, "alice")
	require.NoError(t, err)

	_, err = s.AddAssets(ctx, 10, "AAPL, 10 | MSFT")
	assert.ErrorIs(t, err, ErrInvalidAssetFormat)

	text, err := s.Describe(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio is empty", text)
}

func TestService_UnknownUser(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddAssets(context.Background(), 99, "AAPL, 1")
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)
}
