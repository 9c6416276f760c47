package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

func newTestStore(t *testing.T) *SignalStore {
	t.Helper()
	store, err := NewSignalStore(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSignalStore_Signals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.RecordSignal(ctx, "paper", "BTCUSDT", domain.StateLong, domain.PairStateOptions{})
	store.RecordSignal(ctx, "paper", "BTCUSDT", domain.StateClose, domain.PairStateOptions{Market: true})
	store.RecordSignal(ctx, "paper", "ETHUSDT", domain.StateShort, domain.PairStateOptions{})

	signals, err := store.RecentSignals(ctx, 2)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	assert.Equal(t, "ETHUSDT", signals[0].Symbol)
	assert.Equal(t, domain.StateShort, signals[0].State)
	assert.Equal(t, domain.StateClose, signals[1].State)
	assert.True(t, signals[1].Market)
	assert.False(t, signals[1].CreatedAt.IsZero())
}

func TestSignalStore_Orders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.RecordOrder(ctx, "paper", &domain.ExchangeOrder{
		ID:     "paper-1",
		OurID:  "local-1",
		Symbol: "BTCUSDT",
		Status: domain.StatusOpen,
		Side:   domain.ExchangeSideSell,
		Type:   domain.ExchangeTypeLimit,
		Price:  101.5,
		Amount: 0.25,
	})
	store.RecordOrder(ctx, "paper", nil)

	orders, err := store.RecentOrders(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "paper-1", o.ExchangeOrderID)
	assert.Equal(t, "local-1", o.OurID)
	assert.Equal(t, domain.StatusOpen, o.Status)
	assert.Equal(t, domain.ExchangeSideSell, o.Side)
	assert.Equal(t, 101.5, o.Price)

	none, err := store.RecentOrders(ctx, "ETHUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSignalStore_WriteFailureIsLogged(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	// must not panic on a closed database
	store.RecordSignal(context.Background(), "paper", "BTCUSDT", domain.StateLong, domain.PairStateOptions{})
	store.RecordOrder(context.Background(), "paper", &domain.ExchangeOrder{ID: "1"})
}
