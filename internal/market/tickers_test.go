package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

func TestTickers_SetAndGet(t *testing.T) {
	c := NewTickers()

	err := c.Set(domain.Ticker{Exchange: "paper", Symbol: "BTCUSDT", Bid: 100, Ask: 101})
	require.NoError(t, err)

	got, ok := c.Get("paper", "BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, got.Bid)
	assert.False(t, got.CreatedAt.IsZero())

	_, ok = c.Get("paper", "ETHUSDT")
	assert.False(t, ok)
}

func TestTickers_RejectsInvalid(t *testing.T) {
	c := NewTickers()
	err := c.Set(domain.Ticker{Exchange: "paper", Symbol: "BTCUSDT", Bid: 0, Ask: 101})
	assert.ErrorIs(t, err, domain.ErrInvalidTicker)
	assert.Empty(t, c.All())
}

func TestTickers_GetIfUpToDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTickers()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(domain.Ticker{Exchange: "paper", Symbol: "BTCUSDT", Bid: 1, Ask: 2, CreatedAt: now.Add(-5 * time.Second)}))
	require.NoError(t, c.Set(domain.Ticker{Exchange: "paper", Symbol: "ETHUSDT", Bid: 1, Ask: 2, CreatedAt: now.Add(-30 * time.Second)}))

	_, ok := c.GetIfUpToDate("paper", "BTCUSDT", 10*time.Second)
	assert.True(t, ok)

	_, ok = c.GetIfUpToDate("paper", "ETHUSDT", 10*time.Second)
	assert.False(t, ok)

	_, ok = c.Get("paper", "ETHUSDT")
	assert.True(t, ok, "stale ticker stays readable through Get")

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "BTCUSDT", all[0].Symbol)
}
