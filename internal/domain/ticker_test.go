package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicker(t *testing.T) {
	tk, err := NewTicker("paper", "BTCUSDT", 100, 101)
	require.NoError(t, err)
	assert.True(t, tk.IsValid())
	assert.Less(t, tk.Age(time.Now()), time.Second)

	_, err = NewTicker("paper", "BTCUSDT", 0, 101)
	assert.ErrorIs(t, err, ErrInvalidTicker)

	_, err = NewTicker("paper", "BTCUSDT", 100, -1)
	assert.ErrorIs(t, err, ErrInvalidTicker)
}
