package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain/mock"
)

func newGuarded(t *testing.T, inner domain.Exchange, failures int) *GuardedExchange {
	t.Helper()
	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "guarded-test",
		FailureThreshold: failures,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})
	return NewGuardedExchange(inner, NewRateLimiter(100, 1000), breaker)
}

func TestGuardedExchange_PassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex := mock.NewMockExchange(ctrl)
	ctx := context.Background()
	order := domain.NewMarketOrder("BTCUSDT", 1)

	ex.EXPECT().Order(gomock.Any(), order).Return(&domain.ExchangeOrder{ID: "1", Status: domain.StatusOpen}, nil)
	ex.EXPECT().CalculateAmount(1.23456, "BTCUSDT").Return(1.23)
	ex.EXPECT().Name().Return("mock").AnyTimes()

	g := newGuarded(t, ex, 3)

	res, err := g.Order(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "1", res.ID)
	assert.Equal(t, 1.23, g.CalculateAmount(1.23456, "BTCUSDT"))
	assert.Equal(t, "mock", g.Name())
}

func TestGuardedExchange_OpensCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex := mock.NewMockExchange(ctrl)
	ctx := context.Background()
	boom := errors.New("gateway timeout")

	ex.EXPECT().CancelAll(gomock.Any(), "BTCUSDT").Return(boom).Times(2)
	ex.EXPECT().Name().Return("mock").AnyTimes()

	g := newGuarded(t, ex, 2)

	assert.ErrorIs(t, g.CancelAll(ctx, "BTCUSDT"), boom)
	assert.ErrorIs(t, g.CancelAll(ctx, "BTCUSDT"), boom)
	// third call never reaches the exchange
	assert.ErrorIs(t, g.CancelAll(ctx, "BTCUSDT"), ErrCircuitOpen)
}

func TestGuardedExchange_OptionalCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex := mock.NewMockExchange(ctrl)
	ex.EXPECT().Name().Return("mock").AnyTimes()

	g := newGuarded(t, ex, 2)

	_, err := g.PositionForSymbol(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, errors.ErrUnsupported)

	_, err = g.TradableBalance(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}
