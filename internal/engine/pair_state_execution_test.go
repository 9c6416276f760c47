package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain/mock"
)

// positionExchange adds the optional readers to the generated mock.
type positionExchange struct {
	*mock.MockExchange
	position *domain.Position
	balance  float64
}

func (p *positionExchange) PositionForSymbol(context.Context, string) (*domain.Position, error) {
	return p.position, nil
}

func (p *positionExchange) TradableBalance(context.Context) (float64, error) {
	return p.balance, nil
}

type staticExchanges map[string]domain.Exchange

func (s staticExchanges) Get(name string) (domain.Exchange, bool) {
	ex, ok := s[name]
	return ex, ok
}

type fakePlacer struct {
	price     float64
	result    *domain.ExchangeOrder
	orders    []domain.Order
	cancelAll []string
}

func (f *fakePlacer) ExecuteOrder(_ context.Context, _ string, order domain.Order) *domain.ExchangeOrder {
	f.orders = append(f.orders, order)
	return f.result
}

func (f *fakePlacer) CancelAll(_ context.Context, _ string, symbol string) {
	f.cancelAll = append(f.cancelAll, symbol)
}

func (f *fakePlacer) CurrentPrice(_ context.Context, _, _ string, side domain.OrderSide) (float64, bool) {
	if f.price == 0 {
		return 0, false
	}
	return domain.SignedBySide(side, f.price), true
}

type executionFixture struct {
	ex       *positionExchange
	placer   *fakePlacer
	executor *PairStateExecutor
}

func newExecutionFixture(t *testing.T) *executionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ex := &positionExchange{MockExchange: mock.NewMockExchange(ctrl), balance: 1000}
	ex.EXPECT().Name().Return("paper").AnyTimes()
	placer := &fakePlacer{price: 100, result: &domain.ExchangeOrder{ID: "ex-1", Status: domain.StatusOpen, Side: domain.ExchangeSideBuy}}
	return &executionFixture{
		ex:       ex,
		placer:   placer,
		executor: NewPairStateExecutor(staticExchanges{"paper": ex}, placer),
	}
}

func newState(t *testing.T, state domain.State, capital domain.OrderCapital, options domain.PairStateOptions) *domain.PairState {
	t.Helper()
	ps, err := domain.NewPairState("paper", "BTCUSDT", state, &capital, options, true)
	require.NoError(t, err)
	return ps
}

func TestPairStateExecutor_OpensPosition(t *testing.T) {
	tests := []struct {
		name    string
		state   domain.State
		capital domain.OrderCapital
		raw     float64
		side    domain.OrderSide
	}{
		{"asset long", domain.StateLong, domain.NewAssetCapital(2), 2, domain.SideLong},
		{"currency short", domain.StateShort, domain.NewCurrencyCapital(1000), 10, domain.SideShort},
		{"balance long", domain.StateLong, domain.NewBalanceCapital(50), 5, domain.SideLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExecutionFixture(t)
			ps := newState(t, tt.state, tt.capital, domain.PairStateOptions{})
			f.ex.EXPECT().CalculateAmount(tt.raw, "BTCUSDT").Return(tt.raw)

			f.executor.OnPairStateExecutionTick(context.Background(), ps)

			require.Len(t, f.placer.orders, 1)
			order := f.placer.orders[0]
			assert.Equal(t, tt.side, order.Side())
			assert.Equal(t, tt.raw, order.Amount())
			assert.True(t, order.HasAdjustedPrice())
			assert.True(t, order.IsPostOnly())
			assert.Equal(t, order.ID(), ps.Order().ID())
			assert.Equal(t, "ex-1", ps.ExchangeOrder().ID)
			assert.Equal(t, 1, ps.Retries())
			assert.False(t, ps.IsCleared())
		})
	}
}

func TestPairStateExecutor_MarketOption(t *testing.T) {
	f := newExecutionFixture(t)
	ps := newState(t, domain.StateShort, domain.NewAssetCapital(1), domain.PairStateOptions{Market: true})
	f.ex.EXPECT().CalculateAmount(1.0, "BTCUSDT").Return(1.0)

	f.executor.OnPairStateExecutionTick(context.Background(), ps)

	require.Len(t, f.placer.orders, 1)
	assert.Equal(t, domain.OrderTypeMarket, f.placer.orders[0].Type())
	assert.Equal(t, domain.SideShort, f.placer.orders[0].Side())
}

func TestPairStateExecutor_ExistingPositionFinishesPair(t *testing.T) {
	f := newExecutionFixture(t)
	f.ex.position = &domain.Position{Symbol: "BTCUSDT", Amount: 1}
	ps := newState(t, domain.StateLong, domain.NewAssetCapital(1), domain.PairStateOptions{})

	f.executor.OnPairStateExecutionTick(context.Background(), ps)

	assert.True(t, ps.IsCleared())
	assert.Empty(t, f.placer.orders)
}

func TestPairStateExecutor_WaitsForOpenOrder(t *testing.T) {
	f := newExecutionFixture(t)
	ps := newState(t, domain.StateLong, domain.NewAssetCapital(1), domain.PairStateOptions{})
	ps.SetExchangeOrder(&domain.ExchangeOrder{ID: "ex-1", Status: domain.StatusOpen})
	f.ex.EXPECT().FindOrderByID(gomock.Any(), "ex-1").Return(&domain.ExchangeOrder{ID: "ex-1", Status: domain.StatusOpen}, nil)

	f.executor.OnPairStateExecutionTick(context.Background(), ps)

	assert.Empty(t, f.placer.orders)
	assert.False(t, ps.IsCleared())
}

func TestPairStateExecutor_GivesUpAfterRetries(t *testing.T) {
	f := newExecutionFixture(t)
	ps := newState(t, domain.StateLong, domain.NewAssetCapital(1), domain.PairStateOptions{})
	for i := 0; i < maxPairRetries; i++ {
		ps.TriggerRetry()
	}

	f.executor.OnPairStateExecutionTick(context.Background(), ps)

	assert.True(t, ps.IsCleared())
	assert.Empty(t, f.placer.orders)
}

func TestPairStateExecutor_PlacementOutcomes(t *testing.T) {
	t.Run("rejected clears", func(t *testing.T) {
		f := newExecutionFixture(t)
		f.placer.result = &domain.ExchangeOrder{ID: "ex-1", Status: domain.StatusRejected}
		ps := newState(t, domain.StateLong, domain.NewAssetCapital(1), domain.PairStateOptions{})
		f.ex.EXPECT().CalculateAmount(1.0, "BTCUSDT").Return(1.0)

		f.executor.OnPairStateExecutionTick(context.Background(), ps)
		assert.True(t, ps.IsCleared())
	})

	t.Run("nothing placed waits", func(t *testing.T) {
		f := newExecutionFixture(t)
		f.placer.result = nil
		ps := newState(t, domain.StateLong, domain.NewAssetCapital(1), domain.PairStateOptions{})
		f.ex.EXPECT().CalculateAmount(1.0, "BTCUSDT").Return(1.0)

		f.executor.OnPairStateExecutionTick(context.Background(), ps)
		assert.False(t, ps.IsCleared())
		assert.Nil(t, ps.ExchangeOrder())
	})

	t.Run("no price waits", func(t *testing.T) {
		f := newExecutionFixture(t)
		f.placer.price = 0
		ps := newState(t, domain.StateLong, domain.NewCurrencyCapital(100), domain.PairStateOptions{})

		f.executor.OnPairStateExecutionTick(context.Background(), ps)
		assert.False(t, ps.IsCleared())
		assert.Empty(t, f.placer.orders)
	})
}

func TestPairStateExecutor_Close(t *testing.T) {
	t.Run("flat finishes", func(t *testing.T) {
		f := newExecutionFixture(t)
		ps, err := domain.NewClosePairState("paper", "BTCUSDT", domain.PairStateOptions{})
		require.NoError(t, err)

		f.executor.OnPairStateExecutionTick(context.Background(), ps)
		assert.True(t, ps.IsCleared())
	})

	t.Run("long position is sold reduce only", func(t *testing.T) {
		f := newExecutionFixture(t)
		f.ex.position = &domain.Position{Symbol: "BTCUSDT", Amount: 0.5}
		ps, err := domain.NewClosePairState("paper", "BTCUSDT", domain.PairStateOptions{})
		require.NoError(t, err)

		f.executor.OnPairStateExecutionTick(context.Background(), ps)

		require.Len(t, f.placer.orders, 1)
		order := f.placer.orders[0]
		assert.Equal(t, domain.SideShort, order.Side())
		assert.Equal(t, 0.5, order.Amount())
		assert.True(t, order.IsReduceOnly())
		assert.True(t, order.HasAdjustedPrice())
	})
}

func TestPairStateExecutor_Cancel(t *testing.T) {
	f := newExecutionFixture(t)
	ps, err := domain.NewCancelPairState("paper", "BTCUSDT", domain.PairStateOptions{})
	require.NoError(t, err)

	f.executor.OnPairStateExecutionTick(context.Background(), ps)

	assert.Equal(t, []string{"BTCUSDT"}, f.placer.cancelAll)
	assert.True(t, ps.IsCleared())
}

func TestPairStateExecutor_UnknownExchange(t *testing.T) {
	f := newExecutionFixture(t)
	ps, err := domain.NewPairState("other", "BTCUSDT", domain.StateClose, nil, domain.PairStateOptions{}, true)
	require.NoError(t, err)

	f.executor.OnPairStateExecutionTick(context.Background(), ps)
	assert.True(t, ps.IsCleared())
}
