package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock/mock_domain.go -package=mock . Exchange,PairConfig

// Exchange is the trading API of one venue. Every method may fail with a
// transport or exchange level error.
type Exchange interface {
	Name() string
	Order(ctx context.Context, order Order) (*ExchangeOrder, error)
	// FindOrderByID returns (nil, nil) when the order is unknown.
	FindOrderByID(ctx context.Context, id string) (*ExchangeOrder, error)
	UpdateOrder(ctx context.Context, id string, order Order) (*ExchangeOrder, error)
	CancelOrder(ctx context.Context, id string) (*ExchangeOrder, error)
	CancelAll(ctx context.Context, symbol string) error
	CalculateAmount(amount float64, symbol string) float64
	CalculatePrice(price float64, symbol string) float64
}

// PositionReader is implemented by exchanges that expose open positions.
type PositionReader interface {
	// PositionForSymbol returns (nil, nil) when flat.
	PositionForSymbol(ctx context.Context, symbol string) (*Position, error)
}

// BalanceReader is implemented by exchanges that expose the quote balance
// available for new orders.
type BalanceReader interface {
	TradableBalance(ctx context.Context) (float64, error)
}

// ExchangeProvider resolves an exchange by name.
type ExchangeProvider interface {
	Get(name string) (Exchange, bool)
}

// TickerReader is the read side of the ticker cache.
type TickerReader interface {
	Get(exchange, symbol string) (Ticker, bool)
	GetIfUpToDate(exchange, symbol string, maxAge time.Duration) (Ticker, bool)
}

// PairConfig answers how much capital a pair trades with.
type PairConfig interface {
	SymbolCapital(exchange, symbol string) (OrderCapital, bool)
}

// PairStateExecution drives a PairState towards its goal. Implementations
// log their own failures.
type PairStateExecution interface {
	OnPairStateExecutionTick(ctx context.Context, state *PairState)
	OnCancelPair(ctx context.Context, state *PairState)
}
