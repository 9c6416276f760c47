package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// GuardedExchange wraps an Exchange with a rate limiter and a circuit
// breaker. Precision helpers are local and pass through unguarded.
type GuardedExchange struct {
	inner   domain.Exchange
	limiter *RateLimiter
	breaker *CircuitBreaker
}

func NewGuardedExchange(inner domain.Exchange, limiter *RateLimiter, breaker *CircuitBreaker) *GuardedExchange {
	return &GuardedExchange{inner: inner, limiter: limiter, breaker: breaker}
}

func (g *GuardedExchange) Name() string { return g.inner.Name() }

func (g *GuardedExchange) guard(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", g.inner.Name(), err)
	}
	return g.breaker.Do(fn)
}

func (g *GuardedExchange) Order(ctx context.Context, order domain.Order) (res *domain.ExchangeOrder, err error) {
	err = g.guard(ctx, func() error {
		res, err = g.inner.Order(ctx, order)
		return err
	})
	return res, err
}

func (g *GuardedExchange) FindOrderByID(ctx context.Context, id string) (res *domain.ExchangeOrder, err error) {
	err = g.guard(ctx, func() error {
		res, err = g.inner.FindOrderByID(ctx, id)
		return err
	})
	return res, err
}

func (g *GuardedExchange) UpdateOrder(ctx context.Context, id string, order domain.Order) (res *domain.ExchangeOrder, err error) {
	err = g.guard(ctx, func() error {
		res, err = g.inner.UpdateOrder(ctx, id, order)
		return err
	})
	return res, err
}

func (g *GuardedExchange) CancelOrder(ctx context.Context, id string) (res *domain.ExchangeOrder, err error) {
	err = g.guard(ctx, func() error {
		res, err = g.inner.CancelOrder(ctx, id)
		return err
	})
	return res, err
}

func (g *GuardedExchange) CancelAll(ctx context.Context, symbol string) error {
	return g.guard(ctx, func() error {
		return g.inner.CancelAll(ctx, symbol)
	})
}

func (g *GuardedExchange) CalculateAmount(amount float64, symbol string) float64 {
	return g.inner.CalculateAmount(amount, symbol)
}

func (g *GuardedExchange) CalculatePrice(price float64, symbol string) float64 {
	return g.inner.CalculatePrice(price, symbol)
}

// PositionForSymbol forwards to the wrapped exchange when it exposes
// positions.
func (g *GuardedExchange) PositionForSymbol(ctx context.Context, symbol string) (res *domain.Position, err error) {
	reader, ok := g.inner.(domain.PositionReader)
	if !ok {
		return nil, fmt.Errorf("%s positions: %w", g.inner.Name(), errors.ErrUnsupported)
	}
	err = g.guard(ctx, func() error {
		res, err = reader.PositionForSymbol(ctx, symbol)
		return err
	})
	return res, err
}

// TradableBalance forwards to the wrapped exchange when it exposes a balance.
func (g *GuardedExchange) TradableBalance(ctx context.Context) (res float64, err error) {
	reader, ok := g.inner.(domain.BalanceReader)
	if !ok {
		return 0, fmt.Errorf("%s balance: %w", g.inner.Name(), errors.ErrUnsupported)
	}
	err = g.guard(ctx, func() error {
		res, err = reader.TradableBalance(ctx)
		return err
	})
	return res, err
}

var (
	_ domain.Exchange       = (*GuardedExchange)(nil)
	_ domain.PositionReader = (*GuardedExchange)(nil)
	_ domain.BalanceReader  = (*GuardedExchange)(nil)
)
