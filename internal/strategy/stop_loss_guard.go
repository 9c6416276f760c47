package strategy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// StopOrderPlacer places orders normalized to exchange precision.
type StopOrderPlacer interface {
	ExecuteOrderWithAmountAndPrice(ctx context.Context, exchangeName string, order domain.Order) *domain.ExchangeOrder
}

// GuardedPair names a pair the guard protects.
type GuardedPair struct {
	Exchange string
	Symbol   string
}

// StopLossGuard keeps one reduce-only stop order alive for every open
// position of the watched pairs.
type StopLossGuard struct {
	exchanges domain.ExchangeProvider
	calc      *StopLossCalculator
	placer    StopOrderPlacer
	opts      StopLossOptions
	pairs     []GuardedPair

	mu    sync.Mutex
	stops map[string]string // pair key -> exchange order id
}

func NewStopLossGuard(exchanges domain.ExchangeProvider, calc *StopLossCalculator, placer StopOrderPlacer, opts StopLossOptions, pairs []GuardedPair) *StopLossGuard {
	return &StopLossGuard{
		exchanges: exchanges,
		calc:      calc,
		placer:    placer,
		opts:      opts,
		pairs:     pairs,
		stops:     make(map[string]string),
	}
}

// Run checks all pairs every interval until ctx is done.
func (g *StopLossGuard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range g.pairs {
				g.Check(ctx, p.Exchange, p.Symbol)
			}
		}
	}
}

// Check places a stop order for the pair if it has a position and no open
// stop order yet. It returns the placed order, if any.
func (g *StopLossGuard) Check(ctx context.Context, exchangeName, symbol string) *domain.ExchangeOrder {
	ex, ok := g.exchanges.Get(exchangeName)
	if !ok {
		return nil
	}
	reader, ok := ex.(domain.PositionReader)
	if !ok {
		return nil
	}

	key := domain.PairKey(exchangeName, symbol)
	if g.hasOpenStop(ctx, ex, key) {
		return nil
	}

	position, err := reader.PositionForSymbol(ctx, symbol)
	if err != nil {
		if !errors.Is(err, errors.ErrUnsupported) {
			slog.Error("Stop loss position lookup failed",
				slog.String("exchange", exchangeName),
				slog.String("symbol", symbol),
				slog.Any("error", err))
		}
		return nil
	}
	if position == nil {
		return nil
	}

	price, ok := g.calc.CalculateForOpenPosition(exchangeName, *position, g.opts)
	if !ok {
		return nil
	}

	order, err := domain.NewStopOrder(symbol, domain.SideFromSigned(price), price, position.Size(), domain.OrderOptions{Close: true})
	if err != nil {
		slog.Error("Stop loss order invalid", slog.String("symbol", symbol), slog.Any("error", err))
		return nil
	}

	placed := g.placer.ExecuteOrderWithAmountAndPrice(ctx, exchangeName, order)
	if placed == nil || !placed.IsOpen() {
		return placed
	}

	g.mu.Lock()
	g.stops[key] = placed.ID
	g.mu.Unlock()

	slog.Info("Stop loss placed",
		slog.String("exchange", exchangeName),
		slog.String("symbol", symbol),
		slog.Float64("price", placed.Price),
		slog.Float64("amount", placed.Amount))
	return placed
}

func (g *StopLossGuard) hasOpenStop(ctx context.Context, ex domain.Exchange, key string) bool {
	g.mu.Lock()
	id, ok := g.stops[key]
	g.mu.Unlock()
	if !ok {
		return false
	}

	order, err := ex.FindOrderByID(ctx, id)
	if err != nil {
		// unknown state, do not stack a second stop
		return true
	}
	if order != nil && order.IsOpen() {
		return true
	}

	g.mu.Lock()
	delete(g.stops, key)
	g.mu.Unlock()
	return false
}
