package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// maxPairRetries bounds how often a pair places a new order before giving up.
const maxPairRetries = 10

var errNoPrice = errors.New("no price")

// OrderPlacer is the part of the order executor a pair execution needs.
type OrderPlacer interface {
	ExecuteOrder(ctx context.Context, exchangeName string, order domain.Order) *domain.ExchangeOrder
	CancelAll(ctx context.Context, exchangeName, symbol string)
	CurrentPrice(ctx context.Context, exchangeName, symbol string, side domain.OrderSide) (float64, bool)
}

// PairStateExecutor drives pair states against the exchange: it opens the
// requested position, closes it, or cancels everything for the symbol.
type PairStateExecutor struct {
	exchanges domain.ExchangeProvider
	placer    OrderPlacer
}

// NewPairStateExecutor creates the execution hook for the manager.
func NewPairStateExecutor(exchanges domain.ExchangeProvider, placer OrderPlacer) *PairStateExecutor {
	return &PairStateExecutor{exchanges: exchanges, placer: placer}
}

// OnPairStateExecutionTick moves the pair one step towards its state.
func (e *PairStateExecutor) OnPairStateExecutionTick(ctx context.Context, ps *domain.PairState) {
	switch ps.State() {
	case domain.StateLong, domain.StateShort:
		e.onOpen(ctx, ps)
	case domain.StateClose:
		e.onClose(ctx, ps)
	case domain.StateCancel:
		e.OnCancelPair(ctx, ps)
	}
}

// OnCancelPair cancels every order of the symbol and finishes the pair.
func (e *PairStateExecutor) OnCancelPair(ctx context.Context, ps *domain.PairState) {
	e.placer.CancelAll(ctx, ps.Exchange(), ps.Symbol())
	ps.Clear()
}

func (e *PairStateExecutor) onOpen(ctx context.Context, ps *domain.PairState) {
	log := slog.With(slog.String("exchange", ps.Exchange()), slog.String("symbol", ps.Symbol()), slog.String("state", string(ps.State())))

	ex, ok := e.exchanges.Get(ps.Exchange())
	if !ok {
		log.Error("Unknown exchange, clearing pair")
		ps.Clear()
		return
	}

	position, err := positionFor(ctx, ex, ps.Symbol())
	if err != nil {
		log.Error("Position lookup failed", slog.Any("error", err))
		return
	}
	if position != nil {
		log.Info("Position open, pair done", slog.Float64("amount", position.Amount))
		ps.Clear()
		return
	}

	if e.hasOpenOrder(ctx, ex, ps, log) || e.retriesExhausted(ps, log) {
		return
	}
	ps.TriggerRetry()

	side := domain.SideLong
	if ps.State() == domain.StateShort {
		side = domain.SideShort
	}

	amount, err := e.orderAmount(ctx, ex, ps, side)
	if err != nil {
		log.Error("Order amount unavailable", slog.Any("error", err))
		return
	}
	signed := domain.SignedBySide(side, amount)

	var order domain.Order
	if ps.Options().Market {
		order = domain.NewMarketOrder(ps.Symbol(), signed)
	} else {
		order = domain.NewLimitPostOnlyOrderAutoAdjustedPrice(ps.Symbol(), signed, domain.OrderOptions{})
	}
	e.place(ctx, ps, order, log)
}

func (e *PairStateExecutor) onClose(ctx context.Context, ps *domain.PairState) {
	log := slog.With(slog.String("exchange", ps.Exchange()), slog.String("symbol", ps.Symbol()), slog.String("state", string(ps.State())))

	ex, ok := e.exchanges.Get(ps.Exchange())
	if !ok {
		log.Error("Unknown exchange, clearing pair")
		ps.Clear()
		return
	}

	position, err := positionFor(ctx, ex, ps.Symbol())
	if err != nil {
		log.Error("Position lookup failed", slog.Any("error", err))
		return
	}
	if position == nil {
		log.Info("No position, close done")
		ps.Clear()
		return
	}

	if e.hasOpenOrder(ctx, ex, ps, log) || e.retriesExhausted(ps, log) {
		return
	}
	ps.TriggerRetry()

	order := domain.NewCloseOrderWithPriceAdjustment(ps.Symbol(), -position.Amount)
	if ps.Options().Market {
		order = domain.NewMarketOrder(ps.Symbol(), -position.Amount)
	}
	e.place(ctx, ps, order, log)
}

func (e *PairStateExecutor) place(ctx context.Context, ps *domain.PairState, order domain.Order, log *slog.Logger) {
	ps.SetOrder(&order)

	placed := e.placer.ExecuteOrder(ctx, ps.Exchange(), order)
	if placed == nil {
		log.Info("Order not placed, retrying next tick")
		return
	}
	if placed.ShouldCancelOrderProcess() {
		log.Info("Order rejected by exchange, clearing pair", slog.Any("order", placed))
		ps.Clear()
		return
	}
	ps.SetExchangeOrder(placed)
}

// hasOpenOrder reports whether the last placed order is still resting.
func (e *PairStateExecutor) hasOpenOrder(ctx context.Context, ex domain.Exchange, ps *domain.PairState, log *slog.Logger) bool {
	last := ps.ExchangeOrder()
	if last == nil {
		return false
	}

	current, err := ex.FindOrderByID(ctx, last.ID)
	if err != nil {
		log.Error("Order lookup failed", slog.String("order_id", last.ID), slog.Any("error", err))
		return true
	}
	if current != nil && current.IsOpen() {
		log.Debug("Order still open, waiting", slog.String("order_id", last.ID))
		return true
	}
	return false
}

func (e *PairStateExecutor) retriesExhausted(ps *domain.PairState, log *slog.Logger) bool {
	if ps.Retries() < maxPairRetries {
		return false
	}
	log.Error("Pair retry limit reached, clearing", slog.Int("retries", ps.Retries()))
	ps.Clear()
	return true
}

func (e *PairStateExecutor) orderAmount(ctx context.Context, ex domain.Exchange, ps *domain.PairState, side domain.OrderSide) (float64, error) {
	capital, ok := ps.Capital()
	if !ok {
		return 0, domain.ErrInvalidCapital
	}

	var amount float64
	if asset, ok := capital.Asset(); ok {
		amount = asset
	} else {
		price, ok := e.placer.CurrentPrice(ctx, ps.Exchange(), ps.Symbol(), side)
		if !ok || price == 0 {
			return 0, errNoPrice
		}
		price = math.Abs(price)

		if currency, ok := capital.Currency(); ok {
			amount = currency / price
		} else if percent, ok := capital.Balance(); ok {
			reader, ok := ex.(domain.BalanceReader)
			if !ok {
				return 0, fmt.Errorf("%s exposes no balance", ex.Name())
			}
			balance, err := reader.TradableBalance(ctx)
			if err != nil {
				return 0, err
			}
			amount = balance * percent / 100 / price
		}
	}

	amount = ex.CalculateAmount(amount, ps.Symbol())
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount %v", domain.ErrInvalidCapital, amount)
	}
	return amount, nil
}

// positionFor returns nil when the exchange exposes no positions.
func positionFor(ctx context.Context, ex domain.Exchange, symbol string) (*domain.Position, error) {
	reader, ok := ex.(domain.PositionReader)
	if !ok {
		return nil, nil
	}
	position, err := reader.PositionForSymbol(ctx, symbol)
	if errors.Is(err, errors.ErrUnsupported) {
		return nil, nil
	}
	return position, err
}
