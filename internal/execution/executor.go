package execution

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
)

const (
	tickerMaxAge    = 10 * time.Second
	runningOrderTTL = 2 * time.Minute
)

// Config tunes placement retries and ticker polling.
type Config struct {
	Retry              int
	RetryDelay         time.Duration
	TickerPollInterval time.Duration
	TickerPollAttempts int
	AdjustConcurrency  int
}

// DefaultConfig returns the defaults of the order config section.
func DefaultConfig() Config {
	return Config{
		Retry:              4,
		RetryDelay:         1500 * time.Millisecond,
		TickerPollInterval: 200 * time.Millisecond,
		TickerPollAttempts: 40,
		AdjustConcurrency:  8,
	}
}

// ConfigFrom maps the order section of the app config.
func ConfigFrom(o infra.OrderConfig) Config {
	return Config{
		Retry:              o.Retry,
		RetryDelay:         o.RetryDelay(),
		TickerPollInterval: o.TickerPollInterval(),
		TickerPollAttempts: o.TickerPollAttempts,
		AdjustConcurrency:  o.AdjustConcurrency,
	}
}

// OrderRecorder receives every order the exchange acknowledged.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, exchange string, order *domain.ExchangeOrder)
}

// Option configures an OrderExecutor.
type Option func(*OrderExecutor)

// WithOrderRecorder reports every acknowledged order to r.
func WithOrderRecorder(r OrderRecorder) Option {
	return func(e *OrderExecutor) { e.recorder = r }
}

// OrderExecutor places, retries and cancels orders and keeps resting
// orders at the top of the book.
type OrderExecutor struct {
	exchanges domain.ExchangeProvider
	tickers   domain.TickerReader
	cfg       Config
	recorder  OrderRecorder
	now       func() time.Time

	mu            sync.Mutex
	runningOrders map[string]time.Time // exchange order id -> adjustment start
}

// NewOrderExecutor creates an executor placing orders on the given exchanges.
func NewOrderExecutor(exchanges domain.ExchangeProvider, tickers domain.TickerReader, cfg Config, opts ...Option) *OrderExecutor {
	if cfg.AdjustConcurrency <= 0 {
		cfg.AdjustConcurrency = 1
	}
	if cfg.TickerPollAttempts <= 0 {
		cfg.TickerPollAttempts = 1
	}
	e := &OrderExecutor{
		exchanges:     exchanges,
		tickers:       tickers,
		cfg:           cfg,
		now:           time.Now,
		runningOrders: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdjustOpenOrdersPrice moves the open order of each pair to the current
// best price. Pairs are processed concurrently; it returns once all are done.
func (e *OrderExecutor) AdjustOpenOrdersPrice(ctx context.Context, states ...*domain.PairState) {
	e.gcRunningOrders()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.AdjustConcurrency)
	for _, ps := range states {
		ps := ps
		g.Go(func() error {
			e.adjustOrderPrice(gctx, ps)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *OrderExecutor) gcRunningOrders() {
	cutoff := e.now().Add(-runningOrderTTL)

	e.mu.Lock()
	defer e.mu.Unlock()
	for id, started := range e.runningOrders {
		if started.Before(cutoff) {
			slog.Warn("Order adjustment guard expired", slog.String("order_id", id))
			delete(e.runningOrders, id)
		}
	}
}

// acquire inserts the in-flight guard for id; false if already held.
func (e *OrderExecutor) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, running := e.runningOrders[id]; running {
		return false
	}
	e.runningOrders[id] = e.now()
	return true
}

func (e *OrderExecutor) release(id string) {
	e.mu.Lock()
	delete(e.runningOrders, id)
	e.mu.Unlock()
}

func (e *OrderExecutor) adjustOrderPrice(ctx context.Context, ps *domain.PairState) {
	last := ps.ExchangeOrder()
	if last == nil {
		return
	}

	log := slog.With(
		slog.String("exchange", ps.Exchange()),
		slog.String("symbol", ps.Symbol()),
		slog.String("order_id", last.ID),
	)

	if !e.acquire(last.ID) {
		log.Info("Order adjustment already running")
		infra.IncOrderAdjustment(ps.Exchange(), "skipped")
		return
	}
	defer e.release(last.ID)

	ex, ok := e.exchanges.Get(ps.Exchange())
	if !ok {
		log.Error("Unknown exchange for order adjustment")
		return
	}

	price, ok := e.CurrentPrice(ctx, ps.Exchange(), ps.Symbol(), last.LongOrShort())
	if !ok {
		log.Info("No up to date ticker price for order adjustment")
		return
	}

	current, err := ex.FindOrderByID(ctx, last.ID)
	if err != nil {
		log.Error("Order lookup failed", slog.Any("error", err))
		return
	}
	if current == nil || !current.IsOpen() {
		log.Info("Order no longer open, skipping adjustment")
		return
	}

	if math.Abs(last.Price) == math.Abs(price) {
		infra.IncOrderAdjustment(ps.Exchange(), "unchanged")
		return
	}

	update, err := domain.NewPriceUpdateOrder(last.ID, price, last.LongOrShort())
	if err != nil {
		log.Error("Invalid price update", slog.Any("error", err))
		return
	}

	log.Info("Adjusting order price",
		slog.Float64("from", last.Price),
		slog.Float64("to", update.Price()))

	updated, err := ex.UpdateOrder(ctx, last.ID, update)
	if err != nil {
		log.Error("Order price update failed", slog.Any("error", err))
		infra.IncOrderAdjustment(ps.Exchange(), "error")
		return
	}

	switch {
	case updated != nil && updated.IsOpen():
		ps.SetExchangeOrder(updated)
		infra.IncOrderAdjustment(ps.Exchange(), "updated")

	case updated != nil && updated.IsCanceled() && updated.Retry:
		// the move was refused, e.g. a post-only order would cross
		amount := domain.SignedBySide(last.LongOrShort(), last.RemainingAmount())
		var recreate domain.Order
		if ps.State() == domain.StateClose {
			recreate = domain.NewCloseOrderWithPriceAdjustment(ps.Symbol(), amount)
		} else {
			recreate = domain.NewLimitPostOnlyOrderAutoAdjustedPrice(ps.Symbol(), amount, domain.OrderOptions{})
		}

		log.Info("Order update refused, recreating", slog.Any("order", recreate))
		ps.SetOrder(&recreate)
		if placed := e.ExecuteOrder(ctx, ps.Exchange(), recreate); placed != nil {
			ps.SetExchangeOrder(placed)
		}
		infra.IncOrderAdjustment(ps.Exchange(), "recreated")

	default:
		log.Error("Unknown order state after price update", slog.Any("result", updated))
		infra.IncOrderAdjustment(ps.Exchange(), "unknown")
	}
}

// ExecuteOrderWithAmountAndPrice normalizes amount and price to the
// exchange precision before placing order.
func (e *OrderExecutor) ExecuteOrderWithAmountAndPrice(ctx context.Context, exchangeName string, order domain.Order) *domain.ExchangeOrder {
	ex, ok := e.exchanges.Get(exchangeName)
	if !ok {
		slog.Error("Invalid exchange", slog.String("exchange", exchangeName))
		return nil
	}

	amount := ex.CalculateAmount(order.Amount(), order.Symbol())
	price := order.Price()
	if order.HasPrice() {
		price = ex.CalculatePrice(price, order.Symbol())
	}
	return e.ExecuteOrder(ctx, exchangeName, order.WithAmountAndPrice(amount, price))
}

// ExecuteOrder places order with the configured retry budget.
func (e *OrderExecutor) ExecuteOrder(ctx context.Context, exchangeName string, order domain.Order) *domain.ExchangeOrder {
	return e.TriggerOrder(ctx, exchangeName, order, 0)
}

// TriggerOrder places order, resending it while the exchange answers with
// retry. It returns nil when nothing was placed.
func (e *OrderExecutor) TriggerOrder(ctx context.Context, exchangeName string, order domain.Order, retry int) *domain.ExchangeOrder {
	ex, ok := e.exchanges.Get(exchangeName)
	if !ok {
		slog.Error("Invalid exchange", slog.String("exchange", exchangeName))
		return nil
	}

	for {
		log := slog.With(
			slog.String("exchange", exchangeName),
			slog.Int("retry", retry),
			slog.Any("order", order),
		)

		if retry > e.cfg.Retry {
			log.Error("Order retry limit reached")
			infra.IncOrder(exchangeName, "gave_up")
			return nil
		}

		if order.HasAdjustedPrice() {
			price, ok := e.CurrentPrice(ctx, exchangeName, order.Symbol(), order.Side())
			if !ok {
				log.Error("No price for adjusted order, not placing")
				infra.IncOrder(exchangeName, "no_price")
				return nil
			}
			order = domain.NewRetryOrderWithPriceAdjustment(order, price)
		}

		placed, err := ex.Order(ctx, order)
		if err != nil {
			log.Error("Order placement failed", slog.Any("error", err))
			infra.IncOrder(exchangeName, "error")
			return nil
		}
		if placed == nil {
			log.Error("Order placement returned no order")
			infra.IncOrder(exchangeName, "error")
			return nil
		}

		if placed.IsCanceled() && !placed.Retry {
			log.Info("Order canceled by exchange", slog.Any("result", placed))
			infra.IncOrder(exchangeName, "canceled")
			e.record(ctx, exchangeName, placed)
			return placed
		}

		if placed.Retry {
			log.Info("Order retry requested by exchange", slog.Any("result", placed))
			infra.IncOrderRetry(exchangeName)

			timer := time.NewTimer(e.cfg.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info("Order retry aborted", slog.Any("error", ctx.Err()))
				return nil
			case <-timer.C:
			}

			order = domain.NewRetryOrder(order)
			retry++
			continue
		}

		log.Info("Order placed", slog.Any("result", placed))
		infra.IncOrder(exchangeName, "placed")
		e.record(ctx, exchangeName, placed)
		return placed
	}
}

func (e *OrderExecutor) record(ctx context.Context, exchangeName string, order *domain.ExchangeOrder) {
	if e.recorder != nil {
		e.recorder.RecordOrder(ctx, exchangeName, order)
	}
}

// CancelOrder returns nil when the exchange is unknown or the cancel failed.
func (e *OrderExecutor) CancelOrder(ctx context.Context, exchangeName, orderID string) *domain.ExchangeOrder {
	ex, ok := e.exchanges.Get(exchangeName)
	if !ok {
		slog.Error("Invalid exchange", slog.String("exchange", exchangeName))
		return nil
	}

	canceled, err := ex.CancelOrder(ctx, orderID)
	if err != nil {
		slog.Error("Order cancel failed",
			slog.String("exchange", exchangeName),
			slog.String("order_id", orderID),
			slog.Any("error", err))
		return nil
	}
	return canceled
}

// CancelAll cancels every order of symbol; failures are logged only.
func (e *OrderExecutor) CancelAll(ctx context.Context, exchangeName, symbol string) {
	ex, ok := e.exchanges.Get(exchangeName)
	if !ok {
		slog.Error("Invalid exchange", slog.String("exchange", exchangeName))
		return
	}

	if err := ex.CancelAll(ctx, symbol); err != nil {
		slog.Error("Cancel all failed",
			slog.String("exchange", exchangeName),
			slog.String("symbol", symbol),
			slog.Any("error", err))
	}
}

// CurrentPrice waits for a fresh ticker and returns the bid for long and the
// negated ask for short. It falls back to the last known ticker.
func (e *OrderExecutor) CurrentPrice(ctx context.Context, exchangeName, symbol string, side domain.OrderSide) (float64, bool) {
	if !side.Valid() {
		slog.Error("Invalid side for price", slog.String("side", string(side)))
		return 0, false
	}

	ticker, ok := e.waitForTicker(ctx, exchangeName, symbol)
	if !ok {
		slog.Error("No ticker found",
			slog.String("exchange", exchangeName),
			slog.String("symbol", symbol))
		return 0, false
	}

	if side == domain.SideShort {
		return -ticker.Ask, true
	}
	return ticker.Bid, true
}

func (e *OrderExecutor) waitForTicker(ctx context.Context, exchangeName, symbol string) (domain.Ticker, bool) {
	for attempt := 0; attempt < e.cfg.TickerPollAttempts; attempt++ {
		if t, ok := e.tickers.GetIfUpToDate(exchangeName, symbol, tickerMaxAge); ok {
			return t, true
		}
		if attempt == e.cfg.TickerPollAttempts-1 {
			break
		}

		timer := time.NewTimer(e.cfg.TickerPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return e.tickers.Get(exchangeName, symbol)
		case <-timer.C:
		}
	}

	slog.Info("No up to date ticker, using last known",
		slog.String("exchange", exchangeName),
		slog.String("symbol", symbol))
	return e.tickers.Get(exchangeName, symbol)
}
