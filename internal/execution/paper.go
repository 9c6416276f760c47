package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderNotOpen  = errors.New("order not open")
	ErrNoTicker      = errors.New("no ticker")
)

// Fill is a simulated execution.
type Fill struct {
	OrderID string
	Symbol  string
	Side    domain.ExchangeOrderSide
	Price   float64
	Amount  float64
	At      time.Time
}

type PaperConfig struct {
	Name     string
	Balance  float64 // quote currency
	TickSize float64
	StepSize float64
}

// PaperExchange simulates an exchange against the ticker cache. Resting
// orders are matched lazily whenever the exchange is queried.
type PaperExchange struct {
	cfg     PaperConfig
	tickers domain.TickerReader
	now     func() time.Time

	mu        sync.Mutex
	seq       int
	orders    map[string]*domain.ExchangeOrder
	positions map[string]*domain.Position
	balance   float64
	fills     []Fill
}

// NewPaperExchange creates a simulated exchange priced from tickers.
func NewPaperExchange(cfg PaperConfig, tickers domain.TickerReader) *PaperExchange {
	if cfg.Name == "" {
		cfg.Name = "paper"
	}
	return &PaperExchange{
		cfg:       cfg,
		tickers:   tickers,
		now:       time.Now,
		orders:    make(map[string]*domain.ExchangeOrder),
		positions: make(map[string]*domain.Position),
		balance:   cfg.Balance,
	}
}

func (p *PaperExchange) Name() string { return p.cfg.Name }

// Order accepts order and fills it at once when it is a market order or
// already crosses the book.
func (p *PaperExchange) Order(ctx context.Context, order domain.Order) (*domain.ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if order.Amount() <= 0 {
		return domain.NewRejectedExchangeOrder(order, "amount must be positive"), nil
	}

	amount := order.Amount()
	if order.IsReduceOnly() {
		pos := p.positions[order.Symbol()]
		if pos == nil || pos.Side() == order.Side() {
			return domain.NewRejectedExchangeOrder(order, "reduce only order would open a position"), nil
		}
		amount = math.Min(amount, pos.Size())
	}

	ticker, hasTicker := p.tickers.Get(p.cfg.Name, order.Symbol())
	now := p.now()
	p.seq++
	placed := &domain.ExchangeOrder{
		ID:        p.cfg.Name + "-" + strconv.Itoa(p.seq),
		Symbol:    order.Symbol(),
		Status:    domain.StatusOpen,
		Price:     order.Price(),
		Amount:    amount,
		OurID:     order.ID(),
		Side:      domain.ExchangeSideFor(order.Side()),
		Type:      domain.ExchangeTypeFor(order.Type()),
		CreatedAt: now,
		UpdatedAt: now,
		Options:   order.Options(),
	}

	switch order.Type() {
	case domain.OrderTypeMarket:
		if !hasTicker {
			return nil, fmt.Errorf("%w for %s", ErrNoTicker, order.Symbol())
		}
		price := ticker.Ask
		if order.IsShort() {
			price = ticker.Bid
		}
		placed.Price = price
		p.fillLocked(placed, price)

	case domain.OrderTypeLimit:
		if hasTicker && placed.IsPostOnly() && crosses(placed, ticker) {
			placed.Status = domain.StatusCanceled
			placed.Retry = true
			return placed, nil
		}
	}

	p.orders[placed.ID] = placed
	if placed.IsOpen() && hasTicker {
		p.matchLocked(placed, ticker)
	}

	slog.Info("PAPER EXECUTION: Order accepted",
		slog.String("id", placed.ID),
		slog.String("symbol", placed.Symbol),
		slog.String("side", string(placed.Side)),
		slog.String("status", string(placed.Status)),
		slog.Float64("price", placed.Price),
		slog.Float64("amount", placed.Amount))

	cp := *placed
	return &cp, nil
}

// crosses reports whether a limit order would take liquidity.
func crosses(o *domain.ExchangeOrder, t domain.Ticker) bool {
	if o.IsLong() {
		return o.Price >= t.Ask
	}
	return o.Price <= t.Bid
}

// matchLocked fills o when the market reached it. mu must be held.
func (p *PaperExchange) matchLocked(o *domain.ExchangeOrder, t domain.Ticker) {
	switch o.Type {
	case domain.ExchangeTypeLimit:
		if crosses(o, t) {
			p.fillLocked(o, o.Price)
		}
	case domain.ExchangeTypeStop:
		if (o.IsLong() && t.Ask >= o.Price) || (o.IsShort() && t.Bid <= o.Price) {
			price := t.Ask
			if o.IsShort() {
				price = t.Bid
			}
			p.fillLocked(o, price)
		}
	}
}

func (p *PaperExchange) matchSymbolLocked(symbol string) {
	t, ok := p.tickers.Get(p.cfg.Name, symbol)
	if !ok {
		return
	}
	for _, o := range p.orders {
		if o.Symbol == symbol && o.IsOpen() {
			p.matchLocked(o, t)
		}
	}
}

func (p *PaperExchange) fillLocked(o *domain.ExchangeOrder, price float64) {
	now := p.now()

	// reduce-only never opens or grows a position, even when it rests
	// until the position is gone
	if o.IsReduceOnly() {
		pos := p.positions[o.Symbol]
		if pos == nil || pos.Side() == o.LongOrShort() {
			o.Status = domain.StatusCanceled
			o.UpdatedAt = now
			slog.Info("PAPER EXECUTION: Reduce only order canceled, no position to reduce",
				slog.String("id", o.ID),
				slog.String("symbol", o.Symbol))
			return
		}
		o.Amount = math.Min(o.Amount, pos.Size())
	}

	o.Status = domain.StatusDone
	o.Filled = o.Amount
	o.UpdatedAt = now

	signed := domain.SignedBySide(o.LongOrShort(), o.Amount)
	pos := p.positions[o.Symbol]
	if pos == nil {
		pos = &domain.Position{Symbol: o.Symbol, CreatedAt: now}
		p.positions[o.Symbol] = pos
	}

	switch {
	case pos.Amount == 0 || (pos.Amount > 0) == (signed > 0):
		size := pos.Size() + math.Abs(signed)
		pos.Entry = (pos.Entry*pos.Size() + price*math.Abs(signed)) / size
	default:
		closed := math.Min(pos.Size(), math.Abs(signed))
		direction := 1.0
		if pos.IsShort() {
			direction = -1
		}
		p.balance += closed * (price - pos.Entry) * direction
		if math.Abs(signed) > pos.Size() {
			pos.Entry = price
		}
	}
	pos.Amount += signed
	pos.UpdatedAt = now
	if pos.Amount == 0 {
		delete(p.positions, o.Symbol)
	}

	p.fills = append(p.fills, Fill{
		OrderID: o.ID,
		Symbol:  o.Symbol,
		Side:    o.Side,
		Price:   price,
		Amount:  o.Amount,
		At:      now,
	})

	slog.Info("PAPER EXECUTION: Order filled",
		slog.String("id", o.ID),
		slog.String("symbol", o.Symbol),
		slog.Float64("price", price),
		slog.Float64("amount", o.Amount))
}

func (p *PaperExchange) FindOrderByID(ctx context.Context, id string) (*domain.ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok {
		return nil, nil
	}
	p.matchSymbolLocked(o.Symbol)
	cp := *o
	return &cp, nil
}

// UpdateOrder moves the price of an open order. A post-only order that would
// cross is canceled with Retry set.
func (p *PaperExchange) UpdateOrder(ctx context.Context, id string, order domain.Order) (*domain.ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	p.matchSymbolLocked(o.Symbol)
	if !o.IsOpen() {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, id, o.Status)
	}

	prev := o.Price
	o.Price = order.Price()
	o.UpdatedAt = p.now()

	if t, ok := p.tickers.Get(p.cfg.Name, o.Symbol); ok && o.Type == domain.ExchangeTypeLimit {
		if o.IsPostOnly() && crosses(o, t) {
			o.Price = prev
			o.Status = domain.StatusCanceled
			o.Retry = true
		} else {
			p.matchLocked(o, t)
		}
	}

	cp := *o
	return &cp, nil
}

func (p *PaperExchange) CancelOrder(ctx context.Context, id string) (*domain.ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	p.matchSymbolLocked(o.Symbol)
	if !o.IsOpen() {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, id, o.Status)
	}

	o.Status = domain.StatusCanceled
	o.UpdatedAt = p.now()
	slog.Info("PAPER EXECUTION: Order canceled", slog.String("id", id))

	cp := *o
	return &cp, nil
}

func (p *PaperExchange) CancelAll(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.matchSymbolLocked(symbol)
	now := p.now()
	for _, o := range p.orders {
		if o.Symbol == symbol && o.IsOpen() {
			o.Status = domain.StatusCanceled
			o.UpdatedAt = now
		}
	}
	return nil
}

// CalculateAmount floors amount to the step size.
func (p *PaperExchange) CalculateAmount(amount float64, _ string) float64 {
	return roundToIncrement(amount, p.cfg.StepSize, false)
}

// CalculatePrice rounds price to the tick size.
func (p *PaperExchange) CalculatePrice(price float64, _ string) float64 {
	return roundToIncrement(price, p.cfg.TickSize, true)
}

func roundToIncrement(v, increment float64, nearest bool) float64 {
	if increment <= 0 {
		return v
	}
	d := decimal.NewFromFloat(v)
	inc := decimal.NewFromFloat(increment)
	steps := d.Div(inc)
	if nearest {
		steps = steps.Round(0)
	} else {
		steps = steps.Truncate(0)
	}
	f, _ := steps.Mul(inc).Float64()
	return f
}

func (p *PaperExchange) PositionForSymbol(ctx context.Context, symbol string) (*domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.matchSymbolLocked(symbol)
	pos, ok := p.positions[symbol]
	if !ok {
		return nil, nil
	}
	cp := *pos
	return &cp, nil
}

// Positions returns all open positions ordered by symbol.
func (p *PaperExchange) Positions() []domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// TradableBalance is the cash balance minus the notional held by open
// positions and by resting orders that would open or grow one.
func (p *PaperExchange) TradableBalance(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	symbols := make(map[string]struct{})
	for _, o := range p.orders {
		if o.IsOpen() {
			symbols[o.Symbol] = struct{}{}
		}
	}
	for symbol := range symbols {
		p.matchSymbolLocked(symbol)
	}

	reserved := 0.0
	for _, pos := range p.positions {
		reserved += pos.Size() * pos.Entry
	}
	for _, o := range p.orders {
		if o.IsOpen() && !o.IsReduceOnly() {
			reserved += o.RemainingAmount() * o.Price
		}
	}
	return math.Max(0, p.balance-reserved), nil
}

// Fills returns a copy of all simulated executions.
func (p *PaperExchange) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}

var (
	_ domain.Exchange       = (*PaperExchange)(nil)
	_ domain.PositionReader = (*PaperExchange)(nil)
	_ domain.BalanceReader  = (*PaperExchange)(nil)
)
