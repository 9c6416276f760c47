package domain

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the desired direction of a managed pair.
type State string

const (
	StateLong   State = "long"
	StateShort  State = "short"
	StateClose  State = "close"
	StateCancel State = "cancel"
)

// Valid reports whether s is one of the four pair states.
func (s State) Valid() bool {
	switch s {
	case StateLong, StateShort, StateClose, StateCancel:
		return true
	}
	return false
}

// NeedsCapital is true for states that open exposure.
func (s State) NeedsCapital() bool {
	return s == StateLong || s == StateShort
}

// PairStateOptions are caller supplied flags for one update.
type PairStateOptions struct {
	Market bool `json:"market,omitempty"`
}

// PairKey is the map key of an (exchange, symbol) pair.
func PairKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

// PairState is the authoritative intent record of one pair. The identity
// fields never change; order, exchange order and retries are guarded by mu.
type PairState struct {
	exchange      string
	symbol        string
	state         State
	capital       *OrderCapital
	options       PairStateOptions
	adjustedPrice bool
	createdAt     time.Time

	mu            sync.Mutex
	order         *Order
	exchangeOrder *ExchangeOrder
	retries       int

	clearOnce sync.Once
	done      chan struct{}
}

// NewPairState validates state and capital. Long and short require capital.
func NewPairState(exchange, symbol string, state State, capital *OrderCapital, options PairStateOptions, adjustedPrice bool) (*PairState, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	if state.NeedsCapital() && (capital == nil || !capital.IsValid()) {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidCapital, exchange, symbol)
	}
	if !state.NeedsCapital() {
		capital = nil
	}

	return &PairState{
		exchange:      exchange,
		symbol:        symbol,
		state:         state,
		capital:       capital,
		options:       options,
		adjustedPrice: adjustedPrice,
		createdAt:     time.Now(),
		done:          make(chan struct{}),
	}, nil
}

func NewLongPairState(exchange, symbol string, capital OrderCapital, options PairStateOptions) (*PairState, error) {
	return NewPairState(exchange, symbol, StateLong, &capital, options, true)
}

func NewShortPairState(exchange, symbol string, capital OrderCapital, options PairStateOptions) (*PairState, error) {
	return NewPairState(exchange, symbol, StateShort, &capital, options, true)
}

func NewClosePairState(exchange, symbol string, options PairStateOptions) (*PairState, error) {
	return NewPairState(exchange, symbol, StateClose, nil, options, true)
}

func NewCancelPairState(exchange, symbol string, options PairStateOptions) (*PairState, error) {
	return NewPairState(exchange, symbol, StateCancel, nil, options, true)
}

func (p *PairState) Exchange() string          { return p.exchange }
func (p *PairState) Symbol() string            { return p.symbol }
func (p *PairState) Key() string               { return PairKey(p.exchange, p.symbol) }
func (p *PairState) State() State              { return p.state }
func (p *PairState) Options() PairStateOptions { return p.options }
func (p *PairState) HasAdjustedPrice() bool    { return p.adjustedPrice }
func (p *PairState) CreatedAt() time.Time      { return p.createdAt }

// Capital returns the configured capital; ok is false for close and cancel.
func (p *PairState) Capital() (OrderCapital, bool) {
	if p.capital == nil {
		return OrderCapital{}, false
	}
	return *p.capital, true
}

func (p *PairState) Order() *Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}

func (p *PairState) SetOrder(order *Order) {
	p.mu.Lock()
	p.order = order
	p.mu.Unlock()
}

func (p *PairState) ExchangeOrder() *ExchangeOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeOrder
}

func (p *PairState) SetExchangeOrder(order *ExchangeOrder) {
	p.mu.Lock()
	p.exchangeOrder = order
	p.mu.Unlock()
}

func (p *PairState) Retries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retries
}

// TriggerRetry increments the retry counter and returns the new value.
func (p *PairState) TriggerRetry() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retries++
	return p.retries
}

// Clear marks the record as finished. Only the first call closes Done.
func (p *PairState) Clear() {
	p.clearOnce.Do(func() { close(p.done) })
}

// Done is closed once the record has been cleared.
func (p *PairState) Done() <-chan struct{} {
	return p.done
}

func (p *PairState) IsCleared() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// PairStateSnapshot is a plain copy of a PairState for logs and storage.
type PairStateSnapshot struct {
	Exchange        string    `json:"exchange"`
	Symbol          string    `json:"symbol"`
	State           State     `json:"state"`
	Retries         int       `json:"retries"`
	Cleared         bool      `json:"cleared"`
	OrderID         string    `json:"order_id,omitempty"`
	ExchangeOrderID string    `json:"exchange_order_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p *PairState) Snapshot() PairStateSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := PairStateSnapshot{
		Exchange:  p.exchange,
		Symbol:    p.symbol,
		State:     p.state,
		Retries:   p.retries,
		Cleared:   p.IsCleared(),
		CreatedAt: p.createdAt,
	}
	if p.order != nil {
		s.OrderID = p.order.ID()
	}
	if p.exchangeOrder != nil {
		s.ExchangeOrderID = p.exchangeOrder.ID
	}
	return s
}

// LogValue implements slog.LogValuer.
func (p *PairState) LogValue() slog.Value {
	s := p.Snapshot()
	return slog.GroupValue(
		slog.String("exchange", s.Exchange),
		slog.String("symbol", s.Symbol),
		slog.String("state", string(s.State)),
		slog.Int("retries", s.Retries),
		slog.String("exchange_order_id", s.ExchangeOrderID),
	)
}
