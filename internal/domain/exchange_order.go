package domain

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ExchangeOrderStatus is the lifecycle state reported by the exchange.
type ExchangeOrderStatus string

const (
	StatusOpen     ExchangeOrderStatus = "open"
	StatusDone     ExchangeOrderStatus = "done"
	StatusCanceled ExchangeOrderStatus = "canceled"
	StatusRejected ExchangeOrderStatus = "rejected"
)

// ExchangeOrderSide uses the exchange vocabulary, not OrderSide.
type ExchangeOrderSide string

const (
	ExchangeSideBuy  ExchangeOrderSide = "buy"
	ExchangeSideSell ExchangeOrderSide = "sell"
)

// ExchangeSideFor maps an OrderSide to the exchange vocabulary.
func ExchangeSideFor(side OrderSide) ExchangeOrderSide {
	if side == SideShort {
		return ExchangeSideSell
	}
	return ExchangeSideBuy
}

// ExchangeOrderType is the closed set of order types an exchange reports.
type ExchangeOrderType string

const (
	ExchangeTypeLimit        ExchangeOrderType = "limit"
	ExchangeTypeStop         ExchangeOrderType = "stop"
	ExchangeTypeStopLimit    ExchangeOrderType = "stop_limit"
	ExchangeTypeMarket       ExchangeOrderType = "market"
	ExchangeTypeTrailingStop ExchangeOrderType = "trailing_stop"
	ExchangeTypeUnknown      ExchangeOrderType = "unknown"
)

func (t ExchangeOrderType) valid() bool {
	switch t {
	case ExchangeTypeLimit, ExchangeTypeStop, ExchangeTypeStopLimit, ExchangeTypeMarket,
		ExchangeTypeTrailingStop, ExchangeTypeUnknown:
		return true
	}
	return false
}

// ExchangeTypeFor maps an OrderType to the exchange vocabulary.
func ExchangeTypeFor(t OrderType) ExchangeOrderType {
	switch t {
	case OrderTypeLimit:
		return ExchangeTypeLimit
	case OrderTypeStop:
		return ExchangeTypeStop
	case OrderTypeMarket:
		return ExchangeTypeMarket
	case OrderTypeTrailingStop:
		return ExchangeTypeTrailingStop
	}
	return ExchangeTypeUnknown
}

// ExchangeOrder is an order as acknowledged by the exchange.
type ExchangeOrder struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Status    ExchangeOrderStatus `json:"status"`
	Price     float64             `json:"price"`
	Amount    float64             `json:"amount"`
	Filled    float64             `json:"filled,omitempty"`
	Retry     bool                `json:"retry"` // resend, this was not a real rejection
	OurID     string              `json:"our_id,omitempty"`
	Side      ExchangeOrderSide   `json:"side"`
	Type      ExchangeOrderType   `json:"type"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Raw       any                 `json:"raw,omitempty"`
	Options   OrderOptions        `json:"options"`
}

// Validate checks the closed-set fields.
func (o *ExchangeOrder) Validate() error {
	if o.Side != ExchangeSideBuy && o.Side != ExchangeSideSell {
		return fmt.Errorf("%w: %q", ErrInvalidSide, o.Side)
	}
	if !o.Type.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, o.Type)
	}
	return nil
}

func (o *ExchangeOrder) IsOpen() bool       { return o.Status == StatusOpen }
func (o *ExchangeOrder) IsCanceled() bool   { return o.Status == StatusCanceled }
func (o *ExchangeOrder) IsRejected() bool   { return o.Status == StatusRejected }
func (o *ExchangeOrder) IsPostOnly() bool   { return o.Options.PostOnly }
func (o *ExchangeOrder) IsReduceOnly() bool { return o.Options.Close }
func (o *ExchangeOrder) IsLong() bool       { return o.Side == ExchangeSideBuy }
func (o *ExchangeOrder) IsShort() bool      { return o.Side == ExchangeSideSell }

// LongOrShort maps buy/sell back to OrderSide.
func (o *ExchangeOrder) LongOrShort() OrderSide {
	if o.Side == ExchangeSideSell {
		return SideShort
	}
	return SideLong
}

// ShouldCancelOrderProcess is true for a final canceled or rejected order.
func (o *ExchangeOrder) ShouldCancelOrderProcess() bool {
	return (o.Status == StatusCanceled || o.Status == StatusRejected) && !o.Retry
}

// RemainingAmount is the absolute amount not yet filled.
func (o *ExchangeOrder) RemainingAmount() float64 {
	remaining := math.Abs(o.Amount) - math.Abs(o.Filled)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LogValue implements slog.LogValuer.
func (o *ExchangeOrder) LogValue() slog.Value {
	if o == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.String("id", o.ID),
		slog.String("symbol", o.Symbol),
		slog.String("status", string(o.Status)),
		slog.String("side", string(o.Side)),
		slog.String("type", string(o.Type)),
		slog.Float64("price", o.Price),
		slog.Float64("amount", o.Amount),
		slog.Float64("filled", o.Filled),
		slog.Bool("retry", o.Retry),
	)
}

func projectOrder(order Order, status ExchangeOrderStatus) *ExchangeOrder {
	now := time.Now()
	return &ExchangeOrder{
		ID:        order.ID(),
		Symbol:    order.Symbol(),
		Status:    status,
		Price:     order.Price(),
		Amount:    order.Amount(),
		OurID:     order.ID(),
		Side:      ExchangeSideFor(order.Side()),
		Type:      ExchangeTypeFor(order.Type()),
		CreatedAt: now,
		UpdatedAt: now,
		Options:   order.Options(),
	}
}

// NewCanceledExchangeOrder projects an order that never reached the book.
func NewCanceledExchangeOrder(order Order) *ExchangeOrder {
	return projectOrder(order, StatusCanceled)
}

// NewRejectedExchangeOrder projects an order the exchange refused.
func NewRejectedExchangeOrder(order Order, message string) *ExchangeOrder {
	o := projectOrder(order, StatusRejected)
	o.Raw = map[string]string{"message": message}
	return o
}
