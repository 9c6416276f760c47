package domain

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
)

// OrderSide is the direction an Order wants to trade.
type OrderSide string

const (
	SideLong  OrderSide = "long"
	SideShort OrderSide = "short"
)

// Valid reports whether s is one of the known sides.
func (s OrderSide) Valid() bool {
	return s == SideLong || s == SideShort
}

// Opposite returns the side that reduces a position opened on s.
func (s OrderSide) Opposite() OrderSide {
	if s == SideShort {
		return SideLong
	}
	return SideShort
}

// SideFromSigned maps a signed amount or price to a side: negative is short.
func SideFromSigned(v float64) OrderSide {
	if v < 0 {
		return SideShort
	}
	return SideLong
}

// SignedBySide converts a magnitude into the signed value used by exchanges
// that encode direction in the sign: long is positive, short is negative.
func SignedBySide(side OrderSide, magnitude float64) float64 {
	if side == SideShort {
		return -math.Abs(magnitude)
	}
	return math.Abs(magnitude)
}

// OrderType is the execution type of an Order.
type OrderType string

const (
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeMarket       OrderType = "market"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

// Valid reports whether t is one of the known order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStop, OrderTypeMarket, OrderTypeTrailingStop:
		return true
	}
	return false
}

// OrderOptions are the execution flags attached to an Order.
type OrderOptions struct {
	PostOnly    bool `json:"post_only,omitempty"`
	Close       bool `json:"close,omitempty"` // reduce-only
	AdjustPrice bool `json:"adjust_price,omitempty"`
}

// Order is the order a caller wants placed. It is immutable; use the
// constructors below to derive new orders.
type Order struct {
	id       string
	symbol   string
	side     OrderSide
	price    float64
	hasPrice bool
	amount   float64
	typ      OrderType
	options  OrderOptions
}

func newOrderID() string {
	return uuid.NewString()
}

func newOrder(id, symbol string, side OrderSide, price *float64, amount float64, typ OrderType, options OrderOptions) (Order, error) {
	if !side.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if !typ.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidOrderType, typ)
	}

	o := Order{
		id:      id,
		symbol:  symbol,
		side:    side,
		amount:  math.Abs(amount),
		typ:     typ,
		options: options,
	}
	if price != nil {
		o.price = *price
		o.hasPrice = true
	}
	return o, nil
}

// mustOrder is used by constructors whose side and type are derived
// internally and therefore always valid.
func mustOrder(o Order, err error) Order {
	if err != nil {
		panic(err)
	}
	return o
}

// NewOrder builds an order after validating side and type.
func NewOrder(symbol string, side OrderSide, price float64, amount float64, typ OrderType, options OrderOptions) (Order, error) {
	return newOrder(newOrderID(), symbol, side, &price, amount, typ, options)
}

// NewMarketOrder creates a market order; the sign of amount selects the side.
func NewMarketOrder(symbol string, amount float64) Order {
	return mustOrder(newOrder(newOrderID(), symbol, SideFromSigned(amount), nil, amount, OrderTypeMarket, OrderOptions{}))
}

// NewLimitPostOnlyOrder creates a post-only limit order for an explicit side.
func NewLimitPostOnlyOrder(symbol string, side OrderSide, price, amount float64, options OrderOptions) (Order, error) {
	options.PostOnly = true
	return newOrder(newOrderID(), symbol, side, &price, amount, OrderTypeLimit, options)
}

// NewLimitPostOnlyOrderAutoSide creates a post-only limit order whose side
// follows the sign of amount.
func NewLimitPostOnlyOrderAutoSide(symbol string, price, amount float64, options OrderOptions) Order {
	options.PostOnly = true
	return mustOrder(newOrder(newOrderID(), symbol, SideFromSigned(amount), &price, amount, OrderTypeLimit, options))
}

// NewCloseLimitPostOnlyReduceOrder creates a reduce-only post-only limit order.
func NewCloseLimitPostOnlyReduceOrder(symbol string, price, amount float64) Order {
	return NewLimitPostOnlyOrderAutoSide(symbol, price, amount, OrderOptions{Close: true})
}

// NewLimitPostOnlyOrderAutoAdjustedPrice creates a post-only limit order
// without a price. The executor resolves the price from the ticker right
// before placement and keeps it pinned to the book afterwards.
func NewLimitPostOnlyOrderAutoAdjustedPrice(symbol string, amount float64, options OrderOptions) Order {
	options.PostOnly = true
	options.AdjustPrice = true
	return mustOrder(newOrder(newOrderID(), symbol, SideFromSigned(amount), nil, amount, OrderTypeLimit, options))
}

// NewCloseOrderWithPriceAdjustment is the reduce-only variant of
// NewLimitPostOnlyOrderAutoAdjustedPrice.
func NewCloseOrderWithPriceAdjustment(symbol string, amount float64) Order {
	return NewLimitPostOnlyOrderAutoAdjustedPrice(symbol, amount, OrderOptions{Close: true})
}

// NewStopOrder creates a stop order.
func NewStopOrder(symbol string, side OrderSide, price, amount float64, options OrderOptions) (Order, error) {
	return newOrder(newOrderID(), symbol, side, &price, amount, OrderTypeStop, options)
}

// NewTrailingStopOrder creates a trailing stop; distance is stored as price.
func NewTrailingStopOrder(symbol string, distance, amount float64) Order {
	return mustOrder(newOrder(newOrderID(), symbol, SideFromSigned(amount), &distance, amount, OrderTypeTrailingStop, OrderOptions{Close: true}))
}

// NewRetryOrder clones order under a fresh id.
func NewRetryOrder(order Order) Order {
	retry := order
	retry.id = newOrderID()
	return retry
}

// NewRetryOrderWithAmount clones order under a fresh id with a new amount.
func NewRetryOrderWithAmount(order Order, amount float64) Order {
	retry := NewRetryOrder(order)
	retry.amount = math.Abs(amount)
	return retry
}

// NewRetryOrderWithPriceAdjustment clones order under a fresh id at price.
func NewRetryOrderWithPriceAdjustment(order Order, price float64) Order {
	retry := NewRetryOrder(order)
	retry.price = price
	retry.hasPrice = true
	return retry
}

// NewPriceUpdateOrder describes a price move of an existing exchange order;
// id is the exchange order id.
func NewPriceUpdateOrder(id string, price float64, side OrderSide) (Order, error) {
	return newOrder(id, "", side, &price, 0, OrderTypeLimit, OrderOptions{})
}

// WithAmountAndPrice returns a copy carrying the given magnitudes. The id is
// kept because the order was not sent yet.
func (o Order) WithAmountAndPrice(amount, price float64) Order {
	o.amount = math.Abs(amount)
	if o.hasPrice {
		o.price = SignedBySide(o.side, price)
	}
	return o
}

func (o Order) ID() string            { return o.id }
func (o Order) Symbol() string        { return o.symbol }
func (o Order) Side() OrderSide       { return o.side }
func (o Order) Type() OrderType       { return o.typ }
func (o Order) Options() OrderOptions { return o.options }
func (o Order) HasPrice() bool        { return o.hasPrice }
func (o Order) IsLong() bool          { return o.side == SideLong }
func (o Order) IsShort() bool         { return o.side == SideShort }
func (o Order) IsPostOnly() bool      { return o.options.PostOnly }
func (o Order) IsReduceOnly() bool    { return o.options.Close }
func (o Order) HasAdjustedPrice() bool {
	return o.options.AdjustPrice
}

// Price is always the absolute price; zero when no price is set.
func (o Order) Price() float64 { return math.Abs(o.price) }

// Amount is always the absolute amount.
func (o Order) Amount() float64 { return o.amount }

// SignedAmount is Amount with the side encoded in the sign.
func (o Order) SignedAmount() float64 { return SignedBySide(o.side, o.amount) }

// SignedPrice is Price with the side encoded in the sign.
func (o Order) SignedPrice() float64 { return SignedBySide(o.side, o.price) }

// LogValue implements slog.LogValuer.
func (o Order) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", o.id),
		slog.String("symbol", o.symbol),
		slog.String("side", string(o.side)),
		slog.String("type", string(o.typ)),
		slog.Float64("amount", o.amount),
		slog.Bool("post_only", o.options.PostOnly),
		slog.Bool("close", o.options.Close),
		slog.Bool("adjust_price", o.options.AdjustPrice),
	}
	if o.hasPrice {
		attrs = append(attrs, slog.Float64("price", o.price))
	}
	return slog.GroupValue(attrs...)
}
