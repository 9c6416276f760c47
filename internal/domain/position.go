package domain

import (
	"math"
	"time"
)

// Position is an open position. Amount is positive for long and negative
// for short.
type Position struct {
	Symbol    string    `json:"symbol"`
	Amount    float64   `json:"amount"`
	Entry     float64   `json:"entry"` // average entry price, zero when unknown
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Position) IsLong() bool {
	return p.Amount > 0
}

func (p *Position) IsShort() bool {
	return p.Amount < 0
}

// Side returns the OrderSide that opened the position.
func (p *Position) Side() OrderSide {
	return SideFromSigned(p.Amount)
}

// Size is the absolute amount.
func (p *Position) Size() float64 {
	return math.Abs(p.Amount)
}

// HasEntry reports whether an entry price is known.
func (p *Position) HasEntry() bool {
	return p.Entry > 0
}
