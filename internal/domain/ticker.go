package domain

import (
	"fmt"
	"time"
)

// Ticker is the best bid and ask of one pair at CreatedAt.
type Ticker struct {
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicker stamps the ticker with the current time.
func NewTicker(exchange, symbol string, bid, ask float64) (Ticker, error) {
	t := Ticker{Exchange: exchange, Symbol: symbol, Bid: bid, Ask: ask, CreatedAt: time.Now()}
	if !t.IsValid() {
		return Ticker{}, fmt.Errorf("%w: %s %s bid=%v ask=%v", ErrInvalidTicker, exchange, symbol, bid, ask)
	}
	return t, nil
}

func (t Ticker) IsValid() bool {
	return t.Bid > 0 && t.Ask > 0
}

// Age is the time elapsed since the ticker was created.
func (t Ticker) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}
