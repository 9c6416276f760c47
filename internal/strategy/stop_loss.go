package strategy

import (
	"log/slog"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// DefaultStopLossPercent is the distance from entry used when none is given.
const DefaultStopLossPercent = 3.0

type StopLossOptions struct {
	Percent float64
}

// StopLossCalculator derives stop prices for open positions from the live
// ticker.
type StopLossCalculator struct {
	tickers domain.TickerReader
}

func NewStopLossCalculator(tickers domain.TickerReader) *StopLossCalculator {
	return &StopLossCalculator{tickers: tickers}
}

// CalculateForOpenPosition returns the stop price of position, signed by the
// side of the closing order: negative (sell) for long, positive (buy) for
// short. ok is false when there is no ticker or the stop would already
// trigger.
func (c *StopLossCalculator) CalculateForOpenPosition(exchange string, position domain.Position, opts StopLossOptions) (float64, bool) {
	if !position.HasEntry() {
		slog.Error("Stop loss needs a position entry",
			slog.String("exchange", exchange),
			slog.String("symbol", position.Symbol))
		return 0, false
	}

	percent := opts.Percent
	if percent <= 0 {
		percent = DefaultStopLossPercent
	}

	ticker, ok := c.tickers.Get(exchange, position.Symbol)
	if !ok {
		slog.Info("Stop loss without ticker",
			slog.String("exchange", exchange),
			slog.String("symbol", position.Symbol))
		return 0, false
	}

	switch {
	case position.IsLong():
		price := position.Entry * (1 - percent/100)
		if price > ticker.Ask {
			return 0, false
		}
		return domain.SignedBySide(domain.SideShort, price), true

	case position.IsShort():
		price := position.Entry * (1 + percent/100)
		if price < ticker.Bid {
			return 0, false
		}
		return domain.SignedBySide(domain.SideLong, price), true
	}
	return 0, false
}
