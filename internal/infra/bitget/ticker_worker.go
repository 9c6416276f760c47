package bitget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
)

var errEmptyBook = errors.New("empty book side")

// TickerSink receives best bid/ask updates.
type TickerSink interface {
	Set(t domain.Ticker) error
}

// TickerWorker streams the books1 channel and stores each top of book as a
// ticker under exchange.
type TickerWorker struct {
	base     *infra.WSWorker
	url      string
	exchange string
	instType string
	symbols  []string
	sink     TickerSink
}

func NewTickerWorker(url, exchange, instType string, symbols []string, sink TickerSink) *TickerWorker {
	w := &TickerWorker{
		url:      url,
		exchange: exchange,
		instType: instType,
		symbols:  symbols,
		sink:     sink,
	}
	w.base = infra.NewWSWorker(w)
	return w
}

func (w *TickerWorker) ID() string  { return "BITGET_" + w.instType }
func (w *TickerWorker) URL() string { return w.url }

func (w *TickerWorker) Start(ctx context.Context) { w.base.Start(ctx) }
func (w *TickerWorker) Stop()                     { w.base.Stop() }

func (w *TickerWorker) OnConnect(ctx context.Context, ws *infra.WSWorker) error {
	args := make([]subscribeArg, 0, len(w.symbols))
	for _, s := range w.symbols {
		args = append(args, subscribeArg{InstType: w.instType, Channel: channelBooks1, InstId: s})
	}
	b, err := json.Marshal(subscribeRequest{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}
	return ws.WriteText(b)
}

func (w *TickerWorker) Ping(ctx context.Context, ws *infra.WSWorker) error {
	return ws.WriteText([]byte("ping"))
}

func (w *TickerWorker) OnMessage(ctx context.Context, msg []byte) {
	if string(msg) == "pong" {
		return
	}

	var resp bookResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		slog.Debug("Bitget: unparsable message", slog.Any("error", err))
		return
	}
	if resp.Arg.Channel != channelBooks1 || len(resp.Data) == 0 {
		return
	}

	for _, book := range resp.Data {
		t, err := toTicker(w.exchange, resp.Arg.InstId, book)
		if err != nil {
			slog.Debug("Bitget: skip book",
				slog.String("symbol", resp.Arg.InstId),
				slog.Any("error", err))
			continue
		}
		if err := w.sink.Set(t); err != nil {
			slog.Warn("Bitget: ticker rejected",
				slog.String("symbol", resp.Arg.InstId),
				slog.Any("error", err))
		}
	}
}

func toTicker(exchange, symbol string, book bookData) (domain.Ticker, error) {
	bid, err := bestPrice(book.Bids)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("bids: %w", err)
	}
	ask, err := bestPrice(book.Asks)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("asks: %w", err)
	}

	// stamped with local receive time so freshness checks ignore clock skew
	return domain.NewTicker(exchange, symbol, bid, ask)
}

func bestPrice(levels [][]string) (float64, error) {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return 0, errEmptyBook
	}
	d, err := decimal.NewFromString(levels[0][0])
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}
