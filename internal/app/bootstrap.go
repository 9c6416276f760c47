package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/engine"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/execution"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra/bitget"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/market"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/storage"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/strategy"
)

const keepSnapshots = 10

// Bootstrap owns every long lived component of the bot.
type Bootstrap struct {
	Config    *infra.Config
	Workspace *infra.Workspace

	Tickers   *market.Tickers
	Exchanges *execution.Exchanges
	Executor  *execution.OrderExecutor
	Manager   *engine.PairStateManager
	Store     *storage.SignalStore
	Snapshots *storage.SnapshotManager

	feed     *bitget.TickerWorker
	stopLoss *strategy.StopLossGuard
	unlock   func()
}

// NewBootstrap wires the components for cfg below the workspace root dir.
func NewBootstrap(cfg *infra.Config, root string) (*Bootstrap, error) {
	ws, err := infra.NewWorkspace(root)
	if err != nil {
		return nil, err
	}
	unlock, err := ws.Lock()
	if err != nil {
		return nil, err
	}

	b := &Bootstrap{
		Config:    cfg,
		Workspace: ws,
		Tickers:   market.NewTickers(),
		Snapshots: storage.NewSnapshotManager(ws.Snapshots),
		unlock:    unlock,
	}
	if err := b.wire(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bootstrap) wire() error {
	cfg := b.Config

	exchanges, err := execution.NewExchangesFromConfig(cfg, b.Tickers)
	if err != nil {
		return err
	}
	b.Exchanges = exchanges

	var execOpts []execution.Option
	var managerOpts []engine.ManagerOption
	if cfg.Storage.Enabled {
		dbPath := b.Workspace.Path(cfg.Storage.Path)
		store, err := storage.NewSignalStore(dbPath)
		if err != nil {
			return err
		}
		b.Store = store
		execOpts = append(execOpts, execution.WithOrderRecorder(store))
		managerOpts = append(managerOpts, engine.WithSignalRecorder(store))
		slog.Info("Signal store ready", slog.String("path", dbPath))
	}

	b.Executor = execution.NewOrderExecutor(exchanges, b.Tickers, execution.ConfigFrom(cfg.Order), execOpts...)

	capitals, err := infra.NewPairCapitals(cfg.Pairs)
	if err != nil {
		return err
	}
	b.Manager = engine.NewPairStateManager(
		capitals,
		engine.NewPairStateExecutor(exchanges, b.Executor),
		b.Executor,
		cfg.TickInterval(),
		managerOpts...,
	)

	if cfg.Feed.Enabled {
		b.feed = bitget.NewTickerWorker(cfg.Feed.WSURL, cfg.Feed.Exchange, cfg.Feed.InstType, cfg.Feed.Symbols, b.Tickers)
	}

	if cfg.StopLoss.Enabled {
		pairs := make([]strategy.GuardedPair, 0, len(cfg.Pairs))
		for _, p := range cfg.Pairs {
			pairs = append(pairs, strategy.GuardedPair{Exchange: p.Exchange, Symbol: p.Symbol})
		}
		b.stopLoss = strategy.NewStopLossGuard(
			exchanges,
			strategy.NewStopLossCalculator(b.Tickers),
			b.Executor,
			strategy.StopLossOptions{Percent: cfg.StopLoss.Percent},
			pairs,
		)
	}
	return nil
}

// Start launches the feed and the stop loss guard and applies the pair
// states configured for boot.
func (b *Bootstrap) Start(ctx context.Context) error {
	if b.feed != nil {
		b.feed.Start(ctx)
		slog.Info("Ticker feed started",
			slog.String("exchange", b.Config.Feed.Exchange),
			slog.Int("symbols", len(b.Config.Feed.Symbols)))
	}
	if b.stopLoss != nil {
		go b.stopLoss.Run(ctx, b.Config.StopLossInterval())
	}

	for _, p := range b.Config.Pairs {
		if p.State == "" {
			continue
		}
		if err := b.Manager.Update(p.Exchange, p.Symbol, domain.State(p.State), domain.PairStateOptions{}); err != nil {
			return fmt.Errorf("start pair %s %s: %w", p.Exchange, p.Symbol, err)
		}
	}
	return nil
}

// Shutdown snapshots the managed pairs, cancels them on the exchange and
// releases every resource.
func (b *Bootstrap) Shutdown(ctx context.Context) {
	if b.Manager != nil {
		snap := storage.CreateSnapshot(time.Now(), b.Manager.All())
		if _, err := b.Snapshots.Save(snap); err != nil {
			slog.Error("Failed to save snapshot", slog.Any("error", err))
		} else if err := b.Snapshots.Cleanup(keepSnapshots); err != nil {
			slog.Warn("Snapshot cleanup failed", slog.Any("error", err))
		}
		b.Manager.OnTerminate(ctx)
	}
	b.Close()
}

// Close stops timers and workers without touching the exchange.
func (b *Bootstrap) Close() {
	if b.Manager != nil {
		b.Manager.Close()
	}
	if b.feed != nil {
		b.feed.Stop()
		b.feed = nil
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			slog.Warn("Failed to close signal store", slog.Any("error", err))
		}
		b.Store = nil
	}
	if b.unlock != nil {
		b.unlock()
		b.unlock = nil
	}
}
