package execution

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
)

// Mode is the trading execution mode.
type Mode string

const (
	ModePaper Mode = "paper"
)

// Exchanges is the registry of exchanges by name.
type Exchanges struct {
	mu        sync.RWMutex
	exchanges map[string]domain.Exchange
}

// NewExchanges creates a registry holding exchanges.
func NewExchanges(exchanges ...domain.Exchange) *Exchanges {
	r := &Exchanges{exchanges: make(map[string]domain.Exchange, len(exchanges))}
	for _, ex := range exchanges {
		r.Register(ex)
	}
	return r
}

// Register adds ex under its name, replacing an earlier one.
func (r *Exchanges) Register(ex domain.Exchange) {
	r.mu.Lock()
	r.exchanges[ex.Name()] = ex
	r.mu.Unlock()
}

// Get returns the exchange registered under name.
func (r *Exchanges) Get(name string) (domain.Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.exchanges[name]
	return ex, ok
}

// Names returns the registered names, sorted.
func (r *Exchanges) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.exchanges))
	for name := range r.exchanges {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// NewExchangesFromConfig builds the exchanges for the configured mode. Every
// exchange is wrapped with a rate limiter and a circuit breaker.
func NewExchangesFromConfig(cfg *infra.Config, tickers domain.TickerReader) (*Exchanges, error) {
	mode := Mode(cfg.Trading.Mode)
	slog.Info("Initializing exchanges", slog.String("mode", string(mode)))

	switch mode {
	case ModePaper:
		p := cfg.Exchanges.Paper
		paper := NewPaperExchange(PaperConfig{
			Name:     p.Name,
			Balance:  p.Balance,
			TickSize: p.TickSize,
			StepSize: p.StepSize,
		}, tickers)
		guarded := infra.NewGuardedExchange(
			paper,
			infra.NewRateLimiter(p.RateLimitBurst, p.RateLimitPerSec),
			infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig(p.Name)),
		)
		return NewExchanges(guarded), nil
	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}
}

var _ domain.ExchangeProvider = (*Exchanges)(nil)
