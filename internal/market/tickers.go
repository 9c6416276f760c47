package market

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// Tickers is the in-memory cache of the latest ticker per pair.
type Tickers struct {
	mu      sync.RWMutex
	tickers map[string]domain.Ticker
	now     func() time.Time
}

// NewTickers creates an empty cache.
func NewTickers() *Tickers {
	return &Tickers{
		tickers: make(map[string]domain.Ticker),
		now:     time.Now,
	}
}

// Set stores t, replacing the previous ticker of the pair.
func (c *Tickers) Set(t domain.Ticker) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %s %s bid=%v ask=%v", domain.ErrInvalidTicker, t.Exchange, t.Symbol, t.Bid, t.Ask)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = c.now()
	}

	c.mu.Lock()
	c.tickers[domain.PairKey(t.Exchange, t.Symbol)] = t
	c.mu.Unlock()
	return nil
}

// Get returns the last known ticker regardless of age.
func (c *Tickers) Get(exchange, symbol string) (domain.Ticker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tickers[domain.PairKey(exchange, symbol)]
	return t, ok
}

// GetIfUpToDate returns the ticker only when it is younger than maxAge.
func (c *Tickers) GetIfUpToDate(exchange, symbol string, maxAge time.Duration) (domain.Ticker, bool) {
	t, ok := c.Get(exchange, symbol)
	if !ok || t.Age(c.now()) > maxAge {
		return domain.Ticker{}, false
	}
	return t, true
}

// All returns every cached ticker ordered by exchange and symbol.
func (c *Tickers) All() []domain.Ticker {
	c.mu.RLock()
	out := make([]domain.Ticker, 0, len(c.tickers))
	for _, t := range c.tickers {
		out = append(out, t)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Exchange != out[j].Exchange {
			return out[i].Exchange < out[j].Exchange
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
