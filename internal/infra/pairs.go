package infra

import (
	"fmt"
	"sync"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// PairCapitals answers the configured capital of each pair.
type PairCapitals struct {
	mu       sync.RWMutex
	capitals map[string]domain.OrderCapital
}

// NewPairCapitals builds the lookup from the configured pairs.
func NewPairCapitals(entries []PairEntry) (*PairCapitals, error) {
	p := &PairCapitals{capitals: make(map[string]domain.OrderCapital, len(entries))}
	for _, e := range entries {
		capital, err := domain.ParseOrderCapital(e.Capital.Kind, e.Capital.Amount)
		if err != nil {
			return nil, fmt.Errorf("pair %s %s: %w", e.Exchange, e.Symbol, err)
		}
		p.capitals[domain.PairKey(e.Exchange, e.Symbol)] = capital
	}
	return p, nil
}

func (p *PairCapitals) SymbolCapital(exchange, symbol string) (domain.OrderCapital, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.capitals[domain.PairKey(exchange, symbol)]
	return c, ok
}

// Set replaces the capital of one pair at runtime.
func (p *PairCapitals) Set(exchange, symbol string, capital domain.OrderCapital) {
	p.mu.Lock()
	p.capitals[domain.PairKey(exchange, symbol)] = capital
	p.mu.Unlock()
}

var _ domain.PairConfig = (*PairCapitals)(nil)
