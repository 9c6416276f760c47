package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/infra"
)

// DefaultTickInterval is the default period of a pair tick.
const DefaultTickInterval = 10800 * time.Millisecond

// PriceAdjuster keeps resting orders at the top of the book.
type PriceAdjuster interface {
	AdjustOpenOrdersPrice(ctx context.Context, states ...*domain.PairState)
}

// SignalRecorder receives every accepted update.
type SignalRecorder interface {
	RecordSignal(ctx context.Context, exchange, symbol string, state domain.State, options domain.PairStateOptions)
}

// ManagerOption configures a PairStateManager.
type ManagerOption func(*PairStateManager)

// WithSignalRecorder reports every accepted update to r.
func WithSignalRecorder(r SignalRecorder) ManagerOption {
	return func(m *PairStateManager) { m.recorder = r }
}

type managedPair struct {
	state   *domain.PairState
	ticking atomic.Bool
}

// PairStateManager owns the active PairState of every pair and ticks each
// one on its own timer.
type PairStateManager struct {
	pairConfig   domain.PairConfig
	execution    domain.PairStateExecution
	adjuster     PriceAdjuster
	recorder     SignalRecorder
	interval     *PairInterval
	tickInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	states map[string]*managedPair
}

// NewPairStateManager creates a manager ticking every pair each tickInterval.
func NewPairStateManager(pairConfig domain.PairConfig, execution domain.PairStateExecution, adjuster PriceAdjuster, tickInterval time.Duration, opts ...ManagerOption) *PairStateManager {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &PairStateManager{
		pairConfig:   pairConfig,
		execution:    execution,
		adjuster:     adjuster,
		interval:     NewPairInterval(),
		tickInterval: tickInterval,
		ctx:          ctx,
		cancel:       cancel,
		states:       make(map[string]*managedPair),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Update replaces the intent of a pair and starts ticking it. Long and short
// need configured capital; without it the update is skipped.
func (m *PairStateManager) Update(exchange, symbol string, state domain.State, options domain.PairStateOptions) error {
	if !state.Valid() {
		slog.Error("Invalid pair state",
			slog.String("exchange", exchange),
			slog.String("symbol", symbol),
			slog.String("state", string(state)))
		return fmt.Errorf("%w: %q", domain.ErrInvalidState, state)
	}

	var capital *domain.OrderCapital
	if state.NeedsCapital() {
		c, ok := m.pairConfig.SymbolCapital(exchange, symbol)
		if !ok {
			slog.Error("No capital configured, skipping pair update",
				slog.String("exchange", exchange),
				slog.String("symbol", symbol),
				slog.String("state", string(state)))
			return nil
		}
		capital = &c
	}

	ps, err := domain.NewPairState(exchange, symbol, state, capital, options, true)
	if err != nil {
		slog.Error("Pair state rejected", slog.Any("error", err))
		return err
	}

	key := ps.Key()
	entry := &managedPair{state: ps}

	m.mu.Lock()
	old := m.states[key]
	m.states[key] = entry
	m.interval.AddInterval(key, m.tickInterval, func() { m.tick(key, entry) })
	active := len(m.states)
	m.mu.Unlock()

	if old != nil {
		old.state.Clear()
	}
	go m.watch(key, entry)

	slog.Info("Pair state updated",
		slog.String("exchange", exchange),
		slog.String("symbol", symbol),
		slog.String("state", string(state)),
		slog.Bool("replaced", old != nil))

	infra.IncPairUpdate(string(state))
	infra.SetActivePairs(active)
	if m.recorder != nil {
		m.recorder.RecordSignal(m.ctx, exchange, symbol, state, options)
	}
	return nil
}

// watch removes entry once its state is cleared from anywhere.
func (m *PairStateManager) watch(key string, entry *managedPair) {
	select {
	case <-entry.state.Done():
		m.release(key, entry)
	case <-m.ctx.Done():
	}
}

func (m *PairStateManager) release(key string, entry *managedPair) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.states[key] != entry {
		return
	}
	m.releaseLocked(key)
}

// releaseLocked drops key from the active map. mu must be held.
func (m *PairStateManager) releaseLocked(key string) {
	delete(m.states, key)
	m.interval.ClearInterval(key)
	infra.SetActivePairs(len(m.states))
}

func (m *PairStateManager) isActive(key string, entry *managedPair) bool {
	if entry.state.IsCleared() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key] == entry
}

func (m *PairStateManager) tick(key string, entry *managedPair) {
	if !entry.ticking.CompareAndSwap(false, true) {
		slog.Debug("Pair tick still running, skipping", slog.String("pair", key))
		infra.IncPairTick("overlap")
		return
	}
	defer entry.ticking.Store(false)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Pair tick panicked", slog.String("pair", key), slog.Any("panic", r))
			infra.IncPairTick("panic")
		}
	}()

	if !m.isActive(key, entry) {
		return
	}
	m.execution.OnPairStateExecutionTick(m.ctx, entry.state)

	// the execution may have cleared the state meanwhile
	if !m.isActive(key, entry) {
		infra.IncPairTick("cleared")
		return
	}
	if entry.state.HasAdjustedPrice() {
		m.adjuster.AdjustOpenOrdersPrice(m.ctx, entry.state)
	}
	infra.IncPairTick("done")
}

// Get returns the active state of the pair. A state cleared by the
// execution is dropped here even if its watcher has not run yet.
func (m *PairStateManager) Get(exchange, symbol string) (*domain.PairState, bool) {
	key := domain.PairKey(exchange, symbol)

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.states[key]
	if !ok {
		return nil, false
	}
	if entry.state.IsCleared() {
		m.releaseLocked(key)
		return nil, false
	}
	return entry.state, true
}

// All returns the active states ordered by pair key.
func (m *PairStateManager) All() []*domain.PairState {
	return m.filter(func(*domain.PairState) bool { return true })
}

// SellingPairs returns the active short states.
func (m *PairStateManager) SellingPairs() []*domain.PairState {
	return m.byState(domain.StateShort)
}

// BuyingPairs returns the active long states.
func (m *PairStateManager) BuyingPairs() []*domain.PairState {
	return m.byState(domain.StateLong)
}

// ClosingPairs returns the active close states.
func (m *PairStateManager) ClosingPairs() []*domain.PairState {
	return m.byState(domain.StateClose)
}

// CancelPairs returns the active cancel states.
func (m *PairStateManager) CancelPairs() []*domain.PairState {
	return m.byState(domain.StateCancel)
}

func (m *PairStateManager) byState(state domain.State) []*domain.PairState {
	return m.filter(func(ps *domain.PairState) bool { return ps.State() == state })
}

func (m *PairStateManager) filter(keep func(*domain.PairState) bool) []*domain.PairState {
	m.mu.Lock()
	keys := make([]string, 0, len(m.states))
	for key := range m.states {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*domain.PairState, 0, len(keys))
	for _, key := range keys {
		ps := m.states[key].state
		if ps.IsCleared() {
			m.releaseLocked(key)
			continue
		}
		if keep(ps) {
			out = append(out, ps)
		}
	}
	m.mu.Unlock()
	return out
}

// Clear stops managing the pair. Safe to call for unknown pairs.
func (m *PairStateManager) Clear(exchange, symbol string) {
	key := domain.PairKey(exchange, symbol)

	m.mu.Lock()
	entry, ok := m.states[key]
	delete(m.states, key)
	m.interval.ClearInterval(key)
	active := len(m.states)
	m.mu.Unlock()

	if !ok {
		return
	}
	entry.state.Clear()
	infra.SetActivePairs(active)
	slog.Info("Pair state cleared", slog.String("exchange", exchange), slog.String("symbol", symbol))
}

// IsNeutral reports whether the pair has no active state.
func (m *PairStateManager) IsNeutral(exchange, symbol string) bool {
	_, ok := m.Get(exchange, symbol)
	return !ok
}

// OnTerminate asks the execution to cancel every managed pair. Failures are
// handled by the execution.
func (m *PairStateManager) OnTerminate(ctx context.Context) {
	states := m.All()
	slog.Info("Terminating pair states", slog.Int("pairs", len(states)))

	for _, ps := range states {
		slog.Info("Canceling pair on shutdown",
			slog.String("exchange", ps.Exchange()),
			slog.String("symbol", ps.Symbol()))
		m.execution.OnCancelPair(ctx, ps)
	}
}

// Close stops all timers. Running ticks finish on their own.
func (m *PairStateManager) Close() {
	m.cancel()
	m.interval.Close()
}
