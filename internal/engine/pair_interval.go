package engine

import (
	"sync"
	"time"
)

type intervalHandle struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (h *intervalHandle) cancel() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *intervalHandle) stopped() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

// PairInterval keeps at most one repeating timer per name.
type PairInterval struct {
	mu      sync.Mutex
	handles map[string]*intervalHandle
}

// NewPairInterval creates an empty timer registry.
func NewPairInterval() *PairInterval {
	return &PairInterval{handles: make(map[string]*intervalHandle)}
}

// AddInterval replaces any timer under name, runs fn once right away and
// then every delay. fn runs on its own goroutine and is never awaited.
func (p *PairInterval) AddInterval(name string, delay time.Duration, fn func()) {
	h := &intervalHandle{stop: make(chan struct{})}

	p.mu.Lock()
	if old, ok := p.handles[name]; ok {
		old.cancel()
	}
	p.handles[name] = h
	p.mu.Unlock()

	go fn()
	go p.run(h, delay, fn)
}

func (p *PairInterval) run(h *intervalHandle, delay time.Duration, fn func()) {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			// both cases can be ready at once
			if h.stopped() {
				return
			}
			go fn()
		}
	}
}

// ClearInterval stops the timer under name; no-op when absent.
func (p *PairInterval) ClearInterval(name string) {
	p.mu.Lock()
	h, ok := p.handles[name]
	delete(p.handles, name)
	p.mu.Unlock()

	if ok {
		h.cancel()
	}
}

// Has reports whether a timer runs under name.
func (p *PairInterval) Has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.handles[name]
	return ok
}

// Len returns the number of running timers.
func (p *PairInterval) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Close stops every timer.
func (p *PairInterval) Close() {
	p.mu.Lock()
	handles := p.handles
	p.handles = make(map[string]*intervalHandle)
	p.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
}
