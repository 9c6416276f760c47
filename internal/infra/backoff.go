package infra

import "time"

// Backoff computes exponential reconnect delays: Base * 2^retry, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is used by websocket feeds.
var DefaultBackoff = Backoff{Base: time.Second, Max: 60 * time.Second}

// Delay returns the wait before reconnect attempt retry (zero based).
func (b Backoff) Delay(retry int) time.Duration {
	if retry < 0 {
		return b.Base
	}
	// 2^30 seconds already exceeds any sane cap
	if retry > 30 {
		return b.Max
	}

	d := b.Base * time.Duration(1<<retry)
	if d > b.Max || d <= 0 {
		return b.Max
	}
	return d
}
