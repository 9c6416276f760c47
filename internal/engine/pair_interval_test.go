package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairInterval_FiresImmediatelyAndRepeats(t *testing.T) {
	pi := NewPairInterval()
	defer pi.Close()

	var calls atomic.Int32
	pi.AddInterval("a", 10*time.Millisecond, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, pi.Has("a"))
}

func TestPairInterval_ReplaceStopsOldTimer(t *testing.T) {
	pi := NewPairInterval()
	defer pi.Close()

	var oldCalls, newCalls atomic.Int32
	pi.AddInterval("a", 5*time.Millisecond, func() { oldCalls.Add(1) })
	assert.Eventually(t, func() bool { return oldCalls.Load() >= 1 }, time.Second, time.Millisecond)

	pi.AddInterval("a", time.Hour, func() { newCalls.Add(1) })
	assert.Eventually(t, func() bool { return newCalls.Load() == 1 }, time.Second, time.Millisecond)

	// allow an already scheduled fire to land, then the old timer must be silent
	time.Sleep(10 * time.Millisecond)
	settled := oldCalls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, oldCalls.Load())
	assert.Equal(t, 1, pi.Len())
}

func TestPairInterval_ClearInterval(t *testing.T) {
	pi := NewPairInterval()

	var calls atomic.Int32
	pi.AddInterval("a", 5*time.Millisecond, func() { calls.Add(1) })
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)

	pi.ClearInterval("a")
	pi.ClearInterval("a")
	pi.ClearInterval("missing")
	assert.False(t, pi.Has("a"))

	time.Sleep(10 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}
