package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Delay(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{10, 60 * time.Second},
		{100, 60 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultBackoff.Delay(tt.retry), "retry=%d", tt.retry)
	}
}

func TestBackoff_CustomCap(t *testing.T) {
	b := Backoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}

	assert.Equal(t, 20*time.Millisecond, b.Delay(1))
	assert.Equal(t, 50*time.Millisecond, b.Delay(3))
}
