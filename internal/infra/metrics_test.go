package infra

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	before := testutil.ToFloat64(ordersTotal.WithLabelValues("metrics-test", "open"))
	IncOrder("metrics-test", "open")
	assert.Equal(t, before+1, testutil.ToFloat64(ordersTotal.WithLabelValues("metrics-test", "open")))

	SetActivePairs(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(activePairs))

	setCircuitOpen("metrics-test", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitOpen.WithLabelValues("metrics-test")))
	setCircuitOpen("metrics-test", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitOpen.WithLabelValues("metrics-test")))
}
