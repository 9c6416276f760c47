package infra

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Order placements by exchange and result.",
		},
		[]string{"exchange", "result"},
	)

	orderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_order_retries_total",
			Help: "Order placements resent after a retry response.",
		},
		[]string{"exchange"},
	)

	orderAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_order_adjustments_total",
			Help: "Price adjustment attempts by exchange and result.",
		},
		[]string{"exchange", "result"},
	)

	pairTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_pair_ticks_total",
			Help: "Pair state ticks by outcome.",
		},
		[]string{"outcome"},
	)

	pairUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_pair_updates_total",
			Help: "Accepted pair state updates by state.",
		},
		[]string{"state"},
	)

	activePairs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_active_pairs",
		Help: "Pairs currently managed.",
	})

	circuitOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_circuit_open",
			Help: "1 while the circuit breaker of an exchange is open.",
		},
		[]string{"name"},
	)

	feedReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_feed_reconnects_total",
			Help: "Websocket feed connection attempts that failed or dropped.",
		},
		[]string{"feed"},
	)
)

func init() {
	prometheus.MustRegister(
		ordersTotal,
		orderRetriesTotal,
		orderAdjustmentsTotal,
		pairTicksTotal,
		pairUpdatesTotal,
		activePairs,
		circuitOpen,
		feedReconnectsTotal,
	)
}

func IncOrder(exchange, result string) {
	ordersTotal.WithLabelValues(exchange, result).Inc()
}

func IncOrderRetry(exchange string) {
	orderRetriesTotal.WithLabelValues(exchange).Inc()
}

func IncOrderAdjustment(exchange, result string) {
	orderAdjustmentsTotal.WithLabelValues(exchange, result).Inc()
}

func IncPairTick(outcome string) {
	pairTicksTotal.WithLabelValues(outcome).Inc()
}

func IncPairUpdate(state string) {
	pairUpdatesTotal.WithLabelValues(state).Inc()
}

func incFeedReconnect(feed string) {
	feedReconnectsTotal.WithLabelValues(feed).Inc()
}

func SetActivePairs(n int) {
	activePairs.Set(float64(n))
}

func setCircuitOpen(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	circuitOpen.WithLabelValues(name).Set(v)
}

// MetricsServer serves /metrics until ctx is done.
type MetricsServer struct {
	srv *http.Server
}

func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run blocks until ctx is canceled or the listener fails.
func (m *MetricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Metrics server listening", slog.String("addr", m.srv.Addr))
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.srv.Shutdown(shutdownCtx)
	}
}
