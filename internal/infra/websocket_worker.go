package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// UserAgent is sent on every websocket handshake.
const UserAgent = "crypto-trading-bot/1.0"

var errNotConnected = errors.New("ws not connected")

// StreamHandler carries the exchange specific part of a websocket feed.
type StreamHandler interface {
	ID() string
	URL() string
	// OnConnect runs once per connection, typically to subscribe.
	OnConnect(ctx context.Context, w *WSWorker) error
	OnMessage(ctx context.Context, msg []byte)
	// Ping runs every PingInterval while connected.
	Ping(ctx context.Context, w *WSWorker) error
}

// WSWorker keeps one websocket connection alive for a StreamHandler. It
// reconnects with backoff and serializes writes.
type WSWorker struct {
	handler StreamHandler

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
	Backoff      Backoff
}

func NewWSWorker(handler StreamHandler) *WSWorker {
	return &WSWorker{
		handler:      handler,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		Backoff:      DefaultBackoff,
	}
}

// Start runs the connection loop until ctx is done or Stop is called.
func (w *WSWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop closes the connection and waits for the loop to exit.
func (w *WSWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.close()
	w.wg.Wait()
}

// Connected reports whether a connection is currently open.
func (w *WSWorker) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conn != nil
}

func (w *WSWorker) run(ctx context.Context) {
	defer w.wg.Done()
	retry := 0

	for ctx.Err() == nil {
		connCtx, stopConn := context.WithCancel(ctx)
		err := w.connect(connCtx)
		if err == nil {
			retry = 0
			w.read(connCtx)
		}
		stopConn()

		if ctx.Err() != nil {
			return
		}
		incFeedReconnect(w.handler.ID())

		delay := w.Backoff.Delay(retry)
		retry++
		slog.Warn("WS Reconnecting",
			slog.String("id", w.handler.ID()),
			slog.Int("retry", retry),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (w *WSWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", UserAgent)

	conn, _, err := dialer.DialContext(ctx, w.handler.URL(), header)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.handler.OnConnect(ctx, w); err != nil {
		w.close()
		return fmt.Errorf("on connect: %w", err)
	}

	if w.PingInterval > 0 {
		go w.ping(ctx)
	}

	slog.Info("WS Connected", slog.String("id", w.handler.ID()))
	return nil
}

func (w *WSWorker) read(ctx context.Context) {
	for {
		w.mu.RLock()
		c := w.conn
		w.mu.RUnlock()
		if c == nil {
			return
		}

		_ = c.SetReadDeadline(time.Now().Add(w.ReadTimeout))
		_, msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("WS Read error", slog.String("id", w.handler.ID()), slog.Any("error", err))
			}
			w.close()
			return
		}

		w.handler.OnMessage(ctx, msg)
	}
}

func (w *WSWorker) ping(ctx context.Context) {
	ticker := time.NewTicker(w.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.handler.Ping(ctx, w); err != nil {
				slog.Warn("WS Ping error", slog.String("id", w.handler.ID()), slog.Any("error", err))
				w.close()
				return
			}
		}
	}
}

// WriteText sends one text frame.
func (w *WSWorker) WriteText(data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	c := w.conn
	w.mu.RUnlock()
	if c == nil {
		return errNotConnected
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func (w *WSWorker) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
}
