package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	url       string
	subscribe []byte
	connects  atomic.Int32

	mu       sync.Mutex
	messages []string
}

func (h *recordingHandler) ID() string  { return "TEST" }
func (h *recordingHandler) URL() string { return h.url }

func (h *recordingHandler) OnConnect(ctx context.Context, w *WSWorker) error {
	h.connects.Add(1)
	if h.subscribe == nil {
		return nil
	}
	return w.WriteText(h.subscribe)
}

func (h *recordingHandler) OnMessage(ctx context.Context, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, string(msg))
}

func (h *recordingHandler) Ping(ctx context.Context, w *WSWorker) error {
	return w.WriteText([]byte("ping"))
}

func (h *recordingHandler) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func newWSServer(t *testing.T, serve func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(url string) string {
	return strings.Replace(url, "http://", "ws://", 1)
}

func TestWSWorker_SubscribesAndReceives(t *testing.T) {
	subscribed := make(chan string, 1)
	server := newWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(msg)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"test"}`))
		time.Sleep(200 * time.Millisecond)
	})

	handler := &recordingHandler{url: wsURL(server.URL), subscribe: []byte(`{"op":"subscribe"}`)}
	worker := NewWSWorker(handler)
	worker.PingInterval = 0

	worker.Start(context.Background())
	defer worker.Stop()

	select {
	case msg := <-subscribed:
		assert.Equal(t, `{"op":"subscribe"}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive subscription")
	}

	require.Eventually(t, func() bool {
		return len(handler.received()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, `{"type":"test"}`, handler.received()[0])
}

func TestWSWorker_ReconnectsAfterDrop(t *testing.T) {
	server := newWSServer(t, func(conn *websocket.Conn) {
		// close right away to force a reconnect
	})

	handler := &recordingHandler{url: wsURL(server.URL)}
	worker := NewWSWorker(handler)
	worker.PingInterval = 0
	worker.Backoff = Backoff{Base: 10 * time.Millisecond, Max: 20 * time.Millisecond}

	worker.Start(context.Background())
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return handler.connects.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSWorker_StopDoesNotHang(t *testing.T) {
	release := make(chan struct{})
	server := newWSServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer close(release)

	handler := &recordingHandler{url: wsURL(server.URL)}
	worker := NewWSWorker(handler)
	worker.Start(context.Background())

	require.Eventually(t, worker.Connected, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, worker.Connected())
}

func TestWSWorker_WriteWithoutConnection(t *testing.T) {
	worker := NewWSWorker(&recordingHandler{url: "ws://127.0.0.1:1"})
	assert.ErrorIs(t, worker.WriteText([]byte("x")), errNotConnected)
}
