package bitget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/market"
)

func bookMessage(symbol, bid, ask string) []byte {
	msg := map[string]interface{}{
		"action": "snapshot",
		"arg": map[string]interface{}{
			"instType": "USDT-FUTURES",
			"channel":  "books1",
			"instId":   symbol,
		},
		"data": []interface{}{
			map[string]interface{}{
				"asks": [][]string{{ask, "1.5"}},
				"bids": [][]string{{bid, "2.0"}},
				"ts":   "1704067200000",
			},
		},
		"ts": int64(1704067200000),
	}
	data, _ := json.Marshal(msg)
	return data
}

func TestTickerWorker_OnMessage(t *testing.T) {
	tickers := market.NewTickers()
	w := NewTickerWorker(PublicWSURL, "paper", "USDT-FUTURES", []string{"BTCUSDT"}, tickers)

	w.OnMessage(context.Background(), bookMessage("BTCUSDT", "92000.5", "92001.25"))

	ticker, ok := tickers.Get("paper", "BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 92000.5, ticker.Bid)
	assert.Equal(t, 92001.25, ticker.Ask)
	assert.WithinDuration(t, time.Now(), ticker.CreatedAt, 5*time.Second)
}

func TestTickerWorker_IgnoresOtherMessages(t *testing.T) {
	tickers := market.NewTickers()
	w := NewTickerWorker(PublicWSURL, "paper", "USDT-FUTURES", []string{"BTCUSDT"}, tickers)

	other, _ := json.Marshal(map[string]interface{}{
		"action": "snapshot",
		"arg":    map[string]interface{}{"channel": "ticker", "instId": "BTCUSDT"},
		"data":   []interface{}{map[string]interface{}{"lastPr": "1"}},
	})

	w.OnMessage(context.Background(), []byte("pong"))
	w.OnMessage(context.Background(), []byte("not json"))
	w.OnMessage(context.Background(), other)
	w.OnMessage(context.Background(), bookMessage("BTCUSDT", "abc", "1"))
	w.OnMessage(context.Background(), bookMessage("BTCUSDT", "0", "1"))

	assert.Empty(t, tickers.All())
}

func TestTickerWorker_Stream(t *testing.T) {
	subscribed := make(chan subscribeRequest, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req
		_ = conn.WriteMessage(websocket.TextMessage, bookMessage("ETHUSDT", "3000.1", "3000.2"))
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	tickers := market.NewTickers()
	url := strings.Replace(server.URL, "http://", "ws://", 1)
	w := NewTickerWorker(url, "paper", "USDT-FUTURES", []string{"ETHUSDT"}, tickers)

	w.Start(context.Background())
	defer w.Stop()

	select {
	case req := <-subscribed:
		assert.Equal(t, "subscribe", req.Op)
		require.Len(t, req.Args, 1)
		assert.Equal(t, subscribeArg{InstType: "USDT-FUTURES", Channel: "books1", InstId: "ETHUSDT"}, req.Args[0])
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}

	require.Eventually(t, func() bool {
		_, ok := tickers.Get("paper", "ETHUSDT")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
