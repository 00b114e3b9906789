package marketdata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"fenrir/internal/matching"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcaster_DeliversTradeEventToSubscriber(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(b.Subscribe))
	defer srv.Close()

	conn := dial(t, srv)
	time.Sleep(20 * time.Millisecond) // let Subscribe finish registering the client

	engine := matching.NewMatchingEngine("FEN")
	b.OnTrade(engine, 10, 5)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "trade", ev.Type)
	require.Equal(t, matching.Quantity(10), ev.Qty)
	require.Equal(t, matching.Price(5), ev.Price)
}

func TestBroadcaster_DeliversBookUpdateEvent(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(b.Subscribe))
	defer srv.Close()

	conn := dial(t, srv)
	time.Sleep(20 * time.Millisecond)

	engine := matching.NewMatchingEngine("FEN")
	engine.SetMarketPrice(42)
	b.OnOrderBookChange(engine)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "book_update", ev.Type)
	require.Equal(t, matching.Price(42), ev.Price)
}
