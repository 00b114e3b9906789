// Package marketdata broadcasts book and trade events to subscribed
// WebSocket clients using gorilla/websocket, the library uhyunpark-hyperlicked
// and 0xtitan6-polymarket-mm both reach for when pushing live market state
// out to consumers instead of polling an HTTP snapshot endpoint.
package marketdata

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fenrir/internal/matching"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one broadcastable market-data message.
type Event struct {
	Type   string            `json:"type"`
	Symbol string            `json:"symbol"`
	Price  matching.Price    `json:"price,omitempty"`
	Qty    matching.Quantity `json:"qty,omitempty"`
}

// Broadcaster fans out Events to every currently-connected WebSocket
// subscriber, implementing matching.TradeListener and
// matching.OrderBookListener directly so it can be wired straight into an
// engine alongside internal/ledger and internal/metrics.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// Subscribe upgrades r to a WebSocket connection and registers it to
// receive future broadcasts until it disconnects.
func (b *Broadcaster) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go b.readUntilClosed(conn)
}

// readUntilClosed drains (and discards) inbound frames purely to detect
// disconnects — this is a publish-only feed, clients never send commands
// over it.
func (b *Broadcaster) readUntilClosed(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) broadcast(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Msg("dropping unresponsive subscriber")
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// OnTrade implements matching.TradeListener.
func (b *Broadcaster) OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price) {
	b.broadcast(Event{Type: "trade", Symbol: book.Symbol(), Price: price, Qty: qty})
}

// OnOrderBookChange implements matching.OrderBookListener.
func (b *Broadcaster) OnOrderBookChange(book *matching.MatchingEngine) {
	b.broadcast(Event{Type: "book_update", Symbol: book.Symbol(), Price: book.MarketPrice()})
}
