package server

import (
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"fenrir/internal/matching"
	"fenrir/internal/wire"
)

// sessionRegistry maps a connected user's login name to the live connection
// that should receive their execution reports. Reads and writes happen from
// both the accept loop and the single engine goroutine, so it is guarded by
// its own mutex independent of the engine's own single-writer discipline.
type sessionRegistry struct {
	mu    sync.Mutex
	byUser map[string]net.Conn
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byUser: make(map[string]net.Conn)}
}

func (r *sessionRegistry) set(user string, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[user] = conn
}

func (r *sessionRegistry) remove(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, user)
}

func (r *sessionRegistry) get(user string) (net.Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byUser[user]
	return conn, ok
}

// reportListener implements matching.OrderListener, matching.TradeListener
// and matching.OrderBookListener by serializing each event to a
// wire.Report and writing it to the owning client's connection, the way
// the teacher's internal/net.generateWireTradeReports turns a Trade into a
// pair of per-counterparty Reports.
type reportListener struct {
	sessions *sessionRegistry
}

func newReportListener(sessions *sessionRegistry) *reportListener {
	return &reportListener{sessions: sessions}
}

func (l *reportListener) send(user string, r wire.Report) {
	conn, ok := l.sessions.get(user)
	if !ok {
		return
	}
	if _, err := conn.Write(r.Serialize()); err != nil {
		log.Error().Err(err).Str("user", user).Msg("failed to write execution report")
	}
}

func (l *reportListener) OnAccept(order matching.Order) {
	l.send(order.User(), wire.Report{Type: wire.ReportAccept, OrderID: order.ID()})
}

func (l *reportListener) OnAcceptStop(order matching.Order) {
	l.send(order.User(), wire.Report{Type: wire.ReportAcceptStop, OrderID: order.ID()})
}

func (l *reportListener) OnTriggerStop(order matching.Order) {
	l.send(order.User(), wire.Report{Type: wire.ReportTriggerStop, OrderID: order.ID()})
}

func (l *reportListener) OnReject(order matching.Order, reason string) {
	l.send(order.User(), wire.Report{Type: wire.ReportReject, OrderID: order.ID(), Err: reason})
}

func (l *reportListener) OnFill(inbound, matched matching.Order, qty matching.Quantity, price matching.Price, flags matching.FillFlags) {
	l.send(inbound.User(), wire.Report{
		Type: wire.ReportFill, OrderID: inbound.ID(), Quantity: qty, Price: price,
		Counterparty: matched.User(),
	})
	l.send(matched.User(), wire.Report{
		Type: wire.ReportFill, OrderID: matched.ID(), Quantity: qty, Price: price,
		Counterparty: inbound.User(),
	})
}

func (l *reportListener) OnCancel(order matching.Order, openQty matching.Quantity) {
	l.send(order.User(), wire.Report{Type: wire.ReportCancel, OrderID: order.ID(), Quantity: openQty})
}

func (l *reportListener) OnCancelStop(order matching.Order) {
	l.send(order.User(), wire.Report{Type: wire.ReportCancelStop, OrderID: order.ID()})
}

func (l *reportListener) OnCancelReject(order matching.Order, reason string) {
	l.send(order.User(), wire.Report{Type: wire.ReportCancelReject, OrderID: order.ID(), Err: reason})
}

func (l *reportListener) OnReplace(order matching.Order, openQtyBefore matching.Quantity, sizeDelta int64, newPrice matching.Price) {
	l.send(order.User(), wire.Report{
		Type: wire.ReportReplace, OrderID: order.ID(), Quantity: openQtyBefore, Price: newPrice,
	})
}

func (l *reportListener) OnReplaceReject(order matching.Order, reason string) {
	l.send(order.User(), wire.Report{Type: wire.ReportReplaceReject, OrderID: order.ID(), Err: reason})
}

func (l *reportListener) OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price) {
	log.Debug().Str("symbol", book.Symbol()).Uint64("qty", uint64(qty)).Uint64("price", uint64(price)).Msg("trade")
}

func (l *reportListener) OnOrderBookChange(book *matching.MatchingEngine) {
	log.Debug().Str("symbol", book.Symbol()).Msg("book changed")
}
