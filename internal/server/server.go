// Package server runs the TCP front end: one worker per connection reads
// and parses wire messages, and every parsed command is handed to a single
// dedicated goroutine that owns the matching.MatchingEngine exclusively —
// the single-writer serialization the core engine itself does not provide
// (see SPEC_FULL.md Non-goals). Structure ported from the teacher's
// internal/net/server.go and internal/worker.go; this replaces the
// teacher's gRPC debug server, which queried server identity/connection
// counts for a protocol package this repo has no use for.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/matching"
	"fenrir/internal/wire"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultReadTimeout = 30 * time.Second
)

type cmdKind int

const (
	cmdSubmit cmdKind = iota
	cmdCancel
	cmdReplace
)

// engineCmd is one serialized request to the single goroutine that owns the
// engine. Only the fields relevant to Kind are populated.
type engineCmd struct {
	kind      cmdKind
	order     matching.Order
	orderID   string
	buy       bool
	newPrice  matching.Price
	sizeDelta int64
}

// Server owns one symbol's engine and the TCP listener that feeds it.
type Server struct {
	listener net.Listener
	engine   *matching.MatchingEngine
	sessions *sessionRegistry
	pool     WorkerPool
	cmds     chan engineCmd
	cancel   context.CancelFunc
	reports  *reportListener
}

// New binds a TCP listener at host:port in front of engine, and wires a
// reportListener as the engine's order/trade/book listener.
func New(host string, port int, engine *matching.MatchingEngine) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}

	sessions := newSessionRegistry()
	reports := newReportListener(sessions)
	engine.SetOrderListener(reports)
	engine.SetTradeListener(reports)
	engine.SetOrderBookListener(reports)

	return &Server{
		listener: listener,
		engine:   engine,
		sessions: sessions,
		pool:     NewWorkerPool(defaultNWorkers),
		cmds:     make(chan engineCmd, 256),
		reports:  reports,
	}, nil
}

// ReportSink returns the adapter New() installed as the engine's listener,
// so callers that need to fan events out further (cmd/server layers the
// ledger, market-data feed and metrics collector alongside it) can include
// it in their own multiplexing listener without constructing a second one.
func (s *Server) ReportSink() *reportListener { return s.reports }

// Run blocks, accepting connections and driving the engine goroutine, until
// ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	t, ctx := tomb.WithContext(ctx)
	s.pool.Setup(t, s.handleConnection)

	t.Go(func() error {
		return s.engineLoop(t)
	})

	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("accept failed")
				continue
			}
			log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
			s.pool.tasks <- conn
		}
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if err := s.listener.Close(); err != nil {
		log.Error().Err(err).Msg("error closing listener")
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// engineLoop is the single goroutine permitted to call into s.engine,
// draining commands submitted by every connection worker. This is the
// entire single-writer guarantee: nothing else in this repo holds a
// reference to s.engine.
func (s *Server) engineLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cmd := <-s.cmds:
			s.applyCommand(cmd)
		}
	}
}

// SubmitOrder, CancelOrder and ReplaceOrder let other front ends (notably
// internal/httpapi) push work through the same single-writer command queue
// the TCP front end uses, without ever touching s.engine directly.
func (s *Server) SubmitOrder(order matching.Order) {
	s.cmds <- engineCmd{kind: cmdSubmit, order: order}
}

func (s *Server) CancelOrder(orderID string, buy bool) {
	s.cmds <- engineCmd{kind: cmdCancel, orderID: orderID, buy: buy}
}

func (s *Server) ReplaceOrder(orderID string, buy bool, newPrice matching.Price, sizeDelta int64) {
	s.cmds <- engineCmd{kind: cmdReplace, orderID: orderID, buy: buy, newPrice: newPrice, sizeDelta: sizeDelta}
}

func (s *Server) applyCommand(cmd engineCmd) {
	switch cmd.kind {
	case cmdSubmit:
		if err := s.engine.Add(cmd.order); err != nil {
			log.Error().Err(err).Msg("engine rejected submit")
		}
	case cmdCancel:
		if err := s.engine.Cancel(cmd.orderID, cmd.buy); err != nil {
			log.Error().Err(err).Str("order_id", cmd.orderID).Msg("cancel failed")
		}
	case cmdReplace:
		if err := s.engine.Replace(cmd.orderID, cmd.buy, cmd.newPrice, cmd.sizeDelta); err != nil {
			log.Error().Err(err).Str("order_id", cmd.orderID).Msg("replace failed")
		}
	}
}

// handleConnection owns conn for its whole lifetime (unlike the teacher's
// handleConnection, which reads one message and requeues the net.Conn as a
// fresh pool task) because a session's user identity must stay attached to
// the same connection across messages for report routing.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("unexpected task type %T", task)
	}
	defer conn.Close()

	buf := make([]byte, maxRecvSize)
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection closed")
			return nil
		}

		msg, err := wire.ParseMessage(buf[:n])
		if err != nil {
			log.Error().Err(err).Msg("failed to parse message")
			continue
		}

		switch m := msg.(type) {
		case wire.NewOrderMessage:
			order := m.Order()
			s.sessions.set(order.User(), conn)
			s.cmds <- engineCmd{kind: cmdSubmit, order: order}
		case wire.CancelOrderMessage:
			s.cmds <- engineCmd{kind: cmdCancel, orderID: m.OrderID, buy: m.Buy}
		case wire.ReplaceOrderMessage:
			s.cmds <- engineCmd{kind: cmdReplace, orderID: m.OrderID, buy: m.Buy, newPrice: m.NewPrice, sizeDelta: m.SizeDelta}
		}
	}
}
