// Command server wires together the matching engine and every front end
// that observes it: the TCP wire protocol, an HTTP admin/snapshot API, a
// WebSocket market-data feed, a trade ledger, and Prometheus metrics.
// Structure ported from the teacher's cmd/server/server.go.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/httpapi"
	"fenrir/internal/ledger"
	"fenrir/internal/marketdata"
	"fenrir/internal/matching"
	"fenrir/internal/metrics"
	"fenrir/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	engine := matching.NewMatchingEngine(cfg.Symbol, matching.WithMaxMakers(cfg.MaxMakers))

	book := ledger.New()
	feed := marketdata.NewBroadcaster()
	stats := metrics.NewCollector(prometheus.DefaultRegisterer, cfg.Symbol)

	tcp, err := server.New(cfg.Host, cfg.Port, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start tcp server")
	}
	// server.New already installed a reportListener as the engine's sole
	// OrderListener/TradeListener/OrderBookListener; fan the trade and
	// book-change events out further to the ledger, market-data feed and
	// metrics collector by layering multiplexing adapters over it.
	sink := tcp.ReportSink()
	engine.SetTradeListener(fanOutTrade{sink, book, feed, stats})
	engine.SetOrderBookListener(fanOutBook{sink, feed, stats})
	engine.SetOrderListener(fanOutOrders{sink, stats})

	mux := httpapi.NewHandler(engine, tcp)
	httpMux := http.NewServeMux()
	httpMux.Handle("/", mux.Router())
	httpMux.HandleFunc("/ws", feed.Subscribe)
	httpMux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{Addr: serverAddr(cfg.Host, cfg.HTTPPort), Handler: httpMux}

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("http api listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	go tcp.Run(ctx)

	log.Info().Str("symbol", cfg.Symbol).Int("port", cfg.Port).Msg("fenrir matching engine running")
	<-ctx.Done()
	httpSrv.Shutdown(context.Background())
}

func serverAddr(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return host + ":" + strconv.Itoa(port)
}

// fanOutTrade/fanOutOrders/fanOutBook are the engine's own single
// listener slots fanned out to several observers, since matching.MatchingEngine
// keeps exactly one of each rather than a list.

type tradeListener = interface {
	OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price)
}

type orderBookListener = interface {
	OnOrderBookChange(book *matching.MatchingEngine)
}

type fanOutTrade []tradeListener

func (f fanOutTrade) OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price) {
	for _, l := range f {
		l.OnTrade(book, qty, price)
	}
}

type fanOutBook []orderBookListener

func (f fanOutBook) OnOrderBookChange(book *matching.MatchingEngine) {
	for _, l := range f {
		l.OnOrderBookChange(book)
	}
}

type fanOutOrders []matching.OrderListener

func (f fanOutOrders) OnAccept(order matching.Order) {
	for _, l := range f {
		l.OnAccept(order)
	}
}
func (f fanOutOrders) OnAcceptStop(order matching.Order) {
	for _, l := range f {
		l.OnAcceptStop(order)
	}
}
func (f fanOutOrders) OnTriggerStop(order matching.Order) {
	for _, l := range f {
		l.OnTriggerStop(order)
	}
}
func (f fanOutOrders) OnReject(order matching.Order, reason string) {
	for _, l := range f {
		l.OnReject(order, reason)
	}
}
func (f fanOutOrders) OnFill(inbound, matched matching.Order, qty matching.Quantity, price matching.Price, flags matching.FillFlags) {
	for _, l := range f {
		l.OnFill(inbound, matched, qty, price, flags)
	}
}
func (f fanOutOrders) OnCancel(order matching.Order, openQty matching.Quantity) {
	for _, l := range f {
		l.OnCancel(order, openQty)
	}
}
func (f fanOutOrders) OnCancelStop(order matching.Order) {
	for _, l := range f {
		l.OnCancelStop(order)
	}
}
func (f fanOutOrders) OnCancelReject(order matching.Order, reason string) {
	for _, l := range f {
		l.OnCancelReject(order, reason)
	}
}
func (f fanOutOrders) OnReplace(order matching.Order, openQtyBefore matching.Quantity, sizeDelta int64, newPrice matching.Price) {
	for _, l := range f {
		l.OnReplace(order, openQtyBefore, sizeDelta, newPrice)
	}
}
func (f fanOutOrders) OnReplaceReject(order matching.Order, reason string) {
	for _, l := range f {
		l.OnReplaceReject(order, reason)
	}
}
