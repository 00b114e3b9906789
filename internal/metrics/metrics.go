// Package metrics exposes engine activity as Prometheus counters and
// gauges via github.com/prometheus/client_golang, the instrumentation
// library DimaJoyti-ai-agentic-crypto-browser uses for its own service
// surfaces.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fenrir/internal/matching"
)

// Collector implements matching.OrderListener, matching.TradeListener and
// matching.OrderBookListener, recording counts and the last trade price/
// depth as Prometheus series for a single engine.
type Collector struct {
	accepted    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	fills       prometheus.Counter
	cancels     *prometheus.CounterVec
	tradeVolume prometheus.Counter
	lastPrice   prometheus.Gauge
	bidDepth    prometheus.Gauge
	askDepth    prometheus.Gauge
}

// NewCollector registers its series with reg (pass prometheus.DefaultRegisterer
// for process-wide /metrics).
func NewCollector(reg prometheus.Registerer, symbol string) *Collector {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"symbol": symbol}
	return &Collector{
		accepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "fenrir_orders_accepted_total",
			Help:        "Orders accepted by the matching engine.",
			ConstLabels: labels,
		}, []string{"stop"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "fenrir_orders_rejected_total",
			Help:        "Orders rejected by the matching engine.",
			ConstLabels: labels,
		}, []string{"reason"}),
		fills: factory.NewCounter(prometheus.CounterOpts{
			Name:        "fenrir_fills_total",
			Help:        "Individual maker/taker fill events.",
			ConstLabels: labels,
		}),
		cancels: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "fenrir_orders_canceled_total",
			Help:        "Orders canceled, explicitly or conditionally.",
			ConstLabels: labels,
		}, []string{"kind"}),
		tradeVolume: factory.NewCounter(prometheus.CounterOpts{
			Name:        "fenrir_trade_volume_total",
			Help:        "Cumulative traded quantity.",
			ConstLabels: labels,
		}),
		lastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "fenrir_last_trade_price",
			Help:        "Last traded price.",
			ConstLabels: labels,
		}),
		bidDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "fenrir_bid_depth_levels",
			Help:        "Number of distinct bid price levels.",
			ConstLabels: labels,
		}),
		askDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "fenrir_ask_depth_levels",
			Help:        "Number of distinct ask price levels.",
			ConstLabels: labels,
		}),
	}
}

func (c *Collector) OnAccept(order matching.Order)     { c.accepted.WithLabelValues("false").Inc() }
func (c *Collector) OnAcceptStop(order matching.Order) { c.accepted.WithLabelValues("true").Inc() }
func (c *Collector) OnTriggerStop(order matching.Order) {}

func (c *Collector) OnReject(order matching.Order, reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

func (c *Collector) OnFill(inbound, matched matching.Order, qty matching.Quantity, price matching.Price, flags matching.FillFlags) {
	c.fills.Inc()
	c.tradeVolume.Add(float64(qty))
}

func (c *Collector) OnCancel(order matching.Order, openQty matching.Quantity) {
	c.cancels.WithLabelValues("explicit").Inc()
}

func (c *Collector) OnCancelStop(order matching.Order) {
	c.cancels.WithLabelValues("stop").Inc()
}

func (c *Collector) OnCancelReject(order matching.Order, reason string) {}

func (c *Collector) OnReplace(order matching.Order, openQtyBefore matching.Quantity, sizeDelta int64, newPrice matching.Price) {
}

func (c *Collector) OnReplaceReject(order matching.Order, reason string) {}

func (c *Collector) OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price) {
	c.lastPrice.Set(float64(price))
}

func (c *Collector) OnOrderBookChange(book *matching.MatchingEngine) {
	c.bidDepth.Set(float64(book.Bids().Len()))
	c.askDepth.Set(float64(book.Asks().Len()))
}
