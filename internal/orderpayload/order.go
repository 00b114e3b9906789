// Package orderpayload provides the concrete matching.Order implementation
// used by the wire and HTTP surfaces: an order carrying user/owner identity,
// a stable UUID, and arrival timestamps, the way the teacher's
// internal/common.Order carries ticker/owner/timestamp fields around the
// core price/quantity/side data.
package orderpayload

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fenrir/internal/matching"
)

// Order is the concrete, caller-owned order record submitted into a
// matching.MatchingEngine. The engine only ever reads it through the
// matching.Order interface; the wire and httpapi packages build and work
// with the concrete type directly.
type Order struct {
	OrderID       string
	Owner         string
	Symbol        string
	Buy           bool
	LimitPrice    matching.Price
	TriggerPrice  matching.Price
	Quantity      matching.Quantity
	AON           bool
	IOC           bool
	Arrived       time.Time
	ExchArrived   time.Time
}

// New builds an order with a freshly generated ID and the current time as
// both arrival timestamps (callers that already know a client-side arrival
// time should set Arrived themselves after construction).
func New(owner, symbol string, buy bool, price matching.Price, qty matching.Quantity) *Order {
	return &Order{
		OrderID: uuid.NewString(),
		Owner:   owner,
		Symbol:  symbol,
		Buy:     buy,
		LimitPrice: price,
		Quantity:   qty,
		Arrived:     time.Now(),
		ExchArrived: time.Now(),
	}
}

func (o *Order) ID() string                 { return o.OrderID }
func (o *Order) User() string                { return o.Owner }
func (o *Order) IsBuy() bool                 { return o.Buy }
func (o *Order) Price() matching.Price       { return o.LimitPrice }
func (o *Order) StopPrice() matching.Price   { return o.TriggerPrice }
func (o *Order) OrderQty() matching.Quantity { return o.Quantity }
func (o *Order) AllOrNone() bool             { return o.AON }
func (o *Order) ImmediateOrCancel() bool     { return o.IOC }

// String formats a multi-line dump for logs, matching the register of the
// teacher's internal/common.Order.String().
func (o *Order) String() string {
	side := "sell"
	if o.Buy {
		side = "buy"
	}
	return fmt.Sprintf(
		`OrderID:      %s
Owner:        %s
Symbol:       %s
Side:         %s
LimitPrice:   %d
StopPrice:    %d
Quantity:     %d
AON:          %v
IOC:          %v
Arrived:      %v
ExchArrived:  %v`,
		o.OrderID, o.Owner, o.Symbol, side, o.LimitPrice, o.TriggerPrice,
		o.Quantity, o.AON, o.IOC,
		o.Arrived.Format(time.RFC3339Nano), o.ExchArrived.Format(time.RFC3339Nano),
	)
}

// MarshalZerologObject lets callers log an order as structured fields
// (log.Info().Object("order", o).Msg("accepted")) rather than a flat string,
// the way the rest of this repo's server/worker logging prefers typed
// fields over formatted messages.
func (o *Order) MarshalZerologObject(e *zerolog.Event) {
	e.Str("order_id", o.OrderID).
		Str("owner", o.Owner).
		Str("symbol", o.Symbol).
		Bool("buy", o.Buy).
		Uint64("price", uint64(o.LimitPrice)).
		Uint64("stop_price", uint64(o.TriggerPrice)).
		Uint64("qty", uint64(o.Quantity)).
		Bool("aon", o.AON).
		Bool("ioc", o.IOC)
}
