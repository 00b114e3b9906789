package matching

// Order is the read-only contract the engine consumes. Ownership of the
// concrete order is shared between the client and the engine: the engine
// only ever reads through this interface, it never mutates the order
// itself, only the OrderTracker wrapped around it (see tracker.go).
//
// Ported from original_source/order_tracker.rs's generic `T: Order` bound
// and spec §3: any concrete payload (user id, symbol, arrival timestamp,
// ...) is supplied by the caller — see internal/orderpayload for this
// repo's concrete implementation.
type Order interface {
	// ID is a stable identity used for cancel/replace lookups and for
	// correlating callbacks. The Rust original relies on Rc pointer
	// identity for this; Go interfaces need an explicit comparable key.
	ID() string

	// User identifies the owning account, used for self-trade prevention.
	User() string

	IsBuy() bool

	// Price is the limit price, or MarketOrderPrice for a market order.
	Price() Price

	// StopPrice is the trigger price, or MarketOrderPrice ("not stop").
	StopPrice() Price

	OrderQty() Quantity

	AllOrNone() bool
	ImmediateOrCancel() bool
}

// unknownOrder backs a cancel/replace reject callback when the requested ID
// was never found in the book under either ladder — the engine has no real
// Order to hand back, only the orderID/side the caller supplied. It exists
// solely so those reject callbacks never carry a nil Order.
type unknownOrder struct {
	id  string
	buy bool
}

func (o unknownOrder) ID() string               { return o.id }
func (o unknownOrder) User() string             { return "" }
func (o unknownOrder) IsBuy() bool              { return o.buy }
func (o unknownOrder) Price() Price             { return MarketOrderPrice }
func (o unknownOrder) StopPrice() Price         { return MarketOrderPrice }
func (o unknownOrder) OrderQty() Quantity       { return 0 }
func (o unknownOrder) AllOrNone() bool          { return false }
func (o unknownOrder) ImmediateOrCancel() bool  { return false }
