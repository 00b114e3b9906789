package matching

// OrderTracker is the per-resting-order mutable state the engine actually
// walks and mutates while matching. Ported from original_source's
// OrderTracker<T: Order> (order_tracker.rs), with the reserved-quantity
// field kept for its sole use: book.go's matchLevel reserves a resting
// All-Or-None order the inbound cannot fill in full and releases the
// reservation before matchLevel returns.
//
// Invariants (spec §3):
//   - 0 <= reserved <= openQtyRaw
//   - OpenQty() == openQtyRaw - reserved
//   - FilledQty() == order.OrderQty() - openQtyRaw
type OrderTracker struct {
	order      Order
	openQtyRaw Quantity
	reserved   int64
	conditions OrderCondition

	// price is the effective matching/resting price. It starts as the
	// order's own Price() but Replace can move a resting tracker to a new
	// price without mutating the read-only Order it wraps (§3: the engine
	// never mutates the underlying Order, only its tracker), so every
	// comparator/placement decision in book.go consults Price() here
	// rather than order.Price() directly.
	price Price
}

// NewOrderTracker builds a tracker over order, merging the order's own
// AllOrNone/ImmediateOrCancel accessors into conditions unconditionally
// (see SPEC_FULL.md §6 for why this repo does not gate that merge behind
// a feature flag the way the Rust original optionally does).
func NewOrderTracker(order Order, conditions OrderCondition) *OrderTracker {
	if order.AllOrNone() {
		conditions |= AllOrNone
	}
	if order.ImmediateOrCancel() {
		conditions |= ImmediateOrCancel
	}
	return &OrderTracker{
		order:      order,
		openQtyRaw: order.OrderQty(),
		conditions: conditions,
		price:      order.Price(),
	}
}

// Order returns the wrapped read-only order.
func (t *OrderTracker) Order() Order { return t.order }

// Price returns the effective matching price, which tracks order.Price()
// until Replace moves the tracker to a new price via SetPrice.
func (t *OrderTracker) Price() Price { return t.price }

// SetPrice moves the tracker to a new effective price. Only Replace calls
// this; it never touches the underlying order.
func (t *OrderTracker) SetPrice(p Price) { t.price = p }

// Reserve adds delta (which may be negative, to release) to the reserved
// quantity and returns the resulting OpenQty. The backing openQtyRaw is
// unchanged — reservation is a transient overlay used during AON probing.
func (t *OrderTracker) Reserve(delta int64) Quantity {
	t.reserved += delta
	if t.reserved < 0 {
		invariantViolation("reserved quantity went negative")
	}
	if uint64(t.reserved) > uint64(t.openQtyRaw) {
		invariantViolation("reserved quantity exceeds open quantity")
	}
	return t.OpenQty()
}

// ChangeQty applies delta to the backing open quantity (used by Replace).
// It fails if delta is a reduction larger than what is currently open.
func (t *OrderTracker) ChangeQty(delta int64) error {
	if delta < 0 && Quantity(-delta) > t.openQtyRaw {
		return ErrReduceExceedsOpen
	}
	t.openQtyRaw = Quantity(int64(t.openQtyRaw) + delta)
	return nil
}

// Fill subtracts qty from the backing open quantity.
func (t *OrderTracker) Fill(qty Quantity) error {
	if qty > t.openQtyRaw {
		return ErrFillExceedsOpen
	}
	t.openQtyRaw -= qty
	return nil
}

// Filled reports whether the order has no remaining open quantity.
func (t *OrderTracker) Filled() bool { return t.openQtyRaw == 0 }

// FilledQty returns how much of the order has been executed so far.
func (t *OrderTracker) FilledQty() Quantity {
	return t.order.OrderQty() - t.openQtyRaw
}

// OpenQty returns the unreserved, unfilled quantity available to trade.
func (t *OrderTracker) OpenQty() Quantity {
	return t.openQtyRaw - Quantity(t.reserved)
}

// OpenQtyRaw returns the pre-reservation open quantity (used by Replace,
// which operates on the backing quantity, not the reservation overlay).
func (t *OrderTracker) OpenQtyRaw() Quantity { return t.openQtyRaw }

func (t *OrderTracker) Conditions() OrderCondition { return t.conditions }

func (t *OrderTracker) AllOrNone() bool { return t.conditions.Has(AllOrNone) }

func (t *OrderTracker) ImmediateOrCancel() bool { return t.conditions.Has(ImmediateOrCancel) }
