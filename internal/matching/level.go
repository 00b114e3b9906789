package matching

// PriceLevel is a time-ordered queue of trackers resting at one exact
// price. Trackers are appended on arrival (push_back) and consumed from
// the front (time priority), mirroring the teacher's
// internal/engine/orderbook.go PriceLevel, which keeps a plain slice and
// slices off consumed prefixes rather than using a ring buffer or list —
// matching volumes here never warrant anything fancier.
type PriceLevel struct {
	price  ComparablePrice
	orders []*OrderTracker
}

func newPriceLevel(price ComparablePrice) *PriceLevel {
	return &PriceLevel{price: price}
}

// Price returns the comparable key this level is stored under.
func (l *PriceLevel) Price() ComparablePrice { return l.price }

// PushBack appends a newly-arrived tracker to the back of the queue.
func (l *PriceLevel) PushBack(t *OrderTracker) {
	l.orders = append(l.orders, t)
}

// PeekFront returns the oldest tracker without removing it, or nil if empty.
func (l *PriceLevel) PeekFront() *OrderTracker {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PopFront removes and returns the oldest tracker.
func (l *PriceLevel) PopFront() *OrderTracker {
	if len(l.orders) == 0 {
		return nil
	}
	t := l.orders[0]
	l.orders = l.orders[1:]
	return t
}

// Remove deletes tracker t from the middle of the queue by identity,
// preserving relative order of the rest. Used by Cancel/Replace, which
// operate on an order resting anywhere in its level, not just the front.
func (l *PriceLevel) Remove(t *OrderTracker) bool {
	for i, o := range l.orders {
		if o == t {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Orders returns the live backing slice in FIFO order. Callers must not
// retain it across further mutation of the level.
func (l *PriceLevel) Orders() []*OrderTracker { return l.orders }

// Empty reports whether the level has no resting trackers left.
func (l *PriceLevel) Empty() bool { return len(l.orders) == 0 }

// TotalQty sums OpenQty across every tracker resting at this level.
func (l *PriceLevel) TotalQty() Quantity {
	var total Quantity
	for _, o := range l.orders {
		total += o.OpenQty()
	}
	return total
}

// findByID scans the level for a tracker whose order ID matches id.
func (l *PriceLevel) findByID(id string) *OrderTracker {
	for _, o := range l.orders {
		if o.Order().ID() == id {
			return o
		}
	}
	return nil
}
