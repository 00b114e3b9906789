package matching

import "github.com/tidwall/btree"

// Ladder is an ordered map from ComparablePrice to PriceLevel, one instance
// per side of one of the four books (bids, asks, stopBids, stopAsks).
// Backed by tidwall/btree.BTreeG, the same structure the teacher's
// OrderBook uses for its two price ladders (internal/engine/orderbook.go),
// generalized here to hold ComparablePrice keys so best-price-first
// iteration falls directly out of the comparator instead of needing a
// side-specific reverse step at call sites.
type Ladder struct {
	tree *btree.BTreeG[*PriceLevel]
}

// NewLadder builds an empty ladder. Iteration order (best price first) is
// entirely determined by ComparablePrice.Less, so both buy and sell
// ladders use the same underlying comparator.
func NewLadder() *Ladder {
	return &Ladder{tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price.Less(b.price)
	})}
}

// Get returns the level at price, if any.
func (l *Ladder) Get(price ComparablePrice) (*PriceLevel, bool) {
	return l.tree.Get(&PriceLevel{price: price})
}

// GetOrCreate returns the existing level at price, creating and inserting
// an empty one if none exists yet.
func (l *Ladder) GetOrCreate(price ComparablePrice) *PriceLevel {
	if lvl, ok := l.Get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	l.tree.Set(lvl)
	return lvl
}

// Delete removes the level at price entirely.
func (l *Ladder) Delete(price ComparablePrice) {
	l.tree.Delete(&PriceLevel{price: price})
}

// DeleteLevel removes lvl by its own key.
func (l *Ladder) DeleteLevel(lvl *PriceLevel) {
	l.tree.Delete(lvl)
}

// Best returns the most aggressive (best price) non-empty level.
func (l *Ladder) Best() (*PriceLevel, bool) {
	return l.tree.Min()
}

// Ascend walks levels best-price-first, stopping early if fn returns false.
func (l *Ladder) Ascend(fn func(*PriceLevel) bool) {
	l.tree.Scan(fn)
}

// Len returns the number of distinct price levels.
func (l *Ladder) Len() int { return l.tree.Len() }

// Find locates the tracker for orderID anywhere in the ladder, scanning
// level by level. Used by Cancel/Replace to look an order up by its own
// side and ID rather than requiring callers to know the exact price.
func (l *Ladder) Find(orderID string) (*PriceLevel, *OrderTracker) {
	var foundLevel *PriceLevel
	var foundTracker *OrderTracker
	l.tree.Scan(func(lvl *PriceLevel) bool {
		if t := lvl.findByID(orderID); t != nil {
			foundLevel, foundTracker = lvl, t
			return false
		}
		return true
	})
	return foundLevel, foundTracker
}

// Snapshot returns a best-first slice of levels, for read-only external
// consumers (internal/httpapi, internal/marketdata) and for scenario tests
// that assert on book shape.
func (l *Ladder) Snapshot() []*PriceLevel {
	out := make([]*PriceLevel, 0, l.tree.Len())
	l.tree.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}
