package matching

// ComparablePrice wraps a raw Price with the side it rests on, so that a
// single ordered container (a btree keyed by ComparablePrice) can realize
// the "best price first" ordering for both bids (highest first) and asks
// (lowest first), with the market-price sentinel sorting as the single
// most aggressive entry on its own side.
//
// Ported from the Rust ComparablePrice (original_source/comparable_price.rs):
// buy-side price levels reverse the natural numeric order, a zero price is
// always more aggressive than any non-zero price on the same side, and
// equal raw prices compare Equal (time priority is resolved inside the
// PriceLevel, never here).
type ComparablePrice struct {
	price Price
	buy   bool
}

// NewComparablePrice builds a comparable key for one side's ladder.
func NewComparablePrice(buy bool, price Price) ComparablePrice {
	return ComparablePrice{price: price, buy: buy}
}

// Price returns the raw tick value, with MarketOrderPrice meaning "market".
func (c ComparablePrice) Price() Price { return c.price }

// IsBuy reports which side this key was built for.
func (c ComparablePrice) IsBuy() bool { return c.buy }

// IsMarket reports whether this key represents the market-price sentinel.
func (c ComparablePrice) IsMarket() bool { return c.price == MarketOrderPrice }

// Matches reports whether a counterparty's raw resting price crosses this
// side's price: either side being market always crosses, otherwise a buy
// crosses when it is at least the resting price and a sell crosses when it
// is at most the resting price.
func (c ComparablePrice) Matches(other Price) bool {
	if c.price == other {
		return true
	}
	if c.buy {
		return other < c.price || c.IsMarket()
	}
	return c.price < other || other == MarketOrderPrice
}

// Less defines the "more aggressive first" ordering used to key the btree
// for one side: true if c sorts ahead of (i.e. is more aggressive than) o.
// A market price is always most aggressive. Otherwise bids sort
// descending (highest price first) and asks sort ascending (lowest first).
func (c ComparablePrice) Less(o ComparablePrice) bool {
	if c.price == o.price {
		return false
	}
	if c.IsMarket() {
		return true
	}
	if o.IsMarket() {
		return false
	}
	if c.buy {
		return c.price > o.price
	}
	return c.price < o.price
}

// LadderLess returns a btree comparator for one side's ladder, matching the
// signature tidwall/btree.NewBTreeG expects.
func LadderLess(a, b ComparablePrice) bool {
	return a.Less(b)
}
