package matching

// MatchingEngine is the single-symbol central limit order book: four
// ladders (bids, asks, stop-bids, stop-asks), a last-trade market price,
// and a FIFO callback queue drained synchronously at the end of every
// top-level Add/Cancel/Replace/SetMarketPrice call. Ported from the
// teacher's internal/engine.OrderBook (tidwall/btree-backed price levels)
// and original_source/order_book.rs (the add/cancel/replace/set_market_price
// control flow and the stop-order trigger cascade).
type MatchingEngine struct {
	symbol string

	bids     *Ladder
	asks     *Ladder
	stopBids *Ladder
	stopAsks *Ladder

	marketPrice Price
	maxMakers   int

	orderListener      OrderListener
	tradeListener      TradeListener
	orderBookListener  OrderBookListener

	callbacks    []Callback
	pendingStops []*pendingStopOrder
}

// pendingStopOrder is a triggered stop order waiting to be resubmitted as an
// ordinary order. Queued rather than recursed into immediately so that a
// cascade of triggers (a fill moves the market price, which triggers more
// stops, which may fill and move it again) runs as an iterative loop instead
// of unbounded recursion — see drainPendingLoop.
type pendingStopOrder struct {
	tracker *OrderTracker
}

// Option configures a MatchingEngine at construction time.
type Option func(*MatchingEngine)

// WithMaxMakers bounds how many resting orders a single inbound order may
// consume in one matching pass. Absent this option DefaultMaxMakers applies.
func WithMaxMakers(n int) Option {
	return func(e *MatchingEngine) { e.maxMakers = n }
}

// NewMatchingEngine builds an empty book for symbol.
func NewMatchingEngine(symbol string, opts ...Option) *MatchingEngine {
	e := &MatchingEngine{
		symbol:    symbol,
		bids:      NewLadder(),
		asks:      NewLadder(),
		stopBids:  NewLadder(),
		stopAsks:  NewLadder(),
		maxMakers: DefaultMaxMakers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *MatchingEngine) SetOrderListener(l OrderListener)         { e.orderListener = l }
func (e *MatchingEngine) SetTradeListener(l TradeListener)         { e.tradeListener = l }
func (e *MatchingEngine) SetOrderBookListener(l OrderBookListener) { e.orderBookListener = l }

func (e *MatchingEngine) Symbol() string      { return e.symbol }
func (e *MatchingEngine) MarketPrice() Price  { return e.marketPrice }
func (e *MatchingEngine) Bids() *Ladder       { return e.bids }
func (e *MatchingEngine) Asks() *Ladder       { return e.asks }
func (e *MatchingEngine) StopBids() *Ladder   { return e.stopBids }
func (e *MatchingEngine) StopAsks() *Ladder   { return e.stopAsks }

// sideLadder returns the ladder an order of side buy rests on once resting.
func (e *MatchingEngine) sideLadder(buy bool) *Ladder {
	if buy {
		return e.bids
	}
	return e.asks
}

// oppositeLadder returns the ladder an inbound order of side buy matches
// against.
func (e *MatchingEngine) oppositeLadder(buy bool) *Ladder {
	if buy {
		return e.asks
	}
	return e.bids
}

// stopLadderFor returns the stop ladder a stop order of side buy is queued
// on. A buy stop triggers when the market rises to/through its stop price,
// so it is kept sorted ascending (least-aggressive-first numerically is
// irrelevant here — what matters is checkStopOrders walks the side whose
// next trigger is closest to the current market price first); the ComparablePrice
// buy flag used for ordering is therefore the inverse of the order's own
// side, matching original_source's stop_bids/stop_asks comparator choice.
func (e *MatchingEngine) stopLadderFor(buy bool) *Ladder {
	if buy {
		return e.stopBids
	}
	return e.stopAsks
}

// Add submits a new order into the book. It returns no error for ordinary
// rejects: a zero size is reported through the OrderListener as OnReject,
// and self-trade, maker-cap or AON/IOC/FOK inability to fill are reported
// as OnCancel with an open quantity of 0. The returned error is
// reserved for a caller/programmer mistake (a nil order) since that cannot
// be expressed as a reject callback without an Order to attach it to.
func (e *MatchingEngine) Add(order Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if order.OrderQty() == 0 {
		e.push(cbReject(order, ErrInvalidSize.Error()))
		e.drainCallbacks()
		return nil
	}

	conditions := NoConditions
	if order.StopPrice() != MarketOrderPrice {
		conditions |= Stop
	}
	tracker := NewOrderTracker(order, conditions)

	if tracker.Conditions().Has(Stop) {
		if e.admitStop(tracker) {
			// The trigger condition already holds against the current
			// market price (e.g. a buy stop submitted at/above a market
			// that has already traded there) — it fires immediately
			// instead of resting on a stop ladder at all.
			e.push(cbTriggerStop(order))
			e.addTracker(tracker)
		} else {
			e.push(cbAcceptStop(order))
			e.restStop(tracker)
		}
	} else {
		acceptIdx := len(e.callbacks)
		e.push(cbAccept(order))
		e.addTracker(tracker)
		// Patch the queued accept with the quantity this order filled in
		// its own matching pass, so listeners see the executed total.
		for _, cb := range e.callbacks[acceptIdx+1:] {
			if cb.Type == CbOrderFill {
				e.callbacks[acceptIdx].Quantity += cb.Quantity
			}
		}
	}

	e.drainPendingLoop()
	e.push(cbBookUpdate(e))
	e.drainCallbacks()
	return nil
}

// admitStop reports whether a stop order's trigger condition already holds
// against the current market price — i.e. it would fire immediately instead
// of resting on a stop ladder. A buy stop triggers when the market is at or
// above its stop price; a sell stop triggers when the market is at or below
// it. MarketOrderPrice as the current market (nothing has traded yet) never
// triggers a stop.
func (e *MatchingEngine) admitStop(t *OrderTracker) bool {
	if e.marketPrice == MarketOrderPrice {
		return false
	}
	stopPrice := t.Order().StopPrice()
	if t.Order().IsBuy() {
		return e.marketPrice >= stopPrice
	}
	return e.marketPrice <= stopPrice
}

// restStop places a not-yet-triggered stop order onto its stop ladder,
// keyed so that Best() always returns the level nearest to triggering: a
// buy stop's ladder is kept ascending (the lowest stop price is nearest a
// rising market) and a sell stop's is kept descending (the highest stop
// price is nearest a falling market) — the inverse of the ComparablePrice
// ordering its own side would use, which is exactly what passing !buy as
// the comparator's side achieves.
func (e *MatchingEngine) restStop(t *OrderTracker) {
	buy := t.Order().IsBuy()
	key := NewComparablePrice(!buy, t.Order().StopPrice())
	lvl := e.stopLadderFor(buy).GetOrCreate(key)
	lvl.PushBack(t)
}

// addTracker runs one non-stop order (or a just-triggered former stop
// order) through the matching loop and rests whatever remains.
func (e *MatchingEngine) addTracker(t *OrderTracker) {
	e.matchLoop(t)
	if !t.Filled() {
		e.restOwnSide(t)
	}
}

// drainPendingLoop resubmits triggered stop orders iteratively — never
// recursively — so a long trigger cascade cannot overflow the call stack.
// checkStopOrders may itself enqueue further pendingStops as the market
// price keeps moving from each resubmission's own fills.
func (e *MatchingEngine) drainPendingLoop() {
	e.checkStopOrders()
	for len(e.pendingStops) > 0 {
		next := e.pendingStops[0]
		e.pendingStops = e.pendingStops[1:]
		e.push(cbTriggerStop(next.tracker.Order()))
		e.addTracker(next.tracker)
		e.checkStopOrders()
	}
}

// checkStopOrders scans both stop ladders from the most-easily-triggered
// level inward, moving every stop order whose trigger now holds onto
// pendingStops. Ported from original_source/order_book.rs's
// check_stop_orders: buy stops trigger as the market rises through them,
// sell stops trigger as it falls through them, so each ladder only ever
// needs to look at its best (front) level — once that level's trigger no
// longer holds, nothing deeper in the ladder can hold either.
func (e *MatchingEngine) checkStopOrders() {
	for {
		lvl, ok := e.stopBids.Best()
		if !ok {
			break
		}
		if e.marketPrice < lvl.Price().Price() {
			break
		}
		e.movePendingLevel(e.stopBids, lvl)
	}
	for {
		lvl, ok := e.stopAsks.Best()
		if !ok {
			break
		}
		if e.marketPrice > lvl.Price().Price() {
			break
		}
		e.movePendingLevel(e.stopAsks, lvl)
	}
}

// movePendingLevel drains every tracker resting at lvl onto pendingStops and
// removes the now-empty level from ladder.
func (e *MatchingEngine) movePendingLevel(ladder *Ladder, lvl *PriceLevel) {
	for {
		t := lvl.PopFront()
		if t == nil {
			break
		}
		e.pendingStops = append(e.pendingStops, &pendingStopOrder{tracker: t})
	}
	ladder.DeleteLevel(lvl)
}

// setMarketPriceInternal updates the last-trade price and, when it moved
// from the untraded sentinel, gives both stop ladders a chance to trigger.
// This mirrors original_source/order_book.rs's set_market_price literally:
// only the "old was untraded" case runs checkStopOrders (which walks both
// stop ladders) here; every later price move relies on the checkStopOrders
// call that drainPendingLoop makes after the fill — see DESIGN.md's Open
// Question decision 4 for why no second branch is needed.
func (e *MatchingEngine) setMarketPriceInternal(newPrice Price) {
	old := e.marketPrice
	e.marketPrice = newPrice
	if old == MarketOrderPrice && newPrice != MarketOrderPrice {
		e.checkStopOrders()
	}
}

// SetMarketPrice is the external entry point for seeding or correcting the
// book's notion of the last trade price outside of a fill (e.g. at session
// open, from an external reference feed). It runs the same trigger cascade
// a fill-driven price move would.
func (e *MatchingEngine) SetMarketPrice(newPrice Price) {
	e.setMarketPriceInternal(newPrice)
	e.drainPendingLoop()
	e.push(cbBookUpdate(e))
	e.drainCallbacks()
}

// matchLoop crosses inbound against the opposite ladder's best levels until
// inbound is filled, the book is no longer crossed, inbound's own
// AON/IOC/FOK conditions force a stop, or maxMakers resting orders have been
// consumed. A self-trade or a maker-count exhaustion both interrupt the loop
// with identical handling (spec §4.5's "conditional cancel"): the inbound's
// remaining quantity is canceled outright, even if the inbound itself is not
// IOC — only a clean "ran out of crossing levels" exit rests the remainder.
func (e *MatchingEngine) matchLoop(inbound *OrderTracker) {
	if inbound.AllOrNone() && !e.canFillAON(inbound) {
		// A taker-side AON that cannot be fully filled at admission is
		// canceled outright, never rested — this holds for plain AON just
		// as much as for FOK (AON|IOC); there is no partial-AON resting.
		e.push(cbCancel(inbound.Order(), 0))
		inbound.Fill(inbound.OpenQty())
		return
	}

	opposite := e.oppositeLadder(inbound.Order().IsBuy())
	makersUsed := 0
	interrupted := false

	for !inbound.Filled() {
		if makersUsed >= e.maxMakers {
			interrupted = true
			break
		}
		lvl, ok := opposite.Best()
		if !ok {
			break
		}
		if !lvl.Price().Matches(inbound.Price()) {
			break
		}
		used, levelInterrupted := e.matchLevel(inbound, opposite, lvl, e.maxMakers-makersUsed)
		makersUsed += used
		if levelInterrupted {
			interrupted = true
			break
		}
	}

	if !inbound.Filled() && (interrupted || inbound.ImmediateOrCancel()) {
		e.push(cbCancel(inbound.Order(), 0))
		inbound.Fill(inbound.OpenQty())
	}
}

// canFillAON reports whether enough resting liquidity crosses inbound's
// price across every matching level combined (an AON order is allowed to
// span multiple price levels — DESIGN.md's Open Question decision 1) to fill it
// in its entirety. This is a conservative precheck: it does not account for
// self-trade or maker-count exclusions that matchLevel may apply, so in rare
// cases an order admitted here can still come up short mid-match. No S1-S6
// scenario exercises that edge, so it is left as a documented simplification
// rather than a full two-pass reservation across levels.
func (e *MatchingEngine) canFillAON(inbound *OrderTracker) bool {
	opposite := e.oppositeLadder(inbound.Order().IsBuy())
	var available Quantity
	opposite.Ascend(func(lvl *PriceLevel) bool {
		if !lvl.Price().Matches(inbound.Price()) {
			return false
		}
		available += lvl.TotalQty()
		return available < inbound.OpenQty()
	})
	return available >= inbound.OpenQty()
}

// matchLevel consumes resting orders at lvl against inbound, front to back,
// up to maxRemaining makers. It returns how many makers it consumed and
// whether matching at this level was interrupted (self-trade or a maker's
// own AON could not be satisfied by what remains), in which case matchLoop
// must stop rather than continue to the next level out of price-time order.
func (e *MatchingEngine) matchLevel(inbound *OrderTracker, ladder *Ladder, lvl *PriceLevel, maxRemaining int) (used int, interrupted bool) {
	for !inbound.Filled() && used < maxRemaining {
		maker := lvl.PeekFront()
		if maker == nil {
			break
		}

		if maker.Order().User() == inbound.Order().User() {
			// Self-trade prevention: the match is suppressed, not reordered.
			// The resting maker is left exactly where it is; the inbound's
			// remaining quantity is conditionally canceled by matchLoop and
			// no further levels are scanned.
			interrupted = true
			break
		}

		if maker.AllOrNone() && maker.OpenQty() > inbound.OpenQty() {
			// This resting AON maker cannot be satisfied by what's left of
			// inbound; reserve it so it is invisible to the rest of this
			// pass without removing it from the level, then stop — a
			// later, larger inbound order may still fill it.
			maker.Reserve(int64(maker.OpenQty()))
			interrupted = true
			break
		}

		fillQty := maker.OpenQty()
		if inbound.OpenQty() < fillQty {
			fillQty = inbound.OpenQty()
		}

		if err := maker.Fill(fillQty); err != nil {
			invariantViolation(err.Error())
		}
		if err := inbound.Fill(fillQty); err != nil {
			invariantViolation(err.Error())
		}
		used++

		flags := NeitherFilled
		switch {
		case inbound.Filled() && maker.Filled():
			flags = BothFilled
		case inbound.Filled():
			flags = InboundFilled
		case maker.Filled():
			flags = MatchedFilled
		}
		fillPrice := maker.Price()
		e.push(cbFill(inbound.Order(), maker.Order(), fillQty, fillPrice, flags))
		if e.tradeListener != nil {
			e.tradeListener.OnTrade(e, fillQty, fillPrice)
		}
		e.setMarketPriceInternal(fillPrice)

		if maker.Filled() {
			lvl.PopFront()
		}
	}

	for _, t := range lvl.Orders() {
		if t.reserved != 0 {
			t.Reserve(-t.reserved)
		}
	}
	if lvl.Empty() {
		ladder.DeleteLevel(lvl)
	}
	return used, interrupted
}

// restOwnSide places a non-fully-filled, non-IOC tracker onto its own side's
// ladder at its effective price.
func (e *MatchingEngine) restOwnSide(t *OrderTracker) {
	if t.ImmediateOrCancel() {
		return
	}
	buy := t.Order().IsBuy()
	key := NewComparablePrice(buy, t.Price())
	lvl := e.sideLadder(buy).GetOrCreate(key)
	lvl.PushBack(t)
}

// Cancel removes a resting (or pending-stop) order by ID and side.
func (e *MatchingEngine) Cancel(orderID string, buy bool) error {
	if lvl, t := e.sideLadder(buy).Find(orderID); t != nil {
		lvl.Remove(t)
		if lvl.Empty() {
			e.sideLadder(buy).DeleteLevel(lvl)
		}
		e.push(cbCancel(t.Order(), t.OpenQty()))
		t.Fill(t.OpenQty())
		e.push(cbBookUpdate(e))
		e.drainCallbacks()
		return nil
	}
	if lvl, t := e.stopLadderFor(buy).Find(orderID); t != nil {
		lvl.Remove(t)
		if lvl.Empty() {
			e.stopLadderFor(buy).DeleteLevel(lvl)
		}
		e.push(cbCancelStop(t.Order()))
		e.push(cbBookUpdate(e))
		e.drainCallbacks()
		return nil
	}
	e.push(cbCancelReject(unknownOrder{id: orderID, buy: buy}, ErrOrderNotFound.Error()))
	e.drainCallbacks()
	return ErrOrderNotFound
}

// Replace changes a resting order's price and/or remaining size in place.
// newPrice of PriceUnchanged and sizeDelta of SizeUnchanged leave that
// dimension alone. A price change pulls the tracker off its current ladder
// and re-runs it through the full matching loop at the new price (it may
// trade immediately); a size-only change adjusts the backing quantity
// without disturbing queue position, unless the size increases, which loses
// time priority under true price-time rules and is pulled and requeued at
// the back of its level like a fresh arrival.
func (e *MatchingEngine) Replace(orderID string, buy bool, newPrice Price, sizeDelta int64) error {
	ladder := e.sideLadder(buy)
	lvl, t := ladder.Find(orderID)
	if t == nil {
		if _, st := e.stopLadderFor(buy).Find(orderID); st != nil {
			e.push(cbReplaceReject(st.Order(), "cannot replace a pending stop order"))
			e.drainCallbacks()
			return nil
		}
		// Nothing in the book knows this ID at all — unlike every other
		// reject path, there is no resting OrderTracker to recover a real
		// Order from. unknownOrder stands in so the reject callback still
		// carries a non-nil Order (its User() is empty, so reportListener's
		// session lookup silently finds no connection to notify, exactly as
		// it would for any other reject addressed to a disconnected user).
		e.push(cbReplaceReject(unknownOrder{id: orderID, buy: buy}, ErrOrderNotFound.Error()))
		e.drainCallbacks()
		return ErrOrderNotFound
	}

	openBefore := t.OpenQty()

	if sizeDelta != SizeUnchanged {
		if err := t.ChangeQty(sizeDelta); err != nil {
			e.push(cbReplaceReject(t.Order(), err.Error()))
			e.push(cbBookUpdate(e))
			e.drainCallbacks()
			return nil
		}
	}

	// An explicit price — even one numerically equal to the order's
	// current resting price — loses time priority and re-queues at the
	// back of its level; only PriceUnchanged means "leave it exactly
	// where it is." This is deliberate: a client naming a price is
	// telling the book it wants a fresh price decision applied, and
	// real price-time matching cannot tell that apart from a genuine
	// price change without this convention.
	priceChanged := newPrice != PriceUnchanged
	growingSize := sizeDelta > 0

	if priceChanged || growingSize {
		lvl.Remove(t)
		if lvl.Empty() {
			ladder.DeleteLevel(lvl)
		}
		if priceChanged {
			t.SetPrice(newPrice)
		}
		e.push(cbReplace(t.Order(), openBefore, sizeDelta, t.Price()))
		e.addTracker(t)
	} else {
		e.push(cbReplace(t.Order(), openBefore, sizeDelta, t.Price()))
	}

	e.drainPendingLoop()
	e.push(cbBookUpdate(e))
	e.drainCallbacks()
	return nil
}

// push appends a callback to the pending queue without dispatching it.
// Callbacks are batched so that a single top-level call observes them in
// the exact order they were produced, and so OnOrderBookChange always comes
// last regardless of how many fills preceded it.
func (e *MatchingEngine) push(cb Callback) {
	if cb.Type == CbBookUpdate {
		cb.Book = e
	}
	e.callbacks = append(e.callbacks, cb)
}

// drainCallbacks dispatches and clears every queued callback, in order.
func (e *MatchingEngine) drainCallbacks() {
	queued := e.callbacks
	e.callbacks = nil
	for _, cb := range queued {
		e.dispatch(cb)
	}
}

// dispatch routes one callback to the registered listener interfaces.
func (e *MatchingEngine) dispatch(cb Callback) {
	if cb.Type == CbBookUpdate {
		if e.orderBookListener != nil {
			e.orderBookListener.OnOrderBookChange(e)
		}
		return
	}
	if e.orderListener == nil {
		return
	}
	switch cb.Type {
	case CbOrderAccept:
		e.orderListener.OnAccept(cb.Order)
	case CbOrderAcceptStop:
		e.orderListener.OnAcceptStop(cb.Order)
	case CbOrderTriggerStop:
		e.orderListener.OnTriggerStop(cb.Order)
	case CbOrderReject:
		e.orderListener.OnReject(cb.Order, cb.RejectReason)
	case CbOrderFill:
		e.orderListener.OnFill(cb.Order, cb.MatchedOrder, cb.Quantity, cb.Price, cb.Flags)
	case CbOrderCancel:
		e.orderListener.OnCancel(cb.Order, cb.Quantity)
	case CbOrderCancelStop:
		e.orderListener.OnCancelStop(cb.Order)
	case CbOrderCancelReject:
		e.orderListener.OnCancelReject(cb.Order, cb.RejectReason)
	case CbOrderReplace:
		e.orderListener.OnReplace(cb.Order, cb.Quantity, cb.Delta, cb.Price)
	case CbOrderReplaceReject:
		e.orderListener.OnReplaceReject(cb.Order, cb.RejectReason)
	}
}
