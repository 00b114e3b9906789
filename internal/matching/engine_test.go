package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOrder is the minimal concrete Order used across these scenario
// tests, mirroring the teacher's createTestOrderBook/placeTestOrders
// helpers in spirit: build orders from short tuples, then assert on book
// shape and the callback sequence they produced.
type testOrder struct {
	id        string
	user      string
	buy       bool
	price     Price
	stopPrice Price
	qty       Quantity
	aon       bool
	ioc       bool
}

func (o *testOrder) ID() string                 { return o.id }
func (o *testOrder) User() string                { return o.user }
func (o *testOrder) IsBuy() bool                 { return o.buy }
func (o *testOrder) Price() Price                { return o.price }
func (o *testOrder) StopPrice() Price            { return o.stopPrice }
func (o *testOrder) OrderQty() Quantity          { return o.qty }
func (o *testOrder) AllOrNone() bool             { return o.aon }
func (o *testOrder) ImmediateOrCancel() bool     { return o.ioc }

func order(id, user string, buy bool, price Price, qty Quantity) *testOrder {
	return &testOrder{id: id, user: user, buy: buy, price: price, qty: qty}
}

// fillEvent records one OnFill invocation for assertion against an
// expected sequence, keyed the way spec scenarios describe them:
// (taker, maker, qty, price).
type fillEvent struct {
	taker, maker string
	qty          Quantity
	price        Price
}

type cancelEvent struct {
	id      string
	openQty Quantity
}

// recordingListener implements OrderListener and captures every event in
// arrival order, the way a scenario test needs to assert both content and
// sequence.
type recordingListener struct {
	fills          []fillEvent
	cancels        []cancelEvent
	rejects        []string
	accepts        []string
	replaces       []string
	replaceRejects []string
	cancelRejects  []string
}

func (l *recordingListener) OnAccept(o Order)      { l.accepts = append(l.accepts, o.ID()) }
func (l *recordingListener) OnAcceptStop(o Order)  {}
func (l *recordingListener) OnTriggerStop(o Order) {}
func (l *recordingListener) OnReject(o Order, reason string) {
	l.rejects = append(l.rejects, o.ID())
}
func (l *recordingListener) OnFill(inbound, matched Order, qty Quantity, price Price, flags FillFlags) {
	l.fills = append(l.fills, fillEvent{taker: inbound.ID(), maker: matched.ID(), qty: qty, price: price})
}
func (l *recordingListener) OnCancel(o Order, openQty Quantity) {
	l.cancels = append(l.cancels, cancelEvent{id: o.ID(), openQty: openQty})
}
func (l *recordingListener) OnCancelStop(o Order) {}
func (l *recordingListener) OnCancelReject(o Order, reason string) {
	l.cancelRejects = append(l.cancelRejects, o.ID())
}
func (l *recordingListener) OnReplace(o Order, openQtyBefore Quantity, sizeDelta int64, newPrice Price) {
	l.replaces = append(l.replaces, o.ID())
}
func (l *recordingListener) OnReplaceReject(o Order, reason string) {
	l.replaceRejects = append(l.replaceRejects, reason)
}

func newTestEngine() (*MatchingEngine, *recordingListener) {
	e := NewMatchingEngine("TEST")
	l := &recordingListener{}
	e.SetOrderListener(l)
	return e, l
}

// S1 — price-time priority.
func TestScenario_PriceTimePriority(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("1", "U1", true, 10, 100)))
	require.NoError(t, e.Add(order("2", "U2", true, 10, 100)))
	require.NoError(t, e.Add(order("3", "U3", true, 11, 50)))

	require.NoError(t, e.Add(order("4", "U4", false, 9, 120)))

	require.Len(t, l.fills, 2)
	assert.Equal(t, fillEvent{taker: "4", maker: "3", qty: 50, price: 11}, l.fills[0])
	assert.Equal(t, fillEvent{taker: "4", maker: "1", qty: 70, price: 10}, l.fills[1])

	// Order 1 keeps its 30 unfilled and its place at the front of level 10.
	lvl, ok := e.Bids().Get(NewComparablePrice(true, 10))
	require.True(t, ok)
	require.Len(t, lvl.Orders(), 2)
	assert.Equal(t, "1", lvl.Orders()[0].Order().ID())
	assert.Equal(t, Quantity(30), lvl.Orders()[0].OpenQty())
	assert.Equal(t, "2", lvl.Orders()[1].Order().ID())
	assert.Equal(t, Quantity(100), lvl.Orders()[1].OpenQty())

	assert.Equal(t, 0, e.Asks().Len())
	assert.Equal(t, Price(10), e.MarketPrice())
}

// S2 — self-trade prevention.
func TestScenario_SelfTradePrevention(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("1", "U1", true, 10, 100)))
	require.NoError(t, e.Add(order("2", "U1", false, 10, 100)))

	assert.Empty(t, l.fills)
	require.Len(t, l.cancels, 1)
	assert.Equal(t, cancelEvent{id: "2", openQty: 0}, l.cancels[0])

	lvl, ok := e.Bids().Get(NewComparablePrice(true, 10))
	require.True(t, ok)
	require.Len(t, lvl.Orders(), 1)
	assert.Equal(t, Quantity(100), lvl.Orders()[0].OpenQty())
}

// S3 — IOC leftover.
func TestScenario_IOCLeftover(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("1", "U1", false, 10, 50)))

	taker := order("2", "U2", true, 10, 100)
	taker.ioc = true
	require.NoError(t, e.Add(taker))

	require.Len(t, l.fills, 1)
	assert.Equal(t, fillEvent{taker: "2", maker: "1", qty: 50, price: 10}, l.fills[0])
	require.Len(t, l.cancels, 1)
	assert.Equal(t, cancelEvent{id: "2", openQty: 0}, l.cancels[0])

	assert.Equal(t, 0, e.Bids().Len())
	assert.Equal(t, 0, e.Asks().Len())
}

// S4 — replace at an explicit (even unchanged) price loses priority.
func TestScenario_ReplaceLosesPriority(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("1", "U1", true, 10, 100)))
	require.NoError(t, e.Add(order("2", "U2", true, 10, 100)))

	require.NoError(t, e.Replace("1", true, 10, SizeUnchanged))

	require.NoError(t, e.Add(order("3", "U3", false, 10, 150)))

	require.Len(t, l.fills, 2)
	assert.Equal(t, "2", l.fills[0].maker)
	assert.Equal(t, Quantity(100), l.fills[0].qty)
	assert.Equal(t, "1", l.fills[1].maker)
	assert.Equal(t, Quantity(50), l.fills[1].qty)
}

// S5 — stop trigger cascade.
func TestScenario_StopTriggerCascade(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("restAsk", "U7", false, 12, 40)))

	stop := order("stop", "U2", true, 12, 50)
	stop.stopPrice = 11
	require.NoError(t, e.Add(stop))
	assert.Empty(t, l.fills, "stop order must not match before it triggers")

	require.NoError(t, e.Add(order("ask1", "U5", false, 11, 30)))
	require.NoError(t, e.Add(order("bid1", "U6", true, 11, 30)))
	// The pair trades at 11, which triggers the stop; the stop then fills
	// against restAsk at 12 within the same call, so 12 is the last price.
	require.Equal(t, Price(12), e.MarketPrice())

	require.NotEmpty(t, l.fills, "the triggered stop order should have matched against resting asks")
	matchedStop := false
	for _, f := range l.fills {
		if f.taker == "stop" {
			matchedStop = true
		}
	}
	assert.True(t, matchedStop)
}

// S6 — replace rejected once the order is already fully filled.
func TestScenario_ReplaceRejectAlreadyFilled(t *testing.T) {
	e, l := newTestEngine()

	require.NoError(t, e.Add(order("1", "U1", true, 10, 100)))
	require.NoError(t, e.Add(order("2", "U2", false, 10, 100)))
	require.Len(t, l.fills, 1)

	require.ErrorIs(t, e.Replace("1", true, PriceUnchanged, 10), ErrOrderNotFound)
	require.Len(t, l.replaceRejects, 1)
}

func TestComparablePrice_BuySideOrdering(t *testing.T) {
	best := NewComparablePrice(true, 11)
	worse := NewComparablePrice(true, 10)
	assert.True(t, best.Less(worse))
	assert.False(t, worse.Less(best))
}

func TestComparablePrice_MarketIsMostAggressive(t *testing.T) {
	market := NewComparablePrice(true, MarketOrderPrice)
	limit := NewComparablePrice(true, 1)
	assert.True(t, market.Less(limit))
}

func TestOrderTracker_ReserveBounds(t *testing.T) {
	tr := NewOrderTracker(order("1", "U1", true, 10, 100), NoConditions)
	assert.Equal(t, Quantity(100), tr.OpenQty())
	tr.Reserve(40)
	assert.Equal(t, Quantity(60), tr.OpenQty())
	tr.Reserve(-40)
	assert.Equal(t, Quantity(100), tr.OpenQty())
}

func TestOrderTracker_FillExceedsOpen(t *testing.T) {
	tr := NewOrderTracker(order("1", "U1", true, 10, 10), NoConditions)
	err := tr.Fill(20)
	assert.ErrorIs(t, err, ErrFillExceedsOpen)
}

func TestCancel_RemovesFromLadder(t *testing.T) {
	e, l := newTestEngine()
	require.NoError(t, e.Add(order("1", "U1", true, 10, 100)))
	require.NoError(t, e.Cancel("1", true))
	require.Len(t, l.cancels, 1)
	assert.Equal(t, 0, e.Bids().Len())
}

func TestCancel_UnknownOrder(t *testing.T) {
	e, l := newTestEngine()
	err := e.Cancel("missing", true)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.Len(t, l.cancelRejects, 1)
	assert.Equal(t, "missing", l.cancelRejects[0])
}

func TestReplace_UnknownOrder(t *testing.T) {
	e, l := newTestEngine()
	err := e.Replace("missing", true, 11, SizeUnchanged)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.Len(t, l.replaceRejects, 1)
}

func TestFillOrKill_CancelsWhenUnfillable(t *testing.T) {
	e, l := newTestEngine()
	require.NoError(t, e.Add(order("1", "U1", false, 10, 10)))

	taker := order("2", "U2", true, 10, 100)
	taker.aon = true
	taker.ioc = true
	require.NoError(t, e.Add(taker))

	assert.Empty(t, l.fills)
	require.Len(t, l.cancels, 1)
	assert.Equal(t, "2", l.cancels[0].id)
}

// Plain AON (not IOC) that cannot be fully filled at admission is canceled,
// never rested — spec: "A taker-side AON that cannot be fully filled at
// admission is canceled before any partial fill is committed," with no IOC
// qualifier.
func TestAllOrNone_CanceledWhenUnfillable(t *testing.T) {
	e, l := newTestEngine()
	require.NoError(t, e.Add(order("1", "U1", false, 10, 10)))

	taker := order("2", "U2", true, 10, 100)
	taker.aon = true
	require.NoError(t, e.Add(taker))

	assert.Empty(t, l.fills)
	require.Len(t, l.cancels, 1)
	assert.Equal(t, cancelEvent{id: "2", openQty: 0}, l.cancels[0])
	assert.Equal(t, 0, e.Bids().Len())

	lvl, ok := e.Asks().Get(NewComparablePrice(false, 10))
	require.True(t, ok)
	assert.Equal(t, Quantity(10), lvl.Orders()[0].OpenQty(), "the resting maker is untouched")
}

func TestInvariantViolation_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "matching: invariant violation: boom", func() {
		invariantViolation("boom")
	})
}

func namedOrder(n int, buy bool, price Price, qty Quantity) *testOrder {
	return order(fmt.Sprintf("o%d", n), fmt.Sprintf("U%d", n), buy, price, qty)
}

func TestMaxMakers_BoundsSingleMatchingPass(t *testing.T) {
	e := NewMatchingEngine("TEST", WithMaxMakers(2))
	l := &recordingListener{}
	e.SetOrderListener(l)

	for i := 1; i <= 3; i++ {
		require.NoError(t, e.Add(namedOrder(i, false, 10, 10)))
	}

	taker := namedOrder(99, true, 10, 100)
	require.NoError(t, e.Add(taker))

	assert.Len(t, l.fills, 2, "maxMakers=2 should stop the pass after two makers even though the taker is unfilled")
	assert.Equal(t, 1, e.Asks().Len())
}
