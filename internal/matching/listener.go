package matching

// OrderListener receives every order-lifecycle event for orders submitted
// into a MatchingEngine. Ported from original_source/order_listener.rs;
// unlike the Rust trait (which gives on_trigger_stop a default empty body),
// Go interfaces have no default methods, so every adapter in this repo
// implements the full set — with a logging-only or empty body where it has
// nothing else to do.
type OrderListener interface {
	OnAccept(order Order)
	OnAcceptStop(order Order)
	OnTriggerStop(order Order)
	OnReject(order Order, reason string)
	OnFill(inbound, matched Order, qty Quantity, price Price, flags FillFlags)
	OnCancel(order Order, openQty Quantity)
	OnCancelStop(order Order)
	OnCancelReject(order Order, reason string)
	OnReplace(order Order, openQtyBefore Quantity, sizeDelta int64, newPrice Price)
	OnReplaceReject(order Order, reason string)
}

// TradeListener receives one notification per fill, independent of (but
// derivable from) OrderListener.OnFill — kept as a separate sink because
// a trade ledger or market-data feed typically cares about price/qty only,
// not both participants' order identities.
type TradeListener interface {
	OnTrade(book *MatchingEngine, qty Quantity, price Price)
}

// OrderBookListener receives one notification whenever the book's shape
// may have changed (once at the end of a top-level Add/Cancel/Replace/
// SetMarketPrice call, regardless of how many fills occurred inside it).
// Calls rejected before touching the book — a zero-size Add, a Cancel or
// Replace of an ID not in the book, a Replace of a resting stop order —
// produce no notification.
type OrderBookListener interface {
	OnOrderBookChange(book *MatchingEngine)
}
