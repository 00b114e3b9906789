package matching

// CbType tags which observable effect a Callback describes.
type CbType int

const (
	CbUnknown CbType = iota
	CbOrderAccept
	CbOrderAcceptStop
	CbOrderTriggerStop
	CbOrderReject
	CbOrderFill
	CbOrderCancel
	CbOrderCancelStop
	CbOrderCancelReject
	CbOrderReplace
	CbOrderReplaceReject
	CbBookUpdate
)

func (t CbType) String() string {
	switch t {
	case CbOrderAccept:
		return "OrderAccept"
	case CbOrderAcceptStop:
		return "OrderAcceptStop"
	case CbOrderTriggerStop:
		return "OrderTriggerStop"
	case CbOrderReject:
		return "OrderReject"
	case CbOrderFill:
		return "OrderFill"
	case CbOrderCancel:
		return "OrderCancel"
	case CbOrderCancelStop:
		return "OrderCancelStop"
	case CbOrderCancelReject:
		return "OrderCancelReject"
	case CbOrderReplace:
		return "OrderReplace"
	case CbOrderReplaceReject:
		return "OrderReplaceReject"
	case CbBookUpdate:
		return "BookUpdate"
	default:
		return "Unknown"
	}
}

// Callback is a single tagged record of an observable engine effect.
// Ported field-for-field from original_source/callback.rs; only the
// fields relevant to Type are populated, the rest are left zero.
//
// Book is a non-owning reference (see spec §9 "Design Notes" — the Rust
// original uses a raw pointer for exactly this reason): the engine always
// drains its callback queue to listeners before Add/Cancel/Replace
// returns, so the engine is always alive for the lifetime of any Callback
// a listener observes.
type Callback struct {
	Type         CbType
	Order        Order
	MatchedOrder Order
	Quantity     Quantity
	Price        Price
	Flags        FillFlags
	Delta        int64
	RejectReason string
	Book         *MatchingEngine
}

func cbAccept(order Order) Callback {
	return Callback{Type: CbOrderAccept, Order: order}
}

func cbAcceptStop(order Order) Callback {
	return Callback{Type: CbOrderAcceptStop, Order: order}
}

func cbTriggerStop(order Order) Callback {
	return Callback{Type: CbOrderTriggerStop, Order: order}
}

func cbReject(order Order, reason string) Callback {
	return Callback{Type: CbOrderReject, Order: order, RejectReason: reason}
}

func cbFill(inbound, matched Order, qty Quantity, price Price, flags FillFlags) Callback {
	return Callback{
		Type:         CbOrderFill,
		Order:        inbound,
		MatchedOrder: matched,
		Quantity:     qty,
		Price:        price,
		Flags:        flags,
	}
}

func cbCancel(order Order, openQty Quantity) Callback {
	return Callback{Type: CbOrderCancel, Order: order, Quantity: openQty}
}

func cbCancelStop(order Order) Callback {
	return Callback{Type: CbOrderCancelStop, Order: order}
}

func cbCancelReject(order Order, reason string) Callback {
	return Callback{Type: CbOrderCancelReject, Order: order, RejectReason: reason}
}

func cbReplace(order Order, openQtyBefore Quantity, sizeDelta int64, newPrice Price) Callback {
	return Callback{
		Type:     CbOrderReplace,
		Order:    order,
		Quantity: openQtyBefore,
		Delta:    sizeDelta,
		Price:    newPrice,
	}
}

func cbReplaceReject(order Order, reason string) Callback {
	return Callback{Type: CbOrderReplaceReject, Order: order, RejectReason: reason}
}

func cbBookUpdate(book *MatchingEngine) Callback {
	return Callback{Type: CbBookUpdate, Book: book}
}
