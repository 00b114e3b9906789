// Package wire implements the binary protocol the TCP server and CLI
// client speak, adapted from the teacher's internal/net/messages.go:
// same big-endian fixed-header-plus-variable-tail shape, extended with the
// stop-price/condition fields this engine needs that the teacher's
// float64-priced, condition-less order never carried.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/google/uuid"

	"fenrir/internal/matching"
	"fenrir/internal/orderpayload"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified field lengths")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ReplaceOrder
)

type ReportType uint8

const (
	ReportAccept ReportType = iota
	ReportAcceptStop
	ReportTriggerStop
	ReportReject
	ReportFill
	ReportCancel
	ReportCancelStop
	ReportCancelReject
	ReportReplace
	ReportReplaceReject
	ReportError
)

// Message is any parsed incoming client request.
type Message interface {
	Type() MessageType
}

// header layout, all big-endian:
//   [0:2]   MessageType
const headerLen = 2

// NewOrderMessage requests a fresh order be submitted.
//
//	[2:3]   buy (0/1)
//	[3:4]   conditions bitset (matching.OrderCondition, low byte)
//	[4:12]  limit price (uint64, 0 = market)
//	[12:20] stop price (uint64, 0 = not a stop order)
//	[20:28] quantity (uint64)
//	[28:29] symbol length
//	[29:29+symLen]        symbol
//	[...:...+ownerLen]    owner username, length-prefixed by the next byte
type NewOrderMessage struct {
	Buy          bool
	Conditions   matching.OrderCondition
	LimitPrice   matching.Price
	StopPrice    matching.Price
	Quantity     matching.Quantity
	Symbol       string
	Owner        string
}

func (m NewOrderMessage) Type() MessageType { return NewOrder }

// Order builds a fresh orderpayload.Order from the message.
func (m NewOrderMessage) Order() *orderpayload.Order {
	o := orderpayload.New(m.Owner, m.Symbol, m.Buy, m.LimitPrice, m.Quantity)
	o.TriggerPrice = m.StopPrice
	o.AON = m.Conditions.Has(matching.AllOrNone)
	o.IOC = m.Conditions.Has(matching.ImmediateOrCancel)
	return o
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	const fixedLen = 1 + 1 + 8 + 8 + 8 + 1
	if len(msg) < fixedLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m := NewOrderMessage{
		Buy:        msg[0] == 1,
		Conditions: matching.OrderCondition(msg[1]),
		LimitPrice: matching.Price(binary.BigEndian.Uint64(msg[2:10])),
		StopPrice:  matching.Price(binary.BigEndian.Uint64(msg[10:18])),
		Quantity:   matching.Quantity(binary.BigEndian.Uint64(msg[18:26])),
	}
	symLen := int(msg[26])
	rest := msg[27:]
	if len(rest) < symLen+1 {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Symbol = string(rest[:symLen])
	rest = rest[symLen:]
	ownerLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < ownerLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Owner = string(rest[:ownerLen])
	return m, nil
}

// CancelOrderMessage requests cancellation of a resting order by ID.
//
//	[2:3]  buy (0/1, needed since Cancel is looked up per-side)
//	[3:3+36] order ID (uuid string form, fixed 36 bytes)
type CancelOrderMessage struct {
	Buy     bool
	OrderID string
}

func (m CancelOrderMessage) Type() MessageType { return CancelOrder }

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	const idLen = 36
	if len(msg) < 1+idLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	id := string(msg[1 : 1+idLen])
	if _, err := uuid.Parse(id); err != nil {
		return CancelOrderMessage{}, err
	}
	return CancelOrderMessage{Buy: msg[0] == 1, OrderID: id}, nil
}

// ReplaceOrderMessage requests a size and/or price change on a resting order.
//
//	[2:3]   buy
//	[3:39]  order ID
//	[39:47] new price (0 = matching.PriceUnchanged)
//	[47:55] size delta, as int64 two's complement
type ReplaceOrderMessage struct {
	Buy       bool
	OrderID   string
	NewPrice  matching.Price
	SizeDelta int64
}

func (m ReplaceOrderMessage) Type() MessageType { return ReplaceOrder }

func parseReplaceOrder(msg []byte) (ReplaceOrderMessage, error) {
	const idLen = 36
	const fixedLen = 1 + idLen + 8 + 8
	if len(msg) < fixedLen {
		return ReplaceOrderMessage{}, ErrMessageTooShort
	}
	id := string(msg[1 : 1+idLen])
	if _, err := uuid.Parse(id); err != nil {
		return ReplaceOrderMessage{}, err
	}
	price := matching.Price(binary.BigEndian.Uint64(msg[1+idLen : 9+idLen]))
	delta := int64(binary.BigEndian.Uint64(msg[9+idLen : 17+idLen]))
	return ReplaceOrderMessage{Buy: msg[0] == 1, OrderID: id, NewPrice: price, SizeDelta: delta}, nil
}

// ParseMessage dispatches on the leading MessageType header.
func ParseMessage(raw []byte) (Message, error) {
	if len(raw) < headerLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(raw[0:2]))
	body := raw[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case ReplaceOrder:
		return parseReplaceOrder(body)
	default:
		return nil, ErrInvalidMessageType
	}
}

// Report is a single execution/lifecycle notification serialized back to a
// connected client, mirroring the teacher's internal/net.Report shape.
type Report struct {
	Type         ReportType
	OrderID      string
	Quantity     matching.Quantity
	Price        matching.Price
	Counterparty string
	Err          string
}

// Serialize packs the report into the wire format:
//
//	[0:1]   ReportType
//	[1:37]  order ID (36 bytes, zero-padded if shorter)
//	[37:45] quantity
//	[45:53] price
//	[53:55] counterparty length
//	[55:57] error length
//	[57:...]            counterparty
//	[...:...+errLen]    error
func (r Report) Serialize() []byte {
	const idLen = 36
	cpBytes := []byte(r.Counterparty)
	errBytes := []byte(r.Err)

	buf := make([]byte, 1+idLen+8+8+2+2+len(cpBytes)+len(errBytes))
	buf[0] = byte(r.Type)
	copy(buf[1:1+idLen], r.OrderID)
	binary.BigEndian.PutUint64(buf[1+idLen:9+idLen], uint64(r.Quantity))
	binary.BigEndian.PutUint64(buf[9+idLen:17+idLen], uint64(r.Price))
	binary.BigEndian.PutUint16(buf[17+idLen:19+idLen], uint16(len(cpBytes)))
	binary.BigEndian.PutUint16(buf[19+idLen:21+idLen], uint16(len(errBytes)))
	offset := 21 + idLen
	offset += copy(buf[offset:], cpBytes)
	copy(buf[offset:], errBytes)
	return buf
}
