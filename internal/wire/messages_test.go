package wire

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/matching"
)

func encodeNewOrderBody(m NewOrderMessage) []byte {
	sym := []byte(m.Symbol)
	owner := []byte(m.Owner)
	buf := make([]byte, 1+1+8+8+8+1+len(sym)+1+len(owner))
	if m.Buy {
		buf[0] = 1
	}
	buf[1] = byte(m.Conditions)
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.LimitPrice))
	binary.BigEndian.PutUint64(buf[10:18], uint64(m.StopPrice))
	binary.BigEndian.PutUint64(buf[18:26], uint64(m.Quantity))
	buf[26] = byte(len(sym))
	offset := 27
	offset += copy(buf[offset:], sym)
	buf[offset] = byte(len(owner))
	offset++
	copy(buf[offset:], owner)
	return buf
}

func TestParseMessage_NewOrder(t *testing.T) {
	body := encodeNewOrderBody(NewOrderMessage{
		Buy:        true,
		Conditions: matching.AllOrNone,
		LimitPrice: 100,
		StopPrice:  0,
		Quantity:   50,
		Symbol:     "FEN",
		Owner:      "alice",
	})
	raw := make([]byte, headerLen+len(body))
	binary.BigEndian.PutUint16(raw[0:2], uint16(NewOrder))
	copy(raw[headerLen:], body)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)
	no, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.True(t, no.Buy)
	assert.Equal(t, matching.Price(100), no.LimitPrice)
	assert.Equal(t, matching.Quantity(50), no.Quantity)
	assert.Equal(t, "FEN", no.Symbol)
	assert.Equal(t, "alice", no.Owner)
	assert.True(t, no.Conditions.Has(matching.AllOrNone))
}

func TestNewOrderMessage_Order_CarriesStopAndConditions(t *testing.T) {
	m := NewOrderMessage{
		Buy:        false,
		Conditions: matching.ImmediateOrCancel,
		LimitPrice: 42,
		StopPrice:  40,
		Quantity:   10,
		Symbol:     "FEN",
		Owner:      "bob",
	}
	order := m.Order()
	assert.Equal(t, matching.Price(40), order.StopPrice())
	assert.True(t, order.ImmediateOrCancel())
	assert.False(t, order.AllOrNone())
}

func TestParseMessage_CancelOrder(t *testing.T) {
	id := uuid.NewString()
	body := make([]byte, 1+36)
	body[0] = 1
	copy(body[1:], id)
	raw := make([]byte, headerLen+len(body))
	binary.BigEndian.PutUint16(raw[0:2], uint16(CancelOrder))
	copy(raw[headerLen:], body)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)
	c, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.True(t, c.Buy)
	assert.Equal(t, id, c.OrderID)
}

func TestParseMessage_CancelOrder_RejectsInvalidUUID(t *testing.T) {
	body := make([]byte, 1+36)
	copy(body[1:], "not-a-uuid-not-a-uuid-not-a-uuid123")
	raw := make([]byte, headerLen+len(body))
	binary.BigEndian.PutUint16(raw[0:2], uint16(CancelOrder))
	copy(raw[headerLen:], body)

	_, err := ParseMessage(raw)
	assert.Error(t, err)
}

func TestParseMessage_UnknownType(t *testing.T) {
	raw := make([]byte, headerLen)
	binary.BigEndian.PutUint16(raw[0:2], 99)
	_, err := ParseMessage(raw)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := ParseMessage([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestReport_Serialize_RoundTripsFixedFields(t *testing.T) {
	r := Report{
		Type:         ReportFill,
		OrderID:      uuid.NewString(),
		Quantity:     30,
		Price:        15,
		Counterparty: "bob",
	}
	raw := r.Serialize()

	const idLen = 36
	assert.Equal(t, byte(ReportFill), raw[0])
	assert.Equal(t, r.OrderID, string(raw[1:1+idLen]))
	assert.Equal(t, uint64(30), binary.BigEndian.Uint64(raw[1+idLen:9+idLen]))
	assert.Equal(t, uint64(15), binary.BigEndian.Uint64(raw[9+idLen:17+idLen]))
	cpLen := binary.BigEndian.Uint16(raw[17+idLen : 19+idLen])
	assert.Equal(t, uint16(len("bob")), cpLen)
}
