package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/matching"
)

type fakeCommander struct {
	submitted []matching.Order
	canceled  []string
}

func (f *fakeCommander) SubmitOrder(order matching.Order) { f.submitted = append(f.submitted, order) }
func (f *fakeCommander) CancelOrder(orderID string, buy bool) {
	f.canceled = append(f.canceled, orderID)
}
func (f *fakeCommander) ReplaceOrder(string, bool, matching.Price, int64) {}

func TestGetBook_ReflectsEngineState(t *testing.T) {
	engine := matching.NewMatchingEngine("FEN")
	require.NoError(t, engine.Add(simpleOrder{id: "1", user: "U1", buy: true, price: 10, qty: 100}))

	h := NewHandler(engine, &fakeCommander{})
	req := httptest.NewRequest(http.MethodGet, "/book", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body bookView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Bids, 1)
	assert.Equal(t, matching.Price(10), body.Bids[0].Price)
	assert.Equal(t, matching.Quantity(100), body.Bids[0].Qty)
}

func TestGetBookSide_UnknownSideIs404(t *testing.T) {
	engine := matching.NewMatchingEngine("FEN")
	h := NewHandler(engine, &fakeCommander{})
	req := httptest.NewRequest(http.MethodGet, "/book/sideways", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostOrder_SubmitsThroughCommander(t *testing.T) {
	engine := matching.NewMatchingEngine("FEN")
	cmd := &fakeCommander{}
	h := NewHandler(engine, cmd)

	body := `{"owner":"alice","buy":true,"price":10,"quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, cmd.submitted, 1)
	assert.Equal(t, "alice", cmd.submitted[0].User())
	assert.Equal(t, matching.Quantity(5), cmd.submitted[0].OrderQty())
}

func TestDeleteOrder_RoutesCancelThroughCommander(t *testing.T) {
	engine := matching.NewMatchingEngine("FEN")
	cmd := &fakeCommander{}
	h := NewHandler(engine, cmd)

	req := httptest.NewRequest(http.MethodDelete, "/orders/abc?side=buy", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, cmd.canceled, 1)
	assert.Equal(t, "abc", cmd.canceled[0])
}

type simpleOrder struct {
	id, user  string
	buy       bool
	price     matching.Price
	stopPrice matching.Price
	qty       matching.Quantity
}

func (o simpleOrder) ID() string                 { return o.id }
func (o simpleOrder) User() string                { return o.user }
func (o simpleOrder) IsBuy() bool                 { return o.buy }
func (o simpleOrder) Price() matching.Price       { return o.price }
func (o simpleOrder) StopPrice() matching.Price   { return o.stopPrice }
func (o simpleOrder) OrderQty() matching.Quantity { return o.qty }
func (o simpleOrder) AllOrNone() bool             { return false }
func (o simpleOrder) ImmediateOrCancel() bool     { return false }
