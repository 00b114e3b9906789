// Package httpapi exposes a read/submit REST surface over a matching
// engine using gorilla/mux, the router the pack's uhyunpark-hyperlicked and
// DimaJoyti-ai-agentic-crypto-browser repos reach for instead of stdlib's
// bare http.ServeMux.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"fenrir/internal/matching"
	"fenrir/internal/orderpayload"
)

// EngineCommander is the subset of server behavior the HTTP surface needs:
// submitting, canceling, and replacing orders without holding its own
// reference to the engine, so every write still funnels through the single
// goroutine that owns it.
type EngineCommander interface {
	SubmitOrder(order matching.Order)
	CancelOrder(orderID string, buy bool)
	ReplaceOrder(orderID string, buy bool, newPrice matching.Price, sizeDelta int64)
}

// Handler serves the admin/snapshot API for one engine's read-only state
// plus order submission routed through cmd.
type Handler struct {
	engine *matching.MatchingEngine
	cmd    EngineCommander
}

func NewHandler(engine *matching.MatchingEngine, cmd EngineCommander) *Handler {
	return &Handler{engine: engine, cmd: cmd}
}

// Router builds the gorilla/mux router for this handler.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/book", h.getBook).Methods(http.MethodGet)
	r.HandleFunc("/book/{side}", h.getBookSide).Methods(http.MethodGet)
	r.HandleFunc("/orders", h.postOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}", h.deleteOrder).Methods(http.MethodDelete)
	return r
}

type levelView struct {
	Price matching.Price    `json:"price"`
	Qty   matching.Quantity `json:"qty"`
}

func snapshot(l *matching.Ladder) []levelView {
	levels := l.Snapshot()
	out := make([]levelView, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, levelView{Price: lvl.Price().Price(), Qty: lvl.TotalQty()})
	}
	return out
}

type bookView struct {
	Symbol      string              `json:"symbol"`
	MarketPrice matching.Price      `json:"market_price"`
	Bids        []levelView         `json:"bids"`
	Asks        []levelView         `json:"asks"`
	StopBids    []levelView         `json:"stop_bids"`
	StopAsks    []levelView         `json:"stop_asks"`
}

func (h *Handler) snapshotBook() bookView {
	return bookView{
		Symbol:      h.engine.Symbol(),
		MarketPrice: h.engine.MarketPrice(),
		Bids:        snapshot(h.engine.Bids()),
		Asks:        snapshot(h.engine.Asks()),
		StopBids:    snapshot(h.engine.StopBids()),
		StopAsks:    snapshot(h.engine.StopAsks()),
	}
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshotBook())
}

func (h *Handler) getBookSide(w http.ResponseWriter, r *http.Request) {
	side := mux.Vars(r)["side"]
	var levels []levelView
	switch side {
	case "bids":
		levels = snapshot(h.engine.Bids())
	case "asks":
		levels = snapshot(h.engine.Asks())
	case "stop_bids":
		levels = snapshot(h.engine.StopBids())
	case "stop_asks":
		levels = snapshot(h.engine.StopAsks())
	default:
		http.Error(w, "unknown side", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

type orderRequest struct {
	Owner      string            `json:"owner"`
	Buy        bool              `json:"buy"`
	Price      matching.Price    `json:"price"`
	StopPrice  matching.Price    `json:"stop_price"`
	Quantity   matching.Quantity `json:"quantity"`
	AllOrNone  bool              `json:"all_or_none"`
	IOC        bool              `json:"immediate_or_cancel"`
}

func (h *Handler) postOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order := orderpayload.New(req.Owner, h.engine.Symbol(), req.Buy, req.Price, req.Quantity)
	order.TriggerPrice = req.StopPrice
	order.AON = req.AllOrNone
	order.IOC = req.IOC

	h.cmd.SubmitOrder(order)
	log.Info().Object("order", order).Msg("order submitted via http")
	writeJSON(w, http.StatusAccepted, map[string]string{"order_id": order.ID()})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	buy := r.URL.Query().Get("side") == "buy"
	h.cmd.CancelOrder(id, buy)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
