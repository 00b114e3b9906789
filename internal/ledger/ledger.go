// Package ledger keeps a human-auditable, append-only record of every trade
// a matching engine reports, with notional computed in
// github.com/shopspring/decimal once price*qty leaves the engine's plain
// uint64 domain — the decimal library 0xtitan6-polymarket-mm and
// johnayoung-go-crypto-quant-toolkit both reach for rather than tolerate
// float64 rounding error in accounting output.
package ledger

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"fenrir/internal/matching"
)

// Entry is one recorded trade.
type Entry struct {
	Symbol   string
	Price    matching.Price
	Qty      matching.Quantity
	Notional decimal.Decimal
}

// Ledger accumulates Entries in memory, implementing matching.TradeListener
// so it can be registered directly against an engine. No fee computation is
// added here — that remains a declared non-goal — but this is the
// accounting surface a fee engine would consume.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Ledger {
	return &Ledger{}
}

// OnTrade implements matching.TradeListener.
func (l *Ledger) OnTrade(book *matching.MatchingEngine, qty matching.Quantity, price matching.Price) {
	notional := decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(int64(qty)))
	entry := Entry{Symbol: book.Symbol(), Price: price, Qty: qty, Notional: notional}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	log.Info().
		Str("symbol", entry.Symbol).
		Uint64("price", uint64(entry.Price)).
		Uint64("qty", uint64(entry.Qty)).
		Str("notional", entry.Notional.String()).
		Msg("trade recorded")
}

// Entries returns a snapshot of every trade recorded so far.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// TotalNotional sums Notional across every recorded entry.
func (l *Ledger) TotalNotional() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.Notional)
	}
	return total
}
