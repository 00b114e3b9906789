package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/matching"
)

func TestOnTrade_RecordsEntryWithNotional(t *testing.T) {
	l := New()
	engine := matching.NewMatchingEngine("FEN")

	l.OnTrade(engine, 10, 5)
	l.OnTrade(engine, 4, 25)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Notional.Equal(decimal.NewFromInt(50)))
	assert.True(t, entries[1].Notional.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "FEN", entries[0].Symbol)
}

func TestTotalNotional_SumsAllEntries(t *testing.T) {
	l := New()
	engine := matching.NewMatchingEngine("FEN")

	l.OnTrade(engine, 10, 5)
	l.OnTrade(engine, 4, 25)

	assert.True(t, l.TotalNotional().Equal(decimal.NewFromInt(150)))
}

func TestEntries_ReturnsCopyNotLiveSlice(t *testing.T) {
	l := New()
	engine := matching.NewMatchingEngine("FEN")
	l.OnTrade(engine, 1, 1)

	snapshot := l.Entries()
	l.OnTrade(engine, 1, 1)

	assert.Len(t, snapshot, 1, "earlier snapshot must not observe later trades")
	assert.Len(t, l.Entries(), 2)
}
