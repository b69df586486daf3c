package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krx-trader/internal/models"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(code string, closedAt time.Time, profit float64) *models.TradeRecord {
	return &models.TradeRecord{
		Code:          code,
		Name:          "stock " + code,
		Quantity:      10,
		BuyPrice:      70000,
		SellPrice:     70000 + profit/10,
		Profit:        profit,
		ProfitPercent: profit / 700000 * 100,
		Strategy:      "basic",
		OpenedAt:      closedAt.Add(-time.Hour),
		ClosedAt:      closedAt,
	}
}

func TestJournalRecordAndQuery(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, record("005930", base, 14000)))
	require.NoError(t, j.Record(ctx, record("000660", base.Add(time.Minute), -7000)))
	require.NoError(t, j.Record(ctx, record("005930", base.Add(2*time.Minute), 3500)))

	trades, err := j.Trades(ctx, TradeFilter{})
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// Newest first.
	assert.Equal(t, 3500.0, trades[0].Profit)
	assert.Equal(t, -7000.0, trades[1].Profit)
	assert.Equal(t, 14000.0, trades[2].Profit)
	assert.NotZero(t, trades[0].ID)
}

func TestJournalFilters(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, record("005930", base, 14000)))
	require.NoError(t, j.Record(ctx, record("000660", base.Add(time.Minute), -7000)))
	require.NoError(t, j.Record(ctx, record("005930", base.Add(2*time.Minute), 3500)))

	byCode, err := j.Trades(ctx, TradeFilter{Code: "005930"})
	require.NoError(t, err)
	require.Len(t, byCode, 2)
	for _, tr := range byCode {
		assert.Equal(t, "005930", tr.Code)
	}

	since, err := j.Trades(ctx, TradeFilter{Since: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	limited, err := j.Trades(ctx, TradeFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 3500.0, limited[0].Profit)
}

func TestJournalEmpty(t *testing.T) {
	j := newTestJournal(t)

	trades, err := j.Trades(context.Background(), TradeFilter{Code: "005930"})
	require.NoError(t, err)
	assert.Empty(t, trades)
}
