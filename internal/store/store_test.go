package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krx-trader/internal/models"
)

func TestExecutionLogFIFOEviction(t *testing.T) {
	s := New()

	for i := 0; i < 105; i++ {
		s.AppendLog(models.LogCategoryInfo, fmt.Sprintf("entry %d", i))
	}

	log := s.ExecutionLog()
	require.Len(t, log, MaxLogEntries)

	// The oldest five were evicted; relative order of the rest holds.
	assert.Equal(t, "entry 5", log[0].Message)
	assert.Equal(t, "entry 104", log[len(log)-1].Message)
	for i := 1; i < len(log); i++ {
		assert.True(t, !log[i].Timestamp.Before(log[i-1].Timestamp))
	}
}

func TestCandidateDedupNewestWins(t *testing.T) {
	s := New()

	s.AddCandidate(models.Candidate{Code: "005930", Price: 70000})
	s.AddCandidate(models.Candidate{Code: "000660", Price: 130000})
	s.AddCandidate(models.Candidate{Code: "005930", Price: 71000})

	cands := s.Candidates()
	require.Len(t, cands, 2)
	assert.Equal(t, "000660", cands[0].Code)
	assert.Equal(t, "005930", cands[1].Code)
	assert.Equal(t, 71000.0, cands[1].Price)
}

func TestCandidateBound(t *testing.T) {
	s := New()

	for i := 0; i < MaxCandidates+20; i++ {
		s.AddCandidate(models.Candidate{Code: fmt.Sprintf("%06d", i)})
	}

	cands := s.Candidates()
	require.Len(t, cands, MaxCandidates)
	assert.Equal(t, "000020", cands[0].Code)
}

func TestPositionLifecycle(t *testing.T) {
	s := New()

	s.UpsertPosition(models.Position{Code: "005930", Name: "Samsung Electronics", Quantity: 10, AvgCost: 70000})
	s.UpsertPosition(models.Position{Code: "000660", Name: "SK hynix", Quantity: 5, AvgCost: 130000})

	assert.Equal(t, 2, s.PositionCount())

	pos, ok := s.GetPosition("005930")
	require.True(t, ok)
	assert.Equal(t, int64(10), pos.Quantity)

	// Upsert replaces, preserving iteration order.
	s.UpsertPosition(models.Position{Code: "005930", Quantity: 20, AvgCost: 69000})
	positions := s.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, "005930", positions[0].Code)
	assert.Equal(t, int64(20), positions[0].Quantity)

	s.RemovePosition("005930")
	assert.Equal(t, 1, s.PositionCount())
	_, ok = s.GetPosition("005930")
	assert.False(t, ok)

	// Removing an absent code is a no-op.
	s.RemovePosition("005930")
	assert.Equal(t, 1, s.PositionCount())
}

func TestRefreshPrice(t *testing.T) {
	s := New()

	s.UpsertPosition(models.Position{Code: "005930", Quantity: 10, AvgCost: 70000, CurrentPrice: 70000, HighestPrice: 70000})
	s.RefreshPrice("005930", 71400)

	pos, ok := s.GetPosition("005930")
	require.True(t, ok)
	assert.Equal(t, 71400.0, pos.CurrentPrice)
	assert.Equal(t, 71400.0, pos.HighestPrice)
	assert.InDelta(t, 2.0, pos.ProfitPercent, 1e-9)
	assert.InDelta(t, 14000.0, pos.Profit, 1e-9)

	// Unknown codes are ignored.
	s.RefreshPrice("999999", 1)
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New()
	s.UpsertPosition(models.Position{Code: "005930", Quantity: 10})

	positions := s.Positions()
	positions[0].Quantity = 0

	pos, _ := s.GetPosition("005930")
	assert.Equal(t, int64(10), pos.Quantity)
}
