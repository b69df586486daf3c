package models

import (
	"time"
)

// Position represents a currently held quantity of one instrument.
// There is exactly one Position per instrument code and Quantity is
// always greater than zero; a fully sold position is removed, never
// retained at zero.
type Position struct {
	Code          string
	Name          string
	Quantity      int64
	AvgCost       float64
	CurrentPrice  float64
	Profit        float64
	ProfitPercent float64
	HighestPrice  float64
	AcquiredAt    time.Time
	Strategy      string
}

// UpdatePrice refreshes the position's derived profit fields from a new
// market price.
func (p *Position) UpdatePrice(price float64) {
	p.CurrentPrice = price
	if price > p.HighestPrice {
		p.HighestPrice = price
	}
	p.Profit = (price - p.AvgCost) * float64(p.Quantity)
	if p.AvgCost > 0 {
		p.ProfitPercent = (price - p.AvgCost) / p.AvgCost * 100
	}
}

// Candidate represents an instrument surfaced by a market scan as
// potentially eligible for purchase.
type Candidate struct {
	Code          string
	Name          string
	Price         float64
	ChangePercent float64
	Volume        int64
	Strategy      string
	DetectedAt    time.Time
}

// LogCategory classifies an execution log entry.
type LogCategory string

const (
	LogCategoryBuy  LogCategory = "buy"
	LogCategorySell LogCategory = "sell"
	LogCategoryInfo LogCategory = "info"
)

// LogEntry is one entry of the append-only execution log.
type LogEntry struct {
	Timestamp time.Time
	Category  LogCategory
	Message   string
}

// TradeRecord represents one completed round-trip trade, written to the
// trade journal when a sell order fills.
type TradeRecord struct {
	ID            int64
	Code          string
	Name          string
	Quantity      int64
	BuyPrice      float64
	SellPrice     float64
	Profit        float64
	ProfitPercent float64
	Strategy      string
	OpenedAt      time.Time
	ClosedAt      time.Time
}
