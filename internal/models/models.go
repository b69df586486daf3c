// Package models provides domain models for the trading engine.
package models

import (
	"time"
)

// Market represents a market segment of the exchange.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Order represents an order to be submitted to the brokerage.
type Order struct {
	Code     string
	Name     string
	Side     OrderSide
	Type     OrderType
	Quantity int64
	Price    float64
	Tag      string
}

// Candle represents OHLCV data for one time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Tick represents one real-time price update delivered over the
// streaming channel.
type Tick struct {
	Code          string
	Price         float64
	ChangePercent float64
	Volume        int64
	Timestamp     time.Time
}

// Snapshot represents the current market state of one instrument.
// History, when present, is ordered oldest to newest and bounded to a
// fixed-size sliding window. Snapshots are read-only to evaluators.
type Snapshot struct {
	Code          string
	Name          string
	Price         float64
	ChangePercent float64
	Volume        int64
	Open          float64
	High          float64
	Low           float64
	PrevVolume    int64
	History       []Candle
	Timestamp     time.Time
}

// Closes returns the close-price series of the snapshot history,
// oldest first.
func (s *Snapshot) Closes() []float64 {
	closes := make([]float64, len(s.History))
	for i, c := range s.History {
		closes[i] = c.Close
	}
	return closes
}
