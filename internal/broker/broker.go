// Package broker provides brokerage integration interfaces and
// implementations.
package broker

import (
	"context"

	"krx-trader/internal/models"
)

// MarketData defines the request/response market data operations
// consumed from the brokerage.
type MarketData interface {
	// FetchCandidates returns a bounded list of candidate instruments
	// for the market segment, possibly empty.
	FetchCandidates(ctx context.Context, market models.Market) ([]models.Snapshot, error)
	// FetchQuote returns the current snapshot of one instrument.
	FetchQuote(ctx context.Context, code string) (*models.Snapshot, error)
}

// OrderGateway defines order submission against the brokerage. Each
// submission is a single request/response exchange resolving within the
// brokerage's own timeout.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, order *models.Order) (*OrderResult, error)
}

// Broker combines the brokerage-facing operations.
type Broker interface {
	MarketData
	OrderGateway
	Authenticate(ctx context.Context) error
}

// OrderResult represents the result of an order submission.
type OrderResult struct {
	OrderID string
	Filled  bool
	Message string
}
