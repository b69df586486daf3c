package broker

import (
	"context"
	"sync"
	"time"

	"krx-trader/internal/models"
)

// PaperBroker implements Broker against an in-memory quote board. Every
// order fills immediately at the quoted price. Used for paper trading
// mode and in tests.
type PaperBroker struct {
	mu         sync.RWMutex
	quotes     map[string]models.Snapshot
	candidates []models.Snapshot
	rejectMsg  map[string]string
	orders     []models.Order
}

// NewPaperBroker creates an empty paper broker.
func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		quotes:    make(map[string]models.Snapshot),
		rejectMsg: make(map[string]string),
	}
}

// Authenticate always succeeds.
func (p *PaperBroker) Authenticate(ctx context.Context) error {
	return nil
}

// SetQuote seeds or updates the quote board for one instrument.
func (p *PaperBroker) SetQuote(snap models.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[snap.Code] = snap
}

// SetCandidates seeds the candidate list returned by FetchCandidates.
func (p *PaperBroker) SetCandidates(snaps []models.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates = append([]models.Snapshot(nil), snaps...)
}

// RejectOrders makes subsequent orders for code come back unfilled with
// the given message.
func (p *PaperBroker) RejectOrders(code, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectMsg[code] = message
}

// Orders returns a copy of every order submitted so far.
func (p *PaperBroker) Orders() []models.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.Order(nil), p.orders...)
}

// FetchCandidates returns the seeded candidate list.
func (p *PaperBroker) FetchCandidates(ctx context.Context, market models.Market) ([]models.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.Snapshot(nil), p.candidates...), nil
}

// FetchQuote returns the seeded quote for code.
func (p *PaperBroker) FetchQuote(ctx context.Context, code string) (*models.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap, ok := p.quotes[code]
	if !ok {
		snap = models.Snapshot{Code: code, Timestamp: time.Now()}
	}
	return &snap, nil
}

// SubmitOrder records the order and fills it at the quoted price unless
// a rejection was configured for the code.
func (p *PaperBroker) SubmitOrder(ctx context.Context, order *models.Order) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orders = append(p.orders, *order)

	if msg, ok := p.rejectMsg[order.Code]; ok {
		return &OrderResult{Filled: false, Message: msg}, nil
	}
	return &OrderResult{
		OrderID: time.Now().Format("20060102150405.000"),
		Filled:  true,
		Message: "filled",
	}, nil
}

var _ Broker = (*PaperBroker)(nil)
