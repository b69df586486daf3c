// Package store provides the in-process record of held positions,
// detected candidates and the execution log, plus the SQLite-backed
// trade journal.
package store

import (
	"sync"
	"time"

	"krx-trader/internal/models"
)

const (
	// MaxCandidates bounds the detected-candidate set.
	MaxCandidates = 100
	// MaxLogEntries bounds the execution log. Eviction is FIFO: the
	// oldest entry goes first.
	MaxLogEntries = 100
)

// Store holds positions, candidates and the execution log. Mutations
// are serialized per collection; reads return copies and may run
// concurrently with writes.
type Store struct {
	posMu     sync.RWMutex
	positions map[string]*models.Position
	posOrder  []string

	candMu     sync.RWMutex
	candidates []models.Candidate

	logMu sync.RWMutex
	log   []models.LogEntry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		positions: make(map[string]*models.Position),
	}
}

// UpsertPosition creates or replaces the position for its code.
func (s *Store) UpsertPosition(pos models.Position) {
	s.posMu.Lock()
	defer s.posMu.Unlock()
	if _, ok := s.positions[pos.Code]; !ok {
		s.posOrder = append(s.posOrder, pos.Code)
	}
	p := pos
	s.positions[pos.Code] = &p
}

// RemovePosition deletes the position for code. Removing an absent code
// is a no-op.
func (s *Store) RemovePosition(code string) {
	s.posMu.Lock()
	defer s.posMu.Unlock()
	if _, ok := s.positions[code]; !ok {
		return
	}
	delete(s.positions, code)
	for i, c := range s.posOrder {
		if c == code {
			s.posOrder = append(s.posOrder[:i], s.posOrder[i+1:]...)
			break
		}
	}
}

// GetPosition returns a copy of the position for code.
func (s *Store) GetPosition(code string) (models.Position, bool) {
	s.posMu.RLock()
	defer s.posMu.RUnlock()
	p, ok := s.positions[code]
	if !ok {
		return models.Position{}, false
	}
	return *p, true
}

// Positions returns copies of all held positions in insertion order.
func (s *Store) Positions() []models.Position {
	s.posMu.RLock()
	defer s.posMu.RUnlock()
	out := make([]models.Position, 0, len(s.posOrder))
	for _, code := range s.posOrder {
		if p, ok := s.positions[code]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// PositionCount returns the number of held positions.
func (s *Store) PositionCount() int {
	s.posMu.RLock()
	defer s.posMu.RUnlock()
	return len(s.positions)
}

// RefreshPrice updates the derived profit fields of the position for
// code from a new market price. Absent codes are ignored.
func (s *Store) RefreshPrice(code string, price float64) {
	s.posMu.Lock()
	defer s.posMu.Unlock()
	if p, ok := s.positions[code]; ok {
		p.UpdatePrice(price)
	}
}

// AddCandidate records a detected candidate, deduplicating by code:
// the newest entry replaces any existing one for the same code. The set
// never exceeds MaxCandidates; the oldest entry is evicted to make
// room.
func (s *Store) AddCandidate(c models.Candidate) {
	s.candMu.Lock()
	defer s.candMu.Unlock()
	for i := range s.candidates {
		if s.candidates[i].Code == c.Code {
			s.candidates = append(s.candidates[:i], s.candidates[i+1:]...)
			break
		}
	}
	s.candidates = append(s.candidates, c)
	if len(s.candidates) > MaxCandidates {
		s.candidates = s.candidates[len(s.candidates)-MaxCandidates:]
	}
}

// Candidates returns a copy of the detected candidates, oldest first.
func (s *Store) Candidates() []models.Candidate {
	s.candMu.RLock()
	defer s.candMu.RUnlock()
	out := make([]models.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// AppendLog appends an execution log entry, evicting the oldest entry
// once the log holds MaxLogEntries.
func (s *Store) AppendLog(category models.LogCategory, message string) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.log = append(s.log, models.LogEntry{
		Timestamp: time.Now(),
		Category:  category,
		Message:   message,
	})
	if len(s.log) > MaxLogEntries {
		s.log = s.log[len(s.log)-MaxLogEntries:]
	}
}

// ExecutionLog returns a copy of the execution log, oldest first.
func (s *Store) ExecutionLog() []models.LogEntry {
	s.logMu.RLock()
	defer s.logMu.RUnlock()
	out := make([]models.LogEntry, len(s.log))
	copy(out, s.log)
	return out
}
