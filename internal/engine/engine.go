// Package engine provides the trading orchestrator: the control loops
// that scan candidates, evaluate strategies and dispatch orders against
// tracked positions.
package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"krx-trader/internal/broker"
	"krx-trader/internal/models"
	"krx-trader/internal/store"
	"krx-trader/internal/strategy"
	"krx-trader/internal/stream"
)

// Config holds orchestrator configuration. Intervals and thresholds are
// tunable constants, not fixed behavior.
type Config struct {
	Market                  models.Market
	AllocationPerInstrument float64
	MaxConcurrentPositions  int
	BuyInterval             time.Duration
	SellInterval            time.Duration
}

// Counters are the cumulative trade counters since the last Start.
type Counters struct {
	TotalTrades      int64
	SuccessfulTrades int64
	FailedTrades     int64
	CumulativeProfit float64
	StartedAt        time.Time
}

// Status is the externally visible engine status.
type Status struct {
	Running  bool
	Counters Counters
}

// Engine is the trading orchestrator. It runs two independently
// scheduled cycles, the buy scan and the sell check, sharing the
// position and log store.
type Engine struct {
	cfg     Config
	broker  broker.Broker
	store   *store.Store
	journal *store.Journal  // optional
	session *stream.Session // optional, used to subscribe bought codes
	logger  zerolog.Logger

	mu          sync.Mutex
	running     bool
	counters    Counters
	strategyCfg *strategy.Config
	stop        chan struct{}
	selling     map[string]struct{}

	wg sync.WaitGroup

	// now is a clock hook for tests.
	now func() time.Time
}

// New creates a stopped engine. journal and session may be nil.
func New(cfg Config, b broker.Broker, st *store.Store, journal *store.Journal, session *stream.Session, logger zerolog.Logger) *Engine {
	if cfg.BuyInterval == 0 {
		cfg.BuyInterval = 3 * time.Second
	}
	if cfg.SellInterval == 0 {
		cfg.SellInterval = 2 * time.Second
	}
	if cfg.MaxConcurrentPositions == 0 {
		cfg.MaxConcurrentPositions = 5
	}
	return &Engine{
		cfg:     cfg,
		broker:  b,
		store:   st,
		journal: journal,
		session: session,
		logger:  logger.With().Str("component", "engine").Logger(),
		selling: make(map[string]struct{}),
		now:     time.Now,
	}
}

// Start begins both cycles with the given strategy configuration,
// resetting the cumulative counters and recording the start time.
// Starting while already running is a no-op that does not reset
// counters.
func (e *Engine) Start(cfg *strategy.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}

	e.running = true
	e.counters = Counters{StartedAt: e.now()}
	e.strategyCfg = cfg
	e.stop = make(chan struct{})

	e.wg.Add(2)
	go e.buyLoop(e.stop)
	go e.sellLoop(e.stop)

	e.store.AppendLog(models.LogCategoryInfo, "engine started")
	e.logger.Info().Msg("engine started")
}

// Stop sets the running flag to false; both cycles terminate their own
// scheduling at the top of their next iteration. An order already in
// flight is not cancelled. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	close(e.stop)

	e.store.AppendLog(models.LogCategoryInfo, "engine stopped")
	e.logger.Info().Msg("engine stopped")
}

// Wait blocks until both cycles have terminated after Stop.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Running reports whether the engine is running.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status returns the externally visible engine status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Running: e.running, Counters: e.counters}
}

// SetStrategyConfig swaps the strategy configuration wholesale. The
// running cycles pick it up at their next iteration.
func (e *Engine) SetStrategyConfig(cfg *strategy.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategyCfg = cfg
}

func (e *Engine) strategyConfig() *strategy.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategyCfg
}

// Candidates returns the detected candidates.
func (e *Engine) Candidates() []models.Candidate {
	return e.store.Candidates()
}

// Positions returns the held positions.
func (e *Engine) Positions() []models.Position {
	return e.store.Positions()
}

// ExecutionLog returns the execution log.
func (e *Engine) ExecutionLog() []models.LogEntry {
	return e.store.ExecutionLog()
}

// HandleTick refreshes the tracked price of a held instrument from a
// streaming tick. Registered on the tick hub at wiring time.
func (e *Engine) HandleTick(tick models.Tick) {
	e.store.RefreshPrice(tick.Code, tick.Price)
}

// beginSell marks a sell order in flight for code. It reports false
// when one is already pending, so a position is never sold twice.
func (e *Engine) beginSell(code string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.selling[code]; ok {
		return false
	}
	e.selling[code] = struct{}{}
	return true
}

func (e *Engine) endSell(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.selling, code)
}

func (e *Engine) recordAttempt(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters.TotalTrades++
	if success {
		e.counters.SuccessfulTrades++
	} else {
		e.counters.FailedTrades++
	}
}

func (e *Engine) recordProfit(profit float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters.CumulativeProfit += profit
}
