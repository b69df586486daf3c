package engine

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"krx-trader/internal/strategy"
)

// Scheduler starts and stops the engine on market-hours cron specs,
// so the orchestrator only trades during the session.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	logger zerolog.Logger
}

// NewScheduler creates a scheduler controlling engine.
func NewScheduler(engine *Engine, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Schedule registers the start and stop cron specs. strategyCfg is
// called at each scheduled start so a freshly persisted configuration
// takes effect.
func (s *Scheduler) Schedule(startSpec, stopSpec string, strategyCfg func() *strategy.Config) error {
	if _, err := s.cron.AddFunc(startSpec, func() {
		s.logger.Info().Msg("scheduled engine start")
		s.engine.Start(strategyCfg())
	}); err != nil {
		return fmt.Errorf("invalid start spec %q: %w", startSpec, err)
	}

	if _, err := s.cron.AddFunc(stopSpec, func() {
		s.logger.Info().Msg("scheduled engine stop")
		s.engine.Stop()
	}); err != nil {
		return fmt.Errorf("invalid stop spec %q: %w", stopSpec, err)
	}

	return nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
