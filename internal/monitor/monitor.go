package monitor

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"mouldtrack-backend/config"
	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/machine"
)

// Registry is the simulator's view of the machine registry.
type Registry interface {
	List() []machine.Machine
	UpdateCounters(id string, strokeCount int64, cycleTime float64) (machine.Machine, error)
}

// Service periodically advances the counters of running machines to stand in
// for real telemetry. Each tick draws a stroke increment and a fresh cycle
// time per machine; machines not running are left untouched.
type Service struct {
	cfg      *config.Config
	registry Registry
	rng      *rand.Rand
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRand overrides the random source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithClock overrides the service clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the simulator. When no random source is injected, one is
// built from the configured seed, or from the wall clock if the seed is zero.
func NewService(cfg *config.Config, registry Registry, opts ...Option) *Service {
	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Service{
		cfg:      cfg,
		registry: registry,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the simulation loop. It ticks immediately, then on the
// configured interval, and returns once ctx is cancelled with no partial
// tick left behind.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Simulator.Enabled {
		log.Println("Live monitor simulator is disabled. Not starting.")
		return
	}
	log.Printf("Starting live monitor simulator (interval %s)...", s.cfg.Simulator.Interval)

	s.TickOnce()

	timer := time.NewTimer(s.cfg.Simulator.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Live monitor simulator shutting down.")
			return
		case <-timer.C:
			s.TickOnce()
			timer.Reset(s.cfg.Simulator.Interval)
		}
	}
}

// TickOnce advances every running machine by one simulated interval. Updates
// are applied machine by machine; a failure on one machine never blocks the
// rest of the tick.
func (s *Service) TickOnce() {
	for _, m := range s.registry.List() {
		if m.Status != machine.StatusRunning {
			continue
		}

		increment := int64(s.intBetween(s.cfg.Simulator.MinStrokeIncrement, s.cfg.Simulator.MaxStrokeIncrement))
		cycleTime := s.floatBetween(s.cfg.Simulator.MinCycleTime, s.cfg.Simulator.MaxCycleTime)

		if _, err := s.registry.UpdateCounters(m.ID, m.StrokeCount+increment, cycleTime); err != nil {
			// Racing operator actions and misconfigured machines are
			// expected; skip the machine for this tick.
			if errors.Is(err, fault.ErrValidation) || errors.Is(err, fault.ErrNotFound) {
				continue
			}
			log.Printf("simulator: updating counters for machine %s: %v", m.ID, err)
		}
	}
}

// intBetween draws an integer in [min, max].
func (s *Service) intBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// floatBetween draws a float in [min, max).
func (s *Service) floatBetween(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.rng.Float64()*(max-min)
}
