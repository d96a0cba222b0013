// Package scheduler runs the background jobs of the process: the idle-lock
// sweep that turns an inactive session into a locked one, and a periodic
// probe that checks the record store still accepts writes.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/session"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Sweeper advances the idle timer
type Sweeper interface {
	Sweep(ctx context.Context) []session.Event
}

// Prober checks the storage backend
type Prober interface {
	Probe(ctx context.Context) error
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithSweepInterval sets how often the idle timer is checked (default 1s)
func WithSweepInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.sweepEvery = d }
}

// WithProbeInterval sets how often the store is probed (default 1h)
func WithProbeInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.probeEvery = d }
}

// WithEvents registers a callback for warning and lock events
func WithEvents(fn func(session.Event)) Option {
	return func(s *Scheduler) { s.onEvent = fn }
}

// Scheduler wraps a gocron scheduler with the sweep and probe jobs
type Scheduler struct {
	sweeper    Sweeper
	prober     Prober
	scheduler  *gocron.Scheduler
	sweepEvery time.Duration
	probeEvery time.Duration
	onEvent    func(session.Event)
}

// NewScheduler creates a scheduler. Either dependency may be nil to skip its job.
func NewScheduler(sweeper Sweeper, prober Prober, opts ...Option) *Scheduler {
	s := &Scheduler{
		sweeper:    sweeper,
		prober:     prober,
		scheduler:  gocron.NewScheduler(time.Local),
		sweepEvery: time.Second,
		probeEvery: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start probes the store once, then schedules both jobs
func (s *Scheduler) Start() error {
	if s.prober != nil {
		s.probe()
		if _, err := s.scheduler.Every(s.probeEvery).WaitForSchedule().Do(s.probe); err != nil {
			logging.Error("Failed to schedule store probe", "error", err)
			return fmt.Errorf("failed to schedule store probe: %w", err)
		}
	}

	if s.sweeper != nil {
		if _, err := s.scheduler.Every(s.sweepEvery).SingletonMode().Do(s.sweep); err != nil {
			logging.Error("Failed to schedule idle sweep", "error", err)
			return fmt.Errorf("failed to schedule idle sweep: %w", err)
		}
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "sweep_every", s.sweepEvery.String(), "probe_every", s.probeEvery.String())
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweep() {
	for _, ev := range s.sweeper.Sweep(context.Background()) {
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}

func (s *Scheduler) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.prober.Probe(ctx); err != nil {
		logging.Warn("Record store probe failed, edits are kept in memory only", "error", err)
		return
	}
	logging.Debug("Record store probe ok", "duration", time.Since(start).String())
}
