package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec runs the sweep at the top of every hour.
const DefaultSweepSpec = "@hourly"

// Sweepable is anything that can drop its expired entries.
type Sweepable interface {
	Sweep() int
}

// Sweeper runs periodic garbage collection over the caches.
type Sweeper struct {
	cron    *cron.Cron
	spec    string
	targets []Sweepable
	logger  *slog.Logger
}

func NewSweeper(loc *time.Location, spec string, logger *slog.Logger, targets ...Sweepable) *Sweeper {
	if loc == nil {
		loc = time.Local
	}
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(loc)),
		spec:    spec,
		targets: targets,
		logger:  logger,
	}
}

// Start schedules the sweep and blocks until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("add cache sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("cache sweeper started", "spec", s.spec, "targets", len(s.targets))

	<-ctx.Done()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cache sweeper stopped")
}

// RunOnce sweeps every target and returns the total number of removals.
func (s *Sweeper) RunOnce() int {
	total := 0
	for _, t := range s.targets {
		total += t.Sweep()
	}
	s.logger.Debug("cache sweep finished", "removed", total)
	return total
}
