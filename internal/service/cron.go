package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MinuteJob is called once per wall-clock minute with the minute's start
// in the runner's location
type MinuteJob func(ctx context.Context, t time.Time)

// MinuteRunner runs a job at the start of every minute
type MinuteRunner struct {
	job    MinuteJob
	clock  clockwork.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewMinuteRunner creates a minute runner. clock defaults to the real
// clock and loc to the local zone.
func NewMinuteRunner(name string, job MinuteJob, clock clockwork.Clock, loc *time.Location, logger *zap.Logger) *MinuteRunner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &MinuteRunner{
		job:    job,
		clock:  clock,
		loc:    loc,
		logger: logger.Named(name),
	}
}

// Run blocks until ctx ends. A job that overruns skips the minutes it
// missed.
func (r *MinuteRunner) Run(ctx context.Context) error {
	r.logger.Info("started", zap.String("location", r.loc.String()))
	defer r.logger.Info("stopped")

	for {
		now := r.clock.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)

		select {
		case <-ctx.Done():
			return nil
		case <-r.clock.After(next.Sub(now)):
			r.job(ctx, next.In(r.loc))
		}
	}
}
