package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"futureswatch/internal/session"
)

// TickFunc is invoked on every poll. open reports the session clock's answer for now.
type TickFunc func(ctx context.Context, now time.Time, open bool) error

// Options tune scheduler behaviour.
type Options struct {
	FastInterval      time.Duration
	SlowInterval      time.Duration
	OnlyDuringSession bool
	StartupDelay      time.Duration
	// Clock decides whether the market is open. Nil means always open.
	Clock session.Clock
	Now   func() time.Time
}

// Scheduler drives session-aware polling.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.FastInterval <= 0 || opts.SlowInterval <= 0 {
		panic("scheduler intervals must be positive")
	}
	if opts.Clock == nil {
		opts.Clock = session.Always(true)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Plan reports whether a tick should run at now and how long to wait afterwards.
func (s *Scheduler) Plan(now time.Time) (run bool, wait time.Duration) {
	open := s.opts.Clock.IsOpen(now)
	if open {
		return true, s.opts.FastInterval
	}
	return !s.opts.OnlyDuringSession, s.opts.SlowInterval
}

// Run blocks, polling immediately and then at the planned interval until ctx is cancelled.
// Tick errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	for {
		now := s.opts.Now()
		run, wait := s.Plan(now)
		if run {
			started := time.Now()
			if err := tick(ctx, now, s.opts.Clock.IsOpen(now)); err != nil {
				s.logger.Error().Err(err).Time("at", now).Msg("tick execution failed")
			}
			s.logger.Debug().Dur("elapsed", time.Since(started)).Dur("next_in", wait).Msg("tick done")
		} else {
			s.logger.Debug().Time("at", now).Dur("recheck_in", wait).Msg("market closed, polling suspended")
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
