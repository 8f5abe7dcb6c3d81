// Package scheduler drives the periodic background work: deferred message
// promotion and standup finalization. One Runner, a fixed tick, and an
// injectable clock so tests advance virtual time instead of sleeping.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Clock abstracts time.Now. Production wiring uses System; tests use a
// fake they control.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// TickFunc performs one round of due work as of now. It must be safe to
// call at any time and from any goroutine; the store's own lock is the
// exclusivity discipline.
type TickFunc func(now time.Time)

// Runner calls every registered TickFunc once per interval until its
// context is cancelled. There is no self-rescheduling: a single ticker
// drives everything, so a slow tick delays the next one instead of
// stacking up.
type Runner struct {
	interval time.Duration
	clock    Clock
	ticks    []TickFunc
	logger   *zap.Logger
}

// NewRunner builds a Runner. Interval must be positive; anything works as
// long as due entries are promoted within one tick of their due time.
func NewRunner(interval time.Duration, clock Clock, logger *zap.Logger) *Runner {
	return &Runner{
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Register adds a tick function. Not safe to call after Run has started.
func (r *Runner) Register(f TickFunc) {
	r.ticks = append(r.ticks, f)
}

// Run blocks, ticking until ctx is cancelled. Callers start it on its own
// goroutine.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("scheduler running",
		zap.Duration("interval", r.interval),
		zap.Int("tasks", len(r.ticks)),
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			now := r.clock.Now()
			for _, f := range r.ticks {
				f(now)
			}
		}
	}
}
