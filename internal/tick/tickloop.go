// Package tick drives the server's single cooperative tick scheduler at
// 20 Hz (spec.md §4.2), generalized from internal/ai/manager.go's
// TickManager — a context-cancelable time.Ticker loop with Start/Stop —
// into a fixed eight-phase tick rather than one flat per-NPC sweep.
package tick

import (
	"context"
	"log/slog"
	"time"
)

// Period is the fixed tick period (spec.md §4.2: "20 Hz (50 ms
// period)").
const Period = 50 * time.Millisecond

// Phases are invoked in this fixed order every tick (spec.md §4.2).
// Each hook is optional; a nil hook is simply skipped, so callers can
// assemble a TickLoop before every subsystem it eventually drives has
// been wired in.
type Phases struct {
	// DrainTransport processes queued connect/disconnect/packet events
	// accumulated since the previous tick (step 1).
	DrainTransport func(ctx context.Context)

	// WorldTick runs mob AI, pathfinding, projectile kinematics,
	// scheduled and random block ticks, fluid spread, redstone, and
	// gravity blocks (step 2).
	WorldTick func(tickNum int64)

	// ProcessGameEvents turns the events WorldTick produced into
	// broadcast packets (step 3).
	ProcessGameEvents func()

	// TickEffects decrements remaining status-effect durations and
	// emits remove-packets on expiry (step 4).
	TickEffects func()

	// TickSurvival advances food/saturation/exhaustion, regen,
	// starvation, air/drowning, fire and fall damage (step 5).
	TickSurvival func()

	// TickWeather advances world time and rain/lightning/weather state
	// (step 6).
	TickWeather func()

	// RunPluginSchedulerAndTick runs due delayed/repeating plugin
	// tasks, pulses the plugin Tick hook, then applies every action the
	// plugin bridge queued this tick (step 7).
	RunPluginSchedulerAndTick func()

	// MaybeSave is invoked every tick; the hook itself is responsible
	// for checking its own save counter and flushing when due (step 8).
	MaybeSave func(tickNum int64)
}

// Loop runs the fixed-order tick exactly as spec.md §4.2 describes it.
// All mutation driven by a Loop happens on the single goroutine that
// calls Run; network I/O is expected to live on a separate task that
// only ever hands events to DrainTransport through a bounded channel
// (spec.md §4.2, §5).
type Loop struct {
	phases  Phases
	ticker  *time.Ticker
	stopCh  chan struct{}
	tickNum int64
}

// NewLoop builds a tick loop with the given phase hooks.
func NewLoop(phases Phases) *Loop {
	return &Loop{phases: phases, stopCh: make(chan struct{})}
}

// TickNum returns the number of ticks run so far.
func (l *Loop) TickNum() int64 { return l.tickNum }

// Run blocks, executing one fixed-order tick every Period, until ctx is
// canceled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.ticker = time.NewTicker(Period)
	defer l.ticker.Stop()

	slog.Info("tick loop started", "period", Period)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick loop stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-l.stopCh:
			slog.Info("tick loop stopped")
			return nil
		case <-l.ticker.C:
			l.runOnce(ctx)
		}
	}
}

// Stop requests the loop to exit after its current tick.
func (l *Loop) Stop() {
	close(l.stopCh)
}

// RunOnce executes exactly one tick's phases in order; exported so
// tests can drive deterministic ticks without waiting on the ticker.
func (l *Loop) RunOnce(ctx context.Context) {
	l.runOnce(ctx)
}

func (l *Loop) runOnce(ctx context.Context) {
	l.tickNum++

	if l.phases.DrainTransport != nil {
		l.phases.DrainTransport(ctx)
	}
	if l.phases.WorldTick != nil {
		l.phases.WorldTick(l.tickNum)
	}
	if l.phases.ProcessGameEvents != nil {
		l.phases.ProcessGameEvents()
	}
	if l.phases.TickEffects != nil {
		l.phases.TickEffects()
	}
	if l.phases.TickSurvival != nil {
		l.phases.TickSurvival()
	}
	if l.phases.TickWeather != nil {
		l.phases.TickWeather()
	}
	if l.phases.RunPluginSchedulerAndTick != nil {
		l.phases.RunPluginSchedulerAndTick()
	}
	if l.phases.MaybeSave != nil {
		l.phases.MaybeSave(l.tickNum)
	}
}

// SaveCounter tracks ticks since the last flush and reports when a
// flush is due (spec.md §4.2 step 8: "if save_counter >= configured
// save interval").
type SaveCounter struct {
	Interval int64
	elapsed  int64
}

// Due increments the counter and reports whether a flush should run
// now, resetting the counter when it does.
func (s *SaveCounter) Due() bool {
	s.elapsed++
	if s.elapsed < s.Interval {
		return false
	}
	s.elapsed = 0
	return true
}
