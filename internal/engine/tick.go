package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// Tick cadence. One tick is one sim-hour.
const (
	TicksPerSimDay  = 24
	TicksPerSimWeek = 168
	TicksPerSimYear = 8760
)

// Scheduler drives the diplomatic simulation forward on a tick clock.
type Scheduler struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)
	Running  bool

	// Callbacks for each cadence layer — populated during setup.
	OnTick func(tick uint64) // Every tick (sim-hour)
	OnDay  func(tick uint64) // Every 24 ticks
	OnWeek func(tick uint64) // Every 168 ticks
	OnYear func(tick uint64) // Every 8760 ticks
}

// NewScheduler creates a scheduler with default settings.
func NewScheduler() *Scheduler {
	return &Scheduler{
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Run starts the loop. Blocks until Stop() is called.
func (e *Scheduler) Run() {
	e.Running = true
	slog.Info("scheduler started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("scheduler stopped", "tick", e.Tick)
}

// Stop halts the loop.
func (e *Scheduler) Stop() {
	e.Running = false
}

// step advances the simulation by one tick.
func (e *Scheduler) step() {
	e.Tick++

	// Every tick: relationship sampling and metric evolution.
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	// Every sim-day: trait refresh from accumulated metrics.
	if e.Tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}

	// Every sim-week: drift cycles and event persistence.
	if e.Tick%TicksPerSimWeek == 0 && e.OnWeek != nil {
		e.OnWeek(e.Tick)
	}

	// Every sim-year: annual summaries.
	if e.Tick%TicksPerSimYear == 0 && e.OnYear != nil {
		e.OnYear(e.Tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	hours := tick % 24
	totalDays := tick / 24
	days := totalDays%365 + 1
	years := totalDays/365 + 1

	return fmt.Sprintf("Year %d, Day %d, %02d:00", years, days, hours)
}

// YearsElapsed converts a tick span to fractional sim-years for drift windows.
func YearsElapsed(fromTick, toTick uint64) float64 {
	if toTick <= fromTick {
		return 0
	}
	return float64(toTick-fromTick) / TicksPerSimYear
}
