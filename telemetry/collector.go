package telemetry

import (
	"github.com/pthm-cable/echothief/systems"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	noisesEmitted  int
	noisesHeard    int
	perceptionErrs []float64
	toPatrol       int
	toSuspicious   int
	toAlerted      int
	toChasing      int
	catches        int

	// Pool counters are cumulative; remember where the last window ended
	lastSpawned int
	lastEvicted int
}

// NewCollector creates a new stats collector.
// ticksPerWindow: window length in ticks (config Derived.TicksPerWindow), at least 1
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(ticksPerWindow int, dt float64) *Collector {
	return &Collector{
		windowDurationTicks: int32(max(1, ticksPerWindow)),
		dt:                  dt,
	}
}

// RecordNoise records a noise published on the bus.
func (c *Collector) RecordNoise() {
	c.noisesEmitted++
}

// RecordHeard records a noise accepted by a guard's hearing, with the
// distance between the perceived and true origins.
func (c *Collector) RecordHeard(perceptionErr float64) {
	c.noisesHeard++
	c.perceptionErrs = append(c.perceptionErrs, perceptionErr)
}

// RecordTransition records a guard state change by target state.
func (c *Collector) RecordTransition(to systems.State) {
	switch to {
	case systems.StatePatrol:
		c.toPatrol++
	case systems.StateSuspicious:
		c.toSuspicious++
	case systems.StateAlerted:
		c.toAlerted++
	case systems.StateChasing:
		c.toChasing++
	}
}

// RecordCatch records a player-caught notification.
func (c *Collector) RecordCatch() {
	c.catches++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Snapshot is the end-of-window world state the caller samples for Flush.
type Snapshot struct {
	PulsesLive    int
	PulsesSpawned int // cumulative, from PulsePool.Counters
	PulsesEvicted int // cumulative, from PulsePool.Counters
	GuardStates   []systems.State
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, snap Snapshot) WindowStats {
	errMean, errP50, errP90 := ComputeDistStats(c.perceptionErrs)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		NoisesEmitted: c.noisesEmitted,
		NoisesHeard:   c.noisesHeard,

		PerceptionErrMean: errMean,
		PerceptionErrP50:  errP50,
		PerceptionErrP90:  errP90,

		PulsesLive:    snap.PulsesLive,
		PulsesSpawned: snap.PulsesSpawned - c.lastSpawned,
		PulsesEvicted: snap.PulsesEvicted - c.lastEvicted,

		ToPatrol:     c.toPatrol,
		ToSuspicious: c.toSuspicious,
		ToAlerted:    c.toAlerted,
		ToChasing:    c.toChasing,
		Catches:      c.catches,
	}

	var alertSum float64
	for _, s := range snap.GuardStates {
		switch s {
		case systems.StatePatrol:
			stats.GuardsPatrol++
		case systems.StateSuspicious:
			stats.GuardsSuspicious++
		case systems.StateAlerted:
			stats.GuardsAlerted++
		case systems.StateChasing:
			stats.GuardsChasing++
		}
		alertSum += float64(s) / float64(systems.StateChasing)
	}
	if n := len(snap.GuardStates); n > 0 {
		stats.MeanAlertLevel = alertSum / float64(n)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.lastSpawned = snap.PulsesSpawned
	c.lastEvicted = snap.PulsesEvicted
	c.noisesEmitted = 0
	c.noisesHeard = 0
	c.perceptionErrs = c.perceptionErrs[:0]
	c.toPatrol = 0
	c.toSuspicious = 0
	c.toAlerted = 0
	c.toChasing = 0
	c.catches = 0

	return stats
}

// Reset clears all counters and restarts windows at tick 0.
func (c *Collector) Reset() {
	*c = Collector{
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		perceptionErrs:      c.perceptionErrs[:0],
	}
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
