package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/noise"
	"github.com/pthm-cable/echothief/systems"
	"github.com/pthm-cable/echothief/telemetry"
)

// onGuardTransition records a guard state change.
func (g *Game) onGuardTransition(gd *systems.Guard, from, to systems.State) {
	g.collector.RecordTransition(to)
	g.transitions = append(g.transitions, telemetry.NewTransitionRecord(
		g.tick, g.cfg.Sim.DT, gd.Name(), from, to, gd.Position(), gd.LastHeardPosition(),
	))
}

// onNoiseHeard records a noise accepted by a guard's hearing.
func (g *Game) onNoiseHeard(ev noise.Event, perceived r3.Vec) {
	g.collector.RecordHeard(r3.Norm(r3.Sub(perceived, ev.Origin)))
}

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	spawned, evicted := g.pool.Counters()
	snap := telemetry.Snapshot{
		PulsesLive:    g.pool.Count(),
		PulsesSpawned: spawned,
		PulsesEvicted: evicted,
	}
	for _, gd := range g.Guards() {
		snap.GuardStates = append(snap.GuardStates, gd.State())
	}

	stats := g.collector.Flush(g.tick, snap)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
	g.writeTransitions()
}

// writeTransitions appends buffered transitions to the output.
func (g *Game) writeTransitions() {
	if len(g.transitions) == 0 {
		return
	}
	if err := g.outputManager.WriteTransitions(g.transitions); err != nil {
		g.logger.Error("failed to write transitions", "error", err)
	}
	g.transitions = g.transitions[:0]
}

// Transitions returns the transitions recorded since the last window flush.
func (g *Game) Transitions() []telemetry.TransitionRecord {
	return g.transitions
}
