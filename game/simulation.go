package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/components"
	"github.com/pthm-cable/echothief/systems"
	"github.com/pthm-cable/echothief/telemetry"
)

// simulationStep runs a single tick of the simulation.
func (g *Game) simulationStep() {
	dt := g.cfg.Sim.DT
	g.perfCollector.StartTick()

	// 1. Ambient sources ping
	g.perfCollector.StartPhase(telemetry.PhaseAmbient)
	g.updateAmbient(dt)

	// 2. Player walks, steps and throws
	g.perfCollector.StartPhase(telemetry.PhasePlayer)
	g.updatePlayer(dt)

	// 3. Guards move along their paths
	g.perfCollector.StartPhase(telemetry.PhaseNavigation)
	g.updateNavigation(dt)

	// 4. Guards decide
	g.perfCollector.StartPhase(telemetry.PhaseGuards)
	g.updateGuards(dt)

	// 5. Sonar rings age and are published
	g.perfCollector.StartPhase(telemetry.PhasePulses)
	g.pool.Tick(dt)
	if g.renderer != nil {
		g.pool.Publish(g.renderer, g.renderBuf)
	}

	g.tick++

	// 6. Window stats
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateAmbient advances every ambient source.
func (g *Game) updateAmbient(dt float64) {
	query := g.ambientFilter.Query()
	for query.Next() {
		t, agent, em := query.Get()
		systems.UpdateAmbient(dt, t.Pos, agent.ID, em, g.bus, g.jitter)
	}
}

// updateNavigation steps every guard's navigator and syncs its transform and
// listening position before any guard decides.
func (g *Game) updateNavigation(dt float64) {
	query := g.agentFilter.Query()
	for query.Next() {
		t, agent := query.Get()
		if agent.Kind != components.KindGuard {
			continue
		}
		if nav, ok := g.navs[agent.ID]; ok {
			t.Pos = nav.Step(dt)
		}
		if guard, ok := g.guards[agent.ID]; ok {
			guard.SetPosition(t.Pos)
		}
	}
}

// updateGuards runs every guard's state machine against the live player.
func (g *Game) updateGuards(dt float64) {
	var player *r3.Vec
	if g.hasPlayer {
		p := g.playerPos
		player = &p
	}

	query := g.agentFilter.Query()
	for query.Next() {
		t, agent := query.Get()
		if agent.Kind != components.KindGuard {
			continue
		}
		guard, ok := g.guards[agent.ID]
		if !ok {
			continue
		}
		guard.Update(dt, t.Pos, player)
		t.Heading = guard.Facing()
	}
}
