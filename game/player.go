package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/components"
)

// playerArrival is how close the player gets to a route point before moving on.
const playerArrival = 0.3

// updatePlayer drives the scripted player: scheduled throws, movement along
// the route, and footsteps while moving. Walking off the end of the route
// completes the level.
func (g *Game) updatePlayer(dt float64) {
	if !g.hasPlayer {
		return
	}

	query := g.playerFilter.Query()
	for query.Next() {
		t, agent, ps := query.Get()
		ps.Elapsed += dt

		for ps.NextThrow < len(ps.Throws) && ps.Throws[ps.NextThrow].At <= ps.Elapsed {
			g.bus.Emit(ps.Throw.At(ps.Throws[ps.NextThrow].Target, agent.ID))
			ps.NextThrow++
		}

		g.movePlayer(dt, t, ps)
		g.playerPos = t.Pos

		if ps.Moving {
			ps.FootstepTimer -= dt
			if ps.FootstepTimer <= 0 {
				ps.FootstepTimer = ps.FootstepInterval
				g.bus.Emit(ps.Footstep.At(t.Pos, agent.ID))
			}
		}
	}

	if g.playerDone() {
		g.session.Complete()
	}
}

func (g *Game) movePlayer(dt float64, t *components.Transform, ps *components.PlayerScript) {
	nav := g.playerNav
	if ps.Done() || nav == nil {
		ps.Moving = false
		return
	}

	t.Pos = nav.Step(dt)
	v := nav.Velocity()
	ps.Moving = r3.Norm(v) > g.cfg.Guard.FootstepMinSpeed
	if ps.Moving {
		t.Heading = math.Atan2(v.X, v.Z)
	}

	if nav.PathPending() || nav.RemainingDistance() >= playerArrival {
		return
	}
	ps.Index++
	if !ps.Done() {
		nav.SetDestination(ps.Route[ps.Index])
	}
}

// playerDone reports whether the player has finished its route.
func (g *Game) playerDone() bool {
	done := false
	query := g.playerFilter.Query()
	for query.Next() {
		_, _, ps := query.Get()
		done = ps.Done()
	}
	return done
}
