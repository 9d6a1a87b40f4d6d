package systems

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PatrolMode selects how the cursor wraps at the end of a route.
type PatrolMode uint8

const (
	PatrolLoop     PatrolMode = iota // A, B, C, A, B, C, ...
	PatrolPingPong                   // A, B, C, B, A, B, ...
)

func (m PatrolMode) String() string {
	switch m {
	case PatrolLoop:
		return "loop"
	case PatrolPingPong:
		return "pingpong"
	default:
		return fmt.Sprintf("PatrolMode(%d)", uint8(m))
	}
}

// ParsePatrolMode converts a config string to a PatrolMode.
func ParsePatrolMode(s string) (PatrolMode, error) {
	switch s {
	case "", "loop":
		return PatrolLoop, nil
	case "pingpong", "ping_pong":
		return PatrolPingPong, nil
	default:
		return PatrolLoop, fmt.Errorf("unknown patrol mode %q", s)
	}
}

// PatrolRoute is an ordered list of waypoints with a per-waypoint dwell time.
type PatrolRoute struct {
	Waypoints []r3.Vec
	Mode      PatrolMode
	Dwell     float64 // seconds to wait at each waypoint
}

// DefaultArrivalTolerance is the remaining distance below which a waypoint
// counts as reached.
const DefaultArrivalTolerance = 0.5

// Patrol walks an agent around a route: move to the current waypoint, dwell,
// advance the cursor, repeat. The cursor survives interruptions; only Resume
// touches patrol state from outside, and it clears just the waiting flag.
type Patrol struct {
	route     PatrolRoute
	tolerance float64

	index     int
	direction int // +1 or -1, PingPong only
	waiting   bool
	waitTimer float64
}

// NewPatrol creates a patrol starting at the first waypoint.
func NewPatrol(route PatrolRoute, tolerance float64) *Patrol {
	if tolerance <= 0 {
		tolerance = DefaultArrivalTolerance
	}
	return &Patrol{
		route:     route,
		tolerance: tolerance,
		direction: 1,
	}
}

// active reports whether the route has anything to traverse.
func (p *Patrol) active() bool {
	return len(p.route.Waypoints) > 1
}

// Advance runs one tick of patrol. Call every tick while the agent patrols.
func (p *Patrol) Advance(dt float64, nav Navigator) {
	if !p.active() || nav == nil {
		return
	}

	if p.waiting {
		p.waitTimer -= dt
		if p.waitTimer <= 0 {
			p.waiting = false
			p.step()
			p.SetDestination(nav)
		}
		return
	}

	if !nav.PathPending() && nav.RemainingDistance() < p.tolerance {
		p.waiting = true
		p.waitTimer = p.route.Dwell
	}
}

// Resume clears the waiting flag so the agent heads for the current waypoint
// again. The cursor is left where it was.
func (p *Patrol) Resume() {
	p.waiting = false
}

// SetDestination sends the agent to the current waypoint.
func (p *Patrol) SetDestination(nav Navigator) {
	if !p.active() || nav == nil {
		return
	}
	nav.SetDestination(p.route.Waypoints[p.index])
}

// step moves the cursor to the next waypoint.
func (p *Patrol) step() {
	n := len(p.route.Waypoints)
	if n < 2 {
		return
	}

	if p.route.Mode == PatrolPingPong {
		p.index += p.direction
		if p.index >= n-1 {
			p.index = n - 1
			p.direction = -1
		} else if p.index <= 0 {
			p.index = 0
			p.direction = 1
		}
		return
	}
	p.index = (p.index + 1) % n
}

// Index returns the current waypoint index.
func (p *Patrol) Index() int {
	return p.index
}

// Waypoint returns the current waypoint and whether the route is traversable.
func (p *Patrol) Waypoint() (r3.Vec, bool) {
	if !p.active() {
		return r3.Vec{}, false
	}
	return p.route.Waypoints[p.index], true
}

// Waiting reports whether the agent is dwelling at a waypoint.
func (p *Patrol) Waiting() bool {
	return p.waiting
}

// Route returns the patrol route.
func (p *Patrol) Route() PatrolRoute {
	return p.route
}
