package systems

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Navigator is the movement service an agent drives. Destinations are
// planned asynchronously: PathPending stays true until the service has
// computed a route.
type Navigator interface {
	SetDestination(dest r3.Vec)
	RemainingDistance() float64
	PathPending() bool
	Velocity() r3.Vec
	Speed() float64
	SetSpeed(speed float64)
	ResetPath()
}

// GridNavigator moves a point along A* paths at constant speed.
// A destination set during one tick is planned at the start of the next Step.
// With a nil planner it walks straight lines.
type GridNavigator struct {
	planner *AStarPlanner

	pos      r3.Vec
	speed    float64
	velocity r3.Vec

	dest    r3.Vec
	pending bool
	path    []r3.Vec
	index   int
}

// NewGridNavigator creates a navigator standing at start.
func NewGridNavigator(planner *AStarPlanner, start r3.Vec) *GridNavigator {
	return &GridNavigator{planner: planner, pos: start}
}

// SetDestination requests a path to dest.
func (n *GridNavigator) SetDestination(dest r3.Vec) {
	n.dest = dest
	n.pending = true
}

// Destination returns the last requested destination.
func (n *GridNavigator) Destination() r3.Vec {
	return n.dest
}

// PathPending reports whether a requested path has not been planned yet.
func (n *GridNavigator) PathPending() bool {
	return n.pending
}

// RemainingDistance is the path length still to walk; 0 with no path.
func (n *GridNavigator) RemainingDistance() float64 {
	var d float64
	prev := n.pos
	for i := n.index; i < len(n.path); i++ {
		d += r3.Norm(r3.Sub(n.path[i], prev))
		prev = n.path[i]
	}
	return d
}

// Velocity returns the displacement rate over the last Step.
func (n *GridNavigator) Velocity() r3.Vec {
	return n.velocity
}

// Speed returns the configured movement speed.
func (n *GridNavigator) Speed() float64 {
	return n.speed
}

// SetSpeed sets the movement speed in units per second.
func (n *GridNavigator) SetSpeed(speed float64) {
	n.speed = max(speed, 0)
}

// ResetPath stops the agent and discards any path or pending request.
func (n *GridNavigator) ResetPath() {
	n.pending = false
	n.path = nil
	n.index = 0
	n.velocity = r3.Vec{}
}

// Position returns the current position.
func (n *GridNavigator) Position() r3.Vec {
	return n.pos
}

// Warp teleports the agent and drops its path.
func (n *GridNavigator) Warp(p r3.Vec) {
	n.pos = p
	n.ResetPath()
}

// Step plans any pending request, then moves up to speed*dt along the path.
// Returns the new position.
func (n *GridNavigator) Step(dt float64) r3.Vec {
	if n.pending {
		n.plan()
	}

	start := n.pos
	budget := n.speed * dt
	for budget > 0 && n.index < len(n.path) {
		to := n.path[n.index]
		seg := r3.Sub(to, n.pos)
		d := r3.Norm(seg)
		if d <= budget {
			n.pos = to
			budget -= d
			n.index++
			continue
		}
		n.pos = r3.Add(n.pos, r3.Scale(budget/d, seg))
		budget = 0
	}
	if n.index >= len(n.path) {
		n.path = nil
		n.index = 0
	}

	if dt > 0 {
		n.velocity = r3.Scale(1/dt, r3.Sub(n.pos, start))
	} else {
		n.velocity = r3.Vec{}
	}
	return n.pos
}

// plan computes the path for the pending destination. An unreachable
// destination leaves the agent with no path.
func (n *GridNavigator) plan() {
	n.pending = false
	n.index = 0
	if n.planner == nil {
		n.path = []r3.Vec{n.dest}
		return
	}
	n.path = n.planner.FindPath(n.pos, n.dest)
}
