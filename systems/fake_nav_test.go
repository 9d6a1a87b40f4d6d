package systems

import "gonum.org/v1/gonum/spatial/r3"

// fakeNav is a scripted Navigator. Remaining and Pending are returned as-is;
// tests flip them to simulate travel and arrival.
type fakeNav struct {
	Destinations []r3.Vec
	Remaining    float64
	Pending      bool
	Vel          r3.Vec
	speed        float64
	Resets       int
}

func (n *fakeNav) SetDestination(dest r3.Vec) {
	n.Destinations = append(n.Destinations, dest)
}

func (n *fakeNav) RemainingDistance() float64 { return n.Remaining }
func (n *fakeNav) PathPending() bool          { return n.Pending }
func (n *fakeNav) Velocity() r3.Vec           { return n.Vel }
func (n *fakeNav) Speed() float64             { return n.speed }
func (n *fakeNav) SetSpeed(speed float64)     { n.speed = speed }

func (n *fakeNav) ResetPath() {
	n.Resets++
	n.Remaining = 0
	n.Pending = false
	n.Vel = r3.Vec{}
}

// last returns the most recent destination, or false if none was set.
func (n *fakeNav) last() (r3.Vec, bool) {
	if len(n.Destinations) == 0 {
		return r3.Vec{}, false
	}
	return n.Destinations[len(n.Destinations)-1], true
}
