// Package components defines ECS components for the simulation.
package components

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/noise"
)

// Kind identifies what an entity is.
type Kind uint8

const (
	KindGuard Kind = iota
	KindPlayer
	KindAmbient
)

func (k Kind) String() string {
	switch k {
	case KindGuard:
		return "guard"
	case KindPlayer:
		return "player"
	case KindAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// Transform is an entity's world position and yaw.
type Transform struct {
	Pos     r3.Vec
	Heading float64 // radians, 0 faces +Z
}

// Agent links an entity to its identity. Behaviour objects (guards,
// navigators) live outside the world, keyed by ID.
type Agent struct {
	ID   uuid.UUID
	Name string
	Kind Kind
}

// AmbientEmitter periodically pings a quiet noise.
type AmbientEmitter struct {
	Profile  noise.Profile
	Interval float64 // mean seconds between pings
	Variance float64 // max deviation from Interval
	Timer    float64 // seconds until the next ping
	Seed     float64 // offset into the jitter noise field
	Emitted  int
}

// Throw is a scheduled thrown-object impact.
type Throw struct {
	At     float64 // seconds since level start
	Target r3.Vec
}

// PlayerScript drives the player along a fixed route.
type PlayerScript struct {
	Route []r3.Vec
	Index int // next waypoint
	Speed float64

	Footstep         noise.Profile
	FootstepInterval float64
	FootstepTimer    float64

	Throw     noise.Profile
	Throws    []Throw // sorted by At
	NextThrow int

	Elapsed float64
	Moving  bool
}

// Done reports whether the player has walked the whole route.
func (p *PlayerScript) Done() bool {
	return p.Index >= len(p.Route)
}
