// Package noise provides the noise event type and the publish/subscribe bus
// that carries events from producers to the sonar pool and guard hearing.
package noise

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Color is a linear RGBA tint for a sonar ring.
type Color struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
	A float32 `yaml:"a"`
}

// Transparent is the zero color used for unused render slots.
var Transparent = Color{}

// Event is a single occurrence of sound. It is passed by value and never
// mutated after construction.
//
// Loudness scales a listener's hearing range; SonarRadius only bounds the
// visual ring. The two are independent.
type Event struct {
	Origin      r3.Vec
	Loudness    float64
	SonarRadius float64
	SonarColor  Color
	Source      uuid.UUID // uuid.Nil when the emitter is anonymous
}

// Anonymous reports whether the event has no source identity.
func (e Event) Anonymous() bool {
	return e.Source == uuid.Nil
}

// Profile is a reusable loudness/radius/color preset for one kind of noise
// (footstep, impact, ambient ping).
type Profile struct {
	Loudness float64 `yaml:"loudness"`
	Radius   float64 `yaml:"radius"`
	Color    Color   `yaml:"color"`
}

// At builds an event for this profile at origin.
func (p Profile) At(origin r3.Vec, source uuid.UUID) Event {
	return Event{
		Origin:      origin,
		Loudness:    p.Loudness,
		SonarRadius: p.Radius,
		SonarColor:  p.Color,
		Source:      source,
	}
}
