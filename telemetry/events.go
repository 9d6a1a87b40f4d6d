// Package telemetry provides window statistics, the guard transition log,
// tick timing and CSV output for headless runs.
package telemetry

import (
	"github.com/pthm-cable/echothief/systems"
	"gonum.org/v1/gonum/spatial/r3"
)

// TransitionRecord is one row of transitions.csv.
type TransitionRecord struct {
	Tick       int32   `csv:"tick"`
	SimTimeSec float64 `csv:"sim_time"`
	Guard      string  `csv:"guard"`
	From       string  `csv:"from"`
	To         string  `csv:"to"`

	// Where the guard stood and what it last heard
	X      float64 `csv:"x"`
	Z      float64 `csv:"z"`
	HeardX float64 `csv:"heard_x"`
	HeardZ float64 `csv:"heard_z"`
}

// NewTransitionRecord creates a transition record for a guard state change.
func NewTransitionRecord(tick int32, dt float64, guard string, from, to systems.State, pos, heard r3.Vec) TransitionRecord {
	return TransitionRecord{
		Tick:       tick,
		SimTimeSec: float64(tick) * dt,
		Guard:      guard,
		From:       from.String(),
		To:         to.String(),
		X:          pos.X,
		Z:          pos.Z,
		HeardX:     heard.X,
		HeardZ:     heard.Z,
	}
}
