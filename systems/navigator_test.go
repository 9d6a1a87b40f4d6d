package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestGridNavigatorPendingUntilStep(t *testing.T) {
	nav := NewGridNavigator(nil, r3.Vec{})
	nav.SetSpeed(2)
	nav.SetDestination(r3.Vec{X: 4})

	if !nav.PathPending() {
		t.Fatal("path should be pending before the first step")
	}
	if nav.RemainingDistance() != 0 {
		t.Errorf("remaining before planning: got %f, want 0", nav.RemainingDistance())
	}

	pos := nav.Step(0.5)
	if nav.PathPending() {
		t.Error("path should be planned after a step")
	}
	if pos.X != 1 {
		t.Errorf("position after 0.5s at speed 2: got %v, want X=1", pos)
	}
	if got := nav.RemainingDistance(); got != 3 {
		t.Errorf("remaining: got %f, want 3", got)
	}
	if v := nav.Velocity(); v.X != 2 {
		t.Errorf("velocity: got %v, want X=2", v)
	}
}

func TestGridNavigatorArrivesAndStops(t *testing.T) {
	nav := NewGridNavigator(nil, r3.Vec{})
	nav.SetSpeed(10)
	nav.SetDestination(r3.Vec{Z: 3})

	nav.Step(1)
	if got := nav.Position(); got != (r3.Vec{Z: 3}) {
		t.Errorf("position: got %v, want Z=3", got)
	}
	if nav.RemainingDistance() != 0 {
		t.Errorf("remaining after arrival: got %f", nav.RemainingDistance())
	}

	nav.Step(1)
	if r3.Norm(nav.Velocity()) != 0 {
		t.Errorf("velocity after arrival: got %v, want 0", nav.Velocity())
	}
}

func TestGridNavigatorResetPath(t *testing.T) {
	nav := NewGridNavigator(nil, r3.Vec{})
	nav.SetSpeed(1)
	nav.SetDestination(r3.Vec{X: 10})
	nav.Step(1)

	nav.ResetPath()
	if nav.PathPending() || nav.RemainingDistance() != 0 || r3.Norm(nav.Velocity()) != 0 {
		t.Error("reset should clear path, pending flag and velocity")
	}

	before := nav.Position()
	nav.Step(1)
	if nav.Position() != before {
		t.Errorf("agent moved without a path: %v -> %v", before, nav.Position())
	}
}

func TestGridNavigatorFollowsPlannedPath(t *testing.T) {
	rows := []string{
		".....",
		".###.",
		".....",
	}
	planner := NewAStarPlanner(NewNavGridFromRows(rows, 1))
	nav := NewGridNavigator(planner, r3.Vec{X: 2.5, Z: 0.5})
	nav.SetSpeed(1)
	goal := r3.Vec{X: 2.5, Z: 2.5}
	nav.SetDestination(goal)

	for i := 0; i < 200 && (nav.PathPending() || nav.RemainingDistance() > 0); i++ {
		nav.Step(0.1)
	}
	if d := r3.Norm(r3.Sub(nav.Position(), goal)); d > 1e-9 {
		t.Errorf("did not reach goal: at %v (%.3f away)", nav.Position(), d)
	}
}

func TestNavGridBounds(t *testing.T) {
	grid := NewNavGridFromRows([]string{"..", "#"}, 2)
	w, h := grid.Size()
	if w != 2 || h != 2 {
		t.Fatalf("size: got %dx%d, want 2x2", w, h)
	}

	tests := []struct {
		p       r3.Vec
		blocked bool
	}{
		{r3.Vec{X: 1, Z: 1}, false},
		{r3.Vec{X: 1, Z: 3}, true},  // wall
		{r3.Vec{X: 3, Z: 3}, false}, // padded
		{r3.Vec{X: -0.1, Z: 1}, true},
		{r3.Vec{X: 4.5, Z: 1}, true},
	}
	for _, tt := range tests {
		if got := grid.IsBlockedWorld(tt.p); got != tt.blocked {
			t.Errorf("IsBlockedWorld(%v): got %v, want %v", tt.p, got, tt.blocked)
		}
	}

	c := grid.GridToWorld(1, 0, 0.5)
	if math.Abs(c.X-3) > 1e-12 || math.Abs(c.Z-1) > 1e-12 || c.Y != 0.5 {
		t.Errorf("GridToWorld: got %v", c)
	}
}
