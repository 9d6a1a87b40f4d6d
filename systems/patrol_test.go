package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	wpA = r3.Vec{X: 0}
	wpB = r3.Vec{X: 10}
	wpC = r3.Vec{X: 20}
)

// visitOrder drives a patrol with instant arrivals and returns the
// destinations issued, starting with the initial one.
func visitOrder(mode PatrolMode, visits int) []r3.Vec {
	nav := &fakeNav{}
	p := NewPatrol(PatrolRoute{Waypoints: []r3.Vec{wpA, wpB, wpC}, Mode: mode, Dwell: 1}, 0.5)
	p.SetDestination(nav)

	for len(nav.Destinations) < visits {
		p.Advance(0.5, nav) // arrive, start waiting
		p.Advance(0.5, nav)
		p.Advance(0.5, nav) // dwell over, next waypoint
	}
	return nav.Destinations[:visits]
}

func TestPatrolVisitOrder(t *testing.T) {
	tests := []struct {
		name string
		mode PatrolMode
		want []r3.Vec
	}{
		{"loop", PatrolLoop, []r3.Vec{wpA, wpB, wpC, wpA, wpB, wpC, wpA}},
		{"pingpong", PatrolPingPong, []r3.Vec{wpA, wpB, wpC, wpB, wpA, wpB, wpC, wpB}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := visitOrder(tt.mode, len(tt.want))
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("visit %d: got %v, want %v (sequence %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestPatrolPingPongTwoWaypoints(t *testing.T) {
	nav := &fakeNav{}
	p := NewPatrol(PatrolRoute{Waypoints: []r3.Vec{wpA, wpB}, Mode: PatrolPingPong}, 0.5)
	p.SetDestination(nav)

	for i := 0; i < 8; i++ {
		p.Advance(0.1, nav)
		p.Advance(0.1, nav)
	}

	for i, d := range nav.Destinations {
		want := wpA
		if i%2 == 1 {
			want = wpB
		}
		if d != want {
			t.Errorf("visit %d: got %v, want %v", i, d, want)
		}
	}
}

func TestPatrolWaitsForArrival(t *testing.T) {
	nav := &fakeNav{Remaining: 5}
	p := NewPatrol(PatrolRoute{Waypoints: []r3.Vec{wpA, wpB}, Dwell: 2}, 0.5)

	p.Advance(0.1, nav)
	if p.Waiting() {
		t.Fatal("should not wait while far from the waypoint")
	}

	nav.Remaining = 0.2
	nav.Pending = true
	p.Advance(0.1, nav)
	if p.Waiting() {
		t.Fatal("should not wait while a path is pending")
	}

	nav.Pending = false
	nav.Remaining = 0.5
	p.Advance(0.1, nav)
	if p.Waiting() {
		t.Fatal("tolerance is exclusive: 0.5 remaining is not arrived")
	}

	nav.Remaining = 0.49
	p.Advance(0.1, nav)
	if !p.Waiting() {
		t.Fatal("should wait after arriving")
	}

	p.Advance(1.5, nav)
	if !p.Waiting() || p.Index() != 0 {
		t.Fatalf("dwell not over: waiting=%v index=%d", p.Waiting(), p.Index())
	}

	p.Advance(0.5, nav)
	if p.Waiting() || p.Index() != 1 {
		t.Errorf("after dwell: waiting=%v index=%d, want false, 1", p.Waiting(), p.Index())
	}
	if d, _ := nav.last(); d != wpB {
		t.Errorf("destination after dwell: got %v, want %v", d, wpB)
	}
}

func TestPatrolResumeKeepsCursor(t *testing.T) {
	nav := &fakeNav{}
	p := NewPatrol(PatrolRoute{Waypoints: []r3.Vec{wpA, wpB, wpC}, Dwell: 0.5}, 0.5)

	// Reach B and start waiting there.
	p.Advance(0.1, nav)
	p.Advance(0.5, nav)
	p.Advance(0.1, nav)
	if p.Index() != 1 || !p.Waiting() {
		t.Fatalf("setup: index=%d waiting=%v", p.Index(), p.Waiting())
	}

	p.Resume()
	if p.Waiting() {
		t.Error("resume should clear waiting")
	}
	if p.Index() != 1 {
		t.Errorf("resume moved the cursor: got %d, want 1", p.Index())
	}

	p.SetDestination(nav)
	if d, _ := nav.last(); d != wpB {
		t.Errorf("resumed destination: got %v, want %v", d, wpB)
	}
}

func TestPatrolDegenerateRoutesAreNoOps(t *testing.T) {
	routes := map[string][]r3.Vec{
		"empty":  nil,
		"single": {wpA},
	}

	for name, wps := range routes {
		t.Run(name, func(t *testing.T) {
			nav := &fakeNav{}
			p := NewPatrol(PatrolRoute{Waypoints: wps, Mode: PatrolPingPong, Dwell: 0.1}, 0)
			p.SetDestination(nav)
			for i := 0; i < 10; i++ {
				p.Advance(0.1, nav)
			}
			p.Resume()

			if len(nav.Destinations) != 0 {
				t.Errorf("navigation calls on %s route: %v", name, nav.Destinations)
			}
			if p.Waiting() {
				t.Error("degenerate route should never wait")
			}
			if _, ok := p.Waypoint(); ok {
				t.Error("degenerate route should report no waypoint")
			}
		})
	}
}

func TestParsePatrolMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PatrolMode
		wantErr bool
	}{
		{"", PatrolLoop, false},
		{"loop", PatrolLoop, false},
		{"pingpong", PatrolPingPong, false},
		{"ping_pong", PatrolPingPong, false},
		{"zigzag", PatrolLoop, true},
	}

	for _, tt := range tests {
		got, err := ParsePatrolMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePatrolMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePatrolMode(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
