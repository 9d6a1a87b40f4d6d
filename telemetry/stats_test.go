package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/echothief/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistStats(t *testing.T) {
	mean, p50, p90 := ComputeDistStats([]float64{3, 0, 1, 2})
	if mean != 1.5 {
		t.Errorf("mean = %v, want 1.5", mean)
	}
	if p50 != 1.5 {
		t.Errorf("p50 = %v, want 1.5", p50)
	}
	if math.Abs(p90-2.7) > 0.001 {
		t.Errorf("p90 = %v, want 2.7", p90)
	}

	if m, a, b := ComputeDistStats(nil); m != 0 || a != 0 || b != 0 {
		t.Error("empty input should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("ticks per window: got %d, want 10", c.WindowDurationTicks())
	}
	if got := NewCollector(0, 0.1).WindowDurationTicks(); got != 1 {
		t.Errorf("non-positive window: got %d ticks, want 1", got)
	}

	for i := 0; i < 4; i++ {
		c.RecordNoise()
	}
	c.RecordHeard(0)
	c.RecordHeard(2)
	c.RecordTransition(systems.StateSuspicious)
	c.RecordTransition(systems.StateAlerted)
	c.RecordTransition(systems.StateChasing)
	c.RecordCatch()

	if c.ShouldFlush(9) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at the window end")
	}

	s := c.Flush(10, Snapshot{
		PulsesLive:    3,
		PulsesSpawned: 7,
		PulsesEvicted: 1,
		GuardStates:   []systems.State{systems.StatePatrol, systems.StateChasing},
	})

	if s.NoisesEmitted != 4 || s.NoisesHeard != 2 {
		t.Errorf("noises: got %d/%d, want 4/2", s.NoisesEmitted, s.NoisesHeard)
	}
	if s.PerceptionErrMean != 1 {
		t.Errorf("perception err mean: got %v, want 1", s.PerceptionErrMean)
	}
	if s.ToSuspicious != 1 || s.ToAlerted != 1 || s.ToChasing != 1 || s.ToPatrol != 0 {
		t.Errorf("transitions: got %+v", s)
	}
	if s.Catches != 1 {
		t.Errorf("catches: got %d, want 1", s.Catches)
	}
	if s.GuardsPatrol != 1 || s.GuardsChasing != 1 {
		t.Errorf("guard states: patrol=%d chasing=%d", s.GuardsPatrol, s.GuardsChasing)
	}
	if s.MeanAlertLevel != 0.5 {
		t.Errorf("mean alert level: got %v, want 0.5", s.MeanAlertLevel)
	}
	if math.Abs(s.SimTimeSec-1) > 1e-9 {
		t.Errorf("sim time: got %v, want 1", s.SimTimeSec)
	}

	// Second window: counters reset, pool counters become deltas
	s = c.Flush(20, Snapshot{PulsesSpawned: 12, PulsesEvicted: 1})
	if s.NoisesEmitted != 0 || s.Catches != 0 || s.NoisesHeard != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
	if s.PulsesSpawned != 5 || s.PulsesEvicted != 0 {
		t.Errorf("pool deltas: spawned=%d evicted=%d, want 5/0", s.PulsesSpawned, s.PulsesEvicted)
	}
	if s.WindowStartTick != 10 {
		t.Errorf("window start: got %d, want 10", s.WindowStartTick)
	}
	if s.MeanAlertLevel != 0 {
		t.Errorf("no guards should give zero alert level, got %v", s.MeanAlertLevel)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(10, 0.1)
	c.RecordNoise()
	c.Flush(10, Snapshot{PulsesSpawned: 4})
	c.RecordCatch()

	c.Reset()
	if c.ShouldFlush(9) {
		t.Error("window should restart at tick 0")
	}
	s := c.Flush(10, Snapshot{PulsesSpawned: 2})
	if s.Catches != 0 || s.PulsesSpawned != 2 {
		t.Errorf("after reset: catches=%d spawned=%d, want 0/2", s.Catches, s.PulsesSpawned)
	}
}
