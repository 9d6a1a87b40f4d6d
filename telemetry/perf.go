package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies a timed section of the simulation step.
type Phase int

// Phases in tick order.
const (
	PhaseAmbient Phase = iota
	PhasePlayer
	PhaseNavigation
	PhaseGuards
	PhasePulses
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{"ambient", "player", "navigation", "guards", "pulses", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// noPhase marks that no phase is open.
const noPhase Phase = -1

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	Tick   time.Duration
	Phases [numPhases]time.Duration
}

// PerfCollector keeps the last windowSize tick samples in a ring.
type PerfCollector struct {
	samples []PerfSample
	next    int
	filled  int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase

	now func() time.Time
}

// NewPerfCollector creates a collector over the last windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		phase:   noPhase,
		now:     time.Now,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = PerfSample{}
	p.phase = noPhase
}

// StartPhase closes the open phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 && p.phase < numPhases {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = noPhase
}

// EndTick closes the open phase and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.current.Tick = now.Sub(p.tickStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// PerfStats summarizes the samples in the window.
type PerfStats struct {
	AvgTick time.Duration
	P50Tick time.Duration
	P90Tick time.Duration
	MaxTick time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick, 0-100

	TicksPerSecond float64
	Samples        int
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{Samples: p.filled}
	if p.filled == 0 {
		return stats
	}

	ticks := make([]float64, p.filled)
	var phaseSum [numPhases]time.Duration
	for i, s := range p.samples[:p.filled] {
		ticks[i] = float64(s.Tick)
		stats.MaxTick = max(stats.MaxTick, s.Tick)
		for ph, d := range s.Phases {
			phaseSum[ph] += d
		}
	}

	mean, p50, p90 := ComputeDistStats(ticks)
	stats.AvgTick = time.Duration(mean)
	stats.P50Tick = time.Duration(p50)
	stats.P90Tick = time.Duration(p90)

	n := time.Duration(p.filled)
	for ph := range phaseSum {
		stats.PhaseAvg[ph] = phaseSum[ph] / n
		if stats.AvgTick > 0 {
			stats.PhasePct[ph] = float64(stats.PhaseAvg[ph]) / float64(stats.AvgTick) * 100
		}
	}
	if stats.AvgTick > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTick)
	}
	return stats
}

// LogStats logs performance statistics, skipping phases under 0.1%.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p90_tick_us", s.P90Tick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p50_tick_us", s.P50Tick.Microseconds()),
		slog.Int64("p90_tick_us", s.P90Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Int("samples", s.Samples),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	Samples       int     `csv:"samples"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	P50TickUS     int64   `csv:"p50_tick_us"`
	P90TickUS     int64   `csv:"p90_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	AmbientPct    float64 `csv:"ambient_pct"`
	PlayerPct     float64 `csv:"player_pct"`
	NavigationPct float64 `csv:"navigation_pct"`
	GuardsPct     float64 `csv:"guards_pct"`
	PulsesPct     float64 `csv:"pulses_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		Samples:       s.Samples,
		AvgTickUS:     s.AvgTick.Microseconds(),
		P50TickUS:     s.P50Tick.Microseconds(),
		P90TickUS:     s.P90Tick.Microseconds(),
		MaxTickUS:     s.MaxTick.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		AmbientPct:    s.PhasePct[PhaseAmbient],
		PlayerPct:     s.PhasePct[PhasePlayer],
		NavigationPct: s.PhasePct[PhaseNavigation],
		GuardsPct:     s.PhasePct[PhaseGuards],
		PulsesPct:     s.PhasePct[PhasePulses],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
