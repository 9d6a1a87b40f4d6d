package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Noise traffic during window
	NoisesEmitted int `csv:"noises_emitted"`
	NoisesHeard   int `csv:"noises_heard"` // summed over guards

	// Distance between perceived and true origins of heard noises
	PerceptionErrMean float64 `csv:"perception_err_mean"`
	PerceptionErrP50  float64 `csv:"perception_err_p50"`
	PerceptionErrP90  float64 `csv:"perception_err_p90"`

	// Sonar pool
	PulsesLive    int `csv:"pulses_live"` // at window end
	PulsesSpawned int `csv:"pulses_spawned"`
	PulsesEvicted int `csv:"pulses_evicted"`

	// Guard transitions during window, by target state
	ToPatrol     int `csv:"to_patrol"`
	ToSuspicious int `csv:"to_suspicious"`
	ToAlerted    int `csv:"to_alerted"`
	ToChasing    int `csv:"to_chasing"`
	Catches      int `csv:"catches"`

	// Guard states at window end
	GuardsPatrol     int     `csv:"guards_patrol"`
	GuardsSuspicious int     `csv:"guards_suspicious"`
	GuardsAlerted    int     `csv:"guards_alerted"`
	GuardsChasing    int     `csv:"guards_chasing"`
	MeanAlertLevel   float64 `csv:"mean_alert_level"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistStats calculates the mean, median and 90th percentile.
func ComputeDistStats(values []float64) (mean, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("noises_emitted", s.NoisesEmitted),
		slog.Int("noises_heard", s.NoisesHeard),
		slog.Float64("perception_err_mean", s.PerceptionErrMean),
		slog.Float64("perception_err_p90", s.PerceptionErrP90),
		slog.Int("pulses_live", s.PulsesLive),
		slog.Int("pulses_spawned", s.PulsesSpawned),
		slog.Int("pulses_evicted", s.PulsesEvicted),
		slog.Int("to_suspicious", s.ToSuspicious),
		slog.Int("to_alerted", s.ToAlerted),
		slog.Int("to_chasing", s.ToChasing),
		slog.Int("catches", s.Catches),
		slog.Float64("mean_alert_level", s.MeanAlertLevel),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"noises_emitted", s.NoisesEmitted,
		"noises_heard", s.NoisesHeard,
		"perception_err_mean", s.PerceptionErrMean,
		"perception_err_p50", s.PerceptionErrP50,
		"perception_err_p90", s.PerceptionErrP90,
		"pulses_live", s.PulsesLive,
		"pulses_spawned", s.PulsesSpawned,
		"pulses_evicted", s.PulsesEvicted,
		"to_patrol", s.ToPatrol,
		"to_suspicious", s.ToSuspicious,
		"to_alerted", s.ToAlerted,
		"to_chasing", s.ToChasing,
		"catches", s.Catches,
		"guards_patrol", s.GuardsPatrol,
		"guards_suspicious", s.GuardsSuspicious,
		"guards_alerted", s.GuardsAlerted,
		"guards_chasing", s.GuardsChasing,
		"mean_alert_level", s.MeanAlertLevel,
	)
}
