package main

import (
	"github.com/pthm-cable/echothief/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
}

// ParamVector holds the set of tunable guard parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of guard difficulty parameters.
// Defaults match config/defaults.yaml.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Hearing
			{Name: "base_range", Path: "hearing.base_range", Min: 8, Max: 30, Default: 20},
			{Name: "max_error", Path: "hearing.max_error", Min: 0.5, Max: 6, Default: 3},
			// Timeouts
			{Name: "suspicious_timeout", Path: "guard.suspicious_timeout", Min: 1, Max: 10, Default: 4},
			{Name: "alerted_timeout", Path: "guard.alerted_timeout", Min: 2, Max: 12, Default: 6},
			// Speeds
			{Name: "suspicious_speed", Path: "guard.suspicious_speed", Min: 0.5, Max: 3, Default: 1.5},
			{Name: "alerted_speed", Path: "guard.alerted_speed", Min: 1, Max: 5, Default: 3},
			{Name: "chase_speed", Path: "guard.chase_speed", Min: 2, Max: 7, Default: 5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values into [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize maps [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp keeps every value inside its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return out
}

// ApplyToConfig writes clamped values into cfg and refreshes its derived
// values. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Hearing.BaseRange = c[0]
	cfg.Hearing.MaxError = c[1]
	cfg.Guard.SuspiciousTimeout = c[2]
	cfg.Guard.AlertedTimeout = c[3]
	cfg.Guard.SuspiciousSpeed = c[4]
	cfg.Guard.AlertedSpeed = c[5]
	cfg.Guard.ChaseSpeed = c[6]
	cfg.ComputeDerived()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Hearing.BaseRange,
		cfg.Hearing.MaxError,
		cfg.Guard.SuspiciousTimeout,
		cfg.Guard.AlertedTimeout,
		cfg.Guard.SuspiciousSpeed,
		cfg.Guard.AlertedSpeed,
		cfg.Guard.ChaseSpeed,
	}
}
