// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/echothief/noise"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim        SimConfig        `yaml:"sim"`
	Sonar      SonarConfig      `yaml:"sonar"`
	Hearing    HearingConfig    `yaml:"hearing"`
	Guard      GuardConfig      `yaml:"guard"`
	Patrol     PatrolConfig     `yaml:"patrol"`
	Player     PlayerConfig     `yaml:"player"`
	Ambient    AmbientConfig    `yaml:"ambient"`
	Navigation NavigationConfig `yaml:"navigation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds the fixed-step loop settings.
type SimConfig struct {
	DT       float64 `yaml:"dt"`
	Seed     int64   `yaml:"seed"`
	MaxTicks int     `yaml:"max_ticks"` // 0 = run until the level ends
}

// SonarConfig holds pulse pool parameters.
type SonarConfig struct {
	Capacity       int     `yaml:"capacity"`
	ExpansionSpeed float64 `yaml:"expansion_speed"` // world units per second
	RingThickness  float64 `yaml:"ring_thickness"`
	MaxAge         float64 `yaml:"max_age"`      // seconds
	RenderSlots    int     `yaml:"render_slots"` // fixed-width snapshot size
}

// HearingConfig holds guard hearing parameters.
type HearingConfig struct {
	BaseRange float64 `yaml:"base_range"` // range for a loudness-1 noise
	MaxError  float64 `yaml:"max_error"`  // perception error at the edge of range
}

// GuardConfig holds guard behaviour tuning.
type GuardConfig struct {
	SuspiciousTimeout float64       `yaml:"suspicious_timeout"`
	AlertedTimeout    float64       `yaml:"alerted_timeout"`
	CatchDistance     float64       `yaml:"catch_distance"`
	ChaseFactor       float64       `yaml:"chase_factor"` // chase starts inside catch_distance * chase_factor
	PatrolSpeed       float64       `yaml:"patrol_speed"`
	SuspiciousSpeed   float64       `yaml:"suspicious_speed"`
	AlertedSpeed      float64       `yaml:"alerted_speed"`
	ChaseSpeed        float64       `yaml:"chase_speed"`
	TurnRate          float64       `yaml:"turn_rate"`
	Footstep          noise.Profile `yaml:"footstep"`
	FootstepInterval  float64       `yaml:"footstep_interval"`
	FootstepMinSpeed  float64       `yaml:"footstep_min_speed"`
}

// PatrolConfig holds patrol defaults used when a level route leaves them unset.
type PatrolConfig struct {
	Dwell            float64 `yaml:"dwell"`
	ArrivalTolerance float64 `yaml:"arrival_tolerance"`
	Mode             string  `yaml:"mode"` // loop or pingpong
}

// PlayerConfig holds scripted player parameters.
type PlayerConfig struct {
	Speed            float64       `yaml:"speed"`
	Footstep         noise.Profile `yaml:"footstep"`
	FootstepInterval float64       `yaml:"footstep_interval"`
	Throw            noise.Profile `yaml:"throw"`
}

// AmbientConfig holds ambient source defaults.
type AmbientConfig struct {
	Interval float64       `yaml:"interval"`
	Variance float64       `yaml:"variance"`
	Profile  noise.Profile `yaml:"profile"`
}

// NavigationConfig holds navigation grid parameters.
type NavigationConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerWindow int     // Telemetry.StatsWindow / Sim.DT, at least 1
	ChaseDistance  float64 // Guard.CatchDistance * Guard.ChaseFactor
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// ComputeDerived recalculates values derived from the loaded config. Call it
// after changing any field the derived values depend on.
func (c *Config) ComputeDerived() {
	c.Derived.TicksPerWindow = 1
	if c.Sim.DT > 0 && c.Telemetry.StatsWindow > 0 {
		c.Derived.TicksPerWindow = max(1, int(math.Round(c.Telemetry.StatsWindow/c.Sim.DT)))
	}
	c.Derived.ChaseDistance = c.Guard.CatchDistance * c.Guard.ChaseFactor
}

// Validate logs a warning for every degenerate value and returns the messages.
// Degenerate values are not errors: the simulation degrades gracefully around them.
func (c *Config) Validate(logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	var warnings []string
	warn := func(field string, value any, effect string) {
		msg := fmt.Sprintf("%s = %v: %s", field, value, effect)
		warnings = append(warnings, msg)
		logger.Warn("config", "field", field, "value", value, "effect", effect)
	}

	if c.Sim.DT <= 0 {
		warn("sim.dt", c.Sim.DT, "simulation will not advance")
	}
	if c.Sonar.Capacity <= 0 {
		warn("sonar.capacity", c.Sonar.Capacity, "no pulses will be shown")
	}
	if c.Sonar.MaxAge <= 0 {
		warn("sonar.max_age", c.Sonar.MaxAge, "pulses expire immediately")
	}
	if c.Hearing.BaseRange <= 0 {
		warn("hearing.base_range", c.Hearing.BaseRange, "guards are deaf")
	}
	if c.Guard.CatchDistance <= 0 {
		warn("guard.catch_distance", c.Guard.CatchDistance, "player cannot be caught")
	}
	if c.Navigation.CellSize <= 0 {
		warn("navigation.cell_size", c.Navigation.CellSize, "grid navigation disabled")
	}
	return warnings
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
