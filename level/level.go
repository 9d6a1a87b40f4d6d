// Package level loads level layouts: the walkability map, guard spawns and
// patrol routes, the scripted player and ambient noise sources.
package level

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/echothief/systems"
)

//go:embed default_level.yaml
var defaultLevelYAML []byte

// Point is a world position written as [x, y, z].
type Point [3]float64

// Vec converts the point to a vector.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// Level is a complete level description.
type Level struct {
	Name     string   `yaml:"name"`
	CellSize float64  `yaml:"cell_size"` // 0 = navigation.cell_size from config
	Map      []string `yaml:"map"`

	Guards  []GuardSpawn    `yaml:"guards"`
	Player  PlayerSpawn     `yaml:"player"`
	Ambient []AmbientSource `yaml:"ambient"`
}

// GuardSpawn places one guard and its patrol route.
type GuardSpawn struct {
	Name     string   `yaml:"name"`
	Position Point    `yaml:"position"`
	Route    []Point  `yaml:"route"`
	Mode     string   `yaml:"mode"`  // loop or pingpong; empty = config default
	Dwell    *float64 `yaml:"dwell"` // nil = config default
}

// PlayerSpawn describes the scripted player.
type PlayerSpawn struct {
	Start  Point       `yaml:"start"`
	Route  []Point     `yaml:"route"`
	Speed  float64     `yaml:"speed"` // 0 = config default
	Throws []ThrowSpec `yaml:"throws"`
}

// ThrowSpec schedules a thrown-object impact.
type ThrowSpec struct {
	At     float64 `yaml:"at"` // seconds since level start
	Target Point   `yaml:"target"`
}

// AmbientSource places a periodic ambient noise.
type AmbientSource struct {
	Name     string  `yaml:"name"`
	Position Point   `yaml:"position"`
	Interval float64 `yaml:"interval"` // 0 = config default
}

// HasPlayer reports whether the level defines a player.
func (l *Level) HasPlayer() bool {
	return len(l.Player.Route) > 0
}

// Default returns the embedded default level.
func Default() (*Level, error) {
	return Parse(defaultLevelYAML)
}

// Load reads a level from path, or returns the default level if path is empty.
func Load(path string) (*Level, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file: %w", err)
	}
	return Parse(data)
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Level {
	lvl, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("level: failed to load: %v", err))
	}
	return lvl
}

// Parse decodes and validates a level.
func Parse(data []byte) (*Level, error) {
	lvl := &Level{}
	if err := yaml.Unmarshal(data, lvl); err != nil {
		return nil, fmt.Errorf("parsing level: %w", err)
	}
	if err := lvl.validate(); err != nil {
		return nil, fmt.Errorf("level %q: %w", lvl.Name, err)
	}
	slices.SortStableFunc(lvl.Player.Throws, func(a, b ThrowSpec) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return lvl, nil
}

func (l *Level) validate() error {
	if len(l.Map) == 0 {
		return fmt.Errorf("empty map")
	}
	for i, g := range l.Guards {
		if _, err := systems.ParsePatrolMode(g.Mode); err != nil {
			return fmt.Errorf("guard %d (%s): %w", i, g.Name, err)
		}
		if g.Dwell != nil && *g.Dwell < 0 {
			return fmt.Errorf("guard %d (%s): negative dwell %v", i, g.Name, *g.Dwell)
		}
	}
	return nil
}

// Grid builds the navigation grid for the level. fallbackCellSize is used
// when the level leaves cell_size unset.
func (l *Level) Grid(fallbackCellSize float64) *systems.NavGrid {
	cs := l.CellSize
	if cs <= 0 {
		cs = fallbackCellSize
	}
	return systems.NewNavGridFromRows(l.Map, cs)
}

// PatrolRoute resolves a guard's route against the config defaults.
func (g GuardSpawn) PatrolRoute(defaultMode string, defaultDwell float64) systems.PatrolRoute {
	modeName := g.Mode
	if modeName == "" {
		modeName = defaultMode
	}
	// An invalid default falls back to loop
	mode, _ := systems.ParsePatrolMode(modeName)

	dwell := defaultDwell
	if g.Dwell != nil {
		dwell = *g.Dwell
	}

	return systems.PatrolRoute{
		Waypoints: Vecs(g.Route),
		Mode:      mode,
		Dwell:     dwell,
	}
}

// Vecs converts points to vectors.
func Vecs(points []Point) []r3.Vec {
	if len(points) == 0 {
		return nil
	}
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = p.Vec()
	}
	return out
}
