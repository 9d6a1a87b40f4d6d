// Package game wires the noise bus, sonar pool, guards and scripted player
// into a fixed-step simulation over an ECS world.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/components"
	"github.com/pthm-cable/echothief/config"
	"github.com/pthm-cable/echothief/level"
	"github.com/pthm-cable/echothief/noise"
	"github.com/pthm-cable/echothief/systems"
	"github.com/pthm-cable/echothief/telemetry"
)

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Level          *level.Level   // nil = embedded default level
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	Renderer       systems.PulseRenderer // optional sonar consumer
	Logger         *slog.Logger
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	lvl    *level.Level
	seed   int64
	rng    *rand.Rand
	logger *slog.Logger

	world *ecs.World

	// Entity mappers
	guardMapper   *ecs.Map2[components.Transform, components.Agent]
	playerMapper  *ecs.Map3[components.Transform, components.Agent, components.PlayerScript]
	ambientMapper *ecs.Map3[components.Transform, components.Agent, components.AmbientEmitter]

	agentFilter   *ecs.Filter2[components.Transform, components.Agent]
	playerFilter  *ecs.Filter3[components.Transform, components.Agent, components.PlayerScript]
	ambientFilter *ecs.Filter3[components.Transform, components.Agent, components.AmbientEmitter]

	// Behaviour lives outside the world, keyed by agent ID
	guards map[uuid.UUID]*systems.Guard
	navs   map[uuid.UUID]*systems.GridNavigator

	player    uuid.UUID
	playerNav *systems.GridNavigator
	playerPos r3.Vec
	hasPlayer bool

	bus     *noise.Bus
	pool    *systems.PulsePool
	planner *systems.AStarPlanner
	jitter  *systems.AmbientJitter
	session *Session

	renderer  systems.PulseRenderer
	renderBuf []systems.PulseSlot

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	transitions   []telemetry.TransitionRecord
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	tick int32
}

// NewGameWithOptions creates a game and spawns the level.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	lvl := opts.Level
	if lvl == nil {
		var err error
		if lvl, err = level.Default(); err != nil {
			return nil, fmt.Errorf("loading default level: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The override goes on a copy so a shared config is never mutated
	if opts.StatsWindowSec > 0 && opts.StatsWindowSec != cfg.Telemetry.StatsWindow {
		override := *cfg
		override.Telemetry.StatsWindow = opts.StatsWindowSec
		override.ComputeDerived()
		cfg = &override
	}

	g := &Game{
		cfg:           cfg,
		lvl:           lvl,
		seed:          opts.Seed,
		logger:        logger,
		bus:           noise.NewBus(logger),
		planner:       systems.NewAStarPlanner(lvl.Grid(cfg.Navigation.CellSize)),
		renderer:      opts.Renderer,
		collector:     telemetry.NewCollector(cfg.Derived.TicksPerWindow, cfg.Sim.DT),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
	}
	g.pool = systems.NewPulsePool(cfg.Sonar.Capacity, systems.PulseDefaults{
		ExpansionSpeed: cfg.Sonar.ExpansionSpeed,
		RingThickness:  cfg.Sonar.RingThickness,
		MaxAge:         cfg.Sonar.MaxAge,
	})
	if g.renderer != nil {
		g.renderBuf = make([]systems.PulseSlot, max(cfg.Sonar.RenderSlots, 0))
	}
	g.session = NewSession(g.bus, logger)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	cfg.Validate(logger)
	g.reset()
	return g, nil
}

// reset builds a fresh world from the level. The bus must have no
// subscribers when it is called.
func (g *Game) reset() {
	g.rng = rand.New(rand.NewSource(g.seed))
	g.jitter = systems.NewAmbientJitter(g.seed)

	world := ecs.NewWorld()
	g.world = world
	g.guardMapper = ecs.NewMap2[components.Transform, components.Agent](world)
	g.playerMapper = ecs.NewMap3[components.Transform, components.Agent, components.PlayerScript](world)
	g.ambientMapper = ecs.NewMap3[components.Transform, components.Agent, components.AmbientEmitter](world)
	g.agentFilter = ecs.NewFilter2[components.Transform, components.Agent](world)
	g.playerFilter = ecs.NewFilter3[components.Transform, components.Agent, components.PlayerScript](world)
	g.ambientFilter = ecs.NewFilter3[components.Transform, components.Agent, components.AmbientEmitter](world)

	g.guards = make(map[uuid.UUID]*systems.Guard)
	g.navs = make(map[uuid.UUID]*systems.GridNavigator)
	g.player = uuid.Nil
	g.playerNav = nil
	g.hasPlayer = false
	g.tick = 0
	g.transitions = g.transitions[:0]

	g.pool.Reset()
	g.collector.Reset()

	// Subscription order is dispatch order: sonar first, then telemetry,
	// then guards as they spawn.
	g.bus.Subscribe(g.pool.OnNoise)
	g.bus.Subscribe(func(noise.Event) { g.collector.RecordNoise() })

	g.spawnLevel()
}

// newID draws an agent ID from the game RNG so runs are reproducible.
func (g *Game) newID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.New()
	}
	return id
}

// Update runs one simulation step while the session is playing.
// It returns false once the level has ended.
func (g *Game) Update() bool {
	switch g.session.State() {
	case SessionPlaying:
		g.simulationStep()
		return !g.session.State().Over()
	case SessionPaused:
		return true
	default:
		return false
	}
}

// Restart tears the level down and spawns it again.
func (g *Game) Restart() {
	g.writeTransitions()
	for _, gd := range g.guards {
		gd.Detach()
	}
	g.session.Restart()
	g.reset()
}

// PlayerCaught is the guards' catch reporter.
func (g *Game) PlayerCaught() {
	g.collector.RecordCatch()
	g.session.PlayerCaught()
}

// Unload flushes output and releases every bus subscription.
func (g *Game) Unload() {
	g.writeTransitions()
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
	g.bus.ClearAll()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Session returns the session state machine.
func (g *Game) Session() *Session {
	return g.session
}

// Bus returns the noise bus.
func (g *Game) Bus() *noise.Bus {
	return g.bus
}

// Pool returns the sonar pulse pool.
func (g *Game) Pool() *systems.PulsePool {
	return g.pool
}

// Guards returns the guards in spawn order.
func (g *Game) Guards() []*systems.Guard {
	var out []*systems.Guard
	query := g.agentFilter.Query()
	for query.Next() {
		_, agent := query.Get()
		if gd, ok := g.guards[agent.ID]; ok {
			out = append(out, gd)
		}
	}
	return out
}

// PlayerPosition returns the player position and whether there is a player.
func (g *Game) PlayerPosition() (r3.Vec, bool) {
	return g.playerPos, g.hasPlayer
}
