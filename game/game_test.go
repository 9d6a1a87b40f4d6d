package game

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/config"
	"github.com/pthm-cable/echothief/level"
	"github.com/pthm-cable/echothief/noise"
	"github.com/pthm-cable/echothief/systems"
	"github.com/pthm-cable/echothief/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func parseLevel(t *testing.T, doc string) *level.Level {
	t.Helper()
	lvl, err := level.Parse([]byte(doc))
	require.NoError(t, err)
	return lvl
}

func newTestGame(t *testing.T, lvl *level.Level, mutate func(*Options)) *Game {
	t.Helper()
	opts := Options{
		Config: testConfig(t),
		Level:  lvl,
		Seed:   1,
		Logger: testLogger(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	g, err := NewGameWithOptions(opts)
	require.NoError(t, err)
	t.Cleanup(g.Unload)
	return g
}

// runUntilOver steps until the session ends or maxTicks pass.
func runUntilOver(g *Game, maxTicks int) {
	for i := 0; i < maxTicks && g.Update(); i++ {
	}
}

const corridor = `
name: corridor
map:
  - "##############################"
  - "#............................#"
  - "#............................#"
  - "#............................#"
  - "##############################"
guards:
  - name: sentry
    position: [2.5, 0, 2.5]
`

const yard = `
name: yard
map:
  - "####################"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "####################"
guards:
  - name: walker
    position: [2.5, 0, 2.5]
    mode: pingpong
    route: [[2.5, 0, 2.5], [17.5, 0, 2.5]]
ambient:
  - name: hum
    position: [10.5, 0, 5.5]
    interval: 0.5
  - name: drip
    position: [3.5, 0, 5.5]
`

func TestHearingThroughTheGame(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     systems.State
	}{
		{"heard at 15", 15, systems.StateSuspicious},
		{"unheard at 25", 25, systems.StatePatrol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, parseLevel(t, corridor), nil)
			guards := g.Guards()
			require.Len(t, guards, 1)

			g.Bus().Emit(noise.Event{Origin: r3.Vec{X: 2.5 + tt.distance, Z: 2.5}, Loudness: 1, SonarRadius: 10})
			assert.Equal(t, tt.want, guards[0].State())
			assert.Equal(t, 1, g.Pool().Count(), "every noise makes a ring")
		})
	}
}

func TestGuardEscalationAndTransitionLog(t *testing.T) {
	g := newTestGame(t, parseLevel(t, corridor), nil)
	guard := g.Guards()[0]

	g.Bus().Emit(noise.Event{Origin: r3.Vec{X: 6.5, Z: 2.5}, Loudness: 1})
	g.Bus().Emit(noise.Event{Origin: r3.Vec{X: 6.5, Z: 2.5}, Loudness: 1})
	require.Equal(t, systems.StateAlerted, guard.State())

	recs := g.Transitions()
	require.Len(t, recs, 2)
	assert.Equal(t, "sentry", recs[0].Guard)
	assert.Equal(t, "patrol", recs[0].From)
	assert.Equal(t, "suspicious", recs[0].To)
	assert.Equal(t, "alerted", recs[1].To)

	// The alerted guard walks toward the noise
	start := guard.Position()
	for i := 0; i < 30; i++ {
		g.Update()
	}
	assert.Greater(t, guard.Position().X, start.X)
}

func TestPlayerCaught(t *testing.T) {
	lvl := parseLevel(t, `
name: ambush
map:
  - "####################"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "####################"
guards:
  - name: sentry
    position: [5.5, 0, 2.5]
player:
  start: [1.5, 0, 2.5]
  route: [[18.5, 0, 2.5]]
  throws:
    - {at: 0, target: [5.5, 0, 2.5]}
`)
	var changes []SessionState
	g := newTestGame(t, lvl, nil)
	g.Session().OnChange(func(_, to SessionState) { changes = append(changes, to) })

	runUntilOver(g, 600)

	assert.Equal(t, SessionGameOver, g.Session().State())
	assert.Equal(t, []SessionState{SessionGameOver}, changes)
	assert.Equal(t, systems.StateChasing, g.Guards()[0].State())
	assert.False(t, g.Update(), "a finished level does not step")
}

func TestPlayerCompletesLevel(t *testing.T) {
	lvl := parseLevel(t, `
name: stroll
map:
  - "##########"
  - "#........#"
  - "##########"
player:
  start: [1.5, 0, 1.5]
  speed: 4
  route: [[4.5, 0, 1.5], [8.5, 0, 1.5]]
`)
	var steps []noise.Event
	g := newTestGame(t, lvl, nil)
	g.Bus().Subscribe(func(ev noise.Event) { steps = append(steps, ev) })

	runUntilOver(g, 1000)

	require.Equal(t, SessionLevelComplete, g.Session().State())
	pos, ok := g.PlayerPosition()
	require.True(t, ok)
	assert.InDelta(t, 8.5, pos.X, 0.5)
	assert.NotEmpty(t, steps, "walking makes footsteps")
	assert.Less(t, g.Tick(), int32(1000))
}

func TestPauseFreezesSimulation(t *testing.T) {
	g := newTestGame(t, nil, nil)
	g.Update()
	g.Session().Pause()

	tick := g.Tick()
	for i := 0; i < 10; i++ {
		assert.True(t, g.Update())
	}
	assert.Equal(t, tick, g.Tick())

	g.Session().Resume()
	g.Update()
	assert.Equal(t, tick+1, g.Tick())
}

func TestRestartRebuildsWithoutLeakingSubscribers(t *testing.T) {
	g := newTestGame(t, nil, nil)
	subs := g.Bus().Len()
	require.Equal(t, 2+2, subs, "pool, telemetry and two guards")

	for i := 0; i < 120; i++ {
		g.Update()
	}
	g.Session().PlayerCaught()
	require.Equal(t, SessionGameOver, g.Session().State())

	g.Restart()

	assert.Equal(t, SessionPlaying, g.Session().State())
	assert.Equal(t, subs, g.Bus().Len())
	assert.Zero(t, g.Tick())
	assert.Zero(t, g.Pool().Count())
	assert.Len(t, g.Guards(), 2)
	for _, gd := range g.Guards() {
		assert.Equal(t, systems.StatePatrol, gd.State())
	}
}

func TestUnloadClearsBus(t *testing.T) {
	opts := Options{Config: testConfig(t), Seed: 3, Logger: testLogger()}
	g, err := NewGameWithOptions(opts)
	require.NoError(t, err)
	require.NotZero(t, g.Bus().Len())

	g.Unload()
	assert.Zero(t, g.Bus().Len())
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() []r3.Vec {
		g := newTestGame(t, parseLevel(t, yard), func(o *Options) { o.Seed = 99 })
		for i := 0; i < 400 && g.Update(); i++ {
		}
		var out []r3.Vec
		for _, gd := range g.Guards() {
			out = append(out, gd.Position(), gd.LastHeardPosition())
		}
		pos, _ := g.PlayerPosition()
		return append(out, pos)
	}

	assert.Equal(t, run(), run())
}

type slotRecorder struct {
	calls int
	live  int
	width int
}

func (r *slotRecorder) RenderPulses(slots []systems.PulseSlot, live int) {
	r.calls++
	r.live = live
	r.width = len(slots)
}

func TestRendererAndStatsWindows(t *testing.T) {
	rec := &slotRecorder{}
	var windows []telemetry.WindowStats
	g := newTestGame(t, parseLevel(t, yard), func(o *Options) {
		o.Renderer = rec
		o.StatsWindowSec = 1
		o.StatsCallback = func(s telemetry.WindowStats) { windows = append(windows, s) }
	})

	for i := 0; i < 360; i++ {
		g.Update()
	}

	assert.Equal(t, int32(360), g.Tick())
	assert.Equal(t, 360, rec.calls, "one publish per tick")
	assert.Equal(t, 20, rec.width)
	require.GreaterOrEqual(t, len(windows), 5)

	var emitted, spawned int
	for _, w := range windows {
		emitted += w.NoisesEmitted
		spawned += w.PulsesSpawned
		assert.LessOrEqual(t, w.PulsesLive, 20)
	}
	assert.Positive(t, emitted)
	assert.Equal(t, emitted, spawned, "every noise spawns one ring")
}

func TestOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := newTestGame(t, parseLevel(t, yard), func(o *Options) {
		o.OutputDir = dir
		o.StatsWindowSec = 1
	})
	for i := 0; i < 180; i++ {
		g.Update()
	}
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "transitions.csv", "perf.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestGuardConfigUsesDerivedChaseDistance(t *testing.T) {
	cfg := testConfig(t)
	cfg.Guard.ChaseFactor = 4
	cfg.ComputeDerived()

	g := newTestGame(t, parseLevel(t, corridor), func(o *Options) { o.Config = cfg })
	assert.Equal(t, 6.0, g.guardConfig().ChaseDistance)
}

func TestStatsWindowOverrideUsesDerivedTicks(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGame(t, parseLevel(t, yard), func(o *Options) {
		o.Config = cfg
		o.StatsWindowSec = 0.5
	})

	assert.Equal(t, int32(30), g.collector.WindowDurationTicks())
	assert.Equal(t, 30, g.cfg.Derived.TicksPerWindow)
	assert.Equal(t, 10.0, cfg.Telemetry.StatsWindow, "caller's config is not mutated")
	assert.Equal(t, 600, cfg.Derived.TicksPerWindow)
}

func TestGuardPositionsSyncedBeforeGuardsDecide(t *testing.T) {
	lvl := parseLevel(t, `
name: runway
map:
  - "####################"
  - "#..................#"
  - "#..................#"
  - "#..................#"
  - "####################"
guards:
  - name: runner
    position: [2.5, 0, 2.5]
    route: [[15.5, 0, 2.5]]
  - name: listener
    position: [2.5, 0, 1.5]
`)
	g := newTestGame(t, lvl, nil)
	g.Update()

	var runner *systems.Guard
	for _, gd := range g.Guards() {
		if gd.Name() == "runner" {
			runner = gd
		}
	}
	require.NotNil(t, runner)
	before := runner.Position()

	g.updateNavigation(g.cfg.Sim.DT)

	moved := false
	for id, nav := range g.navs {
		assert.Equal(t, nav.Position(), g.guards[id].Position())
		if g.guards[id] == runner {
			moved = nav.Position() != before
		}
	}
	assert.True(t, moved, "runner should be walking toward its waypoint")
}
