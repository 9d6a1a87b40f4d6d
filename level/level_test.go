package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/systems"
)

func TestDefaultLevel(t *testing.T) {
	lvl, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "warehouse", lvl.Name)
	require.Len(t, lvl.Guards, 2)
	assert.True(t, lvl.HasPlayer())
	assert.Len(t, lvl.Ambient, 2)

	grid := lvl.Grid(1)
	w, h := grid.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 12, h)

	// Every authored position sits on open floor
	for _, g := range lvl.Guards {
		assert.False(t, grid.IsBlockedWorld(g.Position.Vec()), "guard %s spawn", g.Name)
		for _, p := range g.Route {
			assert.False(t, grid.IsBlockedWorld(p.Vec()), "guard %s waypoint %v", g.Name, p)
		}
	}
	assert.False(t, grid.IsBlockedWorld(lvl.Player.Start.Vec()))
	for _, p := range lvl.Player.Route {
		assert.False(t, grid.IsBlockedWorld(p.Vec()), "player waypoint %v", p)
	}
	for _, a := range lvl.Ambient {
		assert.False(t, grid.IsBlockedWorld(a.Position.Vec()), "ambient %s", a.Name)
	}
}

func TestGuardPatrolRouteDefaults(t *testing.T) {
	lvl, err := Default()
	require.NoError(t, err)

	perimeter := lvl.Guards[0].PatrolRoute("pingpong", 2)
	assert.Equal(t, systems.PatrolLoop, perimeter.Mode, "explicit mode wins")
	assert.Equal(t, 1.0, perimeter.Dwell, "explicit dwell wins")
	assert.Len(t, perimeter.Waypoints, 4)
	assert.Equal(t, r3.Vec{X: 2.5, Z: 1.5}, perimeter.Waypoints[0])

	vault := lvl.Guards[1].PatrolRoute("loop", 2)
	assert.Equal(t, systems.PatrolPingPong, vault.Mode)
	assert.Equal(t, 2.0, vault.Dwell, "unset dwell takes the default")

	bare := GuardSpawn{}.PatrolRoute("nonsense", 0)
	assert.Equal(t, systems.PatrolLoop, bare.Mode)
	assert.Nil(t, bare.Waypoints)
}

func TestParseSortsThrows(t *testing.T) {
	lvl, err := Parse([]byte(`
name: t
map: ["...."]
player:
  route: [[1, 0, 0]]
  throws:
    - {at: 9, target: [0, 0, 0]}
    - {at: 2, target: [1, 0, 0]}
    - {at: 5, target: [2, 0, 0]}
`))
	require.NoError(t, err)

	var at []float64
	for _, th := range lvl.Player.Throws {
		at = append(at, th.At)
	}
	assert.Equal(t, []float64{2, 5, 9}, at)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":      "map: [",
		"empty map":      "name: nothing\n",
		"bad mode":       "map: ['.']\nguards:\n  - {name: g, mode: zigzag}\n",
		"negative dwell": "map: ['.']\nguards:\n  - {name: g, dwell: -1}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: tiny\ncell_size: 2\nmap: ['..#']\n"), 0644))

	lvl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", lvl.Name)
	assert.False(t, lvl.HasPlayer())

	grid := lvl.Grid(1)
	assert.Equal(t, 2.0, grid.CellSize())
	assert.True(t, grid.IsBlockedWorld(r3.Vec{X: 5, Z: 1}))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
	assert.NotPanics(t, func() { MustLoad("") })
}
