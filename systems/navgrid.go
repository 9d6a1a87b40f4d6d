package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NavGrid stores a walkability grid over the X/Z plane.
// Cells are marked as blocked (true) or open (false).
type NavGrid struct {
	cells    []bool  // true = blocked
	cellSize float64 // world units per cell
	width    int     // grid width in cells (X)
	height   int     // grid height in cells (Z)
}

// Map characters understood by NewNavGridFromRows. Anything else is open floor.
const (
	NavWall = '#'
)

// NewNavGridFromRows builds a grid from level map rows. Row i covers world
// Z in [i*cellSize, (i+1)*cellSize); column j covers X likewise.
// Short rows are padded with open cells.
func NewNavGridFromRows(rows []string, cellSize float64) *NavGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	w := 0
	for _, row := range rows {
		w = max(w, len(row))
	}
	h := len(rows)

	grid := &NavGrid{
		cells:    make([]bool, w*h),
		cellSize: cellSize,
		width:    w,
		height:   h,
	}
	for gy, row := range rows {
		for gx := 0; gx < len(row); gx++ {
			grid.cells[gy*w+gx] = row[gx] == NavWall
		}
	}
	return grid
}

// IsBlocked returns true if the given nav grid cell is blocked.
func (g *NavGrid) IsBlocked(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true // Out of bounds is blocked
	}
	return g.cells[gy*g.width+gx]
}

// IsBlockedWorld returns true if the world position is in a blocked cell.
func (g *NavGrid) IsBlockedWorld(p r3.Vec) bool {
	gx, gy := g.WorldToGrid(p)
	return g.IsBlocked(gx, gy)
}

// WorldToGrid converts a world position to nav grid coordinates.
func (g *NavGrid) WorldToGrid(p r3.Vec) (gx, gy int) {
	gx = int(math.Floor(p.X / g.cellSize))
	gy = int(math.Floor(p.Z / g.cellSize))
	return
}

// GridToWorld converts nav grid coordinates to the cell center at height y.
func (g *NavGrid) GridToWorld(gx, gy int, y float64) r3.Vec {
	return r3.Vec{
		X: (float64(gx) + 0.5) * g.cellSize,
		Y: y,
		Z: (float64(gy) + 0.5) * g.cellSize,
	}
}

// Size returns the grid dimensions in cells.
func (g *NavGrid) Size() (w, h int) {
	return g.width, g.height
}

// CellSize returns world units per cell.
func (g *NavGrid) CellSize() float64 {
	return g.cellSize
}
