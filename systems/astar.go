package systems

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AStarPlanner provides A* pathfinding over a NavGrid.
type AStarPlanner struct {
	grid *NavGrid

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float64
}

// astarNode is a node in the A* search.
type astarNode struct {
	gx, gy int     // Grid coordinates
	f      float64 // f = g + h (priority)
	index  int     // Heap index
}

// nodeHeap implements heap.Interface for A* open set.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewAStarPlanner creates a planner over grid.
func NewAStarPlanner(grid *NavGrid) *AStarPlanner {
	return &AStarPlanner{
		grid:      grid,
		openHeap:  &nodeHeap{},
		closedSet: make(map[int]struct{}, 256),
		cameFrom:  make(map[int]int, 256),
		gScore:    make(map[int]float64, 256),
	}
}

// Grid returns the planner's navigation grid.
func (a *AStarPlanner) Grid() *NavGrid {
	return a.grid
}

// FindPath computes waypoints from start to goal, excluding the start point.
// If the goal cell is open the final waypoint is goal itself; otherwise it is
// the center of the nearest open cell. Returns nil if no path exists.
func (a *AStarPlanner) FindPath(start, goal r3.Vec) []r3.Vec {
	grid := a.grid

	startGX, startGY := grid.WorldToGrid(start)
	goalGX, goalGY := grid.WorldToGrid(goal)
	exactGoal := true

	if grid.IsBlocked(startGX, startGY) {
		startGX, startGY = a.findNearestOpen(startGX, startGY)
		if startGX < 0 {
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGY) {
		goalGX, goalGY = a.findNearestOpen(goalGX, goalGY)
		if goalGX < 0 {
			return nil
		}
		exactGoal = false
	}

	finish := goal
	if !exactGoal {
		finish = grid.GridToWorld(goalGX, goalGY, goal.Y)
	}

	// Same cell - walk straight there
	if startGX == goalGX && startGY == goalGY {
		return []r3.Vec{finish}
	}

	*a.openHeap = (*a.openHeap)[:0]
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)

	startID := startGY*grid.width + startGX
	goalID := goalGY*grid.width + goalGX

	a.gScore[startID] = 0
	heap.Push(a.openHeap, &astarNode{gx: startGX, gy: startGY, f: a.heuristic(startGX, startGY, goalGX, goalGY)})

	maxIterations := grid.width * grid.height
	iterations := 0

	for a.openHeap.Len() > 0 && iterations < maxIterations {
		iterations++

		current := heap.Pop(a.openHeap).(*astarNode)
		currentID := current.gy*grid.width + current.gx

		if currentID == goalID {
			path := a.reconstructPath(startID, goalID, start.Y)
			path[len(path)-1] = finish
			return a.simplifyPath(start, path)
		}

		if _, ok := a.closedSet[currentID]; ok {
			continue
		}
		a.closedSet[currentID] = struct{}{}

		// 8-connected neighbors; first four are cardinal
		neighbors := [8][2]int{
			{current.gx - 1, current.gy},
			{current.gx + 1, current.gy},
			{current.gx, current.gy - 1},
			{current.gx, current.gy + 1},
			{current.gx - 1, current.gy - 1},
			{current.gx + 1, current.gy - 1},
			{current.gx - 1, current.gy + 1},
			{current.gx + 1, current.gy + 1},
		}

		for i, n := range neighbors {
			ngx, ngy := n[0], n[1]
			if grid.IsBlocked(ngx, ngy) {
				continue
			}

			// No corner cutting on diagonals
			if i >= 4 {
				dx := ngx - current.gx
				dy := ngy - current.gy
				if grid.IsBlocked(current.gx+dx, current.gy) || grid.IsBlocked(current.gx, current.gy+dy) {
					continue
				}
			}

			neighborID := ngy*grid.width + ngx
			if _, ok := a.closedSet[neighborID]; ok {
				continue
			}

			moveCost := 1.0
			if i >= 4 {
				moveCost = math.Sqrt2
			}
			tentativeG := a.gScore[currentID] + moveCost

			existingG, exists := a.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			a.cameFrom[neighborID] = currentID
			a.gScore[neighborID] = tentativeG
			heap.Push(a.openHeap, &astarNode{
				gx: ngx,
				gy: ngy,
				f:  tentativeG + a.heuristic(ngx, ngy, goalGX, goalGY),
			})
		}
	}

	return nil
}

// heuristic computes the Euclidean distance heuristic for A*.
func (a *AStarPlanner) heuristic(gx1, gy1, gx2, gy2 int) float64 {
	return math.Hypot(float64(gx2-gx1), float64(gy2-gy1))
}

// reconstructPath builds cell-center waypoints after the start cell.
func (a *AStarPlanner) reconstructPath(startID, goalID int, y float64) []r3.Vec {
	var ids []int
	for current := goalID; current != startID; {
		ids = append(ids, current)
		prev, ok := a.cameFrom[current]
		if !ok {
			break
		}
		current = prev
	}

	path := make([]r3.Vec, len(ids))
	for i := range ids {
		id := ids[len(ids)-1-i]
		path[i] = a.grid.GridToWorld(id%a.grid.width, id/a.grid.width, y)
	}
	return path
}

// simplifyPath removes waypoints that are visible from the one before them.
func (a *AStarPlanner) simplifyPath(start r3.Vec, path []r3.Vec) []r3.Vec {
	if len(path) <= 1 {
		return path
	}

	simplified := make([]r3.Vec, 0, len(path))
	prev := start
	for i := 0; i < len(path)-1; i++ {
		if !a.hasLineOfSight(prev, path[i+1]) {
			simplified = append(simplified, path[i])
			prev = path[i]
		}
	}
	return append(simplified, path[len(path)-1])
}

// hasLineOfSight checks if there's a clear line between two points on the grid.
func (a *AStarPlanner) hasLineOfSight(from, to r3.Vec) bool {
	delta := r3.Sub(to, from)
	delta.Y = 0
	dist := r3.Norm(delta)
	if dist < 0.01 {
		return true
	}

	stepSize := a.grid.cellSize * 0.1
	steps := int(dist/stepSize) + 1
	dir := r3.Scale(1/dist, delta)

	for i := 0; i <= steps; i++ {
		p := r3.Add(from, r3.Scale(min(float64(i)*stepSize, dist), dir))
		if a.grid.IsBlockedWorld(p) {
			return false
		}
	}
	return true
}

// findNearestOpen finds the nearest unblocked cell to the given cell.
// Returns (-1, -1) if no open cell found within search radius.
func (a *AStarPlanner) findNearestOpen(gx, gy int) (int, int) {
	for radius := 1; radius < 10; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if abs(dx) != radius && abs(dy) != radius {
					continue
				}
				if !a.grid.IsBlocked(gx+dx, gy+dy) {
					return gx + dx, gy + dy
				}
			}
		}
	}
	return -1, -1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
