// Package world runs a population of steering vehicles as an ECS simulation.
package world

import (
	"slices"

	"github.com/pthm-cable/flock/vec"
)

// Grid is a uniform bucket grid over the world used to narrow the candidate
// set handed to the neighbor query. It stores indices into the tick's
// snapshot slice. Positions outside the world fall into the edge cells.
type Grid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

// NewGrid creates a grid covering width x height.
func NewGrid(width, height, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = max(width, height)
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert records snapshot index idx at position p.
func (g *Grid) Insert(idx int, p vec.Vec2) {
	c := g.cellIndex(g.col(p.X), g.row(p.Y))
	g.cells[c] = append(g.cells[c], idx)
}

// CandidatesInto appends every index whose cell overlaps the square of
// half-size radius around p, sorted ascending, and returns the updated slice.
// The result is a superset of the true neighbors.
func (g *Grid) CandidatesInto(dst []int, p vec.Vec2, radius float64) []int {
	start := len(dst)

	minCol, maxCol := g.col(p.X-radius), g.col(p.X+radius)
	minRow, maxRow := g.row(p.Y-radius), g.row(p.Y+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			dst = append(dst, g.cells[g.cellIndex(col, row)]...)
		}
	}

	// Snapshot order, so the neighbor query sees a stable input
	slices.Sort(dst[start:])
	return dst
}

func (g *Grid) col(x float64) int {
	return clampInt(int(x/g.cellSize), 0, g.cols-1)
}

func (g *Grid) row(y float64) int {
	return clampInt(int(y/g.cellSize), 0, g.rows-1)
}

func (g *Grid) cellIndex(col, row int) int {
	return row*g.cols + col
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
