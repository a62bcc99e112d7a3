package engine

import (
	"math"

	"github.com/piwi3910/StowPlan/internal/model"
)

// CellKey identifies a grid cell by its integer column and row.
type CellKey struct {
	X int
	Y int
}

// Grid is a uniform spatial hash over the container floor. It buckets items
// into every cell their bounding box touches and is built once per check.
type Grid struct {
	cellSize float64
	items    []model.Item
	cells    map[CellKey][]int

	// Cell indices are clamped to the floor plus a one-cell ring, so anything
	// off the floor shares the ring cells.
	minCol, maxCol float64
	minRow, maxRow float64
}

// NewGrid indexes items into cells of the given size over floor. A
// non-positive size falls back to model.DefaultCellSize.
func NewGrid(cellSize float64, floor model.BBox, items []model.Item) *Grid {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = model.DefaultCellSize
	}
	g := &Grid{
		cellSize: cellSize,
		items:    items,
		cells:    make(map[CellKey][]int),
		minCol:   math.Floor(floor.MinX/cellSize) - 1,
		maxCol:   math.Floor(floor.MaxX/cellSize) + 1,
		minRow:   math.Floor(floor.MinY/cellSize) - 1,
		maxRow:   math.Floor(floor.MaxY/cellSize) + 1,
	}
	for i, it := range items {
		for _, key := range g.CellsFor(it.BoundingBox()) {
			g.cells[key] = append(g.cells[key], i)
		}
	}
	return g
}

func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// Len returns the number of indexed items.
func (g *Grid) Len() int {
	return len(g.items)
}

// CellsFor returns every cell from floor(min/size) to floor(max/size) on both
// axes, ends included and clamped to the grid's range. A box whose max edge
// sits exactly on a cell boundary therefore also lands in the next cell.
func (g *Grid) CellsFor(bb model.BBox) []CellKey {
	x0 := g.index(bb.MinX, g.minCol, g.maxCol)
	y0 := g.index(bb.MinY, g.minRow, g.maxRow)
	x1 := g.index(bb.MaxX, g.minCol, g.maxCol)
	y1 := g.index(bb.MaxY, g.minRow, g.maxRow)

	keys := make([]CellKey, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			keys = append(keys, CellKey{X: x, Y: y})
		}
	}
	return keys
}

func (g *Grid) index(v, lo, hi float64) int {
	return int(math.Max(lo, math.Min(hi, math.Floor(v/g.cellSize))))
}

// Query returns the distinct items sharing at least one cell with bb, in
// insertion order. Callers still run the exact overlap test.
func (g *Grid) Query(bb model.BBox) []model.Item {
	seen := make(map[int]struct{})
	for _, key := range g.CellsFor(bb) {
		for _, idx := range g.cells[key] {
			seen[idx] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]model.Item, 0, len(seen))
	for i, it := range g.items {
		if _, ok := seen[i]; ok {
			out = append(out, it)
		}
	}
	return out
}
