// Package spatial provides a uniform hash grid for fixed-radius neighbor
// queries over 3D points.
package spatial

import (
	"iter"
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// MinCellSize is the smallest cell size a Grid will use.
const MinCellSize = 1e-5

// A Cell identifies one cell of a Grid.
type Cell [3]int

// Add returns the cell offset by o.
func (c Cell) Add(o Cell) Cell {
	return Cell{c[0] + o[0], c[1] + o[1], c[2] + o[2]}
}

// neighborOffsets lists the cell itself followed by its 26 neighbors.
var neighborOffsets = func() []Cell {
	res := []Cell{{0, 0, 0}}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				if x != 0 || y != 0 || z != 0 {
					res = append(res, Cell{x, y, z})
				}
			}
		}
	}
	return res
}()

// A Grid buckets elements into cubic cells of a fixed size.
//
// The grid does not track element positions. If an element moves, it must be
// removed before its position changes and added again afterwards.
type Grid[T comparable] struct {
	cellSize float64
	position func(T) model3d.Coord3D
	cells    map[Cell][]T
	count    int
}

// NewGrid creates an empty grid with the given cell size. The position
// function determines which cell an element belongs to.
func NewGrid[T comparable](cellSize float64, position func(T) model3d.Coord3D) *Grid[T] {
	return &Grid[T]{
		cellSize: math.Max(cellSize, MinCellSize),
		position: position,
		cells:    map[Cell][]T{},
	}
}

// CellSize returns the size of each cell.
func (g *Grid[T]) CellSize() float64 {
	return g.cellSize
}

// Len returns the number of elements in the grid.
func (g *Grid[T]) Len() int {
	return g.count
}

// CellOf returns the cell containing a point.
func (g *Grid[T]) CellOf(c model3d.Coord3D) Cell {
	return Cell{
		int(math.Floor(c.X / g.cellSize)),
		int(math.Floor(c.Y / g.cellSize)),
		int(math.Floor(c.Z / g.cellSize)),
	}
}

// Add inserts an element at its current position.
func (g *Grid[T]) Add(elem T) {
	cell := g.CellOf(g.position(elem))
	g.cells[cell] = append(g.cells[cell], elem)
	g.count++
}

// Remove deletes an element from the cell of its current position.
//
// Returns false if the element was not found there.
func (g *Grid[T]) Remove(elem T) bool {
	cell := g.CellOf(g.position(elem))
	elems := g.cells[cell]
	for i, x := range elems {
		if x == elem {
			if len(elems) == 1 {
				delete(g.cells, cell)
			} else {
				g.cells[cell] = append(elems[:i], elems[i+1:]...)
			}
			g.count--
			return true
		}
	}
	return false
}

// NeighborsOf iterates over the elements in the cell containing c and in the
// 26 cells surrounding it.
//
// Elements may be further than one cell size away from c; callers which need
// an exact radius must check distances themselves. The grid must not be
// modified during iteration.
func (g *Grid[T]) NeighborsOf(c model3d.Coord3D) iter.Seq[T] {
	center := g.CellOf(c)
	return func(yield func(T) bool) {
		for _, offset := range neighborOffsets {
			for _, elem := range g.cells[center.Add(offset)] {
				if !yield(elem) {
					return
				}
			}
		}
	}
}
