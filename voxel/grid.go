// Package voxel converts triangle meshes into solid voxel grids and back into
// closed surface meshes.
package voxel

import (
	"iter"
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// A Voxel is the classification of one grid cell.
type Voxel uint8

const (
	Empty    Voxel = 0
	Inside   Voxel = 1 << 0
	Boundary Voxel = 1 << 1
	Outside  Voxel = 1 << 2
)

func (v Voxel) String() string {
	switch v {
	case Empty:
		return "empty"
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	case Outside:
		return "outside"
	}
	return "invalid"
}

// A Coord is an integer position in a voxel grid.
type Coord struct {
	X, Y, Z int
}

func (c Coord) Add(c1 Coord) Coord {
	return Coord{c.X + c1.X, c.Y + c1.Y, c.Z + c1.Z}
}

func (c Coord) Sub(c1 Coord) Coord {
	return Coord{c.X - c1.X, c.Y - c1.Y, c.Z - c1.Z}
}

// FaceNeighborhood lists the offsets of the 6 cells sharing a face.
var FaceNeighborhood = []Coord{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// EdgeNeighborhood lists the offsets of the 12 cells sharing only an edge.
var EdgeNeighborhood = []Coord{
	{-1, -1, 0}, {-1, 0, -1}, {-1, 0, 1}, {-1, 1, 0},
	{0, -1, -1}, {0, -1, 1}, {0, 1, -1}, {0, 1, 1},
	{1, -1, 0}, {1, 0, -1}, {1, 0, 1}, {1, 1, 0},
}

// VertexNeighborhood lists the offsets of the 8 cells sharing only a corner.
var VertexNeighborhood = []Coord{
	{-1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {-1, 1, 1},
	{1, -1, -1}, {1, -1, 1}, {1, 1, -1}, {1, 1, 1},
}

// EdgeFaceNeighborhood lists the offsets of the 18 cells sharing a face or
// an edge, in lexicographic order.
var EdgeFaceNeighborhood = func() []Coord {
	var res []Coord
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				if n := abs(x) + abs(y) + abs(z); n == 1 || n == 2 {
					res = append(res, Coord{x, y, z})
				}
			}
		}
	}
	return res
}()

// FullNeighborhood lists face neighbors, then edge neighbors, then vertex
// neighbors.
var FullNeighborhood = append(
	append(append([]Coord{}, FaceNeighborhood...), EdgeNeighborhood...),
	VertexNeighborhood...,
)

// A Grid is a dense box of voxels positioned in world space.
//
// Cell (x, y, z) covers the world-space cube starting at
// (Origin + (x, y, z)) * VoxelSize.
type Grid struct {
	VoxelSize  float64
	Origin     Coord
	Resolution Coord

	voxels []Voxel
}

// NewGrid creates a grid with every voxel set to fill.
func NewGrid(voxelSize float64, origin, resolution Coord, fill Voxel) *Grid {
	g := &Grid{
		VoxelSize:  voxelSize,
		Origin:     origin,
		Resolution: resolution,
		voxels:     make([]Voxel, resolution.X*resolution.Y*resolution.Z),
	}
	for i := range g.voxels {
		g.voxels[i] = fill
	}
	return g
}

// Len returns the number of voxels in the grid.
func (g *Grid) Len() int {
	return len(g.voxels)
}

// VoxelIndex returns the flat index of a cell.
func (g *Grid) VoxelIndex(c Coord) int {
	return c.X + g.Resolution.X*(c.Y+g.Resolution.Y*c.Z)
}

// VoxelExists checks if a cell is within the grid.
func (g *Grid) VoxelExists(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 &&
		c.X < g.Resolution.X && c.Y < g.Resolution.Y && c.Z < g.Resolution.Z
}

// At returns the value of a cell, which must exist.
func (g *Grid) At(c Coord) Voxel {
	return g.voxels[g.VoxelIndex(c)]
}

// Set changes the value of a cell, which must exist.
func (g *Grid) Set(c Coord, v Voxel) {
	g.voxels[g.VoxelIndex(c)] = v
}

// Is checks if a cell exists and has the value v.
func (g *Grid) Is(c Coord, v Voxel) bool {
	return g.VoxelExists(c) && g.At(c) == v
}

// Count returns the number of voxels with the value v.
func (g *Grid) Count(v Voxel) int {
	var n int
	for _, x := range g.voxels {
		if x == v {
			n++
		}
	}
	return n
}

// VoxelCenter returns the world-space center of a cell.
func (g *Grid) VoxelCenter(c Coord) model3d.Coord3D {
	return model3d.XYZ(
		float64(g.Origin.X+c.X)+0.5,
		float64(g.Origin.Y+c.Y)+0.5,
		float64(g.Origin.Z+c.Z)+0.5,
	).Scale(g.VoxelSize)
}

// PointVoxel returns the world-space cell containing a point, without taking
// the origin into account.
func (g *Grid) PointVoxel(p model3d.Coord3D) Coord {
	return Coord{
		int(math.Floor(p.X / g.VoxelSize)),
		int(math.Floor(p.Y / g.VoxelSize)),
		int(math.Floor(p.Z / g.VoxelSize)),
	}
}

// DistanceToNeighbor returns the distance between the centers of a cell and
// its i-th neighbor in FullNeighborhood.
func (g *Grid) DistanceToNeighbor(i int) float64 {
	if i >= len(FaceNeighborhood)+len(EdgeNeighborhood) {
		return math.Sqrt(3) * g.VoxelSize
	} else if i >= len(FaceNeighborhood) {
		return math.Sqrt2 * g.VoxelSize
	}
	return g.VoxelSize
}

// Cells iterates over every coordinate of the grid, x-major.
func (g *Grid) Cells() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		for x := 0; x < g.Resolution.X; x++ {
			for y := 0; y < g.Resolution.Y; y++ {
				for z := 0; z < g.Resolution.Z; z++ {
					if !yield(Coord{x, y, z}) {
						return
					}
				}
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
