package voxel

import (
	"iter"
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/rawmesh"
)

// MinVoxelSize is the smallest voxel size a Voxelizer will use.
const MinVoxelSize = 1e-4

var (
	ErrNotVoxelized = errors.New("voxel: mesh has not been voxelized")
	ErrNotFilled    = errors.New("voxel: grid has not been flood filled")
)

// A State records how far a Voxelizer has progressed.
type State int

const (
	Uninitialized State = iota
	SurfaceVoxelized
	FloodFilled
	Thinned
	Reconstructed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case SurfaceVoxelized:
		return "surface voxelized"
	case FloodFilled:
		return "flood filled"
	case Thinned:
		return "thinned"
	case Reconstructed:
		return "reconstructed"
	}
	return "invalid"
}

// A Voxelizer fills a voxel grid from a triangle mesh.
//
// Calling Voxelize creates the grid. Every cell touched by a triangle becomes
// Boundary, cells connected to the corner of the grid become Outside, and
// the rest stay Inside.
type Voxelizer struct {
	Mesh      *rawmesh.Mesh
	VoxelSize float64

	// Grid is nil until Voxelize is run.
	*Grid

	state     State
	triangles [][]int
}

// NewVoxelizer creates a voxelizer for a mesh.
func NewVoxelizer(mesh *rawmesh.Mesh, voxelSize float64) *Voxelizer {
	return &Voxelizer{Mesh: mesh, VoxelSize: voxelSize}
}

// State returns the last completed stage.
func (v *Voxelizer) State() State {
	return v.state
}

// Voxelize creates the voxel grid for the mesh, after transforming it with t,
// and flood fills the outside of the mesh.
//
// If t is nil, the mesh is used as-is. If triangleIndices is true, the
// triangles touching each voxel are recorded for TrianglesOverlappingVoxel.
//
// A one voxel margin is added around the mesh, so the corner of the grid is
// always outside of it.
func (v *Voxelizer) Voxelize(t model3d.Transform, triangleIndices bool) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		v.state = Uninitialized
		v.VoxelSize = math.Max(MinVoxelSize, v.VoxelSize)

		vertices := v.Mesh.Vertices
		if t != nil {
			vertices = make([]model3d.Coord3D, len(v.Mesh.Vertices))
			for i, p := range v.Mesh.Vertices {
				vertices[i] = t.Apply(p)
			}
		}
		bounds := rawmesh.Mesh{Vertices: vertices}
		min, max := bounds.Bounds()

		grid := &Grid{VoxelSize: v.VoxelSize}
		margin := Coord{1, 1, 1}
		origin := grid.PointVoxel(min).Sub(margin)
		end := grid.PointVoxel(max).Add(margin)
		v.Grid = NewGrid(v.VoxelSize, origin, end.Sub(origin).Add(margin), Inside)

		v.triangles = nil
		if triangleIndices {
			v.triangles = make([][]int, v.Len())
		}

		numTris := v.Mesh.NumTriangles()
		for i := 0; i < numTris; i++ {
			v.voxelizeTriangle(
				i,
				vertices[v.Mesh.Indices[3*i]],
				vertices[v.Mesh.Indices[3*i+1]],
				vertices[v.Mesh.Indices[3*i+2]],
			)
			if job.Every(i, 50) {
				if !yield(job.Progress{
					Label:    "voxelizing mesh",
					Fraction: job.Fraction(i, numTris),
				}) {
					return
				}
			}
		}
		v.state = SurfaceVoxelized

		for p := range v.floodFill() {
			if !yield(p) {
				return
			}
		}
		v.state = FloodFilled
	}
}

func (v *Voxelizer) voxelizeTriangle(index int, p1, p2, p3 model3d.Coord3D) {
	min := v.PointVoxel(p1.Min(p2).Min(p3))
	max := v.PointVoxel(p1.Max(p2).Max(p3))
	halfSize := model3d.XYZ(1, 1, 1).Scale(v.VoxelSize / 2)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				world := Coord{x, y, z}
				local := world.Sub(v.Origin)
				if !v.VoxelExists(local) {
					continue
				}
				if IntersectsTriangle(v.VoxelCenter(local), halfSize, p1, p2, p3) {
					v.Set(local, Boundary)
					if v.triangles != nil {
						idx := v.VoxelIndex(local)
						v.triangles[idx] = append(v.triangles[idx], index)
					}
				}
			}
		}
	}
}

// floodFill marks every Inside voxel reachable from the grid's first corner
// through face neighbors as Outside.
func (v *Voxelizer) floodFill() iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		start := Coord{}
		if v.At(start) != Inside {
			return
		}
		v.Set(start, Outside)
		queue := []Coord{start}
		var visited int
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, offset := range FaceNeighborhood {
				n := c.Add(offset)
				if v.Is(n, Inside) {
					v.Set(n, Outside)
					queue = append(queue, n)
				}
			}
			visited++
			if job.Every(visited, 150) {
				if !yield(job.Progress{
					Label:    "filling mesh",
					Fraction: job.Fraction(visited, v.Len()),
				}) {
					return
				}
			}
		}
	}
}

// BoundaryThinning makes the boundary exactly one voxel thick.
//
// Every Boundary voxel becomes Inside, and then every Inside voxel which has
// both Outside and non-Outside face neighbors becomes Boundary. Neighbors
// beyond the edge of the grid count as Outside.
func (v *Voxelizer) BoundaryThinning() error {
	if err := v.checkFilled(); err != nil {
		return err
	}
	for i, x := range v.voxels {
		if x == Boundary {
			v.voxels[i] = Inside
		}
	}
	for c := range v.Cells() {
		if v.At(c) != Inside {
			continue
		}
		var solid int
		for _, offset := range FaceNeighborhood {
			n := c.Add(offset)
			if v.VoxelExists(n) && v.At(n) != Outside {
				solid++
			}
		}
		if solid > 0 && solid < len(FaceNeighborhood) {
			v.Set(c, Boundary)
		}
	}
	v.state = Thinned
	return nil
}

func (v *Voxelizer) checkFilled() error {
	switch {
	case v.state == Uninitialized:
		return ErrNotVoxelized
	case v.state < FloodFilled:
		return ErrNotFilled
	}
	return nil
}

// TrianglesOverlappingVoxel returns the triangles which touch a voxel, given
// its flat index.
//
// The result is nil if the index is out of range or if triangle indices were
// not recorded.
func (v *Voxelizer) TrianglesOverlappingVoxel(index int) []int {
	if index < 0 || index >= len(v.triangles) {
		return nil
	}
	return v.triangles[index]
}
