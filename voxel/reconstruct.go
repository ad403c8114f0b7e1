package voxel

import (
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/rawmesh"
)

// quadPlanes lists the axes spanning each family of quads, ordered so that
// U cross V points along W.
var quadPlanes = [3]struct {
	U, V, W Coord
}{
	{U: Coord{1, 0, 0}, V: Coord{0, 1, 0}, W: Coord{0, 0, 1}},
	{U: Coord{0, 0, 1}, V: Coord{1, 0, 0}, W: Coord{0, 1, 0}},
	{U: Coord{0, 1, 0}, V: Coord{0, 0, 1}, W: Coord{1, 0, 0}},
}

// CreateMesh builds a closed surface through the centers of the Boundary
// voxels.
//
// Vertex positions are smoothed by averaging them with their face-connected
// Boundary neighbors for the given number of iterations. Every square of four
// Boundary voxels produces a quad, which faces towards the Outside side.
func (v *Voxelizer) CreateMesh(smoothingIterations int) (*rawmesh.Mesh, error) {
	if err := v.checkFilled(); err != nil {
		return nil, err
	}

	res := &rawmesh.Mesh{}
	vertexIndex := make([]int, v.Len())
	for i := range vertexIndex {
		vertexIndex[i] = -1
	}
	for c := range v.Cells() {
		if v.At(c) == Boundary {
			vertexIndex[v.VoxelIndex(c)] = len(res.Vertices)
			res.Vertices = append(res.Vertices, v.VoxelCenter(c))
		}
	}

	res.Vertices = v.smooth(res.Vertices, vertexIndex, smoothingIterations)

	for c := range v.Cells() {
		if v.At(c) != Boundary {
			continue
		}
		for _, plane := range quadPlanes {
			p10 := c.Add(plane.U)
			p01 := c.Add(plane.V)
			p11 := p10.Add(plane.V)
			if !v.Is(p10, Boundary) || !v.Is(p01, Boundary) || !v.Is(p11, Boundary) {
				continue
			}
			ids := [4]int{
				vertexIndex[v.VoxelIndex(c)],
				vertexIndex[v.VoxelIndex(p10)],
				vertexIndex[v.VoxelIndex(p11)],
				vertexIndex[v.VoxelIndex(p01)],
			}
			if v.opensTowards(c, plane.U, plane.V, plane.W) {
				res.Indices = append(res.Indices, ids[0], ids[1], ids[3], ids[3], ids[1], ids[2])
			} else {
				res.Indices = append(res.Indices, ids[0], ids[3], ids[1], ids[3], ids[2], ids[1])
			}
		}
	}

	res.RecalculateNormals()
	v.state = Reconstructed
	return res, nil
}

// opensTowards checks if any of the four cells next to a quad in direction w
// is Outside or beyond the edge of the grid.
func (v *Voxelizer) opensTowards(c, u, dv, w Coord) bool {
	base := c.Add(w)
	for _, n := range []Coord{base, base.Add(u), base.Add(dv), base.Add(u).Add(dv)} {
		if !v.VoxelExists(n) || v.At(n) == Outside {
			return true
		}
	}
	return false
}

func (v *Voxelizer) smooth(vertices []model3d.Coord3D, vertexIndex []int,
	iterations int) []model3d.Coord3D {
	if iterations <= 0 {
		return vertices
	}
	input := vertices
	output := make([]model3d.Coord3D, len(vertices))
	for i := 0; i < iterations; i++ {
		copy(output, input)
		for c := range v.Cells() {
			if v.At(c) != Boundary {
				continue
			}
			var sum model3d.Coord3D
			var count int
			for _, offset := range FaceNeighborhood {
				n := c.Add(offset)
				if v.Is(n, Boundary) {
					sum = sum.Add(input[vertexIndex[v.VoxelIndex(n)]])
					count++
				}
			}
			if count > 0 {
				output[vertexIndex[v.VoxelIndex(c)]] = sum.Scale(1 / float64(count))
			}
		}
		input, output = output, input
	}
	return input
}
