// Package rawmesh implements the indexed triangle meshes that are passed into
// and out of the simplification and voxelization algorithms.
package rawmesh

import (
	"github.com/unixpickle/model3d/model3d"
)

// A Mesh is an indexed triangle mesh.
//
// Triangle i consists of the vertices Indices[3*i], Indices[3*i+1] and
// Indices[3*i+2]. Normals is either empty or has one entry per vertex.
type Mesh struct {
	Vertices []model3d.Coord3D
	Indices  []int
	Normals  []model3d.Coord3D
}

// NumTriangles returns the number of index triples.
func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Triangle returns the corners of the i-th triangle.
func (m *Mesh) Triangle(i int) *model3d.Triangle {
	return &model3d.Triangle{
		m.Vertices[m.Indices[3*i]],
		m.Vertices[m.Indices[3*i+1]],
		m.Vertices[m.Indices[3*i+2]],
	}
}

// Bounds returns the bounding box of the vertices.
//
// For a mesh without vertices, both corners are the origin.
func (m *Mesh) Bounds() (min, max model3d.Coord3D) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return
}

// RecalculateNormals sets Normals to the area-weighted average of the normals
// of the triangles touching each vertex.
func (m *Mesh) RecalculateNormals() {
	m.Normals = make([]model3d.Coord3D, len(m.Vertices))
	for i := 0; i < m.NumTriangles(); i++ {
		a := m.Vertices[m.Indices[3*i]]
		b := m.Vertices[m.Indices[3*i+1]]
		c := m.Vertices[m.Indices[3*i+2]]

		// The cross product's norm is twice the area, giving area weighting.
		n := b.Sub(a).Cross(c.Sub(a))
		for j := 0; j < 3; j++ {
			idx := m.Indices[3*i+j]
			m.Normals[idx] = m.Normals[idx].Add(n)
		}
	}
	for i, n := range m.Normals {
		if norm := n.Norm(); norm > 0 {
			m.Normals[i] = n.Scale(1 / norm)
		}
	}
}

// Transform applies t to every vertex. Normals are recomputed if present.
func (m *Mesh) Transform(t model3d.Transform) {
	for i, v := range m.Vertices {
		m.Vertices[i] = t.Apply(v)
	}
	if len(m.Normals) > 0 {
		m.RecalculateNormals()
	}
}

// FromTriangles creates an indexed mesh from a triangle soup.
//
// If dedup is true, exactly equal corners share a vertex. Otherwise, every
// triangle gets its own three vertices, which is useful for exercising vertex
// welding.
func FromTriangles(tris []*model3d.Triangle, dedup bool) *Mesh {
	res := &Mesh{
		Indices: make([]int, 0, len(tris)*3),
	}
	ids := map[model3d.Coord3D]int{}
	for _, t := range tris {
		for _, c := range t {
			if dedup {
				if id, ok := ids[c]; ok {
					res.Indices = append(res.Indices, id)
					continue
				}
				ids[c] = len(res.Vertices)
			}
			res.Indices = append(res.Indices, len(res.Vertices))
			res.Vertices = append(res.Vertices, c)
		}
	}
	return res
}

// FromModel3D creates an indexed mesh from a model3d mesh.
func FromModel3D(m *model3d.Mesh) *Mesh {
	return FromTriangles(m.TriangleSlice(), true)
}

// ToModel3D converts the mesh into a model3d mesh.
//
// Degenerate triangles are skipped, since model3d meshes cannot hold them.
func (m *Mesh) ToModel3D() *model3d.Mesh {
	res := model3d.NewMesh()
	for i := 0; i < m.NumTriangles(); i++ {
		t := m.Triangle(i)
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		res.Add(t)
	}
	return res
}
