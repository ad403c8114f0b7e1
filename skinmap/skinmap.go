// Package skinmap computes skinning weights which bind the vertices of a
// detailed mesh to the clusters of a proxy mesh.
package skinmap

import (
	"math"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/clustermesh"
	"github.com/unixpickle/skinproxy/spatial"
	"golang.org/x/exp/slices"
)

// An Influence is the weight of one cluster on one vertex.
type Influence struct {
	Index  int
	Weight float64
}

// An InfluenceMap stores a variable number of influences per vertex.
//
// The influences of vertex i are Influences[Offsets[i]:Offsets[i+1]].
type InfluenceMap struct {
	Influences []Influence
	Offsets    []int
}

// Clear removes all influences and offsets.
func (m *InfluenceMap) Clear() {
	m.Influences = m.Influences[:0]
	m.Offsets = m.Offsets[:0]
}

// IsEmpty returns true if there are no influences.
func (m *InfluenceMap) IsEmpty() bool {
	return len(m.Influences) == 0 || len(m.Offsets) == 0
}

// NumVertices returns the number of vertices in the map.
func (m *InfluenceMap) NumVertices() int {
	return max(0, len(m.Offsets)-1)
}

// Of returns the influences on vertex i.
func (m *InfluenceMap) Of(i int) []Influence {
	return m.Influences[m.Offsets[i]:m.Offsets[i+1]]
}

// NormalizeWeights scales a range of influences so that their weights sum to
// one. Ranges with a total weight of zero are left unchanged.
func (m *InfluenceMap) NormalizeWeights(offset, count int) {
	var sum float64
	for _, inf := range m.Influences[offset : offset+count] {
		sum += inf.Weight
	}
	if sum > 0 {
		for i := offset; i < offset+count; i++ {
			m.Influences[i].Weight /= sum
		}
	}
}

// MaxInfluenceCount returns the largest number of influences on any vertex.
func (m *InfluenceMap) MaxInfluenceCount() int {
	var res int
	for i := 0; i < m.NumVertices(); i++ {
		res = max(res, m.Offsets[i+1]-m.Offsets[i])
	}
	return res
}

// UnboundCount returns the number of vertices without any influences.
func (m *InfluenceMap) UnboundCount() int {
	var res int
	for i := 0; i < m.NumVertices(); i++ {
		if m.Offsets[i+1] == m.Offsets[i] {
			res++
		}
	}
	return res
}

// Params controls how vertices are bound to clusters.
type Params struct {
	// Radius is the distance beyond which clusters have no influence.
	Radius float64

	// Falloff is the exponent applied to the linear weight 1-d/Radius.
	Falloff float64

	// MaxInfluences limits the number of clusters per vertex.
	MaxInfluences int
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{Radius: 0.25, Falloff: 1, MaxInfluences: 4}
}

// MapClustersToVertices binds every vertex to the live clusters of mesh
// whose centroids are within the radius.
//
// Cluster indices in the result refer to positions in mesh.Clusters. Each
// vertex keeps its MaxInfluences strongest clusters, with weights normalized
// to sum to one.
func MapClustersToVertices(mesh *clustermesh.Mesh, vertices []model3d.Coord3D,
	p Params) *InfluenceMap {
	radius := math.Max(p.Radius, clustermesh.Epsilon)
	grid := spatial.NewGrid(radius, func(i int) model3d.Coord3D {
		return mesh.Clusters[i].Centroid
	})
	for c := range mesh.LiveClusters() {
		grid.Add(c.Index)
	}

	perVertex := make([][]Influence, len(vertices))
	essentials.ConcurrentMap(0, len(vertices), func(i int) {
		v := vertices[i]
		var influences []Influence
		for idx := range grid.NeighborsOf(v) {
			dist := v.Dist(mesh.Clusters[idx].Centroid)
			if dist >= radius {
				continue
			}
			influences = append(influences, Influence{
				Index:  idx,
				Weight: math.Pow(1-dist/radius, p.Falloff),
			})
		}
		slices.SortFunc(influences, func(a, b Influence) bool {
			if a.Weight != b.Weight {
				return a.Weight > b.Weight
			}
			return a.Index < b.Index
		})
		if p.MaxInfluences >= 0 && len(influences) > p.MaxInfluences {
			influences = influences[:p.MaxInfluences]
		}
		perVertex[i] = influences
	})

	res := &InfluenceMap{Offsets: make([]int, 1, len(vertices)+1)}
	for _, influences := range perVertex {
		offset := len(res.Influences)
		res.Influences = append(res.Influences, influences...)
		res.Offsets = append(res.Offsets, len(res.Influences))
		res.NormalizeWeights(offset, len(influences))
	}
	return res
}
