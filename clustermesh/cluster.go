package clustermesh

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// A Cluster represents one or more source vertices which have been
// collapsed together.
type Cluster struct {
	// Centroid is the mean position of the source vertices in the cluster.
	Centroid model3d.Coord3D

	// Orientation is derived from the normals and tangents of the
	// incident triangles.
	Orientation Quaternion

	// VertexIndices lists the source vertices represented by the cluster.
	VertexIndices []int

	// Triangles lists the ids of the incident triangles.
	Triangles []int

	// Index is the position of the cluster in Mesh.Clusters.
	Index int

	// IsBorder is set if the cluster touches an edge used by only one
	// triangle.
	IsBorder bool

	// Best collapse candidate and its cost, recomputed during
	// decimation and welding.
	pair int
	cost float64

	removed bool
}

func newCluster(vertices []model3d.Coord3D, index int) *Cluster {
	return &Cluster{
		Centroid:      vertices[index],
		Orientation:   IdentityQuaternion,
		VertexIndices: []int{index},
		Index:         index,
		pair:          -1,
		cost:          math.Inf(1),
	}
}

// Removed returns true if the cluster was collapsed into another one and has
// not yet been compacted away.
func (c *Cluster) Removed() bool {
	return c.removed
}

// HasPair returns true if the cluster currently has a collapse candidate.
func (c *Cluster) HasPair() bool {
	return c.pair >= 0 && !math.IsInf(c.cost, 1)
}

func (c *Cluster) resetPair() {
	c.pair = -1
	c.cost = math.Inf(1)
}

func (c *Cluster) hasTriangle(id int) bool {
	for _, t := range c.Triangles {
		if t == id {
			return true
		}
	}
	return false
}

func (c *Cluster) removeTriangle(id int) {
	for i, t := range c.Triangles {
		if t == id {
			c.Triangles = append(c.Triangles[:i], c.Triangles[i+1:]...)
			return
		}
	}
}

// A Triangle is a face referencing three clusters.
type Triangle struct {
	// Clusters holds the indices of the corner clusters.
	Clusters [3]int

	// Normal and Tangent are area weighted, see UpdateTangentSpace.
	Normal  model3d.Coord3D
	Tangent model3d.Coord3D

	// Index is the position of the triangle in Mesh.Triangles.
	Index int

	removed bool
}

// Removed returns true if the triangle became degenerate during a collapse and
// has not yet been compacted away.
func (t *Triangle) Removed() bool {
	return t.removed
}

// IsDegenerate returns true if two corners reference the same cluster.
func (t *Triangle) IsDegenerate() bool {
	c := t.Clusters
	return c[0] == c[1] || c[0] == c[2] || c[1] == c[2]
}

// Key returns the sorted cluster indices, which identify a triangle
// regardless of winding.
func (t *Triangle) Key() [3]int {
	k := t.Clusters
	slices.Sort(k[:])
	return k
}

// Contains returns true if the triangle references a cluster.
func (t *Triangle) Contains(cluster int) bool {
	return t.Clusters[0] == cluster || t.Clusters[1] == cluster || t.Clusters[2] == cluster
}

// SharedClusterCount counts pairs of equal cluster references between two
// triangles.
func (t *Triangle) SharedClusterCount(other *Triangle) int {
	var count int
	for _, a := range t.Clusters {
		for _, b := range other.Clusters {
			if a == b {
				count++
			}
		}
	}
	return count
}

// Flip reverses the winding of the triangle by swapping the first and last
// corners.
func (t *Triangle) Flip() {
	t.Clusters[0], t.Clusters[2] = t.Clusters[2], t.Clusters[0]
}

func (t *Triangle) replace(from, to int) {
	for i, c := range t.Clusters {
		if c == from {
			t.Clusters[i] = to
		}
	}
}

// An Edge connects clusters A and B, where A <= B. Key identifies the
// triangle side the edge came from, as 3*triangle+side.
type Edge struct {
	A, B int
	Key  int
}

func (e Edge) less(other Edge) bool {
	if e.A != other.A {
		return e.A < other.A
	} else if e.B != other.B {
		return e.B < other.B
	}
	return e.Key < other.Key
}

func (e Edge) sameClusters(other Edge) bool {
	return e.A == other.A && e.B == other.B
}
