// Package clustermesh implements a clustered triangle mesh for building
// low-resolution skinning proxies.
//
// Each cluster stands for a set of source vertices, and triangles refer to
// clusters by index. Clusters can be merged by vertex welding and by
// decimation, which progressively collapse edges until no valid collapse
// remains.
package clustermesh

import (
	"iter"
	"math"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/rawmesh"
)

// A Mesh is a graph of clusters and triangles built from a source mesh.
//
// Clusters and triangles reference each other by position in the Clusters
// and Triangles slices. Between cleanups, collapsed clusters and degenerate
// triangles stay in place but are marked as removed.
type Mesh struct {
	Clusters  []*Cluster
	Triangles []*Triangle

	// Edges is sorted by cluster pair and rebuilt by every cleanup.
	Edges []Edge

	sourceVertices []model3d.Coord3D
	sourceIndices  []int
}

// SourceVertices returns the vertex positions the mesh was built from.
func (m *Mesh) SourceVertices() []model3d.Coord3D {
	return m.sourceVertices
}

// SourceVertexCount returns the number of source vertices.
func (m *Mesh) SourceVertexCount() int {
	return len(m.sourceVertices)
}

// SourceTriangleCount returns the number of source triangles.
func (m *Mesh) SourceTriangleCount() int {
	return len(m.sourceIndices) / 3
}

// Build initializes the mesh with one cluster per vertex and one triangle per
// index triple, then cleans it up.
//
// The indices must be in range for the vertex slice; this is not checked.
func (m *Mesh) Build(vertices []model3d.Coord3D, indices []int) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		m.sourceVertices = vertices
		m.sourceIndices = indices
		m.Edges = nil

		m.Clusters = make([]*Cluster, 0, len(vertices))
		for i := range vertices {
			m.Clusters = append(m.Clusters, newCluster(vertices, i))
			if job.Every(i, 1000) {
				if !yield(job.Progress{
					Label:    "initializing clusters",
					Fraction: job.Fraction(i, len(vertices)),
				}) {
					return
				}
			}
		}

		m.Triangles = make([]*Triangle, 0, len(indices)/3)
		for i := 0; i+2 < len(indices); i += 3 {
			t := &Triangle{
				Clusters: [3]int{indices[i], indices[i+1], indices[i+2]},
				Index:    len(m.Triangles),
			}
			m.UpdateTangentSpace(t)
			for _, c := range t.Clusters {
				cluster := m.Clusters[c]
				if !cluster.hasTriangle(t.Index) {
					cluster.Triangles = append(cluster.Triangles, t.Index)
				}
			}
			m.Triangles = append(m.Triangles, t)
			if job.Every(i, 500) {
				if !yield(job.Progress{
					Label:    "initializing triangles",
					Fraction: job.Fraction(i, len(indices)),
				}) {
					return
				}
			}
		}

		for p := range m.cleanup(-1, false) {
			if !yield(p) {
				return
			}
		}
	}
}

// NewMesh builds a mesh synchronously.
func NewMesh(vertices []model3d.Coord3D, indices []int) *Mesh {
	m := &Mesh{}
	job.Drain(m.Build(vertices, indices))
	return m
}

// ClusterCount returns the number of clusters which have not been removed.
func (m *Mesh) ClusterCount() int {
	var n int
	for _, c := range m.Clusters {
		if !c.removed {
			n++
		}
	}
	return n
}

// TriangleCount returns the number of triangles which have not been removed.
func (m *Mesh) TriangleCount() int {
	var n int
	for _, t := range m.Triangles {
		if !t.removed {
			n++
		}
	}
	return n
}

// LiveClusters iterates over the clusters which have not been removed.
func (m *Mesh) LiveClusters() iter.Seq[*Cluster] {
	return func(yield func(*Cluster) bool) {
		for _, c := range m.Clusters {
			if !c.removed && !yield(c) {
				return
			}
		}
	}
}

// LiveTriangles iterates over the triangles which have not been removed.
func (m *Mesh) LiveTriangles() iter.Seq[*Triangle] {
	return func(yield func(*Triangle) bool) {
		for _, t := range m.Triangles {
			if !t.removed && !yield(t) {
				return
			}
		}
	}
}

// Corners returns the centroids of a triangle's clusters.
func (m *Mesh) Corners(t *Triangle) (a, b, c model3d.Coord3D) {
	return m.Clusters[t.Clusters[0]].Centroid,
		m.Clusters[t.Clusters[1]].Centroid,
		m.Clusters[t.Clusters[2]].Centroid
}

// FaceNormal computes the unit normal of a triangle from the current
// centroids of its clusters.
func (m *Mesh) FaceNormal(t *Triangle) model3d.Coord3D {
	return triangleNormal(m.Corners(t))
}

// AdjacentTriangles returns the triangles sharing at least two clusters with
// t, in a deterministic order.
func (m *Mesh) AdjacentTriangles(t *Triangle) []*Triangle {
	var res []*Triangle
	for _, c := range t.Clusters {
		for _, id := range m.Clusters[c].Triangles {
			other := m.Triangles[id]
			if other == t || other.SharedClusterCount(t) < 2 {
				continue
			}
			var seen bool
			for _, x := range res {
				if x == other {
					seen = true
					break
				}
			}
			if !seen {
				res = append(res, other)
			}
		}
	}
	return res
}

// NeighborClusters returns the clusters sharing a triangle with c, in a
// deterministic order.
func (m *Mesh) NeighborClusters(c *Cluster) []*Cluster {
	var res []*Cluster
	for _, id := range c.Triangles {
		for _, n := range m.Triangles[id].Clusters {
			if n == c.Index {
				continue
			}
			neighbor := m.Clusters[n]
			var seen bool
			for _, x := range res {
				if x == neighbor {
					seen = true
					break
				}
			}
			if !seen {
				res = append(res, neighbor)
			}
		}
	}
	return res
}

// UpdateTangentSpace recomputes the normal and tangent of a triangle from the
// current cluster centroids. The normal is not normalized, and its length is
// proportional to the triangle's area.
func (m *Mesh) UpdateTangentSpace(t *Triangle) {
	t.Normal, t.Tangent = tangentSpace(m.Corners(t))
}

func (m *Mesh) updateCentroid(c *Cluster) {
	c.Centroid = model3d.Coord3D{}
	if len(c.VertexIndices) == 0 {
		return
	}
	for _, i := range c.VertexIndices {
		c.Centroid = c.Centroid.Add(m.sourceVertices[i])
	}
	c.Centroid = c.Centroid.Scale(1 / float64(len(c.VertexIndices)))
}

// UpdateOrientation points a cluster along the sum of the normals and
// tangents of its triangles. Clusters without a usable direction get the
// identity orientation.
func (m *Mesh) UpdateOrientation(c *Cluster) {
	var normal, tangent model3d.Coord3D
	for _, id := range c.Triangles {
		t := m.Triangles[id]
		normal = normal.Add(t.Normal)
		tangent = tangent.Add(t.Tangent)
	}
	if normal.Norm() > Epsilon && tangent.Norm() > Epsilon {
		c.Orientation = LookRotation(normal, tangent)
	} else {
		c.Orientation = IdentityQuaternion
	}
}

// MaxClusterNeighborhoodSize returns the largest number of source vertices
// represented by a single cluster.
func (m *Mesh) MaxClusterNeighborhoodSize() int {
	var size int
	for c := range m.LiveClusters() {
		if len(c.VertexIndices) > size {
			size = len(c.VertexIndices)
		}
	}
	return size
}

// MaxDistanceFromCluster returns the largest distance from any source vertex
// to the closest cluster centroid.
//
// Returns +Inf if the mesh has source vertices but no clusters.
func (m *Mesh) MaxDistanceFromCluster() float64 {
	var centroids []model3d.Coord3D
	for c := range m.LiveClusters() {
		centroids = append(centroids, c.Centroid)
	}
	closest := make([]float64, len(m.sourceVertices))
	essentials.ConcurrentMap(0, len(m.sourceVertices), func(i int) {
		v := m.sourceVertices[i]
		best := math.Inf(1)
		for _, c := range centroids {
			best = math.Min(best, c.SquaredDist(v))
		}
		closest[i] = best
	})
	var maxDist float64
	for _, d := range closest {
		maxDist = math.Max(maxDist, d)
	}
	return math.Sqrt(maxDist)
}

// UniqueEdges returns the edges with duplicate cluster pairs removed.
//
// The result is sorted, and each edge keeps the Key of its first occurrence.
func (m *Mesh) UniqueEdges() []Edge {
	var res []Edge
	for i, e := range m.Edges {
		if i == 0 || !e.sameClusters(m.Edges[i-1]) {
			res = append(res, e)
		}
	}
	return res
}

// BorderClusterCount returns the number of clusters flagged as borders.
func (m *Mesh) BorderClusterCount() int {
	var n int
	for c := range m.LiveClusters() {
		if c.IsBorder {
			n++
		}
	}
	return n
}

// SplitCluster moves some triangles of a cluster onto a new copy of that
// cluster, and returns the copy.
//
// The new cluster shares the old cluster's vertex indices, centroid and
// orientation, and is appended to the end of Clusters.
func (m *Mesh) SplitCluster(triangles []int, clusterIndex int) *Cluster {
	old := m.Clusters[clusterIndex]
	split := &Cluster{
		Centroid:      old.Centroid,
		Orientation:   old.Orientation,
		VertexIndices: append([]int{}, old.VertexIndices...),
		Triangles:     append([]int{}, triangles...),
		Index:         len(m.Clusters),
		IsBorder:      old.IsBorder,
		pair:          -1,
		cost:          math.Inf(1),
	}
	m.Clusters = append(m.Clusters, split)
	for _, id := range triangles {
		old.removeTriangle(id)
		m.Triangles[id].replace(old.Index, split.Index)
	}
	return split
}

// Surface converts the live clusters and triangles into a plain mesh with one
// vertex per cluster, placed at its centroid.
func (m *Mesh) Surface() *rawmesh.Mesh {
	res := &rawmesh.Mesh{}
	ids := make([]int, len(m.Clusters))
	for c := range m.LiveClusters() {
		ids[c.Index] = len(res.Vertices)
		res.Vertices = append(res.Vertices, c.Centroid)
	}
	for t := range m.LiveTriangles() {
		for _, c := range t.Clusters {
			res.Indices = append(res.Indices, ids[c])
		}
	}
	res.RecalculateNormals()
	return res
}
