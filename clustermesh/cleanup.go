package clustermesh

import (
	"iter"
	"math"

	"github.com/unixpickle/skinproxy/job"
	"golang.org/x/exp/slices"
)

const (
	// DefaultWindingThreshold is the normal dot product below which a
	// standalone cleanup flips a triangle to match its neighbor.
	DefaultWindingThreshold = -0.2

	// CollapseWindingThreshold is the winding threshold conventionally used
	// for the cleanup at the end of Weld and Decimate.
	CollapseWindingThreshold = -0.9
)

// Cleanup removes degenerate and duplicate triangles, drops clusters without
// triangles, re-indexes the mesh, fixes triangle winding, and recomputes
// orientations and edges.
//
// Triangles are flipped during the winding fix when their normal's dot
// product with an already visited neighbor is below windingThreshold. A
// threshold of -1 or lower disables the winding fix.
//
// Source vertices of clusters which lost all of their triangles are handed to
// the nearest remaining cluster, so that every source vertex stays
// represented as long as any cluster survives.
func (m *Mesh) Cleanup(windingThreshold float64) iter.Seq[job.Progress] {
	return m.cleanup(windingThreshold, true)
}

func (m *Mesh) cleanup(windingThreshold float64, reassignOrphans bool) iter.Seq[job.Progress] {
	return job.Concat(
		m.removeInvalidTriangles(),
		m.removeIsolatedClusters(reassignOrphans),
		func(yield func(job.Progress) bool) {
			m.Reindex()
		},
		m.fixWinding(windingThreshold),
		m.updateOrientations(),
		m.updateEdges(),
	)
}

func (m *Mesh) removeInvalidTriangles() iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		seen := map[[3]int]bool{}
		for i, t := range m.Triangles {
			if !t.removed {
				key := t.Key()
				if t.IsDegenerate() || seen[key] {
					m.unlinkTriangle(t)
				} else {
					seen[key] = true
				}
			}
			if job.Every(i, 1000) {
				if !yield(job.Progress{
					Label:    "removing invalid triangles",
					Fraction: job.Fraction(i, len(m.Triangles)),
				}) {
					return
				}
			}
		}
	}
}

// unlinkTriangle marks a triangle as removed and detaches it from all of the
// clusters it references.
func (m *Mesh) unlinkTriangle(t *Triangle) {
	t.removed = true
	for _, c := range t.Clusters {
		m.Clusters[c].removeTriangle(t.Index)
	}
}

func (m *Mesh) removeIsolatedClusters(reassignOrphans bool) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		var orphans []*Cluster
		for i, c := range m.Clusters {
			if !c.removed && len(c.Triangles) == 0 {
				c.removed = true
				c.resetPair()
				if len(c.VertexIndices) > 0 {
					orphans = append(orphans, c)
				}
			}
			if job.Every(i, 500) {
				if !yield(job.Progress{
					Label:    "removing isolated clusters",
					Fraction: job.Fraction(i, len(m.Clusters)),
				}) {
					return
				}
			}
		}
		if reassignOrphans {
			m.reassignOrphans(orphans)
		}
	}
}

// reassignOrphans moves the source vertices of removed clusters to the
// closest live cluster.
func (m *Mesh) reassignOrphans(orphans []*Cluster) {
	if len(orphans) == 0 {
		return
	}
	touched := map[*Cluster]bool{}
	for _, orphan := range orphans {
		var closest *Cluster
		bestDist := math.Inf(1)
		for c := range m.LiveClusters() {
			if d := c.Centroid.SquaredDist(orphan.Centroid); d < bestDist {
				bestDist = d
				closest = c
			}
		}
		if closest == nil {
			return
		}
		closest.VertexIndices = append(closest.VertexIndices, orphan.VertexIndices...)
		orphan.VertexIndices = nil
		touched[closest] = true
	}
	for c := range m.LiveClusters() {
		if touched[c] {
			m.updateCentroid(c)
		}
	}
}

// Reindex drops removed clusters and triangles from the mesh and assigns
// every remaining element an index equal to its position.
//
// Calling Reindex again without modifying the mesh has no effect.
func (m *Mesh) Reindex() {
	clusterMapping := make([]int, len(m.Clusters))
	clusters := make([]*Cluster, 0, len(m.Clusters))
	for i, c := range m.Clusters {
		if c.removed {
			clusterMapping[i] = -1
			continue
		}
		clusterMapping[i] = len(clusters)
		c.Index = len(clusters)
		c.resetPair()
		clusters = append(clusters, c)
	}

	triangleMapping := make([]int, len(m.Triangles))
	triangles := make([]*Triangle, 0, len(m.Triangles))
	for i, t := range m.Triangles {
		if t.removed {
			triangleMapping[i] = -1
			continue
		}
		triangleMapping[i] = len(triangles)
		t.Index = len(triangles)
		for j, c := range t.Clusters {
			t.Clusters[j] = clusterMapping[c]
		}
		triangles = append(triangles, t)
	}

	for _, c := range clusters {
		ids := c.Triangles[:0]
		for _, id := range c.Triangles {
			if newID := triangleMapping[id]; newID >= 0 {
				ids = append(ids, newID)
			}
		}
		c.Triangles = ids
	}

	m.Clusters = clusters
	m.Triangles = triangles
}

// fixWinding visits each connected group of triangles breadth-first and
// flips triangles whose normal disagrees with the neighbor they were reached
// from.
//
// Edge directions are not compared, since the mesh may be non-manifold.
func (m *Mesh) fixWinding(threshold float64) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		if threshold <= -1 {
			return
		}
		visited := make([]bool, len(m.Triangles))
		var numVisited int
		var queue []*Triangle
		for _, start := range m.Triangles {
			if visited[start.Index] {
				continue
			}
			visited[start.Index] = true
			numVisited++
			queue = append(queue[:0], start)
			for len(queue) > 0 {
				t := queue[0]
				queue = queue[1:]
				normal := m.FaceNormal(t)
				for _, adj := range m.AdjacentTriangles(t) {
					if visited[adj.Index] {
						continue
					}
					visited[adj.Index] = true
					if m.FaceNormal(adj).Dot(normal) < threshold {
						adj.Flip()
					}
					queue = append(queue, adj)
					numVisited++
					if job.Every(numVisited, 500) {
						if !yield(job.Progress{
							Label:    "fixing triangle winding",
							Fraction: job.Fraction(numVisited, len(m.Triangles)),
						}) {
							return
						}
					}
				}
			}
		}
	}
}

func (m *Mesh) updateOrientations() iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		for i, t := range m.Triangles {
			m.UpdateTangentSpace(t)
			if job.Every(i, 500) {
				if !yield(job.Progress{
					Label:    "updating tangent space",
					Fraction: job.Fraction(i, len(m.Triangles)),
				}) {
					return
				}
			}
		}
		for i, c := range m.Clusters {
			m.UpdateOrientation(c)
			if job.Every(i, 500) {
				if !yield(job.Progress{
					Label:    "updating cluster orientations",
					Fraction: job.Fraction(i, len(m.Clusters)),
				}) {
					return
				}
			}
		}
	}
}

func (m *Mesh) updateEdges() iter.Seq[job.Progress] {
	return job.Concat(m.createEdges(), m.detectBorders())
}

// createEdges lists the three sides of every triangle, sorted by cluster
// pair.
func (m *Mesh) createEdges() iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		m.Edges = make([]Edge, 0, len(m.Triangles)*3)
		for i, t := range m.Triangles {
			for j := 0; j < 3; j++ {
				a, b := t.Clusters[j], t.Clusters[(j+1)%3]
				m.Edges = append(m.Edges, Edge{
					A:   min(a, b),
					B:   max(a, b),
					Key: i*3 + j,
				})
			}
			if job.Every(i, 500) {
				if !yield(job.Progress{
					Label:    "creating edges",
					Fraction: job.Fraction(i, len(m.Triangles)),
				}) {
					return
				}
			}
		}
		slices.SortFunc(m.Edges, func(e1, e2 Edge) bool {
			return e1.less(e2)
		})
	}
}

// detectBorders flags the clusters of every edge which belongs to a single
// triangle.
func (m *Mesh) detectBorders() iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		for _, c := range m.Clusters {
			c.IsBorder = false
		}
		for i := 0; i < len(m.Edges); {
			j := i + 1
			for j < len(m.Edges) && m.Edges[j].sameClusters(m.Edges[i]) {
				j++
			}
			if j == i+1 {
				m.Clusters[m.Edges[i].A].IsBorder = true
				m.Clusters[m.Edges[i].B].IsBorder = true
			}
			if job.Every(i, 250) {
				if !yield(job.Progress{
					Label:    "detecting borders",
					Fraction: job.Fraction(i, len(m.Edges)),
				}) {
					return
				}
			}
			i = j
		}
	}
}
