package clustermesh

import (
	"iter"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/spatial"
)

// Decimate repeatedly collapses the cheapest pair of neighboring clusters
// until no pair closer than distance can be collapsed without flipping a
// triangle, then runs Cleanup with the given winding threshold.
//
// The cost of a collapse is the distance between the two centroids plus a
// penalty for the change in shape and orientation of the affected triangles.
// Border clusters are never merged with interior clusters.
//
// Every source vertex stays assigned to a cluster only while at least one
// triangle survives. If distance is not positive, nothing is done.
func (m *Mesh) Decimate(distance, windingThreshold float64) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		if distance <= Epsilon {
			return
		}
		col := &collapser{
			Label: "decimating",
			UpdateCost: func(c *Cluster) {
				m.updateCollapseCost(c, distance)
			},
			Affected: m.NeighborClusters,
		}
		for p := range job.Concat(m.collapseAll(col), m.Cleanup(windingThreshold)) {
			if !yield(p) {
				return
			}
		}
	}
}

// Weld merges clusters whose centroids are closer than distance, regardless
// of whether they share a triangle, then runs Cleanup with the given winding
// threshold.
//
// Border flags are cleared before welding and recomputed by the cleanup.
func (m *Mesh) Weld(distance, windingThreshold float64) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		grid := spatial.NewGrid(distance, func(i int) model3d.Coord3D {
			return m.Clusters[i].Centroid
		})
		for c := range m.LiveClusters() {
			c.IsBorder = false
			grid.Add(c.Index)
		}

		col := &collapser{
			Label: "welding",
			UpdateCost: func(c *Cluster) {
				m.updateWeldCost(c, grid, distance)
			},
			BeforeCollapse: func(c, pair *Cluster) {
				grid.Remove(pair.Index)
				grid.Remove(c.Index)
			},
			AfterCollapse: func(c *Cluster) {
				grid.Add(c.Index)
			},
			Affected: func(c *Cluster) []*Cluster {
				res := m.NeighborClusters(c)
				for i := range grid.NeighborsOf(c.Centroid) {
					if n := m.Clusters[i]; n != c && !containsCluster(res, n) {
						res = append(res, n)
					}
				}
				return res
			},
		}
		for p := range job.Concat(m.collapseAll(col), m.Cleanup(windingThreshold)) {
			if !yield(p) {
				return
			}
		}
	}
}

// A collapser configures the shared collapse loop of Weld and Decimate.
type collapser struct {
	Label string

	// UpdateCost recomputes the best pair of a cluster and its cost.
	UpdateCost func(c *Cluster)

	BeforeCollapse func(c, pair *Cluster)
	AfterCollapse  func(c *Cluster)

	// Affected returns the clusters whose cost may change after c absorbs
	// another cluster.
	Affected func(c *Cluster) []*Cluster
}

func (m *Mesh) collapseAll(col *collapser) iter.Seq[job.Progress] {
	return func(yield func(job.Progress) bool) {
		for c := range m.LiveClusters() {
			col.UpdateCost(c)
		}
		var numCollapses int
		for {
			c := m.cheapestCluster()
			if c == nil {
				break
			}

			// Costs are only refreshed for clusters near each collapse, so
			// the candidate may be out of date.
			pair, cost := c.pair, c.cost
			col.UpdateCost(c)
			if c.pair != pair || c.cost != cost {
				continue
			}

			p := m.Clusters[pair]
			if col.BeforeCollapse != nil {
				col.BeforeCollapse(c, p)
			}
			m.collapse(c, p)
			if col.AfterCollapse != nil {
				col.AfterCollapse(c)
			}
			for _, n := range col.Affected(c) {
				col.UpdateCost(n)
			}
			col.UpdateCost(c)

			numCollapses++
			if job.Every(numCollapses, 100) {
				if !yield(job.Progress{
					Label:    col.Label,
					Fraction: job.Fraction(numCollapses, m.SourceVertexCount()),
				}) {
					return
				}
			}
		}
	}
}

// cheapestCluster finds the live cluster with the lowest finite collapse
// cost. Ties go to the cluster with the lowest index.
func (m *Mesh) cheapestCluster() *Cluster {
	var best *Cluster
	bestCost := math.Inf(1)
	for c := range m.LiveClusters() {
		if c.pair >= 0 && c.cost < bestCost {
			bestCost = c.cost
			best = c
		}
	}
	return best
}

// collapse merges pair into c.
//
// Triangles of pair are retargeted to c, and triangles which become
// degenerate are removed from the mesh.
func (m *Mesh) collapse(c, pair *Cluster) {
	for _, id := range pair.Triangles {
		m.Triangles[id].replace(pair.Index, c.Index)
		if !c.hasTriangle(id) {
			c.Triangles = append(c.Triangles, id)
		}
	}
	pair.Triangles = nil
	pair.removed = true
	pair.resetPair()

	var degenerate []*Triangle
	for _, id := range c.Triangles {
		if t := m.Triangles[id]; t.IsDegenerate() {
			degenerate = append(degenerate, t)
		}
	}
	for _, t := range degenerate {
		m.unlinkTriangle(t)
	}

	c.VertexIndices = append(c.VertexIndices, pair.VertexIndices...)
	pair.VertexIndices = nil
	m.updateCentroid(c)
}

func (m *Mesh) updateCollapseCost(c *Cluster, distance float64) {
	c.resetPair()
	for _, n := range m.NeighborClusters(c) {
		penalty, ok := m.collapsePenalty(c, n)
		if !ok {
			continue
		}
		dist := c.Centroid.Dist(n.Centroid)
		if dist < distance && dist+penalty < c.cost {
			c.cost = dist + penalty
			c.pair = n.Index
		}
	}
}

// collapsePenalty measures how much the triangles around neighbor would be
// distorted if neighbor were moved onto c.
//
// The second return value is false if the collapse is not allowed.
func (m *Mesh) collapsePenalty(c, neighbor *Cluster) (float64, bool) {
	if c.IsBorder != neighbor.IsBorder {
		return 0, false
	}
	var penalty float64
	var count int
	for _, id := range neighbor.Triangles {
		t := m.Triangles[id]
		if t.Contains(c.Index) {
			// Removed by the collapse.
			continue
		}
		var before, after [3]model3d.Coord3D
		for i, x := range t.Clusters {
			before[i] = m.Clusters[x].Centroid
			if x == neighbor.Index {
				after[i] = c.Centroid
			} else {
				after[i] = before[i]
			}
		}
		dot := triangleNormal(before[0], before[1], before[2]).Dot(
			triangleNormal(after[0], after[1], after[2]),
		)
		if dot < 0 {
			return 0, false
		}
		aspect := aspectRatio(
			after[0].Dist(after[1]),
			after[1].Dist(after[2]),
			after[2].Dist(after[0]),
		)
		penalty += math.Max(0, aspect-1) + (1 - dot)
		count++
	}
	if count > 0 {
		penalty /= float64(count)
	}
	return penalty, true
}

func (m *Mesh) updateWeldCost(c *Cluster, grid *spatial.Grid[int], distance float64) {
	c.resetPair()
	for i := range grid.NeighborsOf(c.Centroid) {
		if i == c.Index {
			continue
		}
		dist := c.Centroid.Dist(m.Clusters[i].Centroid)
		if dist < distance && dist < c.cost {
			c.cost = dist
			c.pair = i
		}
	}
}

func containsCluster(clusters []*Cluster, c *Cluster) bool {
	for _, x := range clusters {
		if x == c {
			return true
		}
	}
	return false
}
