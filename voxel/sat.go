package voxel

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// IntersectsTriangle checks if a triangle touches an axis-aligned box, using
// the separating axis theorem.
//
// The 13 candidate axes are the three box face normals, the triangle normal,
// and the cross products of the box axes with the triangle edges.
func IntersectsTriangle(center, halfExtents, a, b, c model3d.Coord3D) bool {
	a = a.Sub(center)
	b = b.Sub(center)
	c = c.Sub(center)

	edges := [3]model3d.Coord3D{b.Sub(a), c.Sub(b), a.Sub(c)}
	boxAxes := [3]model3d.Coord3D{model3d.X(1), model3d.Y(1), model3d.Z(1)}

	for _, axis := range boxAxes {
		for _, edge := range edges {
			if separates(a, b, c, halfExtents, axis.Cross(edge)) {
				return false
			}
		}
	}
	for _, axis := range boxAxes {
		if separates(a, b, c, halfExtents, axis) {
			return false
		}
	}
	return !separates(a, b, c, halfExtents, edges[0].Cross(edges[1]))
}

// separates checks if axis is a separating axis for a box centered at the
// origin and a triangle.
func separates(a, b, c, halfExtents, axis model3d.Coord3D) bool {
	p0 := a.Dot(axis)
	p1 := b.Dot(axis)
	p2 := c.Dot(axis)
	r := halfExtents.X*math.Abs(axis.X) +
		halfExtents.Y*math.Abs(axis.Y) +
		halfExtents.Z*math.Abs(axis.Z)
	maxP := math.Max(p0, math.Max(p1, p2))
	minP := math.Min(p0, math.Min(p1, p2))
	return math.Max(-maxP, minP) > r
}
