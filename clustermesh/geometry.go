package clustermesh

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// Epsilon is the tolerance used for near-zero lengths and areas.
const Epsilon = 1e-7

// A Quaternion is a rotation in 3D space.
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion is the rotation which leaves vectors unchanged.
var IdentityQuaternion = Quaternion{W: 1}

// LookRotation creates a rotation which maps the Z axis onto forward and the
// Y axis as close as possible to up.
//
// If up is parallel to forward, an arbitrary perpendicular up vector is used.
// If forward is zero, the identity is returned.
func LookRotation(forward, up model3d.Coord3D) Quaternion {
	fNorm := forward.Norm()
	if fNorm < Epsilon {
		return IdentityQuaternion
	}
	z := forward.Scale(1 / fNorm)
	x := up.Cross(z)
	if x.Norm() < Epsilon {
		x = perpendicular(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return quaternionFromBasis(x, y, z)
}

func quaternionFromBasis(x, y, z model3d.Coord3D) Quaternion {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q Quaternion
	if trace := m00 + m11 + m22; trace > 0 {
		s := math.Sqrt(trace+1) * 2
		q = Quaternion{
			W: 0.25 * s,
			X: (m21 - m12) / s,
			Y: (m02 - m20) / s,
			Z: (m10 - m01) / s,
		}
	} else if m00 > m11 && m00 > m22 {
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quaternion{
			W: (m21 - m12) / s,
			X: 0.25 * s,
			Y: (m01 + m10) / s,
			Z: (m02 + m20) / s,
		}
	} else if m11 > m22 {
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quaternion{
			W: (m02 - m20) / s,
			X: (m01 + m10) / s,
			Y: 0.25 * s,
			Z: (m12 + m21) / s,
		}
	} else {
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quaternion{
			W: (m10 - m01) / s,
			X: (m02 + m20) / s,
			Y: (m12 + m21) / s,
			Z: 0.25 * s,
		}
	}
	return q
}

// Apply rotates a vector.
func (q Quaternion) Apply(v model3d.Coord3D) model3d.Coord3D {
	u := model3d.XYZ(q.X, q.Y, q.Z)
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// perpendicular returns some vector orthogonal to a unit vector v.
func perpendicular(v model3d.Coord3D) model3d.Coord3D {
	axis := model3d.X(1)
	if math.Abs(v.Y) < math.Abs(v.X) && math.Abs(v.Y) <= math.Abs(v.Z) {
		axis = model3d.Y(1)
	} else if math.Abs(v.Z) < math.Abs(v.X) {
		axis = model3d.Z(1)
	}
	return axis.Cross(v)
}

// triangleNormal computes the unit normal of a triangle, or the zero vector
// if the triangle has no area.
func triangleNormal(a, b, c model3d.Coord3D) model3d.Coord3D {
	n := b.Sub(a).Cross(c.Sub(a))
	norm := n.Norm()
	if norm < Epsilon*Epsilon {
		return model3d.Coord3D{}
	}
	return n.Scale(1 / norm)
}

// aspectRatio computes the ratio between a triangle's circumradius and twice
// its inradius from its side lengths. Equilateral triangles have a ratio of
// 1, and degenerate triangles have an infinite ratio.
func aspectRatio(a, b, c float64) float64 {
	s := (a + b + c) / 2
	denom := 8 * (s - a) * (s - b) * (s - c)
	if denom < Epsilon*Epsilon {
		return math.Inf(1)
	}
	return a * b * c / denom
}

// bestAxisProjection projects a triangle onto the coordinate plane most
// parallel to it.
func bestAxisProjection(a, b, c model3d.Coord3D) (w1, w2, w3 planar) {
	n := b.Sub(a).Cross(c.Sub(a))
	nx, ny, nz := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	project := func(v model3d.Coord3D) planar {
		if nx > ny && nx > nz {
			return planar{v.Y, v.Z}
		} else if ny > nz {
			return planar{v.X, v.Z}
		}
		return planar{v.X, v.Y}
	}
	return project(a), project(b), project(c)
}

type planar struct {
	X, Y float64
}

func (p planar) Sub(p1 planar) planar {
	return planar{p.X - p1.X, p.Y - p1.Y}
}

// tangentSpace computes the normal and tangent of a triangle.
//
// Neither vector is normalized, and the normal's length is twice the
// triangle's area. The tangent is derived from a planar parameterization of
// the triangle, and is zero for triangles without area.
func tangentSpace(v1, v2, v3 model3d.Coord3D) (normal, tangent model3d.Coord3D) {
	w1, w2, w3 := bestAxisProjection(v1, v2, v3)

	m1 := v2.Sub(v1)
	m2 := v3.Sub(v1)
	s := w2.Sub(w1)
	t := w3.Sub(w1)

	normal = m1.Cross(m2)

	area := s.X*t.Y - t.X*s.Y
	if math.Abs(area) > Epsilon {
		r := 1 / area
		tangent = m1.Scale(t.Y * r).Sub(m2.Scale(s.Y * r))
	}
	return
}
