// Package shapes creates primitive meshes for testing and for the command
// line tools when no input mesh is given.
package shapes

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/rawmesh"
)

// DefaultCells is the number of marching cubes cells along the longest axis
// of an SDF primitive.
const DefaultCells = 64

// Names lists the primitives accepted by Create.
var Names = []string{"sphere", "box", "cube", "icosphere"}

// Create builds a named primitive of the given size, which is the radius for
// round shapes and the side length for boxes.
//
// The detail argument is the cell count for SDF shapes and the number of
// subdivisions for the icosphere. It is ignored for cubes.
func Create(name string, size float64, detail int) (*rawmesh.Mesh, error) {
	switch name {
	case "sphere":
		return Sphere(size, detail)
	case "box":
		return Box(model3d.XYZ(size, size, size), detail)
	case "cube":
		return Cube(size), nil
	case "icosphere":
		return Icosphere(size, detail), nil
	}
	return nil, errors.Errorf("unknown shape: %s", name)
}

// Sphere renders a sphere centered at the origin with marching cubes.
func Sphere(radius float64, cells int) (*rawmesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, errors.Wrap(err, "create sphere")
	}
	return render3D(s, cells), nil
}

// Box renders a box centered at the origin with marching cubes.
func Box(size model3d.Coord3D, cells int) (*rawmesh.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, 0)
	if err != nil {
		return nil, errors.Wrap(err, "create box")
	}
	return render3D(s, cells), nil
}

func render3D(s sdf.SDF3, cells int) *rawmesh.Mesh {
	if cells <= 0 {
		cells = DefaultCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	tris := make([]*model3d.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		var t model3d.Triangle
		for j := 0; j < 3; j++ {
			t[j] = model3d.XYZ(tri[j].X, tri[j].Y, tri[j].Z)
		}
		tris = append(tris, &t)
	}
	return rawmesh.FromTriangles(tris, true)
}

// Cube creates a twelve triangle cube centered at the origin.
func Cube(size float64) *rawmesh.Mesh {
	half := model3d.XYZ(1, 1, 1).Scale(size / 2)
	return rawmesh.FromModel3D(model3d.NewMeshRect(half.Scale(-1), half))
}

// Icosphere creates a subdivided icosahedron centered at the origin.
func Icosphere(radius float64, subdivisions int) *rawmesh.Mesh {
	return rawmesh.FromModel3D(model3d.NewMeshIcosphere(model3d.Origin, radius,
		max(subdivisions, 1)))
}
