package voxel

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/rawmesh"
)

func TestIntersectsTriangle(t *testing.T) {
	center := model3d.Origin
	half := model3d.XYZ(0.5, 0.5, 0.5)

	testCases := []struct {
		Name     string
		Triangle [3]model3d.Coord3D
		Expected bool
	}{
		{
			Name: "Through",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(-2, -2, 0), model3d.XYZ(2, -2, 0), model3d.XYZ(0, 2, 0),
			},
			Expected: true,
		},
		{
			Name: "Inside",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(-0.1, -0.1, 0.1), model3d.XYZ(0.1, -0.1, 0), model3d.XYZ(0, 0.1, 0),
			},
			Expected: true,
		},
		{
			Name: "Far",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(10, 10, 10), model3d.XYZ(11, 10, 10), model3d.XYZ(10, 11, 10),
			},
			Expected: false,
		},
		{
			Name: "TouchingFace",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(0.5, -1, -1), model3d.XYZ(0.5, 1, -1), model3d.XYZ(0.5, 0, 1),
			},
			Expected: true,
		},
		{
			Name: "NearFace",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(0.501, -1, -1), model3d.XYZ(0.501, 1, -1), model3d.XYZ(0.501, 0, 1),
			},
			Expected: false,
		},
		{
			Name: "PastCorner",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(2, 0, 0), model3d.XYZ(0, 2, 0), model3d.XYZ(0, 0, 2),
			},
			Expected: false,
		},
		{
			Name: "CuttingCorner",
			Triangle: [3]model3d.Coord3D{
				model3d.XYZ(1.2, 0, 0), model3d.XYZ(0, 1.2, 0), model3d.XYZ(0, 0, 1.2),
			},
			Expected: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			tri := tc.Triangle
			actual := IntersectsTriangle(center, half, tri[0], tri[1], tri[2])
			if actual != tc.Expected {
				t.Errorf("expected %v but got %v", tc.Expected, actual)
			}
			// Winding must not matter.
			actual = IntersectsTriangle(center, half, tri[2], tri[1], tri[0])
			if actual != tc.Expected {
				t.Errorf("reversed: expected %v but got %v", tc.Expected, actual)
			}
		})
	}
}

func TestVoxelizeSphere(t *testing.T) {
	mesh := rawmesh.FromModel3D(model3d.NewMeshIcosphere(model3d.Origin, 1, 2))
	v := NewVoxelizer(mesh, 0.1)
	if n := job.Drain(v.Voxelize(nil, false)); n == 0 {
		t.Error("expected progress reports")
	}
	if v.State() != FloodFilled {
		t.Fatalf("unexpected state: %s", v.State())
	}
	if v.At(Coord{}) != Outside {
		t.Fatal("corner of the grid should be outside")
	}
	if v.Count(Inside) == 0 || v.Count(Boundary) == 0 {
		t.Fatalf("expected inside and boundary voxels, got %d and %d", v.Count(Inside),
			v.Count(Boundary))
	}
	if v.Count(Inside)+v.Count(Boundary)+v.Count(Outside) != v.Len() {
		t.Fatal("unexpected voxel values")
	}
	center := v.PointVoxel(model3d.Origin).Sub(v.Origin)
	if v.At(center) != Inside {
		t.Errorf("center voxel is %s", v.At(center))
	}
	checkSealed(t, v)

	if err := v.BoundaryThinning(); err != nil {
		t.Fatal(err)
	}
	checkSealed(t, v)
	for c := range v.Cells() {
		if v.At(c) != Boundary {
			continue
		}
		var touchesOutside bool
		for _, offset := range FaceNeighborhood {
			n := c.Add(offset)
			if !v.VoxelExists(n) || v.At(n) == Outside {
				touchesOutside = true
			}
		}
		if !touchesOutside {
			t.Fatalf("boundary voxel %v is not on the surface", c)
		}
	}

	numBoundary := v.Count(Boundary)
	result, err := v.CreateMesh(2)
	if err != nil {
		t.Fatal(err)
	}
	if v.State() != Reconstructed {
		t.Errorf("unexpected state: %s", v.State())
	}
	if len(result.Vertices) != numBoundary {
		t.Errorf("expected %d vertices but got %d", numBoundary, len(result.Vertices))
	}
	if result.NumTriangles() == 0 || len(result.Indices)%3 != 0 {
		t.Fatalf("unexpected index count: %d", len(result.Indices))
	}
	for _, p := range result.Vertices {
		if r := p.Norm(); r < 0.75 || r > 1.15 {
			t.Fatalf("vertex %v is too far from the sphere", p)
		}
	}
	var outward int
	for i := 0; i < result.NumTriangles(); i++ {
		tri := result.Triangle(i)
		center := tri[0].Add(tri[1]).Add(tri[2]).Scale(1.0 / 3)
		if tri.Normal().Dot(center) > 0 {
			outward++
		}
	}
	if outward < result.NumTriangles()*9/10 {
		t.Errorf("only %d/%d triangles face outward", outward, result.NumTriangles())
	}
	if len(result.Normals) != len(result.Vertices) {
		t.Error("normals were not computed")
	}
}

func TestTrianglesOverlappingVoxel(t *testing.T) {
	mesh := rawmesh.FromModel3D(model3d.NewMeshIcosphere(model3d.Origin, 1, 1))

	v := NewVoxelizer(mesh, 0.25)
	job.Drain(v.Voxelize(nil, false))
	if tris := v.TrianglesOverlappingVoxel(0); tris != nil {
		t.Errorf("expected nil without recording, got %v", tris)
	}

	job.Drain(v.Voxelize(nil, true))
	if tris := v.TrianglesOverlappingVoxel(-1); tris != nil {
		t.Errorf("expected nil for negative index, got %v", tris)
	}
	if tris := v.TrianglesOverlappingVoxel(v.Len()); tris != nil {
		t.Errorf("expected nil for out of range index, got %v", tris)
	}
	for c := range v.Cells() {
		tris := v.TrianglesOverlappingVoxel(v.VoxelIndex(c))
		if (v.At(c) == Boundary) != (len(tris) > 0) {
			t.Fatalf("voxel %v is %s but has %d triangles", c, v.At(c), len(tris))
		}
		for _, idx := range tris {
			tri := mesh.Triangle(idx)
			half := model3d.XYZ(1, 1, 1).Scale(v.VoxelSize / 2)
			if !IntersectsTriangle(v.VoxelCenter(c), half, tri[0], tri[1], tri[2]) {
				t.Fatalf("triangle %d does not touch voxel %v", idx, c)
			}
		}
	}
}

func TestVoxelizeEmpty(t *testing.T) {
	v := NewVoxelizer(&rawmesh.Mesh{}, 0)
	job.Drain(v.Voxelize(nil, true))
	if v.VoxelSize != MinVoxelSize {
		t.Errorf("voxel size was not clamped: %f", v.VoxelSize)
	}
	if v.Resolution != (Coord{3, 3, 3}) {
		t.Errorf("unexpected resolution: %v", v.Resolution)
	}
	if v.Count(Outside) != v.Len() {
		t.Errorf("expected all voxels outside, got %d/%d", v.Count(Outside), v.Len())
	}
	if err := v.BoundaryThinning(); err != nil {
		t.Fatal(err)
	}
	result, err := v.CreateMesh(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Vertices) != 0 || len(result.Indices) != 0 {
		t.Error("expected an empty mesh")
	}
}

func TestVoxelizeTransform(t *testing.T) {
	mesh := rawmesh.FromModel3D(model3d.NewMeshRect(model3d.Origin, model3d.XYZ(1, 1, 1)))
	v := NewVoxelizer(mesh, 0.25)
	job.Drain(v.Voxelize(nil, false))
	origin, resolution := v.Origin, v.Resolution
	inside := v.Count(Inside)

	job.Drain(v.Voxelize(&model3d.Translate{Offset: model3d.XYZ(-10, 5, 2.5)}, false))
	if expected := origin.Add(Coord{-40, 20, 10}); v.Origin != expected {
		t.Errorf("expected origin %v but got %v", expected, v.Origin)
	}
	if v.Resolution != resolution {
		t.Errorf("expected resolution %v but got %v", resolution, v.Resolution)
	}
	if v.Count(Inside) != inside {
		t.Errorf("expected %d inside voxels but got %d", inside, v.Count(Inside))
	}
}

func TestVoxelizerState(t *testing.T) {
	v := NewVoxelizer(&rawmesh.Mesh{}, 1)
	if err := v.BoundaryThinning(); err != ErrNotVoxelized {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := v.CreateMesh(0); err != ErrNotVoxelized {
		t.Errorf("unexpected error: %v", err)
	}

	stepper := job.NewStepper(v.Voxelize(nil, false))
	stepper.Stop()
	if v.State() == FloodFilled {
		t.Error("abandoned job should not finish")
	}

	mesh := rawmesh.FromModel3D(model3d.NewMeshIcosphere(model3d.Origin, 1, 1))
	v = NewVoxelizer(mesh, 0.25)
	stepper = job.NewStepper(v.Voxelize(nil, false))
	for v.State() != SurfaceVoxelized {
		if _, ok := stepper.Step(); !ok {
			t.Fatal("job finished without pausing during the flood fill")
		}
	}
	stepper.Stop()
	if err := v.BoundaryThinning(); err != ErrNotFilled {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := v.CreateMesh(0); err != ErrNotFilled {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNeighborhoods(t *testing.T) {
	if len(EdgeFaceNeighborhood) != 18 || len(FullNeighborhood) != 26 {
		t.Fatalf("unexpected sizes %d, %d", len(EdgeFaceNeighborhood), len(FullNeighborhood))
	}
	g := NewGrid(2, Coord{}, Coord{1, 1, 1}, Empty)
	for i, offset := range FullNeighborhood {
		expected := math.Sqrt(float64(offset.X*offset.X+offset.Y*offset.Y+offset.Z*offset.Z)) * 2
		if actual := g.DistanceToNeighbor(i); math.Abs(actual-expected) > 1e-8 {
			t.Errorf("neighbor %d: expected %f but got %f", i, expected, actual)
		}
	}
	seen := map[Coord]bool{}
	for _, c := range FullNeighborhood {
		if seen[c] || c == (Coord{}) {
			t.Fatalf("invalid neighbor %v", c)
		}
		seen[c] = true
	}
}

// checkSealed verifies that no Inside voxel shares a face with an Outside
// voxel or with the edge of the grid.
func checkSealed(t *testing.T, v *Voxelizer) {
	for c := range v.Cells() {
		if v.At(c) != Inside {
			continue
		}
		for _, offset := range FaceNeighborhood {
			n := c.Add(offset)
			if !v.VoxelExists(n) || v.At(n) == Outside {
				t.Fatalf("inside voxel %v touches the outside", c)
			}
		}
	}
}
