package rawmesh

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func tetrahedron() []*model3d.Triangle {
	a := model3d.XYZ(0, 0, 0)
	b := model3d.XYZ(1, 0, 0)
	c := model3d.XYZ(0, 1, 0)
	d := model3d.XYZ(0, 0, 1)
	return []*model3d.Triangle{
		{a, c, b},
		{a, b, d},
		{a, d, c},
		{b, c, d},
	}
}

func TestFromTriangles(t *testing.T) {
	deduped := FromTriangles(tetrahedron(), true)
	assert.Len(t, deduped.Vertices, 4)
	assert.Equal(t, 4, deduped.NumTriangles())

	soup := FromTriangles(tetrahedron(), false)
	assert.Len(t, soup.Vertices, 12)
	assert.Equal(t, 4, soup.NumTriangles())
	for i := 0; i < soup.NumTriangles(); i++ {
		assert.Equal(t, *tetrahedron()[i], *soup.Triangle(i))
	}
}

func TestBounds(t *testing.T) {
	m := FromTriangles(tetrahedron(), true)
	min, max := m.Bounds()
	assert.Equal(t, model3d.Origin, min)
	assert.Equal(t, model3d.XYZ(1, 1, 1), max)

	min, max = (&Mesh{}).Bounds()
	assert.Equal(t, model3d.Origin, min)
	assert.Equal(t, model3d.Origin, max)
}

func TestRecalculateNormals(t *testing.T) {
	m := &Mesh{
		Vertices: []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(0, 1, 0),
		},
		Indices: []int{0, 1, 2},
	}
	m.RecalculateNormals()
	require.Len(t, m.Normals, 3)
	for _, n := range m.Normals {
		assert.InDelta(t, 1.0, n.Z, 1e-8)
	}
}

func TestSTLRoundTrip(t *testing.T) {
	m := FromTriangles(tetrahedron(), true)
	path := filepath.Join(t.TempDir(), "tetra.stl")
	require.NoError(t, SaveSTL(path, m))

	loaded, err := LoadSTL(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Vertices, 4)
	assert.Equal(t, 4, loaded.NumTriangles())
}

func TestLoadMissing(t *testing.T) {
	_, err := LoadSTL(filepath.Join(t.TempDir(), "missing.stl"))
	assert.Error(t, err)
}
