package skinmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/clustermesh"
)

func testMesh() *clustermesh.Mesh {
	return clustermesh.NewMesh(
		[]model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(1, 1, 0),
			model3d.XYZ(0, 1, 0),
		},
		[]int{0, 1, 2, 0, 2, 3},
	)
}

func TestMapClustersToVertices(t *testing.T) {
	mesh := testMesh()
	vertices := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(0.25, 0, 0),
		model3d.XYZ(0.5, 0.5, 0),
		model3d.XYZ(5, 5, 5),
	}
	m := MapClustersToVertices(mesh, vertices, Params{Radius: 1, Falloff: 1, MaxInfluences: 4})
	require.Equal(t, len(vertices), m.NumVertices())
	require.Len(t, m.Offsets, len(vertices)+1)

	// Exactly on a cluster, and too far from the others to be affected.
	first := m.Of(0)
	require.Len(t, first, 1)
	assert.Equal(t, 0, first[0].Index)
	assert.InDelta(t, 1.0, first[0].Weight, 1e-8)

	// Closer to cluster 0 than to cluster 1.
	second := m.Of(1)
	require.Len(t, second, 2)
	assert.Equal(t, 0, second[0].Index)
	assert.Equal(t, 1, second[1].Index)
	assert.InDelta(t, 0.75/(0.75+0.25), second[0].Weight, 1e-8)

	// Equidistant from every cluster.
	center := m.Of(2)
	require.Len(t, center, 4)
	for i, inf := range center {
		assert.Equal(t, i, inf.Index)
		assert.InDelta(t, 0.25, inf.Weight, 1e-8)
	}

	assert.Empty(t, m.Of(3))
	assert.Equal(t, 1, m.UnboundCount())
	assert.Equal(t, 4, m.MaxInfluenceCount())
}

func TestMapClustersMaxInfluences(t *testing.T) {
	mesh := testMesh()
	vertices := []model3d.Coord3D{model3d.XYZ(0.4, 0.3, 0)}
	m := MapClustersToVertices(mesh, vertices, Params{Radius: 2, Falloff: 2, MaxInfluences: 2})
	influences := m.Of(0)
	require.Len(t, influences, 2)
	assert.GreaterOrEqual(t, influences[0].Weight, influences[1].Weight)
	assert.Equal(t, 0, influences[0].Index)
	assert.InDelta(t, 1.0, influences[0].Weight+influences[1].Weight, 1e-8)
}

func TestMapClustersToSourceVertices(t *testing.T) {
	mesh := testMesh()
	m := MapClustersToVertices(mesh, mesh.SourceVertices(), DefaultParams())
	for i := 0; i < m.NumVertices(); i++ {
		influences := m.Of(i)
		require.Len(t, influences, 1)
		assert.Equal(t, i, influences[0].Index)
	}
}

func TestNormalizeWeights(t *testing.T) {
	m := &InfluenceMap{
		Influences: []Influence{{0, 1}, {1, 3}, {2, 0}, {3, 0}},
		Offsets:    []int{0, 2, 4},
	}
	m.NormalizeWeights(0, 2)
	m.NormalizeWeights(2, 2)
	assert.Equal(t, []Influence{{0, 0.25}, {1, 0.75}, {2, 0}, {3, 0}}, m.Influences)

	assert.False(t, m.IsEmpty())
	m.Clear()
	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.NumVertices())
}
