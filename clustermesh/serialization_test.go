package clustermesh

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"runtime"
	"testing"

	"github.com/unixpickle/skinproxy/job"
)

func TestReadWriteMesh(t *testing.T) {
	vertices, indices := unitCube()
	m := NewMesh(vertices, indices)

	var b bytes.Buffer
	if err := WriteMesh(&b, m); err != nil {
		t.Fatal(err)
	}
	if result, err := ReadMesh(&b); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(result, m) {
		t.Fatal("mesh changed after round trip")
	}
}

func TestReadWriteDecimatedMesh(t *testing.T) {
	vertices, indices := bumpyPlane(8)
	m := NewMesh(vertices, indices)
	job.Drain(m.Decimate(0.4, CollapseWindingThreshold))

	var b bytes.Buffer
	if err := WriteMesh(&b, m); err != nil {
		t.Fatal(err)
	}
	result, err := ReadMesh(&b)
	if err != nil {
		t.Fatal(err)
	}
	checkConsistency(t, result)

	if len(result.Clusters) != len(m.Clusters) || len(result.Triangles) != len(m.Triangles) {
		t.Fatalf("expected %d/%d clusters/triangles but got %d/%d", len(m.Clusters),
			len(m.Triangles), len(result.Clusters), len(result.Triangles))
	}
	for i, c := range m.Clusters {
		actual := result.Clusters[i]
		if actual.Centroid != c.Centroid || actual.Orientation != c.Orientation ||
			actual.IsBorder != c.IsBorder {
			t.Errorf("cluster %d: expected %v but got %v", i, c, actual)
		}
		if !equalInts(actual.VertexIndices, c.VertexIndices) {
			t.Errorf("cluster %d: expected vertices %v but got %v", i, c.VertexIndices,
				actual.VertexIndices)
		}
		if len(actual.Triangles) != len(c.Triangles) {
			t.Errorf("cluster %d: expected %d triangles but got %d", i, len(c.Triangles),
				len(actual.Triangles))
		}
	}
	for i, tri := range m.Triangles {
		if *result.Triangles[i] != *tri {
			t.Errorf("triangle %d: expected %v but got %v", i, tri, result.Triangles[i])
		}
	}
	if !reflect.DeepEqual(result.Edges, m.Edges) {
		t.Error("edges changed after round trip")
	}
}

func TestReadMeshInvalid(t *testing.T) {
	if _, err := ReadMesh(bytes.NewReader(nil)); err == nil {
		t.Error("expected error for empty input")
	}

	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, int64(-3))
	if _, err := ReadMesh(&b); err == nil {
		t.Error("expected error for negative length")
	}

	vertices, indices := unitSquare()
	b.Reset()
	if err := WriteMesh(&b, NewMesh(vertices, indices)); err != nil {
		t.Fatal(err)
	}
	data := b.Bytes()
	if _, err := ReadMesh(bytes.NewReader(data[:len(data)-1])); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestReadMeshLargeHeader(t *testing.T) {
	for _, count := range []int64{1 << 24, maxSerializedCount} {
		var b bytes.Buffer
		binary.Write(&b, binary.LittleEndian, count)

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err := ReadMesh(&b)
		runtime.ReadMemStats(&after)

		if err == nil {
			t.Fatalf("count %d: expected error for header-only input", count)
		}
		if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 1<<20 {
			t.Errorf("count %d: allocated %d bytes for an 8 byte input", count, allocated)
		}
	}
}
