package clustermesh

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/job"
)

// maxSerializedCount bounds the length of every array in a serialized mesh.
const maxSerializedCount = 1 << 28

// readChunkSize is the number of values decoded per binary.Read call.
const readChunkSize = 4096

// WriteMesh serializes m in a 64-bit precision binary format.
//
// The mesh is re-indexed before it is written.
func WriteMesh(w io.Writer, m *Mesh) error {
	if err := writeMesh(w, m); err != nil {
		return errors.Wrap(err, "write mesh")
	}
	return nil
}

func writeMesh(w io.Writer, m *Mesh) error {
	m.Reindex()

	if err := writeCoords(w, m.sourceVertices); err != nil {
		return err
	}
	if err := writeInts(w, m.sourceIndices); err != nil {
		return err
	}

	if err := writeCount(w, len(m.Clusters)); err != nil {
		return err
	}
	for _, c := range m.Clusters {
		var border float64
		if c.IsBorder {
			border = 1
		}
		values := []float64{
			c.Centroid.X, c.Centroid.Y, c.Centroid.Z,
			c.Orientation.X, c.Orientation.Y, c.Orientation.Z, c.Orientation.W,
			border,
		}
		if err := binary.Write(w, binary.LittleEndian, values); err != nil {
			return err
		}
		if err := writeInts(w, c.VertexIndices); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(m.Triangles)); err != nil {
		return err
	}
	for _, t := range m.Triangles {
		clusters := []int64{
			int64(t.Clusters[0]),
			int64(t.Clusters[1]),
			int64(t.Clusters[2]),
		}
		if err := binary.Write(w, binary.LittleEndian, clusters); err != nil {
			return err
		}
		err := binary.Write(w, binary.LittleEndian, []float64{
			t.Normal.X, t.Normal.Y, t.Normal.Z,
			t.Tangent.X, t.Tangent.Y, t.Tangent.Z,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadMesh reads the output written by WriteMesh.
//
// Incident triangles and edges are reconstructed from the triangles.
func ReadMesh(r io.Reader) (*Mesh, error) {
	m, err := readMesh(r)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	return m, nil
}

func readMesh(r io.Reader) (*Mesh, error) {
	vertices, err := readCoords(r)
	if err != nil {
		return nil, err
	}
	indices, err := readInts(r)
	if err != nil {
		return nil, err
	}
	for _, i := range indices {
		if i < 0 || i >= len(vertices) {
			return nil, errors.Errorf("source index %d out of range", i)
		}
	}
	m := &Mesh{sourceVertices: vertices, sourceIndices: indices}

	numClusters, err := readCount(r)
	if err != nil {
		return nil, err
	}
	m.Clusters = make([]*Cluster, 0, min(numClusters, readChunkSize))
	for i := 0; i < numClusters; i++ {
		var values [8]float64
		if err := binary.Read(r, binary.LittleEndian, &values); err != nil {
			return nil, err
		}
		vertexIndices, err := readInts(r)
		if err != nil {
			return nil, err
		}
		for _, v := range vertexIndices {
			if v < 0 || v >= len(vertices) {
				return nil, errors.Errorf("cluster %d: vertex index %d out of range", i, v)
			}
		}
		c := &Cluster{
			Centroid: model3d.XYZ(values[0], values[1], values[2]),
			Orientation: Quaternion{
				X: values[3],
				Y: values[4],
				Z: values[5],
				W: values[6],
			},
			VertexIndices: vertexIndices,
			Index:         i,
			IsBorder:      values[7] != 0,
		}
		c.resetPair()
		m.Clusters = append(m.Clusters, c)
	}

	numTriangles, err := readCount(r)
	if err != nil {
		return nil, err
	}
	m.Triangles = make([]*Triangle, 0, min(numTriangles, readChunkSize))
	for i := 0; i < numTriangles; i++ {
		var clusters [3]int64
		if err := binary.Read(r, binary.LittleEndian, &clusters); err != nil {
			return nil, err
		}
		var values [6]float64
		if err := binary.Read(r, binary.LittleEndian, &values); err != nil {
			return nil, err
		}
		t := &Triangle{
			Normal:  model3d.XYZ(values[0], values[1], values[2]),
			Tangent: model3d.XYZ(values[3], values[4], values[5]),
			Index:   i,
		}
		for j, c := range clusters {
			if c < 0 || c >= int64(numClusters) {
				return nil, errors.Errorf("triangle %d: cluster %d out of range", i, c)
			}
			t.Clusters[j] = int(c)
			if cluster := m.Clusters[c]; !cluster.hasTriangle(i) {
				cluster.Triangles = append(cluster.Triangles, i)
			}
		}
		m.Triangles = append(m.Triangles, t)
	}
	job.Drain(m.createEdges())
	return m, nil
}

func writeCount(w io.Writer, n int) error {
	return binary.Write(w, binary.LittleEndian, int64(n))
}

func readCount(r io.Reader) (int, error) {
	var n int64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	if n < 0 || n > maxSerializedCount {
		return 0, errors.Errorf("invalid array length: %d", n)
	}
	return int(n), nil
}

func writeInts(w io.Writer, values []int) error {
	if err := writeCount(w, len(values)); err != nil {
		return err
	}
	data := make([]int64, len(values))
	for i, x := range values {
		data[i] = int64(x)
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readInts(r io.Reader) ([]int, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	data, err := readChunked[int64](r, n)
	if err != nil {
		return nil, err
	}
	res := make([]int, n)
	for i, x := range data {
		res[i] = int(x)
	}
	return res, nil
}

func writeCoords(w io.Writer, coords []model3d.Coord3D) error {
	if err := writeCount(w, len(coords)); err != nil {
		return err
	}
	data := make([]float64, 0, len(coords)*3)
	for _, c := range coords {
		data = append(data, c.X, c.Y, c.Z)
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readCoords(r io.Reader) ([]model3d.Coord3D, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	data, err := readChunked[float64](r, n*3)
	if err != nil {
		return nil, err
	}
	res := make([]model3d.Coord3D, n)
	for i := range res {
		res[i] = model3d.XYZ(data[i*3], data[i*3+1], data[i*3+2])
	}
	return res, nil
}

// readChunked reads n fixed-size values, growing the result as data arrives
// so that a bogus count cannot allocate more than the input holds.
func readChunked[T int64 | float64](r io.Reader, n int) ([]T, error) {
	var res []T
	chunk := make([]T, min(n, readChunkSize))
	for len(res) < n {
		buf := chunk[:min(n-len(res), readChunkSize)]
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, err
		}
		res = append(res, buf...)
	}
	return res, nil
}
