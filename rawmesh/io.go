package rawmesh

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Load opens a file and decodes it with f.
func Load[T any](path string, f func(r io.Reader) (T, error)) (T, error) {
	var zero T
	r, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "load")
	}
	defer r.Close()
	obj, err := f(bufio.NewReader(r))
	if err != nil {
		return zero, errors.Wrap(err, "load "+path)
	}
	return obj, nil
}

// Save creates a file and encodes obj into it with f.
func Save[T any](path string, obj T, f func(w io.Writer, obj T) error) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save")
	}
	bw := bufio.NewWriter(w)
	if err := f(bw, obj); err != nil {
		w.Close()
		return errors.Wrap(err, "save "+path)
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return errors.Wrap(err, "save "+path)
	}
	return errors.Wrap(w.Close(), "save "+path)
}

// LoadSTL reads an STL file as an indexed mesh, merging identical corners.
func LoadSTL(path string) (*Mesh, error) {
	tris, err := Load(path, model3d.ReadSTL)
	if err != nil {
		return nil, err
	}
	return FromTriangles(tris, true), nil
}

// SaveSTL writes the mesh to an STL file.
func SaveSTL(path string, m *Mesh) error {
	return Save(path, m, func(w io.Writer, m *Mesh) error {
		return model3d.WriteSTL(w, m.ToModel3D().TriangleSlice())
	})
}
