// Package meshio writes tessellated meshes to disk as ASCII PLY or
// binary STL.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	m3d "github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronize/pkg/kernel"
)

// Formats lists the supported output formats.
var Formats = []string{"ply", "stl"}

// WritePLY encodes m as an ASCII PLY document with one float vertex
// element and one triangle face list.
func WritePLY(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat ascii 1.0\ncomment voronize generated\n")
	fmt.Fprintf(bw, "element vertex %d\n", m.VertexCount())
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "element face %d\n", m.TriangleCount())
	fmt.Fprintf(bw, "property list uchar int vertex_indices\nend_header\n")

	buf := make([]byte, 0, 64)
	for i := range m.VertexCount() {
		v := m.Vertex(i)
		buf = buf[:0]
		for k, c := range v {
			if k > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, float64(c), 'g', -1, 32)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	for i := range m.TriangleCount() {
		t := m.Triangle(i)
		fmt.Fprintf(bw, "3 %d %d %d\n", t[0], t[1], t[2])
	}
	return errors.Wrap(bw.Flush(), "write ply")
}

// WriteSTL encodes m as a binary STL.
func WriteSTL(w io.Writer, m *kernel.Mesh) error {
	return errors.Wrap(m3d.WriteSTL(w, Triangles(m)), "write stl")
}

// Triangles converts m into model3d triangles.
func Triangles(m *kernel.Mesh) []*m3d.Triangle {
	coord := func(i uint32) m3d.Coord3D {
		v := m.Vertex(int(i))
		return m3d.Coord3D{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	tris := make([]*m3d.Triangle, 0, m.TriangleCount())
	for i := range m.TriangleCount() {
		t := m.Triangle(i)
		tris = append(tris, &m3d.Triangle{coord(t[0]), coord(t[1]), coord(t[2])})
	}
	return tris
}

// Save writes m to dir/base.format and returns the path written.
func Save(dir, base, format string, m *kernel.Mesh) (string, error) {
	var write func(io.Writer, *kernel.Mesh) error
	switch format {
	case "ply":
		write = WritePLY
	case "stl":
		write = WriteSTL
	default:
		return "", errors.Errorf("save mesh: unknown format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "save mesh")
	}
	path := filepath.Join(dir, base+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "save mesh")
	}
	if err := write(f, m); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "save mesh %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "save mesh %s", path)
	}
	return path, nil
}
