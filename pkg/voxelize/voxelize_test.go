package voxelize

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	m3d "github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronize/pkg/grid"
)

// boxTriangles returns the twelve triangles of an axis-aligned box.
func boxTriangles(lo, hi m3d.Coord3D) []*m3d.Triangle {
	c := func(x, y, z int) m3d.Coord3D {
		p := lo
		if x == 1 {
			p.X = hi.X
		}
		if y == 1 {
			p.Y = hi.Y
		}
		if z == 1 {
			p.Z = hi.Z
		}
		return p
	}
	quads := [][4][3]int{
		{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
		{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}},
		{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
		{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}},
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}},
	}
	var tris []*m3d.Triangle
	for _, q := range quads {
		p := [4]m3d.Coord3D{}
		for i, v := range q {
			p[i] = c(v[0], v[1], v[2])
		}
		tris = append(tris, &m3d.Triangle{p[0], p[1], p[2]}, &m3d.Triangle{p[0], p[2], p[3]})
	}
	return tris
}

func TestTrianglesBox(t *testing.T) {
	tris := boxTriangles(m3d.Coord3D{X: 0, Y: 0, Z: 0}, m3d.Coord3D{X: 20, Y: 10, Z: 10})
	r, err := Triangles(tris, 10, 2)
	if err != nil {
		t.Fatalf("Triangles: %v", err)
	}
	if want := grid.NewShape(14, 9, 9); r.Field.Shape != want {
		t.Fatalf("shape = %v, want %v", r.Field.Shape, want)
	}
	if r.Field.Scale.X != 2 {
		t.Errorf("voxel size = %v mm, want 2", r.Field.Scale.X)
	}
	if r.Box.X != 20 || r.Box.Y != 10 {
		t.Errorf("box = %v", r.Box)
	}
	// Every voxel between the buffers is inside, every buffer voxel outside.
	if got, want := r.Field.CountInside(), 10*5*5; got != want {
		t.Errorf("inside voxels = %d, want %d", got, want)
	}
	if r.Field.At(0, 4, 4) <= 0 || r.Field.At(2, 2, 2) >= 0 || r.Field.At(11, 6, 6) >= 0 {
		t.Error("inside/outside misclassified at the buffer edge")
	}
}

func TestTrianglesDuplicateFaces(t *testing.T) {
	tris := boxTriangles(m3d.Coord3D{}, m3d.Coord3D{X: 8, Y: 8, Z: 8})
	tris = append(tris, boxTriangles(m3d.Coord3D{}, m3d.Coord3D{X: 8, Y: 8, Z: 8})...)
	r, err := Triangles(tris, 8, 0)
	if err != nil {
		t.Fatalf("Triangles: %v", err)
	}
	if got := r.Field.CountInside(); got != 8*8*8 {
		t.Errorf("inside voxels = %d, want %d", got, 8*8*8)
	}
}

func TestVoxelizeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := m3d.WriteSTL(f, boxTriangles(m3d.Coord3D{}, m3d.Coord3D{X: 6, Y: 6, Z: 6})); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := Voxelize(path, 6, 1)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	if r.Field.Shape != grid.Cube(8) {
		t.Errorf("shape = %v, want 8^3", r.Field.Shape)
	}
	if math.Abs(r.Field.VoxelVolume()-1) > 1e-9 {
		t.Errorf("voxel volume = %v, want 1", r.Field.VoxelVolume())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.stl")},
		{"unsupported", "model.obj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Voxelize(tt.path, 10, 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}
