package sdfx

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/voronize/pkg/grid"
)

func ballField(n int, r float64, scale r3.Vector) *grid.Field {
	s := grid.Cube(n)
	c := float64(n-1) / 2
	f := grid.NewField(s, scale)
	for i := range f.Data {
		x, y, z := s.Coords(i)
		d := math.Sqrt((float64(x)-c)*(float64(x)-c) + (float64(y)-c)*(float64(y)-c) + (float64(z)-c)*(float64(z)-c))
		f.Data[i] = float32(d - r)
	}
	return f
}

func TestFieldSDFEvaluatesInMillimetres(t *testing.T) {
	f := ballField(11, 3, r3.Vector{X: 2, Y: 2, Z: 2})
	s := FieldSDF(f)
	if v := s.Evaluate(v3.Vec{X: 10, Y: 10, Z: 10}); v >= 0 {
		t.Errorf("centre = %v, want inside", v)
	}
	if v := s.Evaluate(v3.Vec{X: 0, Y: 0, Z: 0}); v <= 0 {
		t.Errorf("corner = %v, want outside", v)
	}
	bb := s.BoundingBox()
	if bb.Min.X != -2 || bb.Max.X != 22 {
		t.Errorf("bounding box = %v", bb)
	}
}

func TestToMeshSphere(t *testing.T) {
	f := ballField(16, 5, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	m, err := New().ToMesh(f)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals %d != vertices %d", len(m.Normals), len(m.Vertices))
	}
	// Centre is at 7.5 voxels = 3.75 mm, radius 5 voxels = 2.5 mm.
	for i := range m.VertexCount() {
		v := m.Vertex(i)
		d := math.Sqrt(sq(v[0]-3.75) + sq(v[1]-3.75) + sq(v[2]-3.75))
		if math.Abs(d-2.5) > 0.5 {
			t.Fatalf("vertex %v is %v mm from the centre, want about 2.5", v, d)
		}
	}
}

func TestToMeshEmptyField(t *testing.T) {
	f := grid.NewFieldFilled(grid.Cube(4), grid.UnitScale, 1)
	m, err := New().ToMesh(f)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if !m.IsEmpty() {
		t.Errorf("empty field gave %d triangles", m.TriangleCount())
	}
}

func sq(v float32) float64 { return float64(v) * float64(v) }
