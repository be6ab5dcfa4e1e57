package frep

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/voronize/pkg/grid"
)

// randomField fills a field with values in [-5, 5).
func randomField(s grid.Shape, seed uint64) *grid.Field {
	r := rand.New(rand.NewPCG(seed, 1))
	f := grid.NewField(s, grid.UnitScale)
	for i := range f.Data {
		f.Data[i] = r.Float32()*10 - 5
	}
	return f
}

// ball returns an exact distance field of a sphere.
func ball(s grid.Shape, cx, cy, cz, r float64) *grid.Field {
	f := grid.NewField(s, grid.UnitScale)
	for i := range f.Data {
		x, y, z := s.Coords(i)
		d := math.Sqrt(sq(float64(x)-cx) + sq(float64(y)-cy) + sq(float64(z)-cz))
		f.Data[i] = float32(d - r)
	}
	return f
}

func sq(v float64) float64 { return v * v }

func TestUnionIntersectionIdempotent(t *testing.T) {
	a := randomField(grid.NewShape(6, 5, 4), 7)
	if diff := cmp.Diff(a.Data, Union(a, a).Data); diff != "" {
		t.Errorf("union(a,a) != a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a.Data, Intersection(a, a).Data); diff != "" {
		t.Errorf("intersection(a,a) != a (-want +got):\n%s", diff)
	}
}

func TestSubtractDeMorgan(t *testing.T) {
	s := grid.Cube(5)
	a, b := randomField(s, 1), randomField(s, 2)
	got := Subtract(a, b)
	want := Intersection(a, Complement(b))
	if diff := cmp.Diff(want.Data, got.Data); diff != "" {
		t.Errorf("subtract != intersection with complement (-want +got):\n%s", diff)
	}
}

func TestOperatorsDoNotMutateInputs(t *testing.T) {
	s := grid.Cube(4)
	a, b := randomField(s, 3), randomField(s, 4)
	ac, bc := a.Clone(), b.Clone()
	Union(a, b)
	Subtract(a, b)
	Thicken(a, 2)
	Shell(a, 1)
	Translate(a, 1, 0, -1)
	Smooth(a)
	if diff := cmp.Diff(ac.Data, a.Data); diff != "" {
		t.Errorf("a mutated:\n%s", diff)
	}
	if diff := cmp.Diff(bc.Data, b.Data); diff != "" {
		t.Errorf("b mutated:\n%s", diff)
	}
}

func TestShapeMismatchPanics(t *testing.T) {
	ops := map[string]func(a, b *grid.Field) *grid.Field{
		"union":        Union,
		"intersection": Intersection,
		"subtract":     Subtract,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s with mismatched shapes did not panic", name)
				}
			}()
			op(grid.NewField(grid.Cube(4), grid.UnitScale), grid.NewField(grid.Cube(5), grid.UnitScale))
		})
	}
}

func TestShellKeepsBand(t *testing.T) {
	s := grid.Cube(21)
	a := ball(s, 10, 10, 10, 8)
	sh := Shell(a, 2)
	tests := []struct {
		name   string
		x      int
		inside bool
	}{
		{"centre", 10, false},
		{"deep inside", 14, false},
		{"band", 17, true},
		{"surface", 18, true},
		{"outside", 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sh.At(tt.x, 10, 10)
			if (v <= 0) != tt.inside {
				t.Errorf("shell at x=%d = %v, want inside=%v", tt.x, v, tt.inside)
			}
		})
	}
}

func TestThickenOffsetsSurface(t *testing.T) {
	a := ball(grid.Cube(21), 10, 10, 10, 5)
	if n0, n1 := a.CountInside(), Thicken(a, 2).CountInside(); n1 <= n0 {
		t.Errorf("thicken(2) inside count %d, want more than %d", n1, n0)
	}
	if n0, n1 := a.CountInside(), Thicken(a, -2).CountInside(); n1 >= n0 {
		t.Errorf("thicken(-2) inside count %d, want fewer than %d", n1, n0)
	}
}

func TestTranslateMovesSolidAndPadsOutside(t *testing.T) {
	a := grid.NewFieldFilled(grid.Cube(5), grid.UnitScale, 1)
	a.Set(2, 2, 2, -1)
	moved := Translate(a, 1, 0, -2)
	if v := moved.At(3, 2, 0); v != -1 {
		t.Errorf("moved voxel = %v, want -1", v)
	}
	if v := moved.At(0, 0, 4); v != Far {
		t.Errorf("out of range source = %v, want Far", v)
	}
	if n := moved.CountInside(); n != 1 {
		t.Errorf("inside count = %d, want 1", n)
	}
}

func TestCondense(t *testing.T) {
	a := grid.NewFieldFilled(grid.NewShape(10, 12, 8), grid.UnitScale, 1)
	a.Set(3, 4, 5, -1)
	a.Set(5, 4, 6, -1)

	c := Condense(a, 2)
	if want := grid.NewShape(7, 5, 6); c.Shape != want {
		t.Fatalf("condensed shape = %v, want %v", c.Shape, want)
	}
	if v := c.At(2, 2, 2); v != -1 {
		t.Errorf("first inside voxel moved: got %v", v)
	}
	if v := c.At(4, 2, 3); v != -1 {
		t.Errorf("second inside voxel moved: got %v", v)
	}
	if c.CountInside() != 2 {
		t.Errorf("inside count = %d, want 2", c.CountInside())
	}
	// z+margin overhangs the source grid.
	if v := c.At(6, 4, 5); v != Far {
		t.Errorf("padding = %v, want Far", v)
	}

	empty := grid.NewFieldFilled(grid.Cube(3), grid.UnitScale, 1)
	if got := Condense(empty, 1); got.Shape != empty.Shape {
		t.Errorf("empty field reshaped to %v", got.Shape)
	}
}

func TestProjectionExtrudesToFloor(t *testing.T) {
	a := grid.NewFieldFilled(grid.Cube(6), grid.UnitScale, 3)
	a.Set(4, 1, 2, -1)
	p := Projection(a)
	for x := 0; x <= 4; x++ {
		if v := p.At(x, 1, 2); v != -1 {
			t.Errorf("column at x=%d = %v, want -1", x, v)
		}
	}
	if v := p.At(5, 1, 2); v != 3 {
		t.Errorf("above model = %v, want 3", v)
	}
	if n := p.CountInside(); n != 5 {
		t.Errorf("inside count = %d, want 5", n)
	}
}

func TestSmoothPreservesConstant(t *testing.T) {
	a := grid.NewFieldFilled(grid.NewShape(3, 4, 5), grid.UnitScale, 2.5)
	if diff := cmp.Diff(a.Data, Smooth(a).Data); diff != "" {
		t.Errorf("smooth changed a constant field:\n%s", diff)
	}
}

func TestVolumeAndMass(t *testing.T) {
	a := grid.NewFieldFilled(grid.Cube(10), grid.UnitScale, 1)
	a.Scale.X = 2
	for i := range 100 {
		a.Data[i] = -1
	}
	if v := Volume(a); v != 200 {
		t.Errorf("Volume = %v, want 200", v)
	}
	if m := Mass(a, 1.25); math.Abs(m-0.25) > 1e-12 {
		t.Errorf("Mass = %v, want 0.25", m)
	}
}

func TestPrimitives(t *testing.T) {
	for _, name := range PrimitiveNames {
		t.Run(name, func(t *testing.T) {
			f, err := Primitive(name, 21)
			if err != nil {
				t.Fatalf("Primitive: %v", err)
			}
			if f.At(10, 10, 10) > 0 {
				t.Errorf("centre voxel is outside: %v", f.At(10, 10, 10))
			}
			if f.At(0, 0, 0) <= 0 {
				t.Errorf("corner voxel is inside: %v", f.At(0, 0, 0))
			}
		})
	}
	if _, err := Primitive("Torus", 21); err == nil {
		t.Error("unknown primitive should fail")
	}
}

func TestSphereSampleIsMetric(t *testing.T) {
	s, err := Sphere(40)
	if err != nil {
		t.Fatal(err)
	}
	f := Sample(s, grid.Cube(101), Linspace(-50, 50, 101))
	// Step is one unit, so the value at the centre is -40 voxels.
	if v := f.At(50, 50, 50); math.Abs(float64(v)+40) > 1e-4 {
		t.Errorf("centre = %v, want -40", v)
	}
}
