package strut

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/voronize/pkg/device"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/jfa"
)

// bruteForce classifies with a map of owners per window.
func bruteForce(o *jfa.Ownership) *grid.Mask {
	s := o.Shape
	m := grid.NewMask(s)
	for i := range m.Data {
		x, y, z := s.Coords(i)
		seen := map[[3]int32]bool{}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					if s.In(x+dx, y+dy, z+dz) {
						w := o.At(x+dx, y+dy, z+dz)
						seen[[3]int32{w.X, w.Y, w.Z}] = true
					}
				}
			}
		}
		m.Data[i] = len(seen) >= 3
	}
	return m
}

// threeBasins splits a cube into three cells meeting along the line
// y = z = 6.5.
func threeBasins(n int) *jfa.Ownership {
	s := grid.Cube(n)
	a := jfa.Owner{X: 7, Y: 2, Z: 2}
	b := jfa.Owner{X: 7, Y: 12, Z: 2}
	c := jfa.Owner{X: 7, Y: 12, Z: 12}
	o := &jfa.Ownership{Shape: s, Data: make([]jfa.Owner, s.Len())}
	for i := range o.Data {
		_, y, z := s.Coords(i)
		switch {
		case y < 7:
			o.Data[i] = a
		case z < 7:
			o.Data[i] = b
		default:
			o.Data[i] = c
		}
	}
	return o
}

func TestThreeBasinsJunction(t *testing.T) {
	o := threeBasins(15)
	m := ClassifyCPU(o)
	for i, strut := range m.Data {
		x, y, z := o.Shape.Coords(i)
		onLine := (y == 6 || y == 7) && (z == 6 || z == 7)
		if strut != onLine {
			t.Errorf("voxel (%d,%d,%d) strut = %v, want %v", x, y, z, strut, onLine)
		}
	}
	if diff := cmp.Diff(bruteForce(o).Data, m.Data); diff != "" {
		t.Errorf("classification differs from brute force:\n%s", diff)
	}
}

func TestTwoBasinsHaveNoStruts(t *testing.T) {
	s := grid.Cube(8)
	o := &jfa.Ownership{Shape: s, Data: make([]jfa.Owner, s.Len())}
	for i := range o.Data {
		if x, _, _ := s.Coords(i); x < 4 {
			o.Data[i] = jfa.Owner{X: 1, Y: 4, Z: 4}
		} else {
			o.Data[i] = jfa.Owner{X: 6, Y: 4, Z: 4}
		}
	}
	if n := Classify(o).Count(); n != 0 {
		t.Errorf("found %d struts on a face between two cells", n)
	}
}

func TestCentreOwnerCounts(t *testing.T) {
	// Two cells split the cube at x = 2; the centre voxel alone belongs to
	// a third seed.
	s := grid.Cube(5)
	o := &jfa.Ownership{Shape: s, Data: make([]jfa.Owner, s.Len())}
	for i := range o.Data {
		if x, _, _ := s.Coords(i); x < 2 {
			o.Data[i] = jfa.Owner{X: 0, Y: 2, Z: 2}
		} else {
			o.Data[i] = jfa.Owner{X: 4, Y: 2, Z: 2}
		}
	}
	o.Data[s.Index(2, 2, 2)] = jfa.Owner{X: 2, Y: 0, Z: 0}

	for _, tt := range []struct {
		name     string
		classify func(*jfa.Ownership) *grid.Mask
	}{
		{"cpu", ClassifyCPU},
		{"device", Classify},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.classify(o).At(2, 2, 2) {
				t.Error("centre voxel with its own owner is not a strut")
			}
		})
	}
}

func TestCPUAndDeviceAgree(t *testing.T) {
	s := grid.NewShape(23, 17, 20)
	r := rand.New(rand.NewPCG(5, 11))
	seeds := grid.NewMask(s)
	for range 40 {
		seeds.Set(r.IntN(s.Nx), r.IntN(s.Ny), r.IntN(s.Nz), true)
	}
	o := jfa.Flood(seeds, jfa.Options{Order: 2})

	want := bruteForce(o)
	if diff := cmp.Diff(want.Data, ClassifyCPU(o).Data); diff != "" {
		t.Errorf("CPU scan differs from brute force:\n%s", diff)
	}

	if err := device.Register(&device.GridAccelerator{ThreadsPerBlock: 8}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer device.Reset()
	if diff := cmp.Diff(want.Data, Classify(o).Data); diff != "" {
		t.Errorf("per-voxel kernel differs from brute force:\n%s", diff)
	}
	if want.Count() == 0 {
		t.Error("expected some struts for 40 seeds")
	}
}

func TestNoSeedsGivesNoStruts(t *testing.T) {
	o := jfa.Flood(grid.NewMask(grid.Cube(5)), jfa.Options{})
	f := Field(o, grid.UnitScale)
	for i, v := range f.Data {
		if v != 1 {
			t.Fatalf("voxel %d = %v, want +1", i, v)
		}
	}
}
