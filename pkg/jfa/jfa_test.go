package jfa

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/chazu/voronize/pkg/device"
	"github.com/chazu/voronize/pkg/grid"
)

func maskOf(s grid.Shape, pts ...[3]int) *grid.Mask {
	m := grid.NewMask(s)
	for _, p := range pts {
		m.Set(p[0], p[1], p[2], true)
	}
	return m
}

// nearest builds an exact nearest-seed oracle.
func nearest(pts [][3]int) func(x, y, z int) float64 {
	ps := make(kdtree.Points, len(pts))
	for i, p := range pts {
		ps[i] = kdtree.Point{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	tree := kdtree.New(ps, false)
	return func(x, y, z int) float64 {
		_, d2 := tree.Nearest(kdtree.Point{float64(x), float64(y), float64(z)})
		return math.Sqrt(d2)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		name  string
		shape grid.Shape
		order int
		want  []int
	}{
		{"power of two", grid.Cube(32), 0, []int{16, 8, 4, 2, 1}},
		{"order two", grid.Cube(32), 2, []int{16, 8, 4, 2, 1, 2, 1}},
		{"non power of two", grid.NewShape(5, 20, 3), 1, []int{16, 8, 4, 2, 1, 1}},
		{"single voxel", grid.Cube(1), 0, nil},
		{"two voxels", grid.NewShape(2, 1, 1), 0, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Steps(tt.shape, tt.order)); diff != "" {
				t.Errorf("Steps mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFloodSingleSeedIsExact(t *testing.T) {
	s := grid.NewShape(13, 9, 17)
	seed := [3]int{2, 7, 11}
	o := Flood(maskOf(s, seed), Options{Order: 2})
	for i, w := range o.Data {
		x, y, z := s.Coords(i)
		if !w.Owned() || int(w.X) != seed[0] || int(w.Y) != seed[1] || int(w.Z) != seed[2] {
			t.Fatalf("voxel (%d,%d,%d) owner = %+v, want the seed", x, y, z, w)
		}
		want := math.Sqrt(float64((x-2)*(x-2) + (y-7)*(y-7) + (z-11)*(z-11)))
		if math.Abs(float64(w.Dist)-want) > 1e-4 {
			t.Fatalf("voxel (%d,%d,%d) dist = %v, want %v", x, y, z, w.Dist, want)
		}
	}
}

func TestFloodTwoSeedsSplitsAtBisector(t *testing.T) {
	s := grid.NewShape(24, 16, 16)
	a, b := [3]int{4, 8, 8}, [3]int{19, 8, 8}
	o := Flood(maskOf(s, a, b), Options{Order: 2})
	oracle := nearest([][3]int{a, b})

	ownedA, ownedB := 0, 0
	for i, w := range o.Data {
		x, y, z := s.Coords(i)
		want := oracle(x, y, z)
		if math.Abs(float64(w.Dist)-want) > 0.05*want+1e-4 {
			t.Errorf("voxel (%d,%d,%d) dist = %v, want %v within 5%%", x, y, z, w.Dist, want)
		}
		if int(w.X) == a[0] {
			ownedA++
		} else {
			ownedB++
		}
	}
	// The bisector is the plane x = 11.5, leaving 12 planes on each side.
	if diff := ownedA - ownedB; diff*50 > s.Len() || -diff*50 > s.Len() {
		t.Errorf("ownership split %d / %d, want even", ownedA, ownedB)
	}
}

func TestFloodMatchesExactNearestSeed(t *testing.T) {
	s := grid.Cube(24)
	r := rand.New(rand.NewPCG(42, 0))
	var pts [][3]int
	m := grid.NewMask(s)
	for len(pts) < 20 {
		p := [3]int{r.IntN(24), r.IntN(24), r.IntN(24)}
		if m.At(p[0], p[1], p[2]) {
			continue
		}
		m.Set(p[0], p[1], p[2], true)
		pts = append(pts, p)
	}
	o := Flood(m, Options{Order: 2})
	oracle := nearest(pts)

	wrong := 0
	for i, w := range o.Data {
		x, y, z := s.Coords(i)
		want := oracle(x, y, z)
		if float64(w.Dist) < want-1e-4 {
			t.Fatalf("voxel (%d,%d,%d) dist %v is below the true nearest %v", x, y, z, w.Dist, want)
		}
		if float64(w.Dist) > want+1e-3 {
			wrong++
		}
	}
	if wrong*20 > s.Len() {
		t.Errorf("%d of %d voxels have a non-nearest owner", wrong, s.Len())
	}
	t.Logf("%d of %d voxels approximate", wrong, s.Len())
}

func TestFloodWithoutSeeds(t *testing.T) {
	o := Flood(grid.NewMask(grid.Cube(6)), Options{Order: 2})
	for i, w := range o.Data {
		if w.Owned() || !math.IsInf(float64(w.Dist), 1) {
			t.Fatalf("voxel %d = %+v, want NoOwner", i, w)
		}
	}
}

func TestFloodSameOnAccelerator(t *testing.T) {
	s := grid.NewShape(19, 11, 14)
	m := maskOf(s, [3]int{1, 1, 1}, [3]int{17, 9, 2}, [3]int{9, 5, 12}, [3]int{3, 10, 7})

	device.Reset()
	cpu := Flood(m, Options{Order: 2})

	if err := device.Register(&device.GridAccelerator{ThreadsPerBlock: 4}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer device.Reset()
	acc := Flood(m, Options{Order: 2})

	if diff := cmp.Diff(cpu.Data, acc.Data); diff != "" {
		t.Errorf("accelerated flood differs (-cpu +acc):\n%s", diff)
	}
}
