// Package strut marks the voxels where three or more Voronoi cells meet.
//
// A voxel is a strut voxel when the 3x3x3 window centred on it (the voxel
// itself included, clipped at the grid edge) holds at least three distinct
// owner seeds. Voxels between exactly two cells lie on a Voronoi face and
// are not struts. Counting stops at four because only ">= 3" matters.
//
// The classification is implemented twice: a CPU scan over X slabs and a
// one-thread-per-voxel kernel dispatched through the device package. Both
// read the same converged ownership field and compare integer seed
// coordinates only, so they agree voxel for voxel.
package strut

import (
	"github.com/golang/geo/r3"

	"github.com/chazu/voronize/pkg/device"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/jfa"
	"github.com/chazu/voronize/pkg/parallel"
)

// Threshold is the number of distinct owners that makes a strut voxel.
// The centre voxel's own owner counts toward it, so an isolated voxel
// between two other cells is a strut even though its 26 neighbours hold
// only two owners.
const Threshold = 3

// Classify returns the strut mask, running on the registered accelerator
// when there is one.
func Classify(o *jfa.Ownership) *grid.Mask {
	m := grid.NewMask(o.Shape)
	device.Run(device.OpClassify, o.Shape, func(x, y, z int) {
		m.Data[o.Shape.Index(x, y, z)] = countWindow(o, x, y, z) >= Threshold
	})
	return m
}

// ClassifyCPU returns the strut mask using the CPU slab scan.
func ClassifyCPU(o *jfa.Ownership) *grid.Mask {
	s := o.Shape
	m := grid.NewMask(s)
	parallel.For(s.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					m.Set(x, y, z, countNested(o, x, y, z) >= Threshold)
				}
			}
		}
	})
	return m
}

// Field returns the raw strut field: -1 at strut voxels, +1 elsewhere.
// It is not metric and must be redistanced before further composition.
func Field(o *jfa.Ownership, scale r3.Vector) *grid.Field {
	return Classify(o).Field(scale)
}

// countNested counts distinct owners in the window with nested axis loops,
// stopping at four.
func countNested(o *jfa.Ownership, x, y, z int) int {
	s := o.Shape
	first := o.At(x, y, z)
	second, third := first, first
	unique := 1
	for i := max(x-1, 0); i <= min(x+1, s.Nx-1); i++ {
		for j := max(y-1, 0); j <= min(y+1, s.Ny-1); j++ {
			for k := max(z-1, 0); k <= min(z+1, s.Nz-1); k++ {
				c := o.At(i, j, k)
				switch {
				case c.Same(first):
				case unique == 1:
					second, unique = c, 2
				case c.Same(second):
				case unique == 2:
					third, unique = c, 3
				case c.Same(third):
				default:
					return 4
				}
			}
		}
	}
	return unique
}

// countWindow is the per-thread form: it walks the 27 window offsets by
// linear index and skips those outside the grid.
func countWindow(o *jfa.Ownership, x, y, z int) int {
	s := o.Shape
	var seen [3]jfa.Owner
	seen[0] = o.Data[s.Index(x, y, z)]
	unique := 1
	for t := range 27 {
		i, j, k := x+t/9-1, y+(t/3)%3-1, z+t%3-1
		if !s.In(i, j, k) {
			continue
		}
		c := o.Data[s.Index(i, j, k)]
		known := false
		for _, p := range seen[:unique] {
			if c.Same(p) {
				known = true
				break
			}
		}
		if known {
			continue
		}
		if unique == len(seen) {
			return 4
		}
		seen[unique] = c
		unique++
	}
	return unique
}
