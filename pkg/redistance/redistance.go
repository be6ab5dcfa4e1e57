// Package redistance turns a field whose sign is meaningful but whose
// magnitude is not (such as a -1/+1 strut mask) into a signed distance
// field with the same sign pattern.
//
// The boundary is taken to lie halfway between each inside voxel and its
// outside 6-neighbours. Two jump floods, one seeded from the outside voxels
// touching the boundary and one from the inside voxels touching it, give
// every voxel the distance to the nearest voxel of the opposite sign;
// subtracting half a voxel places the zero crossing on the boundary.
package redistance

import (
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/jfa"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/parallel"
)

// DefaultOrder is the refinement order used by Field.
const DefaultOrder = 2

var neighbours6 = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Field redistances f with the default refinement order.
func Field(f *grid.Field) *grid.Field {
	return WithOrder(f, DefaultOrder)
}

// WithOrder redistances f. Voxels with value <= 0 are inside. When every
// voxel has the same sign there is no boundary; the result is then filled
// with a magnitude larger than any in-grid distance.
func WithOrder(f *grid.Field, order int) *grid.Field {
	s := f.Shape
	inside := f.Inside()
	outerSeeds, innerSeeds := boundarySeeds(inside)

	out := f.Like()
	if !outerSeeds.Any() {
		far := float32(s.Nx + s.Ny + s.Nz)
		if inside.Data[0] {
			far = -far
		}
		for i := range out.Data {
			out.Data[i] = far
		}
		logging.Logger().Debug("redistance: no boundary", "shape", s.String())
		return out
	}

	toOuter := jfa.Flood(outerSeeds, jfa.Options{Order: order})
	toInner := jfa.Flood(innerSeeds, jfa.Options{Order: order})
	parallel.For(len(out.Data), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if inside.Data[i] {
				out.Data[i] = -(toOuter.Data[i].Dist - 0.5)
			} else {
				out.Data[i] = toInner.Data[i].Dist - 0.5
			}
		}
	})
	return out
}

// boundarySeeds returns the outside voxels with an inside 6-neighbour and
// the inside voxels with an outside 6-neighbour.
func boundarySeeds(inside *grid.Mask) (outer, inner *grid.Mask) {
	s := inside.Shape
	outer, inner = grid.NewMask(s), grid.NewMask(s)
	parallel.For(s.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					in := inside.At(x, y, z)
					for _, d := range neighbours6 {
						nx, ny, nz := x+d[0], y+d[1], z+d[2]
						if !s.In(nx, ny, nz) || inside.At(nx, ny, nz) == in {
							continue
						}
						if in {
							inner.Set(x, y, z, true)
						} else {
							outer.Set(x, y, z, true)
						}
						break
					}
				}
			}
		}
	})
	return outer, inner
}
