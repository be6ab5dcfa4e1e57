// Package frep is the signed distance field algebra. Every operator takes
// fields by pointer, never modifies them, and returns a freshly allocated
// result. Operands of a binary operator must share a shape; a mismatch is
// a caller bug and panics.
package frep

import (
	"github.com/chewxy/math32"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/parallel"
)

// Far is the value read for samples that fall outside a grid. It is large
// enough to stay positive after any realistic thicken.
const Far float32 = 1 << 20

// mapField applies fn to every voxel of a.
func mapField(a *grid.Field, fn func(v float32) float32) *grid.Field {
	out := a.Like()
	parallel.For(len(out.Data), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.Data[i] = fn(a.Data[i])
		}
	})
	return out
}

// zipField applies fn pairwise to the voxels of a and b.
func zipField(a, b *grid.Field, fn func(x, y float32) float32) *grid.Field {
	grid.MustMatch(a.Shape, b.Shape)
	out := a.Like()
	parallel.For(len(out.Data), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.Data[i] = fn(a.Data[i], b.Data[i])
		}
	})
	return out
}

// Union returns min(a, b).
func Union(a, b *grid.Field) *grid.Field {
	return zipField(a, b, math32.Min)
}

// Intersection returns max(a, b).
func Intersection(a, b *grid.Field) *grid.Field {
	return zipField(a, b, math32.Max)
}

// Subtract returns a with b removed: max(a, -b).
func Subtract(a, b *grid.Field) *grid.Field {
	return zipField(a, b, func(x, y float32) float32 {
		return math32.Max(x, -y)
	})
}

// Complement swaps inside and outside.
func Complement(a *grid.Field) *grid.Field {
	return mapField(a, func(v float32) float32 { return -v })
}

// Thicken offsets the surface outward by r voxels. Negative r erodes.
// The offset is only exact when a is metric; redistance raw masks first.
func Thicken(a *grid.Field, r float32) *grid.Field {
	return mapField(a, func(v float32) float32 { return v - r })
}

// Shell keeps the band of thickness t just inside the boundary of a.
func Shell(a *grid.Field, t float32) *grid.Field {
	return mapField(a, func(v float32) float32 {
		return math32.Max(v, -(v + t))
	})
}

// Translate moves the solid by (dx, dy, dz) voxels. Voxels whose source
// lies outside the grid read as Far.
func Translate(a *grid.Field, dx, dy, dz int) *grid.Field {
	s := a.Shape
	out := a.Like()
	parallel.For(s.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					sx, sy, sz := x-dx, y-dy, z-dz
					v := Far
					if s.In(sx, sy, sz) {
						v = a.At(sx, sy, sz)
					}
					out.Set(x, y, z, v)
				}
			}
		}
	})
	return out
}

// Smooth replaces every voxel by the mean of its 3x3x3 neighbourhood,
// clipped at the grid edge. It softens the stair-stepping of voxel
// surfaces before meshing.
func Smooth(a *grid.Field) *grid.Field {
	s := a.Shape
	out := a.Like()
	parallel.For(s.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					var sum float32
					n := 0
					for i := max(x-1, 0); i <= min(x+1, s.Nx-1); i++ {
						for j := max(y-1, 0); j <= min(y+1, s.Ny-1); j++ {
							for k := max(z-1, 0); k <= min(z+1, s.Nz-1); k++ {
								sum += a.At(i, j, k)
								n++
							}
						}
					}
					out.Set(x, y, z, sum/float32(n))
				}
			}
		}
	})
	return out
}
