// Package jfa computes approximate nearest-seed ownership over a voxel grid
// with the Jump Flooding Algorithm.
//
// Each pass reads the previous pass's ownership and writes a fresh buffer,
// so a voxel's update depends only on a read-only snapshot. Passes run in
// sequence; the voxels of one pass are dispatched through the device
// package and may run on any number of workers.
package jfa

import (
	"github.com/chewxy/math32"

	"github.com/chazu/voronize/pkg/device"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
)

// Owner is the believed-nearest seed of a voxel and the distance to it in
// voxels. X is -1 while no seed has reached the voxel.
type Owner struct {
	X, Y, Z int32
	Dist    float32
}

// NoOwner marks a voxel no seed has reached.
var NoOwner = Owner{X: -1, Y: -1, Z: -1, Dist: math32.Inf(1)}

// Owned reports whether a seed has reached the voxel.
func (o Owner) Owned() bool { return o.X >= 0 }

// Same reports whether two owners name the same seed.
func (o Owner) Same(p Owner) bool {
	return o.X == p.X && o.Y == p.Y && o.Z == p.Z
}

// Ownership is the seed ownership field.
type Ownership struct {
	Shape grid.Shape
	Data  []Owner
}

// At returns the owner of voxel (x, y, z).
func (o *Ownership) At(x, y, z int) Owner {
	return o.Data[o.Shape.Index(x, y, z)]
}

// Distance returns the distance-to-nearest-seed field. Unreached voxels
// keep +Inf.
func (o *Ownership) Distance() *grid.Field {
	f := grid.NewField(o.Shape, grid.UnitScale)
	for i, w := range o.Data {
		f.Data[i] = w.Dist
	}
	return f
}

// Options tunes a flood.
type Options struct {
	// Order is the number of refinement passes run after the halving
	// schedule reaches step 1. Order 2 adds passes of step 2 and 1.
	Order int
}

// Steps returns the pass step sizes for a grid of shape s: powers of two
// from the largest one below the longest axis down to 1, then the
// refinement passes. The first step may exceed half the longest axis
// (16 for an axis of 20); that pass only adds candidates, so it never
// worsens ownership.
func Steps(s grid.Shape, order int) []int {
	var steps []int
	start := 1
	for start*2 < s.Max() {
		start *= 2
	}
	if s.Max() > 1 {
		for step := start; step >= 1; step /= 2 {
			steps = append(steps, step)
		}
	}
	for i := range order {
		steps = append(steps, max(1, 1<<(order-1-i)))
	}
	return steps
}

// Init returns the ownership field before any pass: every seed owns
// itself at distance 0.
func Init(seeds *grid.Mask) *Ownership {
	o := &Ownership{Shape: seeds.Shape, Data: make([]Owner, seeds.Shape.Len())}
	for i, set := range seeds.Data {
		if !set {
			o.Data[i] = NoOwner
			continue
		}
		x, y, z := seeds.Shape.Coords(i)
		o.Data[i] = Owner{X: int32(x), Y: int32(y), Z: int32(z)}
	}
	return o
}

// Flood runs the full pass schedule from the given seeds. With no seeds
// every voxel stays at NoOwner.
func Flood(seeds *grid.Mask, opts Options) *Ownership {
	cur := Init(seeds)
	if !seeds.Any() {
		logging.Logger().Debug("jfa: no seeds", "shape", seeds.Shape.String())
		return cur
	}
	next := &Ownership{Shape: cur.Shape, Data: make([]Owner, len(cur.Data))}
	for _, step := range Steps(seeds.Shape, opts.Order) {
		Pass(cur, next, step)
		cur, next = next, cur
		logging.Logger().Debug("jfa: pass", "step", step)
	}
	return cur
}

// Pass performs one flood pass with the given step, reading prev and
// writing every voxel of next.
func Pass(prev, next *Ownership, step int) {
	grid.MustMatch(prev.Shape, next.Shape)
	device.Run(device.OpFlood, prev.Shape, func(x, y, z int) {
		next.Data[prev.Shape.Index(x, y, z)] = update(prev, x, y, z, step)
	})
}

// update is the per-voxel flood kernel. Neighbour coordinates are clamped
// to the grid. A candidate replaces the current owner only when strictly
// closer, and candidates are visited in a fixed order, so the result does
// not depend on scheduling.
func update(prev *Ownership, x, y, z, step int) Owner {
	s := prev.Shape
	best := prev.Data[s.Index(x, y, z)]
	if best.Owned() {
		best.Dist = dist(x, y, z, best)
	}
	for dx := -step; dx <= step; dx += step {
		nx := clamp(x+dx, s.Nx)
		for dy := -step; dy <= step; dy += step {
			ny := clamp(y+dy, s.Ny)
			for dz := -step; dz <= step; dz += step {
				nz := clamp(z+dz, s.Nz)
				c := prev.Data[s.Index(nx, ny, nz)]
				if !c.Owned() {
					continue
				}
				if d := dist(x, y, z, c); d < best.Dist {
					best = Owner{X: c.X, Y: c.Y, Z: c.Z, Dist: d}
				}
			}
		}
	}
	return best
}

func dist(x, y, z int, o Owner) float32 {
	dx := float32(x - int(o.X))
	dy := float32(y - int(o.Y))
	dz := float32(z - int(o.Z))
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

func clamp(v, n int) int {
	return min(max(v, 0), n-1)
}
