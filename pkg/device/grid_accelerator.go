package device

import (
	"fmt"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/parallel"
)

// DefaultThreadsPerBlock is the block edge length used when none is set.
const DefaultThreadsPerBlock = 8

// GridAccelerator executes kernels as a grid of cubic thread blocks, one
// logical thread per voxel. Threads whose coordinate falls outside the
// grid return immediately, so the grid may overhang the volume. Blocks
// are scheduled on the worker pool; no thread synchronizes with another.
//
// Usage:
//
//	device.Register(&device.GridAccelerator{ThreadsPerBlock: 8})
type GridAccelerator struct {
	ThreadsPerBlock int

	pool *parallel.WorkerPool
}

var _ Accelerator = (*GridAccelerator)(nil)

// Name returns the accelerator name.
func (g *GridAccelerator) Name() string { return "grid" }

// Init validates the block size and attaches the worker pool.
func (g *GridAccelerator) Init() error {
	if g.ThreadsPerBlock == 0 {
		g.ThreadsPerBlock = DefaultThreadsPerBlock
	}
	if g.ThreadsPerBlock < 0 {
		return fmt.Errorf("device: threads per block must be positive, got %d", g.ThreadsPerBlock)
	}
	g.pool = parallel.Default()
	return nil
}

// Close is a no-op; the shared pool outlives the accelerator.
func (g *GridAccelerator) Close() {}

// CanAccelerate reports support for flood and classify kernels.
func (g *GridAccelerator) CanAccelerate(op Op) bool {
	return op&(OpFlood|OpClassify) != 0
}

// Dispatch launches ceil(N/TPB) blocks along each axis.
func (g *GridAccelerator) Dispatch(op Op, s grid.Shape, k Kernel) error {
	if g.pool == nil || !g.pool.IsRunning() {
		return ErrFallbackToCPU
	}
	tpb := g.ThreadsPerBlock
	bx := (s.Nx + tpb - 1) / tpb
	by := (s.Ny + tpb - 1) / tpb
	bz := (s.Nz + tpb - 1) / tpb

	blocks := make([]func(), 0, bx*by*bz)
	for i := range bx {
		for j := range by {
			for l := range bz {
				blocks = append(blocks, func() {
					runBlock(s, tpb, i, j, l, k)
				})
			}
		}
	}
	g.pool.ExecuteAll(blocks)
	return nil
}

// runBlock executes every thread of block (bi, bj, bk).
func runBlock(s grid.Shape, tpb, bi, bj, bk int, k Kernel) {
	for t := range tpb * tpb * tpb {
		x := bi*tpb + t/(tpb*tpb)
		y := bj*tpb + (t/tpb)%tpb
		z := bk*tpb + t%tpb
		if x >= s.Nx || y >= s.Ny || z >= s.Nz {
			continue
		}
		k(x, y, z)
	}
}
