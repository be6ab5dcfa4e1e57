// Package device selects where per-voxel kernels run. A kernel is a pure
// function of one voxel coordinate that reads a read-only snapshot and
// writes only its own output cell, so it can execute on any number of
// workers in any order.
//
// An optional Accelerator (one logical thread per voxel) may be
// registered. When none is registered, or it declines an operation, work
// falls back to the CPU parallel path. The fallback is logged, never
// surfaced as an error.
package device

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/parallel"
)

// ErrFallbackToCPU indicates the accelerator cannot run this operation.
var ErrFallbackToCPU = errors.New("device: falling back to CPU")

// Op identifies a kernel family for capability checks.
type Op uint32

const (
	// OpFlood is one Jump Flooding pass.
	OpFlood Op = 1 << iota

	// OpClassify is the strut classification scan.
	OpClassify

	// OpElementwise covers field-to-field voxel maps.
	OpElementwise
)

func (op Op) String() string {
	switch op {
	case OpFlood:
		return "flood"
	case OpClassify:
		return "classify"
	case OpElementwise:
		return "elementwise"
	}
	return "unknown"
}

// Kernel processes the voxel at (x, y, z).
type Kernel func(x, y, z int)

// Accelerator runs kernels with one logical thread per voxel.
type Accelerator interface {
	// Name returns the accelerator name (e.g. "grid").
	Name() string

	// Init acquires resources. Called once during registration.
	Init() error

	// Close releases resources.
	Close()

	// CanAccelerate is a fast capability check.
	CanAccelerate(op Op) bool

	// Dispatch runs k for every voxel of s and returns when all threads
	// have finished. Returns ErrFallbackToCPU if it cannot.
	Dispatch(op Op, s grid.Shape, k Kernel) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator

	warnedFallback atomic.Bool
)

// Register installs a as the accelerator, replacing any previous one.
// If Init fails, a is not registered.
func Register(a Accelerator) error {
	if a == nil {
		return errors.New("device: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	warnedFallback.Store(false)
	logging.Logger().Info("accelerator registered", "name", a.Name())
	return nil
}

// Reset unregisters and closes the current accelerator.
func Reset() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	warnedFallback.Store(false)
}

// Current returns the registered accelerator, or nil.
func Current() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// Run executes k over every voxel of s on the accelerator when one is
// available for op, and on the CPU worker pool otherwise.
func Run(op Op, s grid.Shape, k Kernel) {
	a := Current()
	if a != nil && a.CanAccelerate(op) {
		err := a.Dispatch(op, s, k)
		if err == nil {
			return
		}
		logging.Logger().Warn("accelerator dispatch failed; using CPU path",
			"accelerator", a.Name(), "op", op.String(), "err", err)
	} else if warnedFallback.CompareAndSwap(false, true) {
		name := "none"
		if a != nil {
			name = a.Name()
		}
		logging.Logger().Warn("no accelerator for operation; using CPU parallel path",
			"accelerator", name, "op", op.String())
	}
	RunCPU(s, k)
}

// RunCPU executes k over every voxel of s on the default worker pool,
// splitting the grid into X slabs.
func RunCPU(s grid.Shape, k Kernel) {
	parallel.For(s.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					k(x, y, z)
				}
			}
		}
	})
}
