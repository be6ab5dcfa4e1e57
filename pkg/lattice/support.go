package lattice

import (
	"math/rand/v2"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/seeds"
)

// SupportParams shapes the sacrificial support under a model.
type SupportParams struct {
	// Density scales the number of support cells.
	Density float64

	// CellThickness is the strut diameter in voxels.
	CellThickness float32

	// Perforate punches holes at every seed so fluid can drain the
	// support cells.
	Perforate bool

	Order int
	Rand  *rand.Rand
}

// tableDepth is the number of layers under the model that form the
// contact table.
const tableDepth = 3

// clearanceVoxels is the offset of the keep-out zone around the model.
// Subtraction leaves zero, which counts as inside, on the zone's boundary;
// the half voxel past 1 keeps that boundary off voxels adjacent to the
// model.
const clearanceVoxels = 1.5

// Support builds a lattice filling the space between the model and the
// floor (x = 0), topped with a thin table that follows the model's
// underside. No support voxel comes within one voxel of the model.
func Support(orig *grid.Field, p SupportParams) *grid.Field {
	shadow := frep.Projection(orig)
	clearance := frep.Thicken(orig, clearanceVoxels)
	region := frep.Subtract(shadow, clearance)
	// Drop the top layer of the region.
	region = frep.Intersection(region, frep.Translate(region, -1, 0, 0))

	pts := seeds.Random(region, p.Density, p.Rand)
	lattice := Voronize(region, pts, Params{CellThickness: p.CellThickness, Order: p.Order})

	if p.Perforate {
		holes := seeds.Explode(pts, 1)
		holes = frep.Union(holes, frep.Translate(holes, -1, 0, 0))
		holes = frep.Union(holes, frep.Translate(holes, 0, 1, 0))
		holes = frep.Union(holes, frep.Translate(holes, 0, 0, 1))
		lattice = frep.Subtract(lattice, holes)
	}

	// The table is the tableDepth layers directly under the model, lowered
	// one voxel and kept clear of the model.
	underside := frep.Subtract(frep.Translate(orig, -tableDepth, 0, 0), orig)
	table := frep.Intersection(frep.Translate(underside, -1, 0, 0), shadow)
	table = frep.Subtract(table, clearance)
	return frep.Union(table, lattice)
}
