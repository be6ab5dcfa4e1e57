// Package lattice turns solids into Voronoi strut lattices.
package lattice

import (
	"github.com/dustin/go-humanize"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/jfa"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/redistance"
	"github.com/chazu/voronize/pkg/strut"
)

// Params shapes a volumetric lattice. Thicknesses are in voxels.
type Params struct {
	// CellThickness is the strut diameter.
	CellThickness float32

	// ShellThickness adds a solid skin of this thickness. Zero leaves the
	// lattice open.
	ShellThickness float32

	// Order is the number of jump flooding refinement passes.
	Order int
}

// Voronize fills orig with the strut network of the Voronoi diagram of
// seeds: flood ownership from the seeds, keep the voxels where three or
// more cells meet, redistance them, grow them to the strut radius and
// trim them to the solid.
func Voronize(orig *grid.Field, seeds *grid.Mask, p Params) *grid.Field {
	grid.MustMatch(orig.Shape, seeds.Shape)
	log := logging.Logger()

	owners := jfa.Flood(seeds, jfa.Options{Order: p.Order})
	struts := strut.Classify(owners)
	log.Debug("struts classified",
		"seeds", humanize.Comma(int64(seeds.Count())),
		"struts", humanize.Comma(int64(struts.Count())))

	field := redistance.WithOrder(struts.Field(orig.Scale), p.Order)
	out := frep.Intersection(frep.Thicken(field, max(p.CellThickness/2, 0)), orig)
	if p.ShellThickness > 0 {
		out = frep.Union(frep.Shell(orig, p.ShellThickness), out)
	}
	log.Info("voronize complete", "inside", humanize.Comma(int64(out.CountInside())))
	return out
}
