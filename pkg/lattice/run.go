package lattice

import (
	"errors"
	"math/rand/v2"

	"github.com/dustin/go-humanize"

	"github.com/chazu/voronize/pkg/config"
	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/seeds"
	"github.com/chazu/voronize/pkg/surfnet"
)

// aestheticDepth is the skin, in voxels, that aesthetic mode seeds in and
// keeps solid beneath.
const aestheticDepth = 5

// Report is the material estimate of one output part.
type Report struct {
	Name      string
	Voxels    int
	VolumeMM3 float64
	MassG     float64
}

func report(name string, f *grid.Field, density float64) Report {
	r := Report{
		Name:      name,
		Voxels:    f.CountInside(),
		VolumeMM3: frep.Volume(f),
		MassG:     frep.Mass(f, density),
	}
	logging.Logger().Info("part volume",
		"part", name,
		"voxels", humanize.Comma(int64(r.Voxels)),
		"volume_mm3", humanize.FormatFloat("#,###.##", r.VolumeMM3),
		"mass_g", humanize.FormatFloat("#,###.##", r.MassG))
	return r
}

// Result holds the fields produced by Run. Fields that were not requested
// are nil.
type Result struct {
	Object   *grid.Field
	Support  *grid.Field
	Complete *grid.Field
	Inverse  *grid.Field
	Reports  []Report
}

// ErrNothingToBuild is returned when neither model nor support is enabled.
var ErrNothingToBuild = errors.New("lattice: neither model nor support requested")

// Run builds the lattices cfg asks for inside orig. orig must be a
// redistanced solid; voxelMM is the edge length of one voxel and converts
// the millimetre settings of cfg.
func Run(cfg config.Config, orig *grid.Field, voxelMM float64) (*Result, error) {
	if !cfg.Model && !cfg.Support {
		return nil, ErrNothingToBuild
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	cell := config.MMToVoxels(cfg.ModelCellMM, voxelMM)
	shell := config.MMToVoxels(cfg.ModelShellMM, voxelMM)
	params := Params{CellThickness: float32(cell), ShellThickness: float32(shell), Order: cfg.JFAOrder}

	res := &Result{}
	if cfg.Support {
		res.Support = Support(orig, SupportParams{
			Density:       cfg.SupportThresh,
			CellThickness: float32(config.MMToVoxels(cfg.SupportCellMM, voxelMM)),
			Perforate:     cfg.Perforate,
			Order:         cfg.JFAOrder,
			Rand:          rng,
		})
		res.Reports = append(res.Reports, report("Support", res.Support, cfg.MatDensity))
	}

	if cfg.Model {
		if cfg.Net && cfg.Aesthetic {
			logging.Logger().Warn("aesthetic seeding does not apply to the surface net; ignored")
		}
		switch {
		case cfg.Net:
			net := surfnet.Build(orig, surfnet.Params{
				Density:       cfg.ModelThresh,
				NetThickness:  config.MMToVoxels(cfg.NetThicknessMM, voxelMM),
				CellThickness: cell,
				Rand:          rng,
			})
			res.Object = net.Net
			if cfg.NetConnect {
				pts := seeds.Random(orig, cfg.ModelThresh, rng)
				res.Object = frep.Union(res.Object, Voronize(orig, pts, params))
			}
		case cfg.Aesthetic:
			pts := seeds.Random(frep.Shell(orig, aestheticDepth), cfg.ModelThresh, rng)
			res.Object = Voronize(orig, pts, params)
		default:
			pts := seeds.Random(orig, cfg.ModelThresh, rng)
			res.Object = Voronize(orig, pts, params)
		}
		res.Reports = append(res.Reports, report("Object", res.Object, cfg.MatDensity))
		if cfg.Aesthetic && !cfg.Net {
			res.Object = frep.Union(res.Object, frep.Thicken(orig, -aestheticDepth))
		}
		if cfg.Inverse {
			res.Inverse = frep.Subtract(orig, res.Object)
		}
	}

	switch {
	case res.Object != nil && res.Support != nil:
		res.Complete = frep.Union(res.Object, res.Support)
	case res.Object != nil:
		res.Complete = res.Object
	default:
		res.Complete = res.Support
	}
	return res, nil
}
