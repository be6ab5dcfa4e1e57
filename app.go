package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chazu/voronize/pkg/config"
	"github.com/chazu/voronize/pkg/device"
	"github.com/chazu/voronize/pkg/engine"
	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/kernel"
	"github.com/chazu/voronize/pkg/kernel/model3d"
	"github.com/chazu/voronize/pkg/kernel/sdfx"
	"github.com/chazu/voronize/pkg/lattice"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/meshio"
	"github.com/chazu/voronize/pkg/plot"
	"github.com/chazu/voronize/pkg/redistance"
	"github.com/chazu/voronize/pkg/runindex"
	"github.com/chazu/voronize/pkg/snapshot"
	"github.com/chazu/voronize/pkg/tessellate"
	"github.com/chazu/voronize/pkg/voxelize"
)

// App drives one lattice generation run from a Config: it resolves the
// input solid, builds the lattices and writes meshes, plots and the run
// record.
type App struct {
	engine *engine.Engine
}

// NewApp creates a new App with a recipe engine.
func NewApp() *App {
	return &App{engine: engine.NewEngine()}
}

// Input is a resolved input solid, ready for the lattice pipeline.
type Input struct {
	// Name is the short model name used in output file names.
	Name string

	// Field is the redistanced solid, condensed to its bounding box plus
	// the buffer.
	Field *grid.Field

	// VoxelMM is the edge length of one voxel.
	VoxelMM float64
}

// RunResult summarizes a completed run.
type RunResult struct {
	ID       string
	BaseName string
	Input    *Input
	Lattice  *lattice.Result
	Files    []string
	Elapsed  time.Duration
}

// Run executes cfg end to end.
func (a *App) Run(ctx context.Context, cfg config.Config) (*RunResult, error) {
	start := time.Now()
	log := logging.Logger()

	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid config: %w", errors.Join(joined...))
	}
	if err := useAccelerator(cfg); err != nil {
		return nil, err
	}

	in, err := a.Resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("input resolved", "name", in.Name, "shape", in.Field.Shape.String(),
		"voxel_mm", in.VoxelMM, "inside", humanize.Comma(int64(in.Field.CountInside())))

	lat, err := lattice.Run(cfg, in.Field, in.VoxelMM)
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		BaseName: cfg.BaseName(in.Name),
		Input:    in,
		Lattice:  lat,
	}
	if cfg.ShowPlots || cfg.ImageStack {
		files, err := writePlots(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("plots: %w", err)
		}
		res.Files = append(res.Files, files...)
	}

	meshPaths := map[string]string{}
	if cfg.AutoExport {
		if meshPaths, err = exportMeshes(cfg, res); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, slices.Sorted(maps.Values(meshPaths))...)
	} else {
		log.Info("auto export disabled, skipping mesh export")
	}

	res.Elapsed = time.Since(start)
	if cfg.IndexPath != "" {
		if res.ID, err = record(ctx, cfg, res, meshPaths); err != nil {
			return nil, fmt.Errorf("run index: %w", err)
		}
	}
	log.Info("run complete", "base", res.BaseName, "elapsed", res.Elapsed.Round(time.Millisecond).String(),
		"files", len(res.Files))
	return res, nil
}

// useAccelerator registers the accelerator cfg names, or clears the
// registry for "cpu".
func useAccelerator(cfg config.Config) error {
	switch cfg.Accelerator {
	case "cpu":
		device.Reset()
		return nil
	case "grid":
		if cur := device.Current(); cur != nil && cur.Name() == "grid" {
			if g, ok := cur.(*device.GridAccelerator); ok && g.ThreadsPerBlock == cfg.ThreadsPerBlock {
				return nil
			}
		}
		return device.Register(&device.GridAccelerator{ThreadsPerBlock: cfg.ThreadsPerBlock})
	}
	return fmt.Errorf("unknown accelerator %q", cfg.Accelerator)
}

// Resolve loads the input solid cfg names: a mesh file, then a recipe
// file, then a named primitive.
func (a *App) Resolve(ctx context.Context, cfg config.Config) (*Input, error) {
	buffer := cfg.BufferVoxels()
	var (
		in  *Input
		err error
	)
	switch {
	case cfg.FileName != "":
		in, err = resolveMesh(cfg, buffer)
	case cfg.Recipe != "":
		in, err = a.resolveRecipe(ctx, cfg)
	case cfg.Primitive != "":
		in, err = resolvePrimitive(cfg)
	default:
		err = errors.New("provide a mesh file, a recipe or a primitive")
	}
	if err != nil {
		return nil, err
	}

	before := in.Field.Shape
	in.Field = frep.Condense(in.Field, buffer)
	if in.Field.CountInside() == 0 {
		return nil, fmt.Errorf("input %s has no inside voxels at resolution %d", in.Name, cfg.Resolution)
	}
	in.Field = redistance.WithOrder(in.Field, cfg.JFAOrder)
	logging.Logger().Debug("condensed input", "from", before.String(), "to", in.Field.Shape.String())
	return in, nil
}

func shortName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func resolveMesh(cfg config.Config, buffer int) (*Input, error) {
	res := max(cfg.Resolution-2*buffer, 1)
	var cachePath string
	if cfg.SnapshotDir != "" {
		key, err := snapshot.Key(cfg.FileName, res, buffer)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", cfg.FileName, err)
		}
		cachePath = filepath.Join(cfg.SnapshotDir, key)
		if f, _, err := snapshot.Read(cachePath); err == nil {
			logging.Logger().Info("voxel snapshot hit", "path", cachePath)
			return &Input{Name: shortName(cfg.FileName), Field: f, VoxelMM: meanScale(f)}, nil
		}
	}

	vox, err := voxelize.Voxelize(cfg.FileName, res, buffer)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		if err := snapshot.Write(cachePath, cfg.FileName, vox.Field, vox.Box); err != nil {
			logging.Logger().Warn("voxel snapshot not written", "path", cachePath, "err", err)
		}
	}
	return &Input{Name: shortName(cfg.FileName), Field: vox.Field, VoxelMM: meanScale(vox.Field)}, nil
}

func (a *App) resolveRecipe(ctx context.Context, cfg config.Config) (*Input, error) {
	src, err := os.ReadFile(cfg.Recipe)
	if err != nil {
		return nil, fmt.Errorf("recipe: %w", err)
	}
	r, evalErrs, err := a.engine.Evaluate(ctx, string(src))
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", cfg.Recipe, err)
	}
	if len(evalErrs) > 0 {
		joined := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			joined[i] = e
		}
		return nil, fmt.Errorf("recipe %s: %w", cfg.Recipe, errors.Join(joined...))
	}
	f := r.Field(cfg.Resolution)
	return &Input{Name: shortName(cfg.Recipe), Field: f, VoxelMM: meanScale(f)}, nil
}

func resolvePrimitive(cfg config.Config) (*Input, error) {
	f, err := frep.Primitive(cfg.Primitive, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	// Primitives are sized in voxels; the assumed model size fixes the
	// physical scale.
	v := cfg.AssumedVoxelMM()
	f.Scale.X, f.Scale.Y, f.Scale.Z = v, v, v
	return &Input{Name: cfg.Primitive, Field: f, VoxelMM: v}, nil
}

func meanScale(f *grid.Field) float64 {
	return (f.Scale.X + f.Scale.Y + f.Scale.Z) / 3
}

// mesher returns the surface extraction backend cfg names.
func mesher(cfg config.Config) (kernel.Mesher, error) {
	switch cfg.MeshBackend {
	case "sdfx":
		return sdfx.New(), nil
	case "model3d":
		return model3d.New(), nil
	}
	return nil, fmt.Errorf("unknown mesh backend %q", cfg.MeshBackend)
}

// exportParts lists the meshes a run writes, keyed by part name, with the
// file stem of each.
func exportParts(cfg config.Config, res *RunResult) ([]tessellate.Part, map[string]string) {
	lat := res.Lattice
	stems := map[string]string{}
	var parts []tessellate.Part
	add := func(name, stem string, f *grid.Field) {
		if f == nil {
			return
		}
		parts = append(parts, tessellate.Part{Name: name, Field: f})
		stems[name] = stem
	}
	if cfg.SeparateSupports && lat.Object != nil && lat.Support != nil {
		add("Object", res.BaseName, lat.Object)
		add("Support", res.BaseName+"Support", lat.Support)
	} else {
		add("Complete", res.BaseName, lat.Complete)
	}
	add("Inverse", res.BaseName+"Inv", lat.Inverse)
	return parts, stems
}

func exportMeshes(cfg config.Config, res *RunResult) (map[string]string, error) {
	m, err := mesher(cfg)
	if err != nil {
		return nil, err
	}
	parts, stems := exportParts(cfg, res)
	meshes, err := tessellate.Tessellate(parts, m, tessellate.Options{
		Smooth:       cfg.Smooth,
		KeepFraction: cfg.DecimateKeepFraction,
	})
	if err != nil {
		return nil, err
	}
	paths := map[string]string{}
	for _, mesh := range meshes {
		path, err := meshio.Save(cfg.OutputDir, stems[mesh.Part], cfg.MeshFormat, mesh)
		if err != nil {
			return nil, err
		}
		logging.Logger().Info("exported mesh", "part", mesh.Part, "path", path)
		paths[mesh.Part] = path
	}
	return paths, nil
}

// writePlots renders mid-plane slices of the complete lattice and, when
// asked, a per-layer image stack.
func writePlots(cfg config.Config, res *RunResult) ([]string, error) {
	complete := res.Lattice.Complete
	dir := filepath.Join(cfg.OutputDir, "plots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var files []string
	if cfg.ShowPlots {
		s := complete.Shape
		for _, sl := range []struct {
			axis  frep.Axis
			name  string
			index int
		}{
			{frep.AxisX, "X", s.Nx / 2},
			{frep.AxisY, "Y", s.Ny / 2},
			{frep.AxisZ, "Z", s.Nz / 2},
		} {
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.svg", res.BaseName, sl.name))
			if err := plot.SliceFile(path, complete, sl.axis, sl.index, "Full Model"); err != nil {
				return files, err
			}
			files = append(files, path)
		}
		path := filepath.Join(dir, res.BaseName+"_SDF.svg")
		out, err := os.Create(path)
		if err != nil {
			return files, err
		}
		err = plot.Contour(out, res.Input.Field, frep.AxisZ, s.Nz/2, 10, "Input SDF")
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if cfg.ImageStack {
		lat := res.Lattice
		red, blue, black := plot.RGB{255, 0, 0}, plot.RGB{0, 0, 255}, plot.RGB{0, 0, 0}
		a, ca, b, cb := lat.Object, red, lat.Support, blue
		switch {
		case lat.Object == nil:
			a, ca, b, cb = lat.Support, black, lat.Support, blue
		case lat.Support == nil:
			b, cb = lat.Object, black
		}
		stackDir := filepath.Join(dir, res.BaseName+"_stack")
		n, err := plot.Stack(stackDir, res.BaseName, a, ca, b, cb)
		if err != nil {
			return files, err
		}
		logging.Logger().Info("image stack written", "dir", stackDir, "layers", n)
		files = append(files, stackDir)
	}
	return files, nil
}

// record stores the run in the index at cfg.IndexPath.
func record(ctx context.Context, cfg config.Config, res *RunResult, meshPaths map[string]string) (string, error) {
	idx, err := runindex.Open(cfg.IndexPath)
	if err != nil {
		return "", err
	}
	defer idx.Close()

	var parts []runindex.Part
	for _, r := range res.Lattice.Reports {
		path, ok := meshPaths[r.Name]
		if !ok {
			// Fused runs export the part inside the complete mesh.
			path = meshPaths["Complete"]
		}
		parts = append(parts, runindex.Part{
			Name:      r.Name,
			Voxels:    r.Voxels,
			VolumeMM3: r.VolumeMM3,
			MassG:     r.MassG,
			MeshPath:  path,
		})
	}
	return idx.Record(ctx, runindex.Run{
		Label:    cfg.RunLabel,
		Input:    res.Input.Name,
		BaseName: res.BaseName,
		Parts:    parts,
		Elapsed:  res.Elapsed,
	}, cfg)
}

// RunSweeps runs every sweep in the file at path over base, in order. A
// failing sweep is logged and the batch continues; the joined errors are
// returned at the end.
func (a *App) RunSweeps(ctx context.Context, base config.Config, path string) ([]*RunResult, error) {
	sf, err := config.LoadSweeps(path)
	if err != nil {
		return nil, err
	}
	var (
		out  []*RunResult
		errs []error
	)
	for _, s := range sf.Sweeps {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cfg, err := sf.Apply(base, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logging.Logger().Info("sweep", "label", s.Label)
		res, err := a.Run(ctx, cfg)
		if err != nil {
			logging.Logger().Error("sweep failed", "label", s.Label, "err", err)
			errs = append(errs, fmt.Errorf("sweep %s: %w", s.Label, err))
			continue
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}
