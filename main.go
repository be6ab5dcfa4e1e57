// Command voronize fills a solid with a Voronoi strut lattice and writes
// the result as meshes.
//
// Usage:
//
//	voronize [-config run.yaml] [-sweeps sweeps.yaml] [-out dir] [-v] [input]
//
// input is a .stl or .off mesh, or a .lisp recipe. Without input the
// config's file_name, recipe or primitive is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/unixpickle/essentials"

	"github.com/chazu/voronize/pkg/config"
	"github.com/chazu/voronize/pkg/logging"
)

func main() {
	var (
		configPath string
		sweepsPath string
		outDir     string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "YAML run config (defaults when empty)")
	flag.StringVar(&sweepsPath, "sweeps", "", "YAML sweep file; runs every sweep over the config")
	flag.StringVar(&outDir, "out", "", "output directory, overriding the config")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [input.stl|input.off|recipe.lisp]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Defaults()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		essentials.Must(err)
	}
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 1 {
		applyInput(&cfg, flag.Arg(0))
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := NewApp()
	if sweepsPath != "" {
		results, err := app.RunSweeps(ctx, cfg, sweepsPath)
		for _, r := range results {
			fmt.Println(r.BaseName)
		}
		essentials.Must(err)
		return
	}
	res, err := app.Run(ctx, cfg)
	essentials.Must(err)
	for _, f := range res.Files {
		fmt.Println(f)
	}
}

// applyInput points cfg at path, treating .lisp files as recipes.
func applyInput(cfg *config.Config, path string) {
	cfg.FileName, cfg.Recipe, cfg.Primitive = "", "", ""
	if strings.EqualFold(filepath.Ext(path), ".lisp") {
		cfg.Recipe = path
		return
	}
	cfg.FileName = path
}
