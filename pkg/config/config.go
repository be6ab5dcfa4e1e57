// Package config holds the run parameters of the lattice generator.
//
// A Config is loaded from YAML over Defaults and passed explicitly to the
// pipeline; there is no process-wide configuration state.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config enumerates every tunable of a run. Physical sizes are in
// millimetres and are converted to voxels with MMToVoxels.
type Config struct {
	// What to generate.
	Model            bool `yaml:"model"`
	Support          bool `yaml:"support"`
	SeparateSupports bool `yaml:"separate_supports"`
	Perforate        bool `yaml:"perforate"`
	Aesthetic        bool `yaml:"aesthetic"`
	Inverse          bool `yaml:"inverse"`
	Net              bool `yaml:"net"`
	NetConnect       bool `yaml:"net_connect"`
	Smooth           bool `yaml:"smooth"`

	// Grid.
	Resolution  int     `yaml:"resolution"`
	ModelSizeMM float64 `yaml:"model_size_mm"`
	BufferMM    float64 `yaml:"buffer_mm"`

	// Lattice.
	ModelThresh    float64 `yaml:"model_thresh"`
	ModelShellMM   float64 `yaml:"model_shell_mm"`
	ModelCellMM    float64 `yaml:"model_cell_mm"`
	NetThicknessMM float64 `yaml:"net_thickness_mm"`
	SupportThresh  float64 `yaml:"support_thresh"`
	SupportCellMM  float64 `yaml:"support_cell_mm"`
	JFAOrder       int     `yaml:"jfa_order"`
	Seed           uint64  `yaml:"seed"`

	// Execution.
	Accelerator     string `yaml:"accelerator"`
	ThreadsPerBlock int    `yaml:"threads_per_block"`

	// Reporting.
	MatDensity float64 `yaml:"mat_density"`

	// Input: exactly one of FileName, Recipe or Primitive is used, in that
	// order of preference.
	FileName  string `yaml:"file_name"`
	Recipe    string `yaml:"recipe"`
	Primitive string `yaml:"primitive"`

	// Output.
	OutputDir            string  `yaml:"output_dir"`
	AutoExport           bool    `yaml:"auto_export"`
	MeshBackend          string  `yaml:"mesh_backend"`
	MeshFormat           string  `yaml:"mesh_format"`
	DecimateKeepFraction float64 `yaml:"decimate_keep_fraction"`
	ShowPlots            bool    `yaml:"show_plots"`
	ImageStack           bool    `yaml:"image_stack"`
	SnapshotDir          string  `yaml:"snapshot_dir"`
	IndexPath            string  `yaml:"index_path"`
	RunLabel             string  `yaml:"run_label"`
}

// Defaults returns the stock configuration: a surface net fused with a
// volumetric lattice, exported as PLY.
func Defaults() Config {
	return Config{
		Model:            true,
		Support:          false,
		SeparateSupports: true,
		Net:              true,
		NetConnect:       true,
		Smooth:           true,

		Resolution:  300,
		ModelSizeMM: 100,
		BufferMM:    1,

		ModelThresh:    0.3,
		ModelShellMM:   0,
		ModelCellMM:    0.3,
		NetThicknessMM: 1,
		SupportThresh:  1.2,
		SupportCellMM:  0.35,
		JFAOrder:       2,
		Seed:           1,

		Accelerator:     "grid",
		ThreadsPerBlock: 8,

		MatDensity: 1.25,

		OutputDir:            "Output",
		AutoExport:           true,
		MeshBackend:          "sdfx",
		MeshFormat:           "ply",
		DecimateKeepFraction: 0.95,
	}
}

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "voronize://config.schema.json"

var compiledSchema *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, err
	}
	compiledSchema = s
	return s, nil
}

// CheckSchema validates a decoded YAML document against the config schema.
// Unknown keys and wrongly typed values are rejected here, before they
// can be silently dropped by decoding.
func CheckSchema(doc any) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	// Round-trip through JSON so numbers and maps have the types the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// Parse decodes YAML over the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Defaults()
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if doc == nil {
		return cfg, nil
	}
	if err := CheckSchema(doc); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// AssumedVoxelMM is the voxel edge length implied by ModelSizeMM spread
// over Resolution voxels. Imported meshes replace it with the measured
// scale once voxelized.
func (c Config) AssumedVoxelMM() float64 {
	return c.ModelSizeMM / float64(c.Resolution)
}

// BufferVoxels is the empty margin kept around the model, in voxels.
func (c Config) BufferVoxels() int {
	return max(int(math.Round(c.BufferMM/c.AssumedVoxelMM())), 0)
}

// MMToVoxels converts a physical length to voxels for the given voxel
// size. A non-positive voxel size leaves the value unchanged.
func MMToVoxels(mm, voxelMM float64) float64 {
	if voxelMM <= 0 {
		return mm
	}
	return mm / voxelMM
}
