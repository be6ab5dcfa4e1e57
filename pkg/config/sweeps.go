package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sweep is one labelled set of overrides, keyed by YAML field name.
type Sweep struct {
	Label     string         `yaml:"label"`
	Overrides map[string]any `yaml:"overrides"`
}

// SweepFile lists sweeps. Pin holds overrides forced onto every sweep
// after its own, such as a fixed resolution for the whole batch.
type SweepFile struct {
	Pin    map[string]any `yaml:"pin"`
	Sweeps []Sweep        `yaml:"sweeps"`
}

// LoadSweeps reads a sweep file.
func LoadSweeps(path string) (SweepFile, error) {
	var f SweepFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	for i, s := range f.Sweeps {
		if s.Label == "" {
			return f, fmt.Errorf("%s: sweep %d has no label", path, i)
		}
	}
	return f, nil
}

// Apply returns base with the sweep's overrides and then pin applied. The
// sweep label becomes the run label.
func (f SweepFile) Apply(base Config, s Sweep) (Config, error) {
	raw, err := yaml.Marshal(base)
	if err != nil {
		return base, err
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return base, err
	}
	for k, v := range s.Overrides {
		doc[k] = v
	}
	for k, v := range f.Pin {
		doc[k] = v
	}
	doc["run_label"] = s.Label
	if err := CheckSchema(doc); err != nil {
		return base, fmt.Errorf("sweep %s: %w", s.Label, err)
	}
	merged, err := yaml.Marshal(doc)
	if err != nil {
		return base, err
	}
	out := Defaults()
	if err := yaml.Unmarshal(merged, &out); err != nil {
		return base, fmt.Errorf("sweep %s: %w", s.Label, err)
	}
	return out, nil
}
