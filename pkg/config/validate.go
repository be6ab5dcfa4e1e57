package config

import (
	"fmt"
	"slices"
)

// ValidationError represents a configuration problem.
type ValidationError struct {
	Code    string
	Message string
	Field   string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks the semantic constraints the schema cannot express.
// An empty result means the config can be run.
func (c Config) Validate() []ValidationError {
	var errs []ValidationError

	if !c.Model && !c.Support {
		errs = append(errs, ValidationError{
			Code:    "NOTHING_TO_BUILD",
			Message: "enable model, support or both",
		})
	}
	if c.Resolution < 2 {
		errs = append(errs, ValidationError{
			Code:    "BAD_RESOLUTION",
			Message: fmt.Sprintf("resolution must be at least 2, got %d", c.Resolution),
			Field:   "resolution",
		})
	}
	if c.ModelSizeMM <= 0 {
		errs = append(errs, ValidationError{
			Code:    "BAD_MODEL_SIZE",
			Message: "model size must be positive",
			Field:   "model_size_mm",
		})
	}
	if c.DecimateKeepFraction <= 0 || c.DecimateKeepFraction > 1 {
		errs = append(errs, ValidationError{
			Code:    "BAD_FRACTION",
			Message: fmt.Sprintf("decimate keep fraction %g is outside (0, 1]", c.DecimateKeepFraction),
			Field:   "decimate_keep_fraction",
		})
	}
	if c.JFAOrder < 0 {
		errs = append(errs, ValidationError{
			Code:    "BAD_JFA_ORDER",
			Message: "jfa order must not be negative",
			Field:   "jfa_order",
		})
	}

	enums := []struct {
		field, value string
		allowed      []string
	}{
		{"accelerator", c.Accelerator, []string{"cpu", "grid"}},
		{"mesh_backend", c.MeshBackend, []string{"sdfx", "model3d"}},
		{"mesh_format", c.MeshFormat, []string{"ply", "stl"}},
	}
	for _, e := range enums {
		if !slices.Contains(e.allowed, e.value) {
			errs = append(errs, ValidationError{
				Code:    "UNKNOWN_VALUE",
				Message: fmt.Sprintf("%q is not one of %v", e.value, e.allowed),
				Field:   e.field,
			})
		}
	}
	if c.Accelerator == "grid" && c.ThreadsPerBlock < 1 {
		errs = append(errs, ValidationError{
			Code:    "BAD_THREADS_PER_BLOCK",
			Message: "threads per block must be positive",
			Field:   "threads_per_block",
		})
	}
	return errs
}
