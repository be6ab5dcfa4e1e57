package config

import (
	"strconv"
	"strings"
)

// FormatParam renders a number for a file name: two decimals at most,
// trailing zeros and a bare decimal point dropped.
func FormatParam(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// ExportSuffix names the parameters that shaped a run, so sweep outputs
// land in distinct files.
func (c Config) ExportSuffix() string {
	parts := []string{
		"res" + strconv.Itoa(c.Resolution),
		"th" + FormatParam(c.ModelThresh),
		"cell" + FormatParam(c.ModelCellMM),
	}
	if c.Net {
		parts = append(parts, "net"+FormatParam(c.NetThicknessMM))
	} else {
		parts = append(parts, "nonet")
	}
	parts = append(parts, "shell"+FormatParam(c.ModelShellMM))
	if c.Net && c.NetConnect {
		parts = append(parts, "netconnect")
	}
	if c.Aesthetic {
		parts = append(parts, "aesthetic")
	}
	if c.RunLabel != "" {
		parts = append(parts, c.RunLabel)
	}
	return strings.Join(parts, "_")
}

// BaseName is the output file stem for a model called short.
func (c Config) BaseName(short string) string {
	return short + "_Voronoi_" + c.ExportSuffix()
}
