// Package config builds the immutable run configuration of g3dtest from
// defaults, an optional config file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/g3dtest/internal/harness"
	"github.com/roach88/g3dtest/internal/raster3d"
)

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

// Config is the complete run configuration. Build it with Load and treat it
// as read-only afterwards.
type Config struct {
	// Test selection.
	Unit           []string `yaml:"unit" json:"unit"`
	Integration    []string `yaml:"integration" json:"integration"`
	UnitAll        bool     `yaml:"unit_all" json:"unit_all"`
	IntegrationAll bool     `yaml:"integration_all" json:"integration_all"`
	All            bool     `yaml:"all" json:"all"`

	// Large grid parameters.
	Depths   int `yaml:"depths" json:"depths"`
	Rows     int `yaml:"rows" json:"rows"`
	Cols     int `yaml:"cols" json:"cols"`
	TileSize int `yaml:"tile_size" json:"tile_size"` // kilobytes

	// Compression.
	LZW       bool `yaml:"lzw" json:"lzw"`
	RLE       bool `yaml:"rle" json:"rle"`
	LegacyRLE bool `yaml:"legacy_rle" json:"legacy_rle"`
	Precision int  `yaml:"precision" json:"precision"`

	// Run environment and output.
	WorkDir     string `yaml:"workdir" json:"workdir"`
	Keep        bool   `yaml:"keep" json:"keep"`
	Report      string `yaml:"report" json:"report"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`
	Format      string `yaml:"format" json:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Depths:    20,
		Rows:      5400,
		Cols:      10800,
		TileSize:  32,
		Precision: raster3d.PrecisionMax,
		Format:    "text",
	}
}

// ConfigurationError reports an invalid setting. It is always fatal and is
// raised before any check runs.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Validate checks every field and the test selection.
func (c Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"depths", c.Depths},
		{"rows", c.Rows},
		{"cols", c.Cols},
		{"tile_size", c.TileSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &ConfigurationError{Field: p.field, Message: fmt.Sprintf("must be > 0, got %d", p.value)}
		}
	}
	if c.Precision < raster3d.PrecisionMax || c.Precision > raster3d.DCELL.MantissaBits() {
		return &ConfigurationError{
			Field:   "precision",
			Message: fmt.Sprintf("must be between %d and %d, got %d", raster3d.PrecisionMax, raster3d.DCELL.MantissaBits(), c.Precision),
		}
	}
	if !slices.Contains(Formats, c.Format) {
		return &ConfigurationError{Field: "format", Message: fmt.Sprintf("%q must be one of %v", c.Format, Formats)}
	}
	if _, err := c.Selection(); err != nil {
		return err
	}
	if err := c.Compression().Validate(); err != nil {
		return &ConfigurationError{Field: "compression", Message: "rejected by engine", Err: err}
	}
	return validateSchema(c)
}

// Selection resolves the test names and run-all flags.
func (c Config) Selection() (harness.Selection, error) {
	sel, err := harness.NewSelection(c.Unit, c.Integration, c.UnitAll, c.IntegrationAll, c.All)
	if err != nil {
		var unknown *harness.UnknownCheckError
		if errors.As(err, &unknown) {
			return harness.Selection{}, &ConfigurationError{Field: unknown.Kind, Message: "unknown test name", Err: err}
		}
		return harness.Selection{}, &ConfigurationError{Field: "selection", Message: "cannot resolve tests", Err: err}
	}
	return sel, nil
}

// Geometry returns the large-grid dimensions.
func (c Config) Geometry() raster3d.Geometry {
	return raster3d.Geometry{Depths: c.Depths, Rows: c.Rows, Cols: c.Cols}
}

// Compression maps the -l and -r switches to an engine mode. Either switch
// turns compression on; precision only matters when it is on.
func (c Config) Compression() raster3d.Compression {
	comp := raster3d.Compression{Algorithm: raster3d.AlgorithmNone, Precision: c.Precision}
	if c.LZW {
		comp.Enabled = true
		comp.Algorithm = raster3d.AlgorithmLZW
	}
	if c.RLE {
		comp.Enabled = true
		comp.RLE = true
	}
	return comp
}

// Params returns the dispatcher input.
func (c Config) Params() harness.Params {
	return harness.Params{
		Geometry:    c.Geometry(),
		TileSizeKB:  c.TileSize,
		Compression: c.Compression(),
		WorkDir:     c.WorkDir,
		Keep:        c.Keep,
	}
}
