package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/g3dtest/internal/harness"
	"github.com/roach88/g3dtest/internal/raster3d"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("g3dtest", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)

	assert.Equal(t, raster3d.Geometry{Depths: 20, Rows: 5400, Cols: 10800}, cfg.Geometry())
	assert.Equal(t, 32, cfg.TileSize)
	assert.Equal(t, raster3d.PrecisionMax, cfg.Precision)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, raster3d.NoCompression, cfg.Compression())

	sel, err := cfg.Selection()
	require.NoError(t, err)
	assert.True(t, sel.Empty())
}

func TestFlags(t *testing.T) {
	cfg, err := Load(newFlagSet(t,
		"--unit", "coord,large", "--depths", "2", "--rows", "300", "--cols", "300",
		"--tile_size", "2048", "-r", "--legacy-rle", "--format", "json", "-v",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"coord", "large"}, cfg.Unit)
	assert.Equal(t, raster3d.Geometry{Depths: 2, Rows: 300, Cols: 300}, cfg.Geometry())
	assert.Equal(t, 2048, cfg.TileSize)
	assert.True(t, cfg.RLE)
	assert.True(t, cfg.LegacyRLE)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Format)

	p := cfg.Params()
	assert.Equal(t, 2048, p.TileSizeKB)
	assert.True(t, p.Compression.Enabled)
	assert.True(t, p.Compression.RLE)
	assert.Equal(t, raster3d.AlgorithmNone, p.Compression.Algorithm)
}

func TestRepeatedUnitFlagAppends(t *testing.T) {
	cfg, err := Load(newFlagSet(t, "--unit", "coord", "--unit", " PutGet "))
	require.NoError(t, err)
	assert.Equal(t, []string{"coord", "putget"}, cfg.Unit)
}

func TestCompressionSwitches(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want raster3d.Compression
	}{
		{"none", nil, raster3d.NoCompression},
		{"lzw", []string{"-l"}, raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmLZW, Precision: -1}},
		{"rle", []string{"-r"}, raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmNone, RLE: true, Precision: -1}},
		{"both", []string{"-l", "-r"}, raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmLZW, RLE: true, Precision: -1}},
		{"precision", []string{"-l", "--precision", "10"}, raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmLZW, Precision: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newFlagSet(t, tt.args...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Compression())
			assert.NoError(t, cfg.Compression().Validate())
		})
	}
}

func TestSelectionFlags(t *testing.T) {
	cfg, err := Load(newFlagSet(t, "-u", "--unit", "coord"))
	require.NoError(t, err)
	sel, err := cfg.Selection()
	require.NoError(t, err)
	assert.Equal(t, harness.ModeUnitAll, sel.Mode)
	assert.Equal(t, harness.UnitTests, sel.IDs)

	cfg, err = Load(newFlagSet(t, "-a"))
	require.NoError(t, err)
	sel, err = cfg.Selection()
	require.NoError(t, err)
	assert.Equal(t, harness.ModeAll, sel.Mode)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"zero depths", []string{"--depths", "0"}, "depths"},
		{"negative rows", []string{"--rows", "-3"}, "rows"},
		{"zero cols", []string{"--cols", "0"}, "cols"},
		{"zero tile size", []string{"--tile_size", "0"}, "tile_size"},
		{"precision too small", []string{"--precision", "-2"}, "precision"},
		{"precision too large", []string{"--precision", "53"}, "precision"},
		{"bad format", []string{"--format", "xml"}, "format"},
		{"unknown unit", []string{"--unit", "coord,bogus"}, "unit"},
		{"unknown integration", []string{"--integration", "foo"}, "integration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlagSet(t, tt.args...))
			require.Error(t, err)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestUnknownUnitMessage(t *testing.T) {
	_, err := Load(newFlagSet(t, "--unit", "bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown unit test "bogus": must be one of coord,putget,large`)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeFile(t, "g3d.yaml", `
unit: [Coord, large]
depths: 2
rows: 300
cols: 300
tile_size: 2048
rle: true
legacy_rle: true
`)
	cfg, err := Load(newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, []string{"coord", "large"}, cfg.Unit)
	assert.Equal(t, 2048, cfg.TileSize)
	assert.True(t, cfg.LegacyRLE)
	assert.Equal(t, 300, cfg.Rows)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "g3d.yaml", "depths: 7\nunit: [large]\n")
	cfg, err := Load(newFlagSet(t, "--config", path, "--depths", "3", "--unit", "coord"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Depths)
	assert.Equal(t, []string{"coord"}, cfg.Unit)
	assert.Equal(t, 5400, cfg.Rows)
}

func TestLoadHuJSONFile(t *testing.T) {
	path := writeFile(t, "g3d.hujson", `{
	// reproduce the RLE defect
	"unit": ["large"],
	"tile_size": 2048,
	"rle": true,
}`)
	cfg, err := LoadFile(path, Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"large"}, cfg.Unit)
	assert.Equal(t, 2048, cfg.TileSize)
	assert.True(t, cfg.RLE)
	assert.Equal(t, 20, cfg.Depths)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), Default())
		assert.True(t, IsConfigurationError(err))
	})
	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "g3d.yaml", "tilesize: 4\n"), Default())
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "tilesize")
	})
	t.Run("bad json", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "g3d.json", `{"depths": }`), Default())
		assert.True(t, IsConfigurationError(err))
	})
	t.Run("empty file keeps base", func(t *testing.T) {
		cfg, err := LoadFile(writeFile(t, "g3d.yaml", ""), Default())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestApplyAssignments(t *testing.T) {
	fs := newFlagSet(t)
	require.NoError(t, ApplyAssignments(fs, []string{"unit=putget,coord", "tile_size=2048", "depths=4"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"putget", "coord"}, cfg.Unit)
	assert.Equal(t, 2048, cfg.TileSize)
	assert.Equal(t, 4, cfg.Depths)

	assert.Error(t, ApplyAssignments(newFlagSet(t), []string{"coord"}))
	assert.Error(t, ApplyAssignments(newFlagSet(t), []string{"bogus=1"}))
	assert.Error(t, ApplyAssignments(newFlagSet(t), []string{"depths=many"}))
}

func TestSchemaRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	require.NoError(t, validateSchema(cfg))

	cfg.Unit = []string{"bogus"}
	err := validateSchema(cfg)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	cfg = Default()
	cfg.TileSize = 0
	assert.Error(t, validateSchema(cfg))
}

func TestValidateWithUnsetNameLists(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(*Config)
	}{
		{"defaults", func(*Config) {}},
		{"unit all", func(c *Config) { c.UnitAll = true }},
		{"integration all", func(c *Config) { c.IntegrationAll = true }},
		{"all", func(c *Config) { c.All = true }},
		{"empty lists", func(c *Config) { c.Unit, c.Integration = []string{}, []string{} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.edit(&cfg)
			assert.NoError(t, cfg.Validate())
			assert.NoError(t, validateSchema(cfg))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "coord", NormalizeName("  COORD\t"))
	// "E" followed by a combining acute accent composes before lowering.
	assert.Equal(t, "\u00e9", NormalizeName("E\u0301"))

	var l NameList
	require.NoError(t, l.Set("coord, ,Large"))
	assert.Equal(t, []string{"coord", "large"}, l.Names())
	assert.Equal(t, "coord,large", l.String())
	assert.Equal(t, "names", l.Type())
}
