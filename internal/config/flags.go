package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flag names shared with the command line.
const (
	FlagUnit           = "unit"
	FlagIntegration    = "integration"
	FlagDepths         = "depths"
	FlagRows           = "rows"
	FlagCols           = "cols"
	FlagTileSize       = "tile_size"
	FlagUnitAll        = "unit-all"
	FlagIntegrationAll = "integration-all"
	FlagAll            = "all"
	FlagLZW            = "lzw"
	FlagRLE            = "rle"
	FlagLegacyRLE      = "legacy-rle"
	FlagPrecision      = "precision"
	FlagWorkDir        = "workdir"
	FlagKeep           = "keep"
	FlagConfig         = "config"
	FlagReport         = "report"
	FlagMetricsFile    = "metrics-file"
	FlagVerbose        = "verbose"
	FlagFormat         = "format"
)

// RegisterFlags defines every configuration flag on fs with the defaults
// of Default. Values are read back by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.Var(&NameList{}, FlagUnit, "choose the unit tests to run (coord,putget,large)")
	fs.Var(&NameList{}, FlagIntegration, "choose the integration tests to run")
	fs.Int(FlagDepths, d.Depths, "number of depths for the large file put/get value test")
	fs.Int(FlagRows, d.Rows, "number of rows for the large file put/get value test")
	fs.Int(FlagCols, d.Cols, "number of columns for the large file put/get value test")
	fs.Int(FlagTileSize, d.TileSize, "tile size in kilobytes for the large file put/get value test. "+
		"Set the tile size to 2048 and depths*rows*cols > 130000 to reproduce the tile RLE error")

	fs.BoolP(FlagUnitAll, "u", false, "run all unit tests")
	fs.BoolP(FlagIntegrationAll, "i", false, "run all integration tests")
	fs.BoolP(FlagAll, "a", false, "run all unit and integration tests")
	fs.BoolP(FlagLZW, "l", false, "switch LZW compression on")
	fs.BoolP(FlagRLE, "r", false, "use run length encoding (RLE) to encode/decode single tiles. "+
		"RLE is buggy for large tiles or files when --legacy-rle is set")
	fs.Bool(FlagLegacyRLE, false, "use the legacy RLE codec with its 16-bit run counter")
	fs.Int(FlagPrecision, d.Precision, "mantissa bits kept on the compressed path (-1 keeps all)")

	fs.String(FlagWorkDir, d.WorkDir, "directory for temporary stores (default: system temp dir)")
	fs.Bool(FlagKeep, false, "keep the stores written by each check")
	fs.StringP(FlagConfig, "c", "", "YAML or HuJSON config file")
	fs.String(FlagReport, "", "write a JSON report of the run to this file")
	fs.String(FlagMetricsFile, "", "write Prometheus textfile metrics to this file")
	fs.BoolP(FlagVerbose, "v", false, "verbose output")
	fs.String(FlagFormat, d.Format, "output format (text|json)")
}

// ApplyAssignments sets flags from key=value arguments, so
// "unit=coord,putget tile_size=2048" works as well as the long options.
func ApplyAssignments(fs *pflag.FlagSet, args []string) error {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return &ConfigurationError{Message: fmt.Sprintf("unexpected argument %q: want key=value", arg)}
		}
		if fs.Lookup(key) == nil {
			return &ConfigurationError{Field: key, Message: "unknown option"}
		}
		if err := fs.Set(key, value); err != nil {
			return &ConfigurationError{Field: key, Message: fmt.Sprintf("bad value %q", value), Err: err}
		}
	}
	return nil
}

// Load resolves the configuration: defaults, then the file named by
// --config, then every flag set explicitly. The result is validated.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		cfg, err = LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}

	var flagErr error
	fs.Visit(func(f *pflag.Flag) {
		if flagErr == nil {
			flagErr = applyFlag(&cfg, fs, f)
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFlag(cfg *Config, fs *pflag.FlagSet, f *pflag.Flag) error {
	var err error
	switch f.Name {
	case FlagUnit:
		cfg.Unit = f.Value.(*NameList).Names()
	case FlagIntegration:
		cfg.Integration = f.Value.(*NameList).Names()
	case FlagDepths:
		cfg.Depths, err = fs.GetInt(f.Name)
	case FlagRows:
		cfg.Rows, err = fs.GetInt(f.Name)
	case FlagCols:
		cfg.Cols, err = fs.GetInt(f.Name)
	case FlagTileSize:
		cfg.TileSize, err = fs.GetInt(f.Name)
	case FlagUnitAll:
		cfg.UnitAll, err = fs.GetBool(f.Name)
	case FlagIntegrationAll:
		cfg.IntegrationAll, err = fs.GetBool(f.Name)
	case FlagAll:
		cfg.All, err = fs.GetBool(f.Name)
	case FlagLZW:
		cfg.LZW, err = fs.GetBool(f.Name)
	case FlagRLE:
		cfg.RLE, err = fs.GetBool(f.Name)
	case FlagLegacyRLE:
		cfg.LegacyRLE, err = fs.GetBool(f.Name)
	case FlagPrecision:
		cfg.Precision, err = fs.GetInt(f.Name)
	case FlagWorkDir:
		cfg.WorkDir, err = fs.GetString(f.Name)
	case FlagKeep:
		cfg.Keep, err = fs.GetBool(f.Name)
	case FlagReport:
		cfg.Report, err = fs.GetString(f.Name)
	case FlagMetricsFile:
		cfg.MetricsFile, err = fs.GetString(f.Name)
	case FlagVerbose:
		cfg.Verbose, err = fs.GetBool(f.Name)
	case FlagFormat:
		cfg.Format, err = fs.GetString(f.Name)
	}
	if err != nil {
		return &ConfigurationError{Field: f.Name, Message: "cannot read flag", Err: err}
	}
	return nil
}
