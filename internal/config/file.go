package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// LoadFile overlays the settings in path onto base.
//
// YAML files are decoded strictly: unknown keys are an error. Files ending in
// .json or .hujson may carry comments and trailing commas; they are
// standardized to plain JSON first, which is itself valid YAML.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigurationError{Field: "config", Message: fmt.Sprintf("cannot read %s", path), Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".hujson":
		data, err = hujson.Standardize(data)
		if err != nil {
			return Config{}, &ConfigurationError{Field: "config", Message: fmt.Sprintf("invalid JSON in %s", path), Err: err}
		}
	}

	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigurationError{Field: "config", Message: fmt.Sprintf("cannot parse %s", path), Err: err}
	}

	cfg.Unit = normalizeNames(cfg.Unit)
	cfg.Integration = normalizeNames(cfg.Integration)
	return cfg, nil
}
