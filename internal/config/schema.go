package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// validateSchema checks the resolved configuration against the embedded CUE
// definition #Config.
func validateSchema(c Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema has no #Config definition")
	}

	// Unset name lists encode as null; the schema only admits lists.
	if c.Unit == nil {
		c.Unit = []string{}
	}
	if c.Integration == nil {
		c.Integration = []string{}
	}

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return &ConfigurationError{Message: "cannot encode configuration", Err: err}
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return &ConfigurationError{Field: "config", Message: "schema violation", Err: err}
	}
	return nil
}
