package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/g3dtest/internal/config"
	"github.com/roach88/g3dtest/internal/harness"
)

// Option adjusts the root command, mostly for tests.
type Option func(*runDeps)

// runDeps are the collaborators a run needs besides its configuration.
type runDeps struct {
	runIDs harness.RunIDGenerator
	clock  harness.Clock
}

// WithRunIDs replaces the UUIDv7 run ID generator.
func WithRunIDs(g harness.RunIDGenerator) Option {
	return func(d *runDeps) { d.runIDs = g }
}

// WithClock replaces the system clock used to time checks.
func WithClock(c harness.Clock) Option {
	return func(d *runDeps) { d.clock = c }
}

// NewRootCommand creates the g3dtest command.
func NewRootCommand(opts ...Option) *cobra.Command {
	deps := &runDeps{runIDs: harness.UUIDv7Generator{}, clock: harness.SystemClock{}}
	for _, opt := range opts {
		opt(deps)
	}

	cmd := &cobra.Command{
		Use:   "g3dtest [key=value ...]",
		Short: "Unit and integration tests for the g3d raster3d library",
		Long: `Run conformance checks against a tiled, optionally compressed 3D raster store.

Checks:
  coord   - world/index coordinate transforms invert each other
  putget  - single FCELL and DCELL values survive close/reopen bit-exact
  large   - every cell of a large grid reads back what was written

Options may also be given as key=value arguments, e.g. unit=coord,putget.

Exit codes:
  0  - all selected checks passed
  N  - N checks failed
  64 - invalid configuration, no check was run
  74 - the report or metrics file could not be written

Examples:
  g3dtest -u
  g3dtest --unit large --depths 2 --rows 300 --cols 300 --tile_size 2048 -r --legacy-rle
  g3dtest unit=coord,putget -l --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, args, deps)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitConfigError, "invalid flag", err)
	})
	return cmd
}
