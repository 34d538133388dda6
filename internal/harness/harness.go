package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/g3dtest/internal/raster3d"
)

// Params is the immutable input of a run.
type Params struct {
	// Geometry and TileSizeKB parameterize the large check.
	Geometry   raster3d.Geometry
	TileSizeKB int

	// Compression is configured on the engine before any check runs.
	Compression raster3d.Compression

	// WorkDir holds one temporary directory per check. Empty means the
	// OS temp dir.
	WorkDir string

	// Keep leaves the per-check directories behind for inspection.
	Keep bool
}

// Check is one executable conformance check.
type Check interface {
	Name() CheckID
	Run(ctx context.Context) CheckResult
}

// factory builds a check for one run. Checks are only built when selected.
type factory func(engine Engine, p Params, dir string, logger *slog.Logger) Check

// registration describes a known check. Checks with usesStore get a fresh
// work directory per run; the others get an empty dir.
type registration struct {
	build     factory
	usesStore bool
}

var registry = map[CheckID]registration{
	CheckCoord: {build: func(e Engine, _ Params, _ string, l *slog.Logger) Check {
		return NewCoordCheck(e, l)
	}},
	CheckPutGet: {usesStore: true, build: func(e Engine, _ Params, dir string, l *slog.Logger) Check {
		return NewPutGetCheck(e, dir, l)
	}},
	CheckLarge: {usesStore: true, build: func(e Engine, p Params, dir string, l *slog.Logger) Check {
		return NewLargeCheck(e, p.Geometry, p.TileSizeKB, dir, l)
	}},
}

// Dispatcher runs a Selection sequentially against one engine.
type Dispatcher struct {
	engine Engine
	params Params
	logger *slog.Logger
	runIDs RunIDGenerator
	clock  Clock
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher and check logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(g RunIDGenerator) DispatcherOption {
	return func(d *Dispatcher) { d.runIDs = g }
}

// WithClock sets the clock used to time checks.
func WithClock(c Clock) DispatcherOption {
	return func(d *Dispatcher) { d.clock = c }
}

// NewDispatcher creates a dispatcher. Logs are discarded unless WithLogger
// is given.
func NewDispatcher(engine Engine, params Params, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine: engine,
		params: params,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs: UUIDv7Generator{},
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the selected checks in order and aggregates their results.
//
// Every failure is captured in its CheckResult; Run itself never aborts
// early. If the compression mode cannot be configured, every selected check
// fails with an engine error.
func (d *Dispatcher) Run(ctx context.Context, sel Selection) Summary {
	start := d.clock.Now()
	summary := Summary{
		RunID:   d.runIDs.Generate(),
		Mode:    sel.Mode,
		Results: make([]CheckResult, 0, len(sel.IDs)),
	}
	logger := d.logger.With("run_id", summary.RunID)

	if sel.Empty() {
		logger.Warn("no tests selected")
	}

	configErr := d.engine.ConfigureCompression(d.params.Compression)
	if configErr != nil {
		logger.Error("configure compression failed", "error", configErr)
	} else {
		logger.Debug("compression configured", "mode", d.params.Compression.String())
	}

	for _, id := range sel.IDs {
		var res CheckResult
		if configErr != nil {
			res = newResult(id)
			res.AddEngineError("configure compression", configErr)
		} else {
			checkStart := d.clock.Now()
			res = d.runOne(ctx, id, logger)
			res.Duration = d.clock.Now().Sub(checkStart)
		}
		d.logResult(logger, res)
		summary.Add(res)
	}

	summary.Duration = d.clock.Now().Sub(start)
	return summary
}

func (d *Dispatcher) runOne(ctx context.Context, id CheckID, logger *slog.Logger) CheckResult {
	reg, ok := registry[id]
	if !ok {
		res := newResult(id)
		res.AddEngineError("dispatch", fmt.Errorf("no check registered for %q", id))
		return res
	}

	var dir string
	if reg.usesStore {
		var err error
		dir, err = os.MkdirTemp(d.params.WorkDir, fmt.Sprintf("g3dtest-%s-*", id))
		if err != nil {
			res := newResult(id)
			res.AddEngineError("workdir", err)
			return res
		}
		if d.params.Keep {
			logger.Info("keeping check directory", "check", string(id), "dir", dir)
		} else {
			defer func() {
				if err := os.RemoveAll(dir); err != nil {
					logger.Warn("failed to remove check directory", "dir", dir, "error", err)
				}
			}()
		}
	}

	logger.Info("running check", "check", string(id))
	return reg.build(d.engine, d.params, dir, logger.With("check", string(id))).Run(ctx)
}

func (d *Dispatcher) logResult(logger *slog.Logger, res CheckResult) {
	attrs := []any{
		"check", string(res.Name),
		"cells", res.Cells,
		"duration", res.Duration,
	}
	switch {
	case res.Passed:
		logger.Info("check passed", attrs...)
	case res.Kind == FailureEngine:
		logger.Error("check failed", append(attrs, "kind", string(res.Kind), "error", res.Err)...)
	default:
		attrs = append(attrs, "kind", string(res.Kind), "failures", res.FailureCount)
		if res.FirstFailure != nil {
			attrs = append(attrs, "first", res.FirstFailure.String())
		}
		logger.Error("check failed", attrs...)
	}
}
