package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/roach88/g3dtest/internal/raster3d"
)

// putGetGeometry is small enough for one tile and large enough to give every
// sample its own cell.
var putGetGeometry = raster3d.Geometry{Depths: 2, Rows: 3, Cols: 4}

const putGetTileSizeKB = 32

// sample is one value written by the put/get check.
type sample struct {
	label string
	bits  uint64
}

// putGetSamples returns the representative values for a cell type: signed
// zeros, ordinary values, extremes and the null sentinel.
func putGetSamples(t raster3d.CellType) []sample {
	if t == raster3d.FCELL {
		f := func(v float32) uint64 { return uint64(math.Float32bits(v)) }
		return []sample{
			{"zero", f(0)},
			{"negative zero", f(float32(math.Copysign(0, -1)))},
			{"negative", f(-1.5)},
			{"pi", f(3.14)},
			{"max", f(math.MaxFloat32)},
			{"min", f(-math.MaxFloat32)},
			{"smallest subnormal", f(math.SmallestNonzeroFloat32)},
			{"null", t.NullBits()},
		}
	}
	return []sample{
		{"zero", math.Float64bits(0)},
		{"negative zero", math.Float64bits(math.Copysign(0, -1))},
		{"negative", math.Float64bits(-1.5)},
		{"pi", math.Float64bits(3.14)},
		{"max", math.Float64bits(math.MaxFloat64)},
		{"min", math.Float64bits(-math.MaxFloat64)},
		{"smallest subnormal", math.Float64bits(math.SmallestNonzeroFloat64)},
		{"null", t.NullBits()},
	}
}

// PutGetCheck verifies that single values survive close/reopen bit-exact
// for every cell type.
type PutGetCheck struct {
	engine Engine
	dir    string
	logger *slog.Logger
}

// NewPutGetCheck creates the check. Stores are created under dir.
func NewPutGetCheck(engine Engine, dir string, logger *slog.Logger) *PutGetCheck {
	return &PutGetCheck{engine: engine, dir: dir, logger: logger}
}

func (c *PutGetCheck) Name() CheckID { return CheckPutGet }

func (c *PutGetCheck) Run(ctx context.Context) CheckResult {
	res := newResult(CheckPutGet)

	for _, t := range []raster3d.CellType{raster3d.FCELL, raster3d.DCELL} {
		if err := ctx.Err(); err != nil {
			res.AddEngineError("cancelled", err)
			return res
		}
		if !c.runType(t, &res) {
			return res
		}
	}
	return res
}

// runType writes and verifies the samples of one cell type. It returns false
// if an engine error ended the check.
func (c *PutGetCheck) runType(t raster3d.CellType, res *CheckResult) bool {
	path := filepath.Join(c.dir, fmt.Sprintf("putget_%s.db", t))
	region := raster3d.RegionFor(putGetGeometry)
	samples := putGetSamples(t)

	store, err := c.engine.Create(path, region, putGetTileSizeKB, t)
	if err != nil {
		res.AddEngineError(fmt.Sprintf("create %s", t), err)
		return false
	}
	for i, s := range samples {
		cell := sampleCell(i)
		if err := store.PutBits(cell.Depth, cell.Row, cell.Col, s.bits); err != nil {
			if closeErr := store.Close(); closeErr != nil {
				c.logger.Warn("failed to close map after put error", "path", path, "error", closeErr)
			}
			res.AddEngineError(fmt.Sprintf("put %s %s", t, cell), err)
			return false
		}
	}
	if err := store.Close(); err != nil {
		res.AddEngineError(fmt.Sprintf("close %s", t), err)
		return false
	}

	store, err = c.engine.Open(path)
	if err != nil {
		res.AddEngineError(fmt.Sprintf("reopen %s", t), err)
		return false
	}
	defer store.Close()

	for i, s := range samples {
		cell := sampleCell(i)
		got, err := store.GetBits(cell.Depth, cell.Row, cell.Col)
		if err != nil {
			res.AddEngineError(fmt.Sprintf("get %s %s", t, cell), err)
			return false
		}
		res.Cells++
		if got != s.bits {
			res.AddMismatch(Mismatch{
				Coord:    fmt.Sprintf("%s %s (%s)", t, cell, s.label),
				Expected: formatBits(s.bits, t.Size()),
				Actual:   formatBits(got, t.Size()),
			})
		}
	}

	c.logger.Debug("put/get values checked", "cell_type", string(t), "values", len(samples))
	return true
}

// sampleCell spreads sample i across the put/get geometry.
func sampleCell(i int) raster3d.Cell {
	g := putGetGeometry
	return raster3d.Cell{
		Depth: i / (g.Rows * g.Cols),
		Row:   (i / g.Cols) % g.Rows,
		Col:   i % g.Cols,
	}
}
