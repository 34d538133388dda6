package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/roach88/g3dtest/internal/raster3d"
)

// progressTiles is how often the large check logs progress.
const progressTiles = 4096

// LargeCheck writes a full synthetic DCELL grid, closes the store to force
// every tile through the encoder, reopens it and verifies every cell.
//
// Mismatches never stop the scan, so FailureCount is the total number of bad
// cells. Engine errors end the check.
type LargeCheck struct {
	engine     Engine
	geometry   raster3d.Geometry
	tileSizeKB int
	dir        string
	logger     *slog.Logger
}

// NewLargeCheck creates the stress check for the given grid and tile size.
func NewLargeCheck(engine Engine, geometry raster3d.Geometry, tileSizeKB int, dir string, logger *slog.Logger) *LargeCheck {
	return &LargeCheck{
		engine:     engine,
		geometry:   geometry,
		tileSizeKB: tileSizeKB,
		dir:        dir,
		logger:     logger,
	}
}

func (c *LargeCheck) Name() CheckID { return CheckLarge }

func (c *LargeCheck) Run(ctx context.Context) CheckResult {
	res := newResult(CheckLarge)

	region := raster3d.RegionFor(c.geometry)
	tr, err := c.engine.Grid(region, c.tileSizeKB, raster3d.DCELL)
	if err != nil {
		res.AddEngineError("grid", err)
		return res
	}
	path := filepath.Join(c.dir, "large.db")

	c.logger.Info("writing large grid",
		"geometry", c.geometry.String(),
		"cells", c.geometry.Cells(),
		"tile_size_kb", c.tileSizeKB,
		"tiles", tr.TileCount(),
	)

	store, err := c.engine.Create(path, region, c.tileSizeKB, raster3d.DCELL)
	if err != nil {
		res.AddEngineError("create", err)
		return res
	}
	err = c.walk(ctx, tr, "write", func(cell raster3d.Cell) error {
		v := SyntheticValue(cell.Depth, cell.Row, cell.Col)
		if err := store.PutBits(cell.Depth, cell.Row, cell.Col, math.Float64bits(v)); err != nil {
			return fmt.Errorf("put %s: %w", cell, err)
		}
		return nil
	})
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			c.logger.Warn("failed to close map after write error", "path", path, "error", closeErr)
		}
		res.AddEngineError("write", err)
		return res
	}
	if err := store.Close(); err != nil {
		res.AddEngineError("close", err)
		return res
	}

	c.logger.Info("verifying large grid", "geometry", c.geometry.String())

	store, err = c.engine.Open(path)
	if err != nil {
		res.AddEngineError("reopen", err)
		return res
	}
	defer store.Close()

	err = c.walk(ctx, tr, "verify", func(cell raster3d.Cell) error {
		got, err := store.GetBits(cell.Depth, cell.Row, cell.Col)
		if err != nil {
			return fmt.Errorf("get %s: %w", cell, err)
		}
		res.Cells++
		want := math.Float64bits(SyntheticValue(cell.Depth, cell.Row, cell.Col))
		if got != want {
			res.AddMismatch(Mismatch{
				Coord:    cell.String(),
				Expected: formatBits(want, 8),
				Actual:   formatBits(got, 8),
			})
		}
		return nil
	})
	if err != nil {
		res.AddEngineError("verify", err)
		return res
	}

	if res.FailureCount > 0 {
		c.logger.Warn("large grid mismatches",
			"count", res.FailureCount,
			"first", res.FirstFailure.String(),
		)
	}
	return res
}

// walk visits every cell tile by tile so the store only ever needs the
// current tile in memory.
func (c *LargeCheck) walk(ctx context.Context, tr Transformer, phase string, fn func(raster3d.Cell) error) error {
	tiles := tr.TileCount()
	for tile := 0; tile < tiles; tile++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tr.TileCells(tile, fn); err != nil {
			return err
		}
		if (tile+1)%progressTiles == 0 {
			c.logger.Debug("large grid progress", "phase", phase, "tiles", tile+1, "of", tiles)
		}
	}
	return nil
}
