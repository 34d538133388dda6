package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/g3dtest/internal/raster3d"
)

// TransformTolerance is the relative tolerance of a world → index → world
// round trip.
const TransformTolerance = 1e-6

// coordRegion is the fixed region the transform check runs on.
var coordRegion = raster3d.Region{
	North: 1000, South: 0,
	East: 2000, West: 0,
	Top: 100, Bottom: 0,
	Geometry: raster3d.Geometry{Depths: 10, Rows: 15, Cols: 20},
}

const coordTileSizeKB = 32

// CoordCheck verifies that coordinate transforms are mutual inverses.
type CoordCheck struct {
	engine Engine
	logger *slog.Logger
}

// NewCoordCheck creates the transform check.
func NewCoordCheck(engine Engine, logger *slog.Logger) *CoordCheck {
	return &CoordCheck{engine: engine, logger: logger}
}

func (c *CoordCheck) Name() CheckID { return CheckCoord }

// Run checks every representative world point, then every cell center.
func (c *CoordCheck) Run(ctx context.Context) CheckResult {
	res := newResult(CheckCoord)

	tr, err := c.engine.Grid(coordRegion, coordTileSizeKB, raster3d.DCELL)
	if err != nil {
		res.AddEngineError("grid", err)
		return res
	}

	for _, w := range worldPoints(coordRegion) {
		c.checkPoint(tr, w, &res)
	}

	g := coordRegion.Geometry
	for d := 0; d < g.Depths; d++ {
		if err := ctx.Err(); err != nil {
			res.AddEngineError("cancelled", err)
			return res
		}
		for r := 0; r < g.Rows; r++ {
			for col := 0; col < g.Cols; col++ {
				cell := raster3d.Cell{Depth: d, Row: r, Col: col}
				got, ok := tr.CellOf(tr.WorldToIndex(tr.CellCenter(cell)))
				res.Cells++
				if !ok || got != cell {
					res.AddMismatch(Mismatch{
						Coord:    "center of " + cell.String(),
						Expected: cell.String(),
						Actual:   got.String(),
					})
				}
			}
		}
	}

	c.logger.Debug("coordinate transforms checked", "points", res.Cells, "failures", res.FailureCount)
	return res
}

// checkPoint round-trips one world point through the index and tile
// transforms.
func (c *CoordCheck) checkPoint(tr Transformer, w raster3d.World, res *CheckResult) {
	res.Cells++
	idx := tr.WorldToIndex(w)
	back := tr.IndexToWorld(idx)
	if !closeEnough(w.North, back.North) || !closeEnough(w.East, back.East) || !closeEnough(w.Top, back.Top) {
		res.AddMismatch(Mismatch{
			Coord:    formatWorld(w),
			Expected: formatWorld(w),
			Actual:   formatWorld(back),
		})
		return
	}

	cell, ok := tr.CellOf(idx)
	if !ok {
		return
	}
	tile, offset := tr.CellToTile(cell)
	if got := tr.TileToCell(tile, offset); got != cell {
		res.AddMismatch(Mismatch{
			Coord:    fmt.Sprintf("tile %d offset %d", tile, offset),
			Expected: cell.String(),
			Actual:   got.String(),
		})
	}
}

// worldPoints returns corners, edge midpoints, near-boundary points and a
// regular interior lattice.
func worldPoints(r raster3d.Region) []raster3d.World {
	const eps = 1e-9
	ns := []float64{r.South, r.South + eps, (r.North + r.South) / 2, r.North - eps, r.North}
	ew := []float64{r.West, r.West + eps, (r.East + r.West) / 2, r.East - eps, r.East}
	tb := []float64{r.Bottom, r.Bottom + eps, (r.Top + r.Bottom) / 2, r.Top - eps, r.Top}

	var points []raster3d.World
	for _, n := range ns {
		for _, e := range ew {
			for _, t := range tb {
				points = append(points, raster3d.World{North: n, East: e, Top: t})
			}
		}
	}

	const steps = 7
	for i := 1; i < steps; i++ {
		for j := 1; j < steps; j++ {
			for k := 1; k < steps; k++ {
				points = append(points, raster3d.World{
					North: r.South + (r.North-r.South)*float64(i)/steps,
					East:  r.West + (r.East-r.West)*float64(j)/steps,
					Top:   r.Bottom + (r.Top-r.Bottom)*float64(k)/steps,
				})
			}
		}
	}
	return points
}

// closeEnough compares with relative tolerance, absolute near zero.
func closeEnough(want, got float64) bool {
	return math.Abs(want-got) <= TransformTolerance*math.Max(1, math.Abs(want))
}

func formatWorld(w raster3d.World) string {
	return fmt.Sprintf("(north=%.9g, east=%.9g, top=%.9g)", w.North, w.East, w.Top)
}
