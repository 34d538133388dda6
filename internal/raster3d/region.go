package raster3d

import (
	"fmt"
	"math"
)

// Geometry is the number of cells along each axis of a map.
type Geometry struct {
	Depths int `json:"depths"`
	Rows   int `json:"rows"`
	Cols   int `json:"cols"`
}

// Validate checks that all three dimensions are positive.
func (g Geometry) Validate() error {
	if g.Depths <= 0 || g.Rows <= 0 || g.Cols <= 0 {
		return newError(ErrCodeInvalidArgument, "geometry",
			fmt.Sprintf("dimensions must be > 0, got %s", g), nil)
	}
	return nil
}

// Cells returns depths*rows*cols.
func (g Geometry) Cells() int64 {
	return int64(g.Depths) * int64(g.Rows) * int64(g.Cols)
}

// Contains reports whether (d, r, c) addresses a cell of g.
func (g Geometry) Contains(d, r, c int) bool {
	return d >= 0 && d < g.Depths && r >= 0 && r < g.Rows && c >= 0 && c < g.Cols
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d", g.Depths, g.Rows, g.Cols)
}

// Region is a Geometry anchored in world space.
//
// Rows count southwards from North, columns eastwards from West and depths
// upwards from Bottom.
type Region struct {
	North  float64 `json:"north"`
	South  float64 `json:"south"`
	East   float64 `json:"east"`
	West   float64 `json:"west"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Geometry
}

// RegionFor returns a region with unit resolution whose south-west-bottom
// corner sits at the origin.
func RegionFor(g Geometry) Region {
	return Region{
		North:    float64(g.Rows),
		East:     float64(g.Cols),
		Top:      float64(g.Depths),
		Geometry: g,
	}
}

// Validate checks the geometry and that every bound pair is ordered.
func (r Region) Validate() error {
	if err := r.Geometry.Validate(); err != nil {
		return err
	}
	if !(r.North > r.South) || !(r.East > r.West) || !(r.Top > r.Bottom) {
		return newError(ErrCodeInvalidArgument, "region",
			fmt.Sprintf("bounds must satisfy north>south, east>west, top>bottom: %+v", r), nil)
	}
	return nil
}

// NSRes is the north-south cell size.
func (r Region) NSRes() float64 { return (r.North - r.South) / float64(r.Rows) }

// EWRes is the east-west cell size.
func (r Region) EWRes() float64 { return (r.East - r.West) / float64(r.Cols) }

// TBRes is the top-bottom cell size.
func (r Region) TBRes() float64 { return (r.Top - r.Bottom) / float64(r.Depths) }

// World is a location in world space.
type World struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	Top   float64 `json:"top"`
}

// Index is a continuous cell index. The integer part names the cell, the
// fractional part the position inside it.
type Index struct {
	Depth float64 `json:"depth"`
	Row   float64 `json:"row"`
	Col   float64 `json:"col"`
}

// Cell is an integer cell coordinate.
type Cell struct {
	Depth int `json:"depth"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.Depth, c.Row, c.Col)
}

// WorldToIndex converts a world location to a continuous cell index.
func (r Region) WorldToIndex(w World) Index {
	return Index{
		Depth: (w.Top - r.Bottom) / r.TBRes(),
		Row:   (r.North - w.North) / r.NSRes(),
		Col:   (w.East - r.West) / r.EWRes(),
	}
}

// IndexToWorld converts a continuous cell index back to world space.
func (r Region) IndexToWorld(i Index) World {
	return World{
		North: r.North - i.Row*r.NSRes(),
		East:  r.West + i.Col*r.EWRes(),
		Top:   r.Bottom + i.Depth*r.TBRes(),
	}
}

// CellOf returns the cell containing i and whether that cell is inside the
// region. Points on the north, east or top edge belong to no cell.
func (r Region) CellOf(i Index) (Cell, bool) {
	c := Cell{
		Depth: int(math.Floor(i.Depth)),
		Row:   int(math.Floor(i.Row)),
		Col:   int(math.Floor(i.Col)),
	}
	return c, r.Contains(c.Depth, c.Row, c.Col)
}

// CellCenter returns the world location of the center of c.
func (r Region) CellCenter(c Cell) World {
	return r.IndexToWorld(Index{
		Depth: float64(c.Depth) + 0.5,
		Row:   float64(c.Row) + 0.5,
		Col:   float64(c.Col) + 0.5,
	})
}
