package raster3d

import "fmt"

// MaxTileBytes bounds the decoded size of a single tile.
const MaxTileBytes = 256 << 20

// CellType is the value type stored in a map.
type CellType string

const (
	// FCELL stores IEEE-754 binary32 values.
	FCELL CellType = "FCELL"
	// DCELL stores IEEE-754 binary64 values.
	DCELL CellType = "DCELL"
)

// Size returns the number of bytes one cell occupies.
func (t CellType) Size() int {
	switch t {
	case FCELL:
		return 4
	case DCELL:
		return 8
	default:
		return 0
	}
}

// NullBits returns the bit pattern of the null sentinel: all bits set.
func (t CellType) NullBits() uint64 {
	if t == FCELL {
		return 0xFFFFFFFF
	}
	return 0xFFFFFFFFFFFFFFFF
}

// MantissaBits returns the number of explicit mantissa bits of the type.
func (t CellType) MantissaBits() int {
	if t == FCELL {
		return 23
	}
	return 52
}

func (t CellType) validate() error {
	if t.Size() == 0 {
		return newError(ErrCodeInvalidArgument, "cell type", fmt.Sprintf("unknown cell type %q", string(t)), nil)
	}
	return nil
}

// TileLayout partitions a Geometry into equally sized tiles.
//
// Tiles at the far edges may extend past the geometry; their out-of-range
// cells are never addressed and stay null.
//
// Example:
//
//	Geometry: 3x25x35, tiles 2x10x10
//	Result: 2x3x4 = 24 tiles
type TileLayout struct {
	Geometry Geometry `json:"geometry"`
	TileZ    int      `json:"tile_z"` // cells per tile along depths
	TileY    int      `json:"tile_y"` // cells per tile along rows
	TileX    int      `json:"tile_x"` // cells per tile along cols
	NZ       int      `json:"nz"`
	NY       int      `json:"ny"`
	NX       int      `json:"nx"`
}

// NewTileLayout builds a layout with explicit tile dimensions.
// Tile counts use ceiling division.
func NewTileLayout(g Geometry, tileZ, tileY, tileX int) (TileLayout, error) {
	if err := g.Validate(); err != nil {
		return TileLayout{}, err
	}
	if tileZ <= 0 || tileY <= 0 || tileX <= 0 {
		return TileLayout{}, newError(ErrCodeInvalidArgument, "tile layout",
			fmt.Sprintf("tile dimensions must be > 0, got %dx%dx%d", tileZ, tileY, tileX), nil)
	}
	return TileLayout{
		Geometry: g,
		TileZ:    tileZ,
		TileY:    tileY,
		TileX:    tileX,
		NZ:       ceilDiv(g.Depths, tileZ),
		NY:       ceilDiv(g.Rows, tileY),
		NX:       ceilDiv(g.Cols, tileX),
	}, nil
}

// LayoutForTileSize derives tile dimensions from a tile size in kilobytes.
//
// Starting from the full geometry, the largest tile dimension is halved
// (rounding up) until a tile fits into tileSizeKB. Tiles therefore stay close
// to cubic and never exceed the geometry.
func LayoutForTileSize(g Geometry, tileSizeKB int, t CellType) (TileLayout, error) {
	if err := g.Validate(); err != nil {
		return TileLayout{}, err
	}
	if err := t.validate(); err != nil {
		return TileLayout{}, err
	}
	if tileSizeKB <= 0 {
		return TileLayout{}, newError(ErrCodeInvalidArgument, "tile layout",
			fmt.Sprintf("tile size must be > 0 KB, got %d", tileSizeKB), nil)
	}
	if int64(tileSizeKB)*1024 > MaxTileBytes {
		return TileLayout{}, newError(ErrCodeAllocation, "tile layout",
			fmt.Sprintf("tile size %d KB exceeds limit of %d bytes", tileSizeKB, MaxTileBytes), nil)
	}

	maxCells := tileSizeKB * 1024 / t.Size()
	if maxCells < 1 {
		maxCells = 1
	}

	z, y, x := g.Depths, g.Rows, g.Cols
	for int64(z)*int64(y)*int64(x) > int64(maxCells) {
		switch {
		case x >= y && x >= z:
			x = ceilDiv(x, 2)
		case y >= z:
			y = ceilDiv(y, 2)
		default:
			z = ceilDiv(z, 2)
		}
	}
	return NewTileLayout(g, z, y, x)
}

// TileCount returns the total number of tiles.
func (l TileLayout) TileCount() int {
	return l.NZ * l.NY * l.NX
}

// CellsPerTile returns the number of cells in one tile, padding included.
func (l TileLayout) CellsPerTile() int {
	return l.TileZ * l.TileY * l.TileX
}

// CellToTile maps a cell to its tile index and the cell's offset inside
// that tile. Both are in row-major (depth, row, col) order.
func (l TileLayout) CellToTile(c Cell) (tile, offset int) {
	tz, oz := c.Depth/l.TileZ, c.Depth%l.TileZ
	ty, oy := c.Row/l.TileY, c.Row%l.TileY
	tx, ox := c.Col/l.TileX, c.Col%l.TileX
	tile = (tz*l.NY+ty)*l.NX + tx
	offset = (oz*l.TileY+oy)*l.TileX + ox
	return tile, offset
}

// TileToCell is the inverse of CellToTile.
func (l TileLayout) TileToCell(tile, offset int) Cell {
	tx := tile % l.NX
	ty := (tile / l.NX) % l.NY
	tz := tile / (l.NX * l.NY)
	ox := offset % l.TileX
	oy := (offset / l.TileX) % l.TileY
	oz := offset / (l.TileX * l.TileY)
	return Cell{
		Depth: tz*l.TileZ + oz,
		Row:   ty*l.TileY + oy,
		Col:   tx*l.TileX + ox,
	}
}

// TileCells calls fn for every cell of tile that falls inside the geometry,
// in offset order. It stops at the first error fn returns.
func (l TileLayout) TileCells(tile int, fn func(c Cell) error) error {
	origin := l.TileToCell(tile, 0)
	for d := origin.Depth; d < origin.Depth+l.TileZ && d < l.Geometry.Depths; d++ {
		for r := origin.Row; r < origin.Row+l.TileY && r < l.Geometry.Rows; r++ {
			for c := origin.Col; c < origin.Col+l.TileX && c < l.Geometry.Cols; c++ {
				if err := fn(Cell{Depth: d, Row: r, Col: c}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
