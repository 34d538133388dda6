package raster3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellTypeSize(t *testing.T) {
	assert.Equal(t, 4, FCELL.Size())
	assert.Equal(t, 8, DCELL.Size())
	assert.Equal(t, 0, CellType("CELL").Size())
	assert.Equal(t, uint64(0xFFFFFFFF), FCELL.NullBits())
}

func TestNewTileLayoutCounts(t *testing.T) {
	l, err := NewTileLayout(Geometry{Depths: 3, Rows: 25, Cols: 35}, 2, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, l.NZ)
	assert.Equal(t, 3, l.NY)
	assert.Equal(t, 4, l.NX)
	assert.Equal(t, 24, l.TileCount())
	assert.Equal(t, 200, l.CellsPerTile())
}

func TestNewTileLayoutRejectsZeroTile(t *testing.T) {
	_, err := NewTileLayout(Geometry{1, 1, 1}, 0, 1, 1)
	require.Error(t, err)
}

func TestLayoutForTileSize(t *testing.T) {
	l, err := LayoutForTileSize(Geometry{Depths: 3, Rows: 25, Cols: 35}, 1, DCELL)
	require.NoError(t, err)
	assert.Equal(t, 3, l.TileZ)
	assert.Equal(t, 7, l.TileY)
	assert.Equal(t, 5, l.TileX)
	assert.LessOrEqual(t, l.CellsPerTile()*DCELL.Size(), 1024)
}

func TestLayoutForTileSizeSingleCell(t *testing.T) {
	l, err := LayoutForTileSize(Geometry{1, 1, 1}, 32, DCELL)
	require.NoError(t, err)
	assert.Equal(t, 1, l.TileCount())
	assert.Equal(t, 1, l.CellsPerTile())
}

func TestLayoutForTileSizeLargeGrid(t *testing.T) {
	g := Geometry{Depths: 20, Rows: 5400, Cols: 10800}
	l, err := LayoutForTileSize(g, 32, DCELL)
	require.NoError(t, err)
	assert.LessOrEqual(t, l.CellsPerTile(), 32*1024/8)
	assert.LessOrEqual(t, l.TileZ, g.Depths)
	assert.GreaterOrEqual(t, int64(l.TileCount())*int64(l.CellsPerTile()), g.Cells())
}

func TestLayoutForTileSizeWholeGridInOneTile(t *testing.T) {
	// 2048 KB of DCELL holds 262144 cells, more than 2x300x300.
	l, err := LayoutForTileSize(Geometry{Depths: 2, Rows: 300, Cols: 300}, 2048, DCELL)
	require.NoError(t, err)
	assert.Equal(t, 1, l.TileCount())
}

func TestLayoutForTileSizeErrors(t *testing.T) {
	_, err := LayoutForTileSize(Geometry{1, 1, 1}, 0, DCELL)
	assert.Error(t, err)

	_, err = LayoutForTileSize(Geometry{1, 1, 1}, 32, CellType("CELL"))
	assert.Error(t, err)

	_, err = LayoutForTileSize(Geometry{1, 1, 1}, MaxTileBytes/1024+1, DCELL)
	require.Error(t, err)
	assert.True(t, IsAllocationError(err))
}

func TestCellToTileInverse(t *testing.T) {
	l, err := NewTileLayout(Geometry{Depths: 5, Rows: 9, Cols: 13}, 2, 4, 3)
	require.NoError(t, err)

	seen := make(map[[2]int]bool)
	for d := 0; d < 5; d++ {
		for r := 0; r < 9; r++ {
			for c := 0; c < 13; c++ {
				cell := Cell{Depth: d, Row: r, Col: c}
				tile, off := l.CellToTile(cell)
				require.Less(t, tile, l.TileCount())
				require.Less(t, off, l.CellsPerTile())
				require.Equal(t, cell, l.TileToCell(tile, off))
				key := [2]int{tile, off}
				require.False(t, seen[key], "duplicate slot for %v", cell)
				seen[key] = true
			}
		}
	}
}

func TestTileCellsClipsEdgeTiles(t *testing.T) {
	l, err := NewTileLayout(Geometry{Depths: 1, Rows: 5, Cols: 5}, 1, 4, 4)
	require.NoError(t, err)

	var cells []Cell
	last := l.TileCount() - 1
	require.NoError(t, l.TileCells(last, func(c Cell) error {
		cells = append(cells, c)
		return nil
	}))
	assert.Equal(t, []Cell{{Depth: 0, Row: 4, Col: 4}}, cells)

	total := 0
	for i := 0; i < l.TileCount(); i++ {
		require.NoError(t, l.TileCells(i, func(Cell) error { total++; return nil }))
	}
	assert.Equal(t, 25, total)
}
