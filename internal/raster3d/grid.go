package raster3d

// Grid bundles a region with the tile layout derived for it. It exposes every
// coordinate transform without touching storage.
type Grid struct {
	Region Region
	Layout TileLayout
}

// NewGrid derives the tile layout a map created with the same arguments
// would use.
func NewGrid(region Region, tileSizeKB int, t CellType) (Grid, error) {
	if err := region.Validate(); err != nil {
		return Grid{}, err
	}
	layout, err := LayoutForTileSize(region.Geometry, tileSizeKB, t)
	if err != nil {
		return Grid{}, err
	}
	return Grid{Region: region, Layout: layout}, nil
}

// Grid returns the map's region and layout.
func (m *Map) Grid() Grid {
	return Grid{Region: m.header.Region, Layout: m.header.Layout}
}

func (g Grid) WorldToIndex(w World) Index { return g.Region.WorldToIndex(w) }

func (g Grid) IndexToWorld(i Index) World { return g.Region.IndexToWorld(i) }

func (g Grid) CellOf(i Index) (Cell, bool) { return g.Region.CellOf(i) }

func (g Grid) CellCenter(c Cell) World { return g.Region.CellCenter(c) }

func (g Grid) CellToTile(c Cell) (tile, offset int) { return g.Layout.CellToTile(c) }

func (g Grid) TileToCell(tile, offset int) Cell { return g.Layout.TileToCell(tile, offset) }

func (g Grid) TileCount() int { return g.Layout.TileCount() }

func (g Grid) TileCells(tile int, fn func(Cell) error) error { return g.Layout.TileCells(tile, fn) }
