package harness

import "github.com/roach88/g3dtest/internal/raster3d"

// Engine is the storage-engine capability set the checks drive.
type Engine interface {
	// ConfigureCompression sets the mode for stores created afterwards.
	ConfigureCompression(c raster3d.Compression) error

	// Create makes a fresh store at path.
	Create(path string, region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Store, error)

	// Open reopens a store written by Create.
	Open(path string) (Store, error)

	// Grid returns the coordinate transforms a store created with the same
	// arguments would use.
	Grid(region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Transformer, error)
}

// Store is one open store. Values travel as raw bit patterns.
type Store interface {
	PutBits(d, r, c int, bits uint64) error
	GetBits(d, r, c int) (uint64, error)
	Close() error
}

// Transformer converts between world space, cell indices and tiles.
type Transformer interface {
	WorldToIndex(w raster3d.World) raster3d.Index
	IndexToWorld(i raster3d.Index) raster3d.World
	CellOf(i raster3d.Index) (raster3d.Cell, bool)
	CellCenter(c raster3d.Cell) raster3d.World
	CellToTile(c raster3d.Cell) (tile, offset int)
	TileToCell(tile, offset int) raster3d.Cell
	TileCount() int
	TileCells(tile int, fn func(raster3d.Cell) error) error
}

// rasterEngine adapts *raster3d.Engine to Engine.
type rasterEngine struct {
	e *raster3d.Engine
}

// NewRasterEngine wraps the reference engine.
func NewRasterEngine(e *raster3d.Engine) Engine {
	return rasterEngine{e: e}
}

func (r rasterEngine) ConfigureCompression(c raster3d.Compression) error {
	return r.e.ConfigureCompression(c)
}

func (r rasterEngine) Create(path string, region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Store, error) {
	m, err := r.e.Create(path, region, tileSizeKB, t)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r rasterEngine) Open(path string) (Store, error) {
	m, err := r.e.Open(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r rasterEngine) Grid(region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Transformer, error) {
	g, err := raster3d.NewGrid(region, tileSizeKB, t)
	if err != nil {
		return nil, err
	}
	return g, nil
}
