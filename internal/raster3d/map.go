package raster3d

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// DefaultCacheTiles is the number of decoded tiles a map keeps in memory.
const DefaultCacheTiles = 4

// Engine opens maps. It carries the compression mode applied to every map
// it creates from now on; maps already created keep their own mode.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	compression Compression
	legacyRLE   bool
	cacheTiles  int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLegacyRLE makes new maps use the 16-bit run counter RLE codec.
func WithLegacyRLE(legacy bool) Option {
	return func(e *Engine) { e.legacyRLE = legacy }
}

// WithCacheTiles sets how many decoded tiles each map keeps in memory.
func WithCacheTiles(n int) Option {
	return func(e *Engine) { e.cacheTiles = n }
}

// WithLogger sets the logger for engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with compression off.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		compression: NoCompression,
		cacheTiles:  DefaultCacheTiles,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConfigureCompression sets the mode used by subsequently created maps.
// Calling it twice with the same mode has no further effect.
func (e *Engine) ConfigureCompression(c Compression) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.compression = c
	e.logger.Debug("compression configured", "mode", c.String(), "legacy_rle", e.legacyRLE)
	return nil
}

// Compression returns the mode new maps will use.
func (e *Engine) Compression() Compression {
	return e.compression
}

// Create makes a new map at path with tiles of roughly tileSizeKB kilobytes.
func (e *Engine) Create(path string, region Region, tileSizeKB int, t CellType) (*Map, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	layout, err := LayoutForTileSize(region.Geometry, tileSizeKB, t)
	if err != nil {
		return nil, err
	}

	db, err := openTileDB(path)
	if err != nil {
		return nil, newError(ErrCodeIO, "create", path, err)
	}
	if _, err := db.readHeader(); err == nil {
		db.close()
		return nil, newError(ErrCodeInvalidArgument, "create", fmt.Sprintf("map already exists at %s", path), nil)
	}

	h := header{
		CellType:    t,
		Region:      region,
		Layout:      layout,
		Compression: e.compression,
		LegacyRLE:   e.legacyRLE,
	}
	if err := db.writeHeader(h); err != nil {
		db.close()
		return nil, newError(ErrCodeIO, "create", path, err)
	}

	m, err := e.newMap(path, db, h)
	if err != nil {
		db.close()
		return nil, err
	}
	e.logger.Debug("map created",
		"path", path,
		"geometry", region.Geometry.String(),
		"tile", fmt.Sprintf("%dx%dx%d", layout.TileZ, layout.TileY, layout.TileX),
		"tiles", layout.TileCount(),
		"encoding", m.pipeline.Encoding(),
	)
	return m, nil
}

// Open reopens an existing map using the mode recorded in its header.
func (e *Engine) Open(path string) (*Map, error) {
	db, err := openTileDB(path)
	if err != nil {
		return nil, newError(ErrCodeIO, "open", path, err)
	}
	h, err := db.readHeader()
	if err != nil {
		db.close()
		return nil, newError(ErrCodeIO, "open", path, err)
	}
	m, err := e.newMap(path, db, h)
	if err != nil {
		db.close()
		return nil, err
	}
	e.logger.Debug("map opened", "path", path, "encoding", m.pipeline.Encoding())
	return m, nil
}

func (e *Engine) newMap(path string, db *tileDB, h header) (*Map, error) {
	if err := h.CellType.validate(); err != nil {
		return nil, err
	}
	tileBytes := h.Layout.CellsPerTile() * h.CellType.Size()
	if tileBytes > MaxTileBytes {
		return nil, newError(ErrCodeAllocation, "open",
			fmt.Sprintf("tile of %d bytes exceeds limit of %d bytes", tileBytes, MaxTileBytes), nil)
	}
	pipeline, err := NewPipeline(h.Compression, h.CellType, tileBytes, h.LegacyRLE)
	if err != nil {
		return nil, err
	}
	m := &Map{
		path:      path,
		db:        db,
		header:    h,
		pipeline:  pipeline,
		tileBytes: tileBytes,
		cellSize:  h.CellType.Size(),
	}
	m.cache = newTileCache(e.cacheTiles, m.writeTile)
	return m, nil
}

// Map is an open raster3d map.
//
// A Map is not safe for concurrent use.
type Map struct {
	path      string
	db        *tileDB
	header    header
	pipeline  *Pipeline
	cache     *tileCache
	tileBytes int
	cellSize  int
	closed    bool
}

// Path returns the file backing the map.
func (m *Map) Path() string { return m.path }

// Region returns the map's world region.
func (m *Map) Region() Region { return m.header.Region }

// Layout returns the map's tile layout.
func (m *Map) Layout() TileLayout { return m.header.Layout }

// CellType returns the map's value type.
func (m *Map) CellType() CellType { return m.header.CellType }

// Compression returns the mode recorded for the map.
func (m *Map) Compression() Compression { return m.header.Compression }

// Encoding names the tile filter chain, e.g. "rle+lzw" or "raw".
func (m *Map) Encoding() string { return m.pipeline.Encoding() }

// PutBits stores the raw bit pattern of one cell. For FCELL maps only the
// low 32 bits are kept.
func (m *Map) PutBits(d, r, c int, bits uint64) error {
	t, off, err := m.locate("put", d, r, c)
	if err != nil {
		return err
	}
	if m.cellSize == 4 {
		binary.LittleEndian.PutUint32(t.data[off:], uint32(bits))
	} else {
		binary.LittleEndian.PutUint64(t.data[off:], bits)
	}
	t.dirty = true
	return nil
}

// GetBits returns the raw bit pattern of one cell.
func (m *Map) GetBits(d, r, c int) (uint64, error) {
	t, off, err := m.locate("get", d, r, c)
	if err != nil {
		return 0, err
	}
	if m.cellSize == 4 {
		return uint64(binary.LittleEndian.Uint32(t.data[off:])), nil
	}
	return binary.LittleEndian.Uint64(t.data[off:]), nil
}

// PutDouble stores v, narrowing to float32 on FCELL maps.
func (m *Map) PutDouble(d, r, c int, v float64) error {
	if m.header.CellType == FCELL {
		return m.PutBits(d, r, c, uint64(math.Float32bits(float32(v))))
	}
	return m.PutBits(d, r, c, math.Float64bits(v))
}

// GetDouble returns the value of one cell as float64.
func (m *Map) GetDouble(d, r, c int) (float64, error) {
	bits, err := m.GetBits(d, r, c)
	if err != nil {
		return 0, err
	}
	if m.header.CellType == FCELL {
		return float64(math.Float32frombits(uint32(bits))), nil
	}
	return math.Float64frombits(bits), nil
}

// Flush encodes and persists every modified tile.
func (m *Map) Flush() error {
	if m.closed {
		return newError(ErrCodeClosed, "flush", m.path, nil)
	}
	if err := m.cache.flushAll(); err != nil {
		return err
	}
	if err := m.db.commit(); err != nil {
		return newError(ErrCodeIO, "flush", m.path, err)
	}
	return nil
}

// Close flushes and releases the map. Closing twice is a no-op.
func (m *Map) Close() error {
	if m.closed {
		return nil
	}
	flushErr := m.Flush()
	m.cache.reset()
	m.closed = true
	if err := m.db.close(); err != nil && flushErr == nil {
		return newError(ErrCodeIO, "close", m.path, err)
	}
	return flushErr
}

// StoredTiles returns the number of tiles persisted so far.
func (m *Map) StoredTiles() (int, error) {
	n, err := m.db.tileCount()
	if err != nil {
		return 0, newError(ErrCodeIO, "stat", m.path, err)
	}
	return n, nil
}

func (m *Map) locate(op string, d, r, c int) (*tileBuf, int, error) {
	if m.closed {
		return nil, 0, newError(ErrCodeClosed, op, m.path, nil)
	}
	if !m.header.Region.Contains(d, r, c) {
		return nil, 0, newError(ErrCodeOutOfBounds, op,
			fmt.Sprintf("cell (%d,%d,%d) outside %s", d, r, c, m.header.Region.Geometry), nil)
	}
	index, offset := m.header.Layout.CellToTile(Cell{Depth: d, Row: r, Col: c})
	t, err := m.tile(index)
	if err != nil {
		return nil, 0, err
	}
	return t, offset * m.cellSize, nil
}

func (m *Map) tile(index int) (*tileBuf, error) {
	if t, ok := m.cache.get(index); ok {
		return t, nil
	}
	t, err := m.readTile(index)
	if err != nil {
		return nil, err
	}
	if err := m.cache.add(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (m *Map) readTile(index int) (*tileBuf, error) {
	encoding, data, ok, err := m.db.getTile(index)
	if err != nil {
		return nil, newError(ErrCodeIO, "read tile", m.path, err)
	}
	if !ok {
		buf := make([]byte, m.tileBytes)
		for i := range buf {
			buf[i] = 0xFF
		}
		return &tileBuf{index: index, data: buf}, nil
	}
	if encoding != m.pipeline.Encoding() {
		return nil, newError(ErrCodeCorruptTile, "read tile",
			fmt.Sprintf("tile %d has encoding %q, map uses %q", index, encoding, m.pipeline.Encoding()), nil)
	}
	raw, err := m.pipeline.Remove(data)
	if err != nil {
		return nil, newError(ErrCodeCorruptTile, "read tile", fmt.Sprintf("tile %d", index), err)
	}
	if len(raw) != m.tileBytes {
		return nil, newError(ErrCodeCorruptTile, "read tile",
			fmt.Sprintf("tile %d decoded to %d bytes, want %d", index, len(raw), m.tileBytes), nil)
	}
	return &tileBuf{index: index, data: raw}, nil
}

func (m *Map) writeTile(t *tileBuf) error {
	encoded, err := m.pipeline.Apply(t.data)
	if err != nil {
		return newError(ErrCodeIO, "write tile", fmt.Sprintf("tile %d", t.index), err)
	}
	if err := m.db.putTile(t.index, m.pipeline.Encoding(), len(t.data), encoded); err != nil {
		return newError(ErrCodeIO, "write tile", m.path, err)
	}
	return nil
}
