package harness

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/g3dtest/internal/raster3d"
)

var errInjected = errors.New("injected failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger that writes text records to the buffer.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// newTestEngine returns the reference engine configured with mode.
func newTestEngine(t *testing.T, mode raster3d.Compression, opts ...raster3d.Option) Engine {
	t.Helper()
	e := NewRasterEngine(raster3d.NewEngine(opts...))
	if err := e.ConfigureCompression(mode); err != nil {
		t.Fatalf("ConfigureCompression() failed: %v", err)
	}
	return e
}

// hookEngine wraps an Engine to record calls and inject faults.
type hookEngine struct {
	Engine

	created    []raster3d.Geometry
	configured []raster3d.Compression

	failGrid   error
	failCreate error
	failPut    error
	failGet    error
	failClose  error

	// corrupt rewrites values returned by GetBits.
	corrupt func(d, r, c int, bits uint64) uint64
}

func (e *hookEngine) ConfigureCompression(c raster3d.Compression) error {
	e.configured = append(e.configured, c)
	return e.Engine.ConfigureCompression(c)
}

func (e *hookEngine) Grid(region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Transformer, error) {
	if e.failGrid != nil {
		return nil, e.failGrid
	}
	return e.Engine.Grid(region, tileSizeKB, t)
}

func (e *hookEngine) Create(path string, region raster3d.Region, tileSizeKB int, t raster3d.CellType) (Store, error) {
	e.created = append(e.created, region.Geometry)
	if e.failCreate != nil {
		return nil, e.failCreate
	}
	s, err := e.Engine.Create(path, region, tileSizeKB, t)
	if err != nil {
		return nil, err
	}
	return &hookStore{Store: s, e: e}, nil
}

func (e *hookEngine) Open(path string) (Store, error) {
	s, err := e.Engine.Open(path)
	if err != nil {
		return nil, err
	}
	return &hookStore{Store: s, e: e}, nil
}

type hookStore struct {
	Store
	e *hookEngine
}

func (s *hookStore) PutBits(d, r, c int, bits uint64) error {
	if s.e.failPut != nil {
		return s.e.failPut
	}
	return s.Store.PutBits(d, r, c, bits)
}

func (s *hookStore) Close() error {
	err := s.Store.Close()
	if s.e.failClose != nil {
		return s.e.failClose
	}
	return err
}

func (s *hookStore) GetBits(d, r, c int) (uint64, error) {
	if s.e.failGet != nil {
		return 0, s.e.failGet
	}
	bits, err := s.Store.GetBits(d, r, c)
	if err != nil || s.e.corrupt == nil {
		return bits, err
	}
	return s.e.corrupt(d, r, c, bits), nil
}

var (
	modeNone   = raster3d.NoCompression
	modeLZW    = raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmLZW, Precision: raster3d.PrecisionMax}
	modeRLE    = raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmNone, RLE: true, Precision: raster3d.PrecisionMax}
	modeRLELZW = raster3d.Compression{Enabled: true, Algorithm: raster3d.AlgorithmLZW, RLE: true, Precision: raster3d.PrecisionMax}
)
