package raster3d

import (
	"fmt"
	"strings"
)

// PrecisionMax keeps every mantissa bit.
const PrecisionMax = -1

// Algorithm selects the dictionary compressor applied to tiles.
type Algorithm string

const (
	AlgorithmNone Algorithm = "none"
	AlgorithmLZW  Algorithm = "lzw"
)

// Compression is the encoding discipline of a map.
//
// Invariants: RLE implies Enabled, and Algorithm=LZW implies Enabled.
type Compression struct {
	Enabled   bool      `json:"enabled"`
	Algorithm Algorithm `json:"algorithm"`
	RLE       bool      `json:"rle"`

	// Precision is the number of mantissa bits kept on the compressed
	// path, or PrecisionMax.
	Precision int `json:"precision"`
}

// NoCompression is the default mode: raw tiles, full precision.
var NoCompression = Compression{Algorithm: AlgorithmNone, Precision: PrecisionMax}

// Validate enforces the mode invariants.
func (c Compression) Validate() error {
	switch c.Algorithm {
	case AlgorithmNone, AlgorithmLZW:
	default:
		return newError(ErrCodeInvalidArgument, "compression",
			fmt.Sprintf("unknown algorithm %q", string(c.Algorithm)), nil)
	}
	if c.RLE && !c.Enabled {
		return newError(ErrCodeInvalidArgument, "compression", "rle requires compression to be enabled", nil)
	}
	if c.Algorithm == AlgorithmLZW && !c.Enabled {
		return newError(ErrCodeInvalidArgument, "compression", "lzw requires compression to be enabled", nil)
	}
	if c.Precision < PrecisionMax {
		return newError(ErrCodeInvalidArgument, "compression",
			fmt.Sprintf("precision must be >= %d, got %d", PrecisionMax, c.Precision), nil)
	}
	return nil
}

func (c Compression) String() string {
	if !c.Enabled {
		return "none"
	}
	var parts []string
	if c.RLE {
		parts = append(parts, "rle")
	}
	if c.Algorithm == AlgorithmLZW {
		parts = append(parts, "lzw")
	}
	if c.Precision != PrecisionMax {
		parts = append(parts, fmt.Sprintf("precision=%d", c.Precision))
	}
	if len(parts) == 0 {
		return "enabled"
	}
	return strings.Join(parts, "+")
}

// Filter transforms a tile buffer.
// Filters are applied in sequence on write and reversed on read.
type Filter interface {
	// Name returns a short identifier recorded with each tile.
	Name() string

	// Apply encodes data (write path).
	Apply(data []byte) ([]byte, error)

	// Remove reverses Apply (read path).
	Remove(data []byte) ([]byte, error)
}

// Pipeline is an ordered chain of filters.
//
// On write: tile → precision → RLE → LZW → stored.
// On read:  stored → LZW → RLE → precision → tile.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds the filter chain for a compression mode.
// legacyRLE selects the 16-bit run counter codec.
func NewPipeline(c Compression, t CellType, tileBytes int, legacyRLE bool) (*Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{}
	if !c.Enabled {
		return p, nil
	}
	if c.Precision != PrecisionMax && c.Precision < t.MantissaBits() {
		p.filters = append(p.filters, &precisionFilter{cellType: t, keep: c.Precision})
	}
	if c.RLE {
		p.filters = append(p.filters, newRLEFilter(t.Size(), tileBytes, legacyRLE))
	}
	if c.Algorithm == AlgorithmLZW {
		p.filters = append(p.filters, lzwFilter{})
	}
	return p, nil
}

// Apply runs all filters in order.
func (p *Pipeline) Apply(data []byte) ([]byte, error) {
	result := data
	for _, f := range p.filters {
		var err error
		result, err = f.Apply(result)
		if err != nil {
			return nil, fmt.Errorf("filter %s failed: %w", f.Name(), err)
		}
	}
	return result, nil
}

// Remove runs all filters in reverse order.
func (p *Pipeline) Remove(data []byte) ([]byte, error) {
	result := data
	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		var err error
		result, err = f.Remove(result)
		if err != nil {
			return nil, fmt.Errorf("filter %s remove failed: %w", f.Name(), err)
		}
	}
	return result, nil
}

// Encoding names the filters in application order, e.g. "rle+lzw".
func (p *Pipeline) Encoding() string {
	if len(p.filters) == 0 {
		return "raw"
	}
	names := make([]string, len(p.filters))
	for i, f := range p.filters {
		names[i] = f.Name()
	}
	return strings.Join(names, "+")
}
