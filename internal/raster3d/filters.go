package raster3d

import (
	"bytes"
	"compress/lzw"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// precisionFilter zeroes low mantissa bits. NaN and Inf patterns (including
// the null sentinel) pass through untouched. Remove is the identity.
type precisionFilter struct {
	cellType CellType
	keep     int
}

func (f *precisionFilter) Name() string { return fmt.Sprintf("precision%d", f.keep) }

func (f *precisionFilter) Apply(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	drop := uint(f.cellType.MantissaBits() - f.keep)
	switch f.cellType {
	case FCELL:
		const exp = 0x7F800000
		mask := ^uint32(0) << drop
		for i := 0; i+4 <= len(out); i += 4 {
			v := binary.LittleEndian.Uint32(out[i:])
			if v&exp == exp {
				continue
			}
			binary.LittleEndian.PutUint32(out[i:], v&mask)
		}
	case DCELL:
		const exp = 0x7FF0000000000000
		mask := ^uint64(0) << drop
		for i := 0; i+8 <= len(out); i += 8 {
			v := binary.LittleEndian.Uint64(out[i:])
			if v&exp == exp {
				continue
			}
			binary.LittleEndian.PutUint64(out[i:], v&mask)
		}
	}
	return out, nil
}

func (f *precisionFilter) Remove(data []byte) ([]byte, error) {
	return data, nil
}

// rleFilter run-length encodes whole cells.
//
// Format: run count (uint32, or uint16 when legacy), then per run a uvarint
// length followed by one cell value.
type rleFilter struct {
	cellSize  int
	tileBytes int
	legacy    bool
}

func newRLEFilter(cellSize, tileBytes int, legacy bool) *rleFilter {
	return &rleFilter{cellSize: cellSize, tileBytes: tileBytes, legacy: legacy}
}

func (f *rleFilter) Name() string {
	if f.legacy {
		return "rle-legacy"
	}
	return "rle"
}

func (f *rleFilter) Apply(data []byte) ([]byte, error) {
	if len(data)%f.cellSize != 0 {
		return nil, fmt.Errorf("tile length %d is not a multiple of cell size %d", len(data), f.cellSize)
	}

	var body bytes.Buffer
	var lenBuf [binary.MaxVarintLen64]byte
	runs := 0
	for i := 0; i < len(data); {
		value := data[i : i+f.cellSize]
		n := 1
		for j := i + f.cellSize; j < len(data) && bytes.Equal(data[j:j+f.cellSize], value); j += f.cellSize {
			n++
		}
		k := binary.PutUvarint(lenBuf[:], uint64(n))
		body.Write(lenBuf[:k])
		body.Write(value)
		runs++
		i += n * f.cellSize
	}

	var out bytes.Buffer
	if f.legacy {
		// The counter silently wraps past 65535 runs.
		var hdr [2]byte
		binary.LittleEndian.PutUint16(hdr[:], uint16(runs))
		out.Write(hdr[:])
	} else {
		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], uint32(runs))
		out.Write(hdr[:])
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func (f *rleFilter) Remove(data []byte) ([]byte, error) {
	hdrLen := 4
	if f.legacy {
		hdrLen = 2
	}
	if len(data) < hdrLen {
		return nil, errors.New("rle: truncated header")
	}
	var runs int
	if f.legacy {
		runs = int(binary.LittleEndian.Uint16(data))
	} else {
		runs = int(binary.LittleEndian.Uint32(data))
	}

	out := make([]byte, 0, f.tileBytes)
	rest := data[hdrLen:]
	for i := 0; i < runs; i++ {
		n, k := binary.Uvarint(rest)
		if k <= 0 {
			return nil, fmt.Errorf("rle: bad run length at run %d", i)
		}
		rest = rest[k:]
		if len(rest) < f.cellSize {
			return nil, fmt.Errorf("rle: truncated value at run %d", i)
		}
		if uint64(len(out))+n*uint64(f.cellSize) > uint64(f.tileBytes) {
			return nil, fmt.Errorf("rle: run %d overflows tile of %d bytes", i, f.tileBytes)
		}
		value := rest[:f.cellSize]
		for j := uint64(0); j < n; j++ {
			out = append(out, value...)
		}
		rest = rest[f.cellSize:]
	}

	if len(out) < f.tileBytes {
		if !f.legacy {
			return nil, fmt.Errorf("rle: decoded %d of %d bytes", len(out), f.tileBytes)
		}
		for len(out) < f.tileBytes {
			out = append(out, 0xFF)
		}
	}
	if !f.legacy && len(rest) != 0 {
		return nil, fmt.Errorf("rle: %d trailing bytes", len(rest))
	}
	return out, nil
}

// lzwFilter wraps compress/lzw with LSB order and 8-bit literals.
type lzwFilter struct{}

func (lzwFilter) Name() string { return "lzw" }

func (lzwFilter) Apply(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.LSB, 8)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("lzw write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzw close: %w", err)
	}
	return buf.Bytes(), nil
}

func (lzwFilter) Remove(data []byte) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(data), lzw.LSB, 8)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzw read: %w", err)
	}
	return out, nil
}
