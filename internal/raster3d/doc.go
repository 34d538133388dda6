// Package raster3d is a small tiled, optionally compressed, 3D raster store.
//
// A map covers a Region of depths × rows × cols cells. Cells are grouped into
// fixed-size tiles; each tile is serialized as a flat little-endian buffer,
// passed through a codec pipeline (precision → RLE → LZW) and persisted as a
// BLOB in a SQLite file.
//
// # Layout
//
//   - Region: world bounds plus cell counts; converts world coordinates to
//     continuous cell indices and back.
//   - TileLayout: tile dimensions and tile counts; converts a cell to a
//     (tile, offset) pair and back.
//   - Engine: holds the compression mode applied to maps it creates.
//   - Map: an open store. Put/Get work on raw cell bit patterns so callers can
//     compare floating point values exactly.
//
// # Compression
//
// The compression mode is fixed when a map is created and recorded in its
// header. Reopening a map always uses the recorded mode, never the engine's
// current one.
//
// The "legacy" RLE codec keeps the historical 16-bit run counter. Tiles with
// more than 65535 runs lose their tail on encode; the lost cells read back as
// null. It exists only to reproduce that defect.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - PRAGMA user_version tracks the schema version
package raster3d
