package raster3d

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Unversioned file (fresh or pre-migration)
// 1 - map_header + tiles
const currentSchemaVersion = 1

// header is the persisted description of a map.
type header struct {
	CellType    CellType
	Region      Region
	Layout      TileLayout
	Compression Compression
	LegacyRLE   bool
}

// tileDB persists a map header and its encoded tiles in SQLite.
type tileDB struct {
	db *sql.DB
	tx *sql.Tx
}

// openTileDB creates or opens the SQLite file at path and applies pragmas and
// migrations. Safe to call on an existing file.
func openTileDB(path string) (*tileDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One map, one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &tileDB{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("map schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func (t *tileDB) close() error {
	if t.db == nil {
		return nil
	}
	var errs []error
	if t.tx != nil {
		errs = append(errs, t.tx.Rollback())
		t.tx = nil
	}
	errs = append(errs, t.db.Close())
	t.db = nil
	return errors.Join(errs...)
}

func (t *tileDB) writeHeader(h header) error {
	comp, err := json.Marshal(h.Compression)
	if err != nil {
		return fmt.Errorf("marshal compression: %w", err)
	}
	r, l := h.Region, h.Layout
	_, err = t.db.Exec(`
		INSERT OR REPLACE INTO map_header (
			id, cell_type, north, south, east, west, top, bottom,
			depths, rows, cols, tile_z, tile_y, tile_x, compression, legacy_rle
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(h.CellType), r.North, r.South, r.East, r.West, r.Top, r.Bottom,
		r.Depths, r.Rows, r.Cols, l.TileZ, l.TileY, l.TileX, string(comp), h.LegacyRLE,
	)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (t *tileDB) readHeader() (header, error) {
	var (
		h                   header
		r                   Region
		cellType, comp      string
		tileZ, tileY, tileX int
	)
	err := t.db.QueryRow(`
		SELECT cell_type, north, south, east, west, top, bottom,
		       depths, rows, cols, tile_z, tile_y, tile_x, compression, legacy_rle
		FROM map_header WHERE id = 1`,
	).Scan(&cellType, &r.North, &r.South, &r.East, &r.West, &r.Top, &r.Bottom,
		&r.Depths, &r.Rows, &r.Cols, &tileZ, &tileY, &tileX, &comp, &h.LegacyRLE)
	if errors.Is(err, sql.ErrNoRows) {
		return header{}, errors.New("map header not found")
	}
	if err != nil {
		return header{}, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal([]byte(comp), &h.Compression); err != nil {
		return header{}, fmt.Errorf("decode compression: %w", err)
	}
	layout, err := NewTileLayout(r.Geometry, tileZ, tileY, tileX)
	if err != nil {
		return header{}, err
	}
	h.CellType = CellType(cellType)
	h.Region = r
	h.Layout = layout
	return h, nil
}

// putTile upserts an encoded tile inside the current write transaction.
func (t *tileDB) putTile(index int, encoding string, rawSize int, data []byte) error {
	if t.tx == nil {
		tx, err := t.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		t.tx = tx
	}
	_, err := t.tx.Exec(
		`INSERT OR REPLACE INTO tiles (tile_index, encoding, raw_size, data) VALUES (?, ?, ?, ?)`,
		index, encoding, rawSize, data,
	)
	if err != nil {
		return fmt.Errorf("write tile %d: %w", index, err)
	}
	return nil
}

// getTile returns the encoded tile, or ok=false if it was never written.
func (t *tileDB) getTile(index int) (encoding string, data []byte, ok bool, err error) {
	q := t.db.QueryRow
	if t.tx != nil {
		q = t.tx.QueryRow
	}
	err = q(`SELECT encoding, data FROM tiles WHERE tile_index = ?`, index).Scan(&encoding, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("read tile %d: %w", index, err)
	}
	return encoding, data, true, nil
}

// commit ends the current write transaction, if any.
func (t *tileDB) commit() error {
	if t.tx == nil {
		return nil
	}
	err := t.tx.Commit()
	t.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// tileCount returns the number of stored tiles.
func (t *tileDB) tileCount() (int, error) {
	var n int
	q := t.db.QueryRow
	if t.tx != nil {
		q = t.tx.QueryRow
	}
	if err := q(`SELECT COUNT(*) FROM tiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tiles: %w", err)
	}
	return n, nil
}
