package raster3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegion() Region {
	return Region{
		North: 1000, South: 0,
		East: 2000, West: 0,
		Top: 100, Bottom: 0,
		Geometry: Geometry{Depths: 10, Rows: 15, Cols: 20},
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Geometry
		wantErr bool
	}{
		{"valid", Geometry{1, 1, 1}, false},
		{"zero depths", Geometry{0, 1, 1}, true},
		{"negative rows", Geometry{1, -1, 1}, true},
		{"zero cols", Geometry{1, 1, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsEngineError(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGeometryCells(t *testing.T) {
	g := Geometry{Depths: 20, Rows: 5400, Cols: 10800}
	assert.Equal(t, int64(1_166_400_000), g.Cells())
}

func TestRegionValidateBounds(t *testing.T) {
	r := testRegion()
	require.NoError(t, r.Validate())

	r.North = r.South
	assert.Error(t, r.Validate())
}

func TestRegionResolution(t *testing.T) {
	r := testRegion()
	assert.InDelta(t, 1000.0/15, r.NSRes(), 1e-12)
	assert.InDelta(t, 100.0, r.EWRes(), 1e-12)
	assert.InDelta(t, 10.0, r.TBRes(), 1e-12)
}

func TestWorldToIndexCorners(t *testing.T) {
	r := testRegion()

	nw := r.WorldToIndex(World{North: 1000, East: 0, Top: 0})
	assert.InDelta(t, 0.0, nw.Row, 1e-12)
	assert.InDelta(t, 0.0, nw.Col, 1e-12)
	assert.InDelta(t, 0.0, nw.Depth, 1e-12)

	se := r.WorldToIndex(World{North: 0, East: 2000, Top: 100})
	assert.InDelta(t, 15.0, se.Row, 1e-9)
	assert.InDelta(t, 20.0, se.Col, 1e-9)
	assert.InDelta(t, 10.0, se.Depth, 1e-9)
}

func TestWorldIndexRoundTrip(t *testing.T) {
	r := testRegion()
	points := []World{
		{North: 1000, East: 0, Top: 0},
		{North: 500, East: 1000, Top: 50},
		{North: 0.000001, East: 1999.999999, Top: 99.999999},
		{North: 123.456, East: 789.012, Top: 3.21},
	}
	for _, w := range points {
		got := r.IndexToWorld(r.WorldToIndex(w))
		assert.InDelta(t, w.North, got.North, 1e-9)
		assert.InDelta(t, w.East, got.East, 1e-9)
		assert.InDelta(t, w.Top, got.Top, 1e-9)
	}
}

func TestCellOf(t *testing.T) {
	r := testRegion()

	c, ok := r.CellOf(r.WorldToIndex(r.CellCenter(Cell{Depth: 3, Row: 7, Col: 11})))
	require.True(t, ok)
	assert.Equal(t, Cell{Depth: 3, Row: 7, Col: 11}, c)

	// The north-east-top corner is outside every cell.
	_, ok = r.CellOf(r.WorldToIndex(World{North: 0, East: 2000, Top: 100}))
	assert.False(t, ok)
}

func TestRegionFor(t *testing.T) {
	r := RegionFor(Geometry{Depths: 2, Rows: 3, Cols: 4})
	require.NoError(t, r.Validate())
	assert.Equal(t, 1.0, r.NSRes())
	assert.Equal(t, 1.0, r.EWRes())
	assert.Equal(t, 1.0, r.TBRes())
}
