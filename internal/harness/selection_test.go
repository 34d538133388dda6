package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelection(t *testing.T) {
	tests := []struct {
		name           string
		unit           []string
		integration    []string
		unitAll        bool
		integrationAll bool
		all            bool
		wantMode       Mode
		wantIDs        []CheckID
	}{
		{
			name:     "explicit names",
			unit:     []string{"coord", "putget"},
			wantMode: ModeSelected,
			wantIDs:  []CheckID{CheckCoord, CheckPutGet},
		},
		{
			name:     "names are reordered and deduplicated",
			unit:     []string{"large", "coord", "large"},
			wantMode: ModeSelected,
			wantIDs:  []CheckID{CheckCoord, CheckLarge},
		},
		{
			name:     "unit all",
			unitAll:  true,
			wantMode: ModeUnitAll,
			wantIDs:  []CheckID{CheckCoord, CheckPutGet, CheckLarge},
		},
		{
			name:     "unit all ignores names",
			unit:     []string{"putget"},
			unitAll:  true,
			wantMode: ModeUnitAll,
			wantIDs:  []CheckID{CheckCoord, CheckPutGet, CheckLarge},
		},
		{
			name:           "integration all is empty",
			integrationAll: true,
			wantMode:       ModeIntegrationAll,
			wantIDs:        []CheckID{},
		},
		{
			name:           "integration all keeps unit names",
			unit:           []string{"coord"},
			integrationAll: true,
			wantMode:       ModeIntegrationAll,
			wantIDs:        []CheckID{CheckCoord},
		},
		{
			name:     "all",
			all:      true,
			wantMode: ModeAll,
			wantIDs:  []CheckID{CheckCoord, CheckPutGet, CheckLarge},
		},
		{
			name:           "unit and integration all",
			unitAll:        true,
			integrationAll: true,
			wantMode:       ModeAll,
			wantIDs:        []CheckID{CheckCoord, CheckPutGet, CheckLarge},
		},
		{
			name:     "nothing",
			wantMode: ModeSelected,
			wantIDs:  []CheckID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := NewSelection(tt.unit, tt.integration, tt.unitAll, tt.integrationAll, tt.all)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, sel.Mode)
			assert.Equal(t, tt.wantIDs, sel.IDs)
		})
	}
}

func TestNewSelectionUnknownUnit(t *testing.T) {
	_, err := NewSelection([]string{"coord", "bogus"}, nil, false, false, false)
	require.Error(t, err)

	var ue *UnknownCheckError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "unit", ue.Kind)
	assert.Equal(t, "bogus", ue.Name)
	assert.Contains(t, err.Error(), "coord,putget,large")
}

func TestNewSelectionUnknownNameWithAllFlag(t *testing.T) {
	_, err := NewSelection([]string{"bogus"}, nil, false, false, true)
	assert.Error(t, err)
}

func TestNewSelectionUnknownIntegration(t *testing.T) {
	_, err := NewSelection(nil, []string{"anything"}, false, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no integration tests are available")
}

func TestSelectionContains(t *testing.T) {
	sel, err := NewSelection([]string{"coord", "putget"}, nil, false, false, false)
	require.NoError(t, err)
	assert.True(t, sel.Contains(CheckCoord))
	assert.False(t, sel.Contains(CheckLarge))
	assert.False(t, sel.Empty())
}
