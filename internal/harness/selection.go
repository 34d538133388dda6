package harness

import (
	"fmt"
	"slices"
	"strings"
)

// UnitTests lists the unit checks in dispatch order.
var UnitTests = []CheckID{CheckCoord, CheckPutGet, CheckLarge}

// IntegrationTests lists the integration checks in dispatch order.
// None are implemented yet.
var IntegrationTests = []CheckID{}

// Mode is how a Selection was derived.
type Mode string

const (
	ModeAll            Mode = "all"
	ModeUnitAll        Mode = "unit"
	ModeIntegrationAll Mode = "integration"
	ModeSelected       Mode = "selected"
)

// Selection is the ordered, duplicate-free set of checks to run.
type Selection struct {
	Mode Mode      `json:"mode"`
	IDs  []CheckID `json:"ids"`
}

// UnknownCheckError reports a test name that matches no registered check.
type UnknownCheckError struct {
	Kind  string // "unit" or "integration"
	Name  string
	Known []CheckID
}

func (e *UnknownCheckError) Error() string {
	known := make([]string, len(e.Known))
	for i, k := range e.Known {
		known[i] = string(k)
	}
	if len(known) == 0 {
		return fmt.Sprintf("unknown %s test %q: no %s tests are available", e.Kind, e.Name, e.Kind)
	}
	return fmt.Sprintf("unknown %s test %q: must be one of %s", e.Kind, e.Name, strings.Join(known, ","))
}

// NewSelection builds a selection.
//
// all runs every unit and integration check. unitAll replaces the unit
// names with every unit check, integrationAll does the same for integration
// names. Unknown names are an error even when a flag makes them redundant.
func NewSelection(unit, integration []string, unitAll, integrationAll, all bool) (Selection, error) {
	unitIDs, err := resolve("unit", unit, UnitTests)
	if err != nil {
		return Selection{}, err
	}
	integrationIDs, err := resolve("integration", integration, IntegrationTests)
	if err != nil {
		return Selection{}, err
	}

	if all || unitAll {
		unitIDs = UnitTests
	}
	if all || integrationAll {
		integrationIDs = IntegrationTests
	}

	var mode Mode
	switch {
	case all, unitAll && integrationAll:
		mode = ModeAll
	case unitAll:
		mode = ModeUnitAll
	case integrationAll:
		mode = ModeIntegrationAll
	default:
		mode = ModeSelected
	}

	ids := make([]CheckID, 0, len(unitIDs)+len(integrationIDs))
	for _, id := range UnitTests {
		if slices.Contains(unitIDs, id) {
			ids = append(ids, id)
		}
	}
	for _, id := range IntegrationTests {
		if slices.Contains(integrationIDs, id) {
			ids = append(ids, id)
		}
	}
	return Selection{Mode: mode, IDs: ids}, nil
}

// Contains reports whether id is selected.
func (s Selection) Contains(id CheckID) bool {
	return slices.Contains(s.IDs, id)
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.IDs) == 0
}

func resolve(kind string, names []string, known []CheckID) ([]CheckID, error) {
	ids := make([]CheckID, 0, len(names))
	for _, name := range names {
		id := CheckID(name)
		if !slices.Contains(known, id) {
			return nil, &UnknownCheckError{Kind: kind, Name: name, Known: known}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
