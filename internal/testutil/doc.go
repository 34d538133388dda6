// Package testutil provides deterministic clocks and run IDs for tests of
// the harness and the command line.
package testutil
