// Package harness runs conformance checks against a tiled 3D raster engine.
//
// Three unit checks are registered, always dispatched in this order:
//
//   - coord: world ↔ index ↔ tile transforms are mutual inverses
//   - putget: single values of every cell type survive close/reopen bit-exact
//   - large: a full synthetic grid survives close/reopen bit-exact
//
// The integration set is registered but empty.
//
// # Failure Kinds
//
// Every check returns a CheckResult. A failed result is either a mismatch
// (the engine returned a different value or coordinate) or an engine error
// (open, put, get or close failed). Engine errors end the check; mismatches
// are counted and the scan continues.
//
// # Streaming
//
// The large check never keeps a reference copy of the grid. Expected values
// come from SyntheticValue, which is pure, so writing and verifying walk the
// grid tile by tile with O(tile) memory.
//
// # Usage
//
//	sel, err := harness.NewSelection([]string{"coord", "putget"}, nil, false, false, false)
//	if err != nil {
//	    return err
//	}
//	d := harness.NewDispatcher(harness.NewRasterEngine(raster3d.NewEngine()), params)
//	summary := d.Run(ctx, sel)
//	os.Exit(summary.ExitCode())
package harness
