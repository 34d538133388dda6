package raster3d

import (
	"errors"
	"fmt"
)

// EngineError represents a failure inside the storage engine.
//
// Engine errors include:
//   - Invalid arguments: bad geometry, tile size or compression mode
//   - Out of bounds: cell coordinate outside the map
//   - Allocation: tile larger than MaxTileBytes
//   - Corrupt tile: stored tile cannot be decoded
//   - I/O: SQLite failures
//   - Closed: operation on a closed map
type EngineError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the engine operation that failed (e.g. "put", "close").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrCodeOutOfBounds     ErrorCode = "OUT_OF_BOUNDS"
	ErrCodeAllocation      ErrorCode = "ALLOCATION"
	ErrCodeCorruptTile     ErrorCode = "CORRUPT_TILE"
	ErrCodeIO              ErrorCode = "IO"
	ErrCodeClosed          ErrorCode = "CLOSED"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, op, message string, err error) *EngineError {
	return &EngineError{Code: code, Op: op, Message: message, Err: err}
}

// IsEngineError reports whether err is (or wraps) an EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// IsOutOfBounds returns true if the error is an out-of-bounds cell access.
func IsOutOfBounds(err error) bool {
	return hasCode(err, ErrCodeOutOfBounds)
}

// IsAllocationError returns true if a tile could not be allocated.
func IsAllocationError(err error) bool {
	return hasCode(err, ErrCodeAllocation)
}

// IsCorruptTile returns true if a stored tile failed to decode.
func IsCorruptTile(err error) bool {
	return hasCode(err, ErrCodeCorruptTile)
}

// IsClosed returns true if the operation hit a closed map.
func IsClosed(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

func hasCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
