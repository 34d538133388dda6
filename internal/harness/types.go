package harness

import (
	"fmt"
	"time"
)

// CheckID names a registered check.
type CheckID string

const (
	CheckCoord  CheckID = "coord"
	CheckPutGet CheckID = "putget"
	CheckLarge  CheckID = "large"
)

// FailureKind separates value disagreements from engine failures.
type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureMismatch FailureKind = "mismatch"
	FailureEngine   FailureKind = "engine"
)

// Mismatch describes one disagreement between expected and actual data.
type Mismatch struct {
	Coord    string `json:"coord"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("at %s: expected %s, got %s", m.Coord, m.Expected, m.Actual)
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name CheckID `json:"name"`

	// Passed is true when no mismatch and no engine error occurred.
	Passed bool `json:"passed"`

	// Kind is FailureNone when Passed, otherwise what went wrong first.
	Kind FailureKind `json:"kind,omitempty"`

	// FailureCount is the number of mismatches found.
	FailureCount int64 `json:"failure_count"`

	// FirstFailure is the first mismatch, in traversal order.
	FirstFailure *Mismatch `json:"first_failure,omitempty"`

	// Err is the engine error message when Kind is FailureEngine.
	Err string `json:"error,omitempty"`

	// Cells is the number of values verified.
	Cells int64 `json:"cells"`

	// Duration is filled in by the Dispatcher.
	Duration time.Duration `json:"duration_ns"`
}

// newResult creates a passing result for id.
func newResult(id CheckID) CheckResult {
	return CheckResult{Name: id, Passed: true}
}

// AddMismatch counts a mismatch and marks the result as failed.
// Only the first mismatch is kept in detail.
func (r *CheckResult) AddMismatch(m Mismatch) {
	r.FailureCount++
	r.Passed = false
	if r.FirstFailure == nil {
		r.FirstFailure = &m
	}
	if r.Kind == FailureNone {
		r.Kind = FailureMismatch
	}
}

// AddEngineError records an engine failure and marks the result as failed.
// An engine error always wins over earlier mismatches as the reported kind.
func (r *CheckResult) AddEngineError(op string, err error) {
	r.Passed = false
	r.Kind = FailureEngine
	r.Err = fmt.Sprintf("%s: %v", op, err)
}

// Summary aggregates the results of one run.
type Summary struct {
	RunID    string        `json:"run_id"`
	Mode     Mode          `json:"mode"`
	Results  []CheckResult `json:"results"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration_ns"`
}

// Add appends a result and updates the counters.
func (s *Summary) Add(r CheckResult) {
	s.Results = append(s.Results, r)
	s.Total++
	if r.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

// OK reports whether every check passed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// ExitCode is the number of failed checks.
func (s Summary) ExitCode() int {
	return s.Failed
}
