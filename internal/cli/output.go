package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/g3dtest/internal/harness"
)

// Exit codes that are not a failed-check count.
const (
	ExitSuccess     = 0  // All selected checks passed
	ExitConfigError = 64 // Invalid configuration, nothing ran
	ExitIOError     = 74 // Report or metrics file could not be written
)

// Messages printed at the end of a text run.
const (
	MsgFailed  = "Errors detected while testing the g3d lib"
	MsgSuccess = "-- g3d lib tests finished successfully --"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the outcome was already written to the user.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and 1 if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// CLIResponse is the JSON document written with --format json.
type CLIResponse struct {
	Status  string           `json:"status"` // "ok" or "error"
	Data    *harness.Summary `json:"data,omitempty"`
	Error   *CLIError        `json:"error,omitempty"`
	TraceID string           `json:"trace_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes used in JSON output.
const (
	CodeChecksFailed = "CHECKS_FAILED"
	CodeConfig       = "INVALID_CONFIG"
)

// OutputFormatter writes run results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Summary writes the outcome of a run.
func (f *OutputFormatter) Summary(s harness.Summary) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: &s, TraceID: s.RunID}
		if !s.OK() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    CodeChecksFailed,
				Message: MsgFailed,
				Details: map[string]int{"failed": s.Failed, "total": s.Total},
			}
		}
		return json.NewEncoder(f.Writer).Encode(resp)
	}

	w := f.Writer
	if len(s.Results) == 0 {
		fmt.Fprintln(w, "No tests selected.")
	}
	for _, r := range s.Results {
		writeResult(w, r)
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", s.Passed, s.Failed, s.Total)
	if s.OK() {
		fmt.Fprintln(w, MsgSuccess)
	} else {
		fmt.Fprintln(w, MsgFailed)
	}
	return nil
}

func writeResult(w io.Writer, r harness.CheckResult) {
	if r.Passed {
		fmt.Fprintf(w, "✓ %s (%d values)\n", r.Name, r.Cells)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Name)
	if r.FailureCount > 0 {
		fmt.Fprintf(w, "  %d of %d values differ\n", r.FailureCount, r.Cells)
	}
	if r.FirstFailure != nil {
		fmt.Fprintf(w, "  first mismatch %s\n", r.FirstFailure)
	}
	if r.Kind == harness.FailureEngine {
		fmt.Fprintf(w, "  engine error: %s\n", r.Err)
	}
}

// Error writes a configuration or setup error.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return nil
}
