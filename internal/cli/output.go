package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/bookcheck/internal/harness"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Verdict failures or non-deterministic replay
	ExitCommandError = 2 // Command error (invalid paths, bad arguments, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// writeJSON encodes a payload as indented JSON.
func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// printVerdicts renders a verdict log as aligned text rows.
func printVerdicts(w io.Writer, verdicts []harness.Verdict) {
	for i, v := range verdicts {
		status := "FAIL"
		if v.Success {
			status = "PASS"
		}
		detail := v.Kind
		if v.Kind != "quote" {
			detail = fmt.Sprintf("%s,%d", v.Kind, v.OrderID)
			if v.FilledQty > 0 {
				detail = fmt.Sprintf("%s,%d", detail, v.FilledQty)
			}
		}
		if v.Message != "" {
			detail = fmt.Sprintf("%s (%s)", detail, v.Message)
		}
		fmt.Fprintf(w, "%4d  %s  %s\n", i+1, status, detail)
	}
}
