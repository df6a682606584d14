package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bookcheck/internal/harness"
)

func TestExitErrorMessage(t *testing.T) {
	err := NewExitError(ExitFailure, "3 verdicts failed")
	assert.Equal(t, "3 verdicts failed", err.Error())

	wrapped := WrapExitError(ExitCommandError, "failed to read script", errors.New("no such file"))
	assert.Equal(t, "failed to read script: no such file", wrapped.Error())
	assert.Equal(t, "no such file", errors.Unwrap(wrapped).Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad args")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	// Codes survive wrapping.
	err := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWriteJSONIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	assert.NoError(t, writeJSON(buf, map[string]int{"total": 3}))
	assert.Equal(t, "{\n  \"total\": 3\n}\n", buf.String())
}

func TestPrintVerdicts(t *testing.T) {
	buf := &bytes.Buffer{}
	printVerdicts(buf, []harness.Verdict{
		{Kind: "open", OrderID: 1, Success: true},
		{Kind: "partiallyfilled", OrderID: 2, FilledQty: 3, Success: true},
		{Kind: "rejected", OrderID: 4, Message: "LIQUIDITY_NOT_AVAILABLE", Success: false},
		{Kind: "quote", Message: "bbo match", Success: true},
	})

	out := buf.String()
	assert.Contains(t, out, "   1  PASS  open,1")
	assert.Contains(t, out, "   2  PASS  partiallyfilled,2,3")
	assert.Contains(t, out, "   3  FAIL  rejected,4 (LIQUIDITY_NOT_AVAILABLE)")
	assert.Contains(t, out, "   4  PASS  quote (bbo match)")
}
