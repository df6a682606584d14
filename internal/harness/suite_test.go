package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookcheck/internal/engine"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite_Valid(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "basic.txt")
	require.NoError(t, os.WriteFile(scriptPath, []byte("cancel,1\n"), 0o644))

	suitePath := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(suitePath, []byte(`
name: smoke
description: basic book behavior
scripts:
  - name: basic
    file: basic.txt
  - name: inline
    text: "1,limit,bid,10,100-open,1"
`), 0o644))

	suite, err := LoadSuite(suitePath)
	require.NoError(t, err)
	assert.Equal(t, "smoke", suite.Name)
	require.Len(t, suite.Scripts, 2)
	// Relative script paths are resolved against the suite file location.
	assert.Equal(t, scriptPath, suite.Scripts[0].File)
}

func TestLoadSuite_RejectsUnknownFields(t *testing.T) {
	path := writeSuite(t, `
name: smoke
description: d
scirpts:
  - name: basic
    text: "cancel,1"
`)

	_, err := LoadSuite(path)
	require.Error(t, err)
}

func TestLoadSuite_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing name", content: "description: d\nscripts:\n  - name: a\n    text: x\n"},
		{name: "missing description", content: "name: s\nscripts:\n  - name: a\n    text: x\n"},
		{name: "no scripts", content: "name: s\ndescription: d\n"},
		{name: "script without body", content: "name: s\ndescription: d\nscripts:\n  - name: a\n"},
		{name: "script with both bodies", content: "name: s\ndescription: d\nscripts:\n  - name: a\n    file: f.txt\n    text: x\n"},
		{name: "missing script file", content: "name: s\ndescription: d\nscripts:\n  - name: a\n    file: nope.txt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSuite(writeSuite(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestRunSuite(t *testing.T) {
	suite := &Suite{
		Name:        "smoke",
		Description: "inline scripts",
		Scripts: []SuiteScript{
			{Name: "passes", Text: "1,limit,bid,10,100-open,1\nbbo-10,100,0,0"},
			{Name: "fails", Text: "1,limit,bid,10,100-filled,1"},
			{Name: "expected-failure", Text: "1,limit,bid,10,100-filled,1", ExpectFailures: 1},
		},
	}

	result, err := RunSuite(context.Background(), engine.New(), suite)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)

	assert.True(t, result.Scripts[0].Pass)
	assert.False(t, result.Scripts[1].Pass)
	assert.Equal(t, 1, result.Scripts[1].Failures)
	// A script whose failures are declared up front passes.
	assert.True(t, result.Scripts[2].Pass)
}
