package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const passingSuite = `
name: smoke
description: Passing scripts only
scripts:
  - name: open-order
    text: "1,limit,bid,10,100-open,1"
  - name: quote
    text: "1,limit,bid,10,100-open,1\nbbo-10,100,0,0"
`

const failingSuite = `
name: regressions
description: One script with an unexpected failure
scripts:
  - name: wrong-expectation
    text: "1,limit,bid,10,100-filled,1"
`

const expectedFailureSuite = `
name: negative
description: Failure count declared up front
scripts:
  - name: wrong-expectation
    text: "1,limit,bid,10,100-filled,1"
    expect_failures: 1
`

func TestTestAllSuitesPass(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "smoke.yaml", passingSuite)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "suite smoke")
	assert.Contains(t, buf.String(), "2 passed, 0 failed, 2 total")
}

func TestTestFailingSuiteExitsWithFailure(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "regressions.yaml", failingSuite)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "FAIL")
}

func TestTestExpectedFailuresPass(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "negative.yaml", expectedFailureSuite)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestTestFilterSelectsSuites(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "smoke.yaml", passingSuite)
	writeSuite(t, dir, "regressions.yaml", failingSuite)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--filter", "smoke*", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "suite smoke")
	assert.NotContains(t, buf.String(), "regressions")
}

func TestTestNonExistentDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"/nonexistent/directory"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "suites directory not found")
}

func TestTestEmptyDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No suites found.")
}

func TestTestMalformedSuite(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "broken.yaml", "name: broken\nunknown_field: true\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load")
}

func TestTestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeSuite(t, dir, "smoke.yaml", passingSuite)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())

	var res TestResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, res.Suites, 1)
	assert.Equal(t, "smoke", res.Suites[0].Suite)
}

func TestFindSuiteFilesRecursesAndSorts(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeSuite(t, dir, "b.yaml", passingSuite)
	writeSuite(t, sub, "a.yml", passingSuite)
	writeSuite(t, dir, "notes.txt", "not a suite")

	files, err := findSuiteFiles(dir, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.NotContains(t, f, "notes.txt")
	}
}
