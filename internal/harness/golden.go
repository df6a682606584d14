package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bookcheck/internal/match"
)

// TraceSnapshot captures one run's verdict trace for golden comparison.
// Struct serialization is deterministic, so the same script against the
// same engine yields a byte-identical snapshot.
type TraceSnapshot struct {
	Script   string    `json:"script"`
	Verdicts []Verdict `json:"verdicts"`
}

// RunWithGolden replays a script and compares its verdict trace against
// the golden file testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, engine match.Engine, name, text string) error {
	t.Helper()

	c := NewController(engine)
	res, err := c.Start(context.Background(), name, text)
	if err != nil {
		return err
	}
	return AssertGolden(t, name, res)
}

// AssertGolden compares an already-computed run result against a golden
// file without re-running the script.
func AssertGolden(t *testing.T, name string, res *RunResult) error {
	t.Helper()

	snapshot := TraceSnapshot{Script: res.Script, Verdicts: res.Verdicts}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
