package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bookcheck/internal/match"
)

// Suite is a YAML manifest naming a set of scripts to replay in batch.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what this suite validates.
	Description string `yaml:"description"`

	// Scripts lists the scripts to replay, in order.
	Scripts []SuiteScript `yaml:"scripts"`
}

// SuiteScript is one script entry. Exactly one of File or Text must be set.
type SuiteScript struct {
	// Name identifies the script within the suite.
	Name string `yaml:"name"`

	// File is a script path, resolved relative to the suite file location.
	File string `yaml:"file,omitempty"`

	// Text is an inline script body.
	Text string `yaml:"text,omitempty"`

	// ExpectFailures is the number of failing verdicts this script is
	// expected to produce. A script passes when its failing-verdict count
	// equals this value; the default of 0 requires every verdict to pass.
	ExpectFailures int `yaml:"expect_failures,omitempty"`
}

// ScriptResult is the outcome of one script within a suite run.
type ScriptResult struct {
	Name     string    `json:"name"`
	Pass     bool      `json:"pass"`
	Failures int       `json:"failures"`
	Verdicts []Verdict `json:"verdicts"`
}

// SuiteResult is the outcome of a whole suite run.
type SuiteResult struct {
	Suite   string         `json:"suite"`
	Scripts []ScriptResult `json:"scripts"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
}

// LoadSuite reads and parses a suite YAML file. Unknown fields are
// rejected to catch typos; script file paths are resolved relative to the
// suite file and must exist.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, s := range suite.Scripts {
		if s.File != "" && !filepath.IsAbs(s.File) {
			suite.Scripts[i].File = filepath.Join(base, s.File)
		}
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Scripts) == 0 {
		return fmt.Errorf("scripts list is required and must be non-empty")
	}

	for i, sc := range s.Scripts {
		if sc.Name == "" {
			return fmt.Errorf("scripts[%d]: name is required", i)
		}
		if (sc.File == "") == (sc.Text == "") {
			return fmt.Errorf("scripts[%d]: exactly one of file or text is required", i)
		}
		if sc.ExpectFailures < 0 {
			return fmt.Errorf("scripts[%d]: expect_failures must be non-negative", i)
		}
		if sc.File != "" {
			if _, err := os.Stat(sc.File); os.IsNotExist(err) {
				return fmt.Errorf("scripts[%d]: script file not found: %s", i, sc.File)
			}
		}
	}
	return nil
}

// scriptText returns the script body, reading File when Text is not inline.
func (s SuiteScript) scriptText() (string, error) {
	if s.Text != "" {
		return s.Text, nil
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("failed to read script file: %w", err)
	}
	return string(data), nil
}

// RunSuite batch-replays every script in the suite against the engine with
// no pacing delay. Each script runs to completion before the next; an
// engine-boundary failure aborts the remaining scripts.
func RunSuite(ctx context.Context, engine match.Engine, suite *Suite, opts ...Option) (*SuiteResult, error) {
	scripts := make([]Script, 0, len(suite.Scripts))
	for _, s := range suite.Scripts {
		text, err := s.scriptText()
		if err != nil {
			return nil, fmt.Errorf("suite %s, script %s: %w", suite.Name, s.Name, err)
		}
		scripts = append(scripts, Script{Name: s.Name, Text: text})
	}

	c := NewController(engine, opts...)
	runs, err := c.RunAll(ctx, scripts)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", suite.Name, err)
	}

	result := &SuiteResult{Suite: suite.Name, Total: len(runs)}
	for i, run := range runs {
		sr := ScriptResult{
			Name:     run.Script,
			Failures: run.Failures(),
			Verdicts: run.Verdicts,
		}
		sr.Pass = sr.Failures == suite.Scripts[i].ExpectFailures
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scripts = append(result.Scripts, sr)
	}
	return result, nil
}
