package journal

import (
	"context"
	"fmt"

	"github.com/roach88/bookcheck/internal/harness"
	"github.com/roach88/bookcheck/internal/match"
)

// Divergence describes the first point where a replay's verdicts differ
// from a recorded run. Recorded or Actual is nil when one trace ended
// before the other.
type Divergence struct {
	Position int              `json:"position"`
	Recorded *harness.Verdict `json:"recorded,omitempty"`
	Actual   *harness.Verdict `json:"actual,omitempty"`
}

func (d *Divergence) String() string {
	switch {
	case d.Recorded == nil:
		return fmt.Sprintf("position %d: replay produced an extra verdict %+v", d.Position, *d.Actual)
	case d.Actual == nil:
		return fmt.Sprintf("position %d: replay ended early, recorded verdict %+v missing", d.Position, *d.Recorded)
	default:
		return fmt.Sprintf("position %d: recorded %+v, got %+v", d.Position, *d.Recorded, *d.Actual)
	}
}

// Replay re-executes a recorded run's script against an engine and
// compares the verdict traces. Returns nil when the replay is
// deterministic (byte-for-byte identical verdicts).
func (j *Journal) Replay(ctx context.Context, runID, scriptText string, engine match.Engine) (*Divergence, error) {
	rec, recorded, err := j.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	c := harness.NewController(engine)
	res, err := c.Start(ctx, rec.Script, scriptText)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	for i := 0; i < max(len(recorded), len(res.Verdicts)); i++ {
		switch {
		case i >= len(recorded):
			return &Divergence{Position: i, Actual: &res.Verdicts[i]}, nil
		case i >= len(res.Verdicts):
			return &Divergence{Position: i, Recorded: &recorded[i]}, nil
		case recorded[i] != res.Verdicts[i]:
			return &Divergence{Position: i, Recorded: &recorded[i], Actual: &res.Verdicts[i]}, nil
		}
	}
	return nil, nil
}
