package harness

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/bookcheck/internal/depth"
	"github.com/roach88/bookcheck/internal/match"
	"github.com/roach88/bookcheck/internal/script"
)

// State is a snapshot of the playback state machine, safe to hand to
// presentation code.
type State struct {
	Paused        bool          `json:"paused"`
	Started       bool          `json:"started"`
	RunningAll    bool          `json:"running_all"`
	StepRequested bool          `json:"step_requested"`
	Delay         time.Duration `json:"delay"`

	// Cursor is the character offset into the current script, advanced by
	// each directive's source span (line plus newline). It exists for
	// selection highlighting and advances for blank lines too.
	Cursor int `json:"cursor"`
}

// Update is pushed to an observer after every executed directive and on
// run boundaries.
type Update struct {
	State   State
	View    depth.View
	Verdict *Verdict // latest verdict, nil on run boundaries
}

// RunResult is the outcome of replaying one script.
type RunResult struct {
	Script   string     `json:"script"`
	Verdicts []Verdict  `json:"verdicts"`
	View     depth.View `json:"view"`
}

// Failures counts the verdicts with Success=false.
func (r *RunResult) Failures() int {
	n := 0
	for _, v := range r.Verdicts {
		if !v.Success {
			n++
		}
	}
	return n
}

// Script pairs a script name with its text, for batch replay.
type Script struct {
	Name string
	Text string
}

// Controller sequences directives against the engine, honoring the
// operator's pause/step/delay controls.
//
// The controller is the engine's sole caller: directives are drained
// strictly sequentially with at most one outstanding engine call. The
// pause wait and the inter-directive delay are cooperative and cancellable;
// toggling controls unblocks them immediately. The delay paces the display
// only - drift is acceptable.
type Controller struct {
	engine match.Engine
	logger *slog.Logger

	// after produces delay timers; injectable for tests.
	after func(time.Duration) <-chan time.Time

	mu         sync.Mutex
	paused     bool
	started    bool
	runningAll bool
	stepReq    bool
	skipDelay  bool
	delay      time.Duration
	cursor     int
	log        []Verdict
	view       depth.View
	cancelRun  context.CancelFunc
	observer   func(Update)

	// wake is signaled on every control change so suspended waits
	// re-evaluate immediately. Buffered size 1 coalesces signals; there is
	// at most one waiter (the run goroutine).
	wake chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDelay sets the initial inter-directive delay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithTimerSource replaces the wall-clock delay source. Used by tests to
// hold a run inside a delay deterministically.
func WithTimerSource(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Controller) { c.after = after }
}

// WithObserver registers a callback invoked after every executed directive
// and on run boundaries. The callback runs on the playback goroutine and
// must not block.
func WithObserver(fn func(Update)) Option {
	return func(c *Controller) { c.observer = fn }
}

// NewController creates an idle controller bound to an engine.
func NewController(engine match.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		after:  time.After,
		view:   depth.Render(match.Snapshot{}),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Paused:        c.paused,
		Started:       c.started,
		RunningAll:    c.runningAll,
		StepRequested: c.stepReq,
		Delay:         c.delay,
		Cursor:        c.cursor,
	}
}

// Log returns a copy of the append-only verdict log for the current run.
func (c *Controller) Log() []Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Verdict, len(c.log))
	copy(out, c.log)
	return out
}

// View returns the current book view.
func (c *Controller) View() depth.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Pause suspends dispatch before the next directive. Disabled during batch
// replay.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningAll {
		return
	}
	c.paused = true
	c.signalLocked()
}

// Resume clears the pause flag, immediately unblocking a suspended run.
// Disabled during batch replay.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningAll {
		return
	}
	c.paused = false
	c.signalLocked()
}

// Step requests execution of exactly one directive regardless of pause
// state; pause is re-asserted afterwards. Disabled during batch replay.
func (c *Controller) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningAll {
		return
	}
	c.stepReq = true
	c.signalLocked()
}

// SetDelay changes the inter-directive delay for subsequent dispatches.
func (c *Controller) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.delay = d
	c.signalLocked()
}

// Clear cancels any in-progress run and resets the engine's book state.
// Dispatch stops at the next pause or delay point; an in-flight engine
// call is allowed to complete first.
func (c *Controller) Clear() error {
	c.mu.Lock()
	cancel := c.cancelRun
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if err := c.engine.Reset(); err != nil {
		return &EngineError{Op: "reset", Err: err}
	}

	c.mu.Lock()
	c.view = depth.Render(match.Snapshot{})
	c.mu.Unlock()
	c.notify(nil)
	return nil
}

// signalLocked wakes a suspended run. Callers hold c.mu.
func (c *Controller) signalLocked() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start replays one script from the beginning: engine state is cleared,
// the verdict log and cursor reset, then directives are drained in order.
// Start blocks until the run finishes, fails, or ctx is cancelled. The
// verdict log up to a failure point is preserved in the returned result.
//
// When the run ends outside batch mode the pause flag is re-asserted, so
// replaying another script requires an explicit Resume.
func (c *Controller) Start(ctx context.Context, name, text string) (*RunResult, error) {
	runCtx, err := c.beginRun(ctx)
	if err != nil {
		return nil, err
	}
	defer c.endRun()

	c.logger.Info("run started", "script", name)
	c.notify(nil)

	if err := c.engine.Reset(); err != nil {
		return c.result(name), &EngineError{Op: "reset", Err: err}
	}

	for _, d := range script.Parse(text) {
		if _, blank := d.(script.Blank); blank {
			// Blank lines advance the cursor but perform no engine call.
			c.advance(d)
			continue
		}

		if err := c.awaitDispatch(runCtx); err != nil {
			return c.result(name), err
		}

		if err := c.dispatch(d); err != nil {
			c.logger.Error("run failed", "script", name, "error", err)
			return c.result(name), err
		}
		c.advance(d)
	}

	res := c.result(name)
	c.logger.Info("run finished", "script", name,
		"verdicts", len(res.Verdicts), "failures", res.Failures())
	return res, nil
}

// RunAll replays scripts sequentially, each to completion before the next.
// Per-script pause/step controls are disabled for the duration; the batch
// flag is cleared when the scripts are exhausted or a run fails.
func (c *Controller) RunAll(ctx context.Context, scripts []Script) ([]*RunResult, error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil, errRunInProgress
	}
	c.runningAll = true
	c.paused = false
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.runningAll = false
		c.mu.Unlock()
	}()

	results := make([]*RunResult, 0, len(scripts))
	for _, s := range scripts {
		res, err := c.Start(ctx, s.Name, s.Text)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// beginRun transitions Idle -> Running (or Paused when the sticky pause
// flag is set) and installs the run's cancellation hook.
func (c *Controller) beginRun(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil, errRunInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cursor = 0
	c.log = nil
	c.skipDelay = false
	c.cancelRun = cancel
	c.view = depth.Render(match.Snapshot{})
	return runCtx, nil
}

// endRun returns the state machine to Idle. Outside batch mode the pause
// flag is re-asserted.
func (c *Controller) endRun() {
	c.mu.Lock()
	c.started = false
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	if !c.runningAll {
		c.paused = true
	}
	c.mu.Unlock()
	c.notify(nil)
}

// awaitDispatch blocks until the next directive may be dispatched: the
// controller is unpaused and the pacing delay has elapsed, or a single
// step was requested. Both waits unblock immediately on control changes
// and on cancellation.
func (c *Controller) awaitDispatch(ctx context.Context) error {
	for {
		// With no pause and no delay there is no blocking wait below, so
		// cancellation must be checked here or a zero-delay run would
		// ignore it entirely.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.mu.Lock()
		if c.stepReq {
			// Consume exactly one directive now, then re-assert pause.
			// The next directive after the step skips the delay so a
			// subsequent resume does not pay it twice.
			c.stepReq = false
			c.paused = true
			c.skipDelay = true
			c.mu.Unlock()
			return nil
		}
		if c.paused {
			c.mu.Unlock()
			if err := c.waitSignal(ctx); err != nil {
				return err
			}
			continue
		}
		if c.skipDelay {
			c.skipDelay = false
			c.mu.Unlock()
			return nil
		}
		delay := c.delay
		c.mu.Unlock()

		if delay <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			// A control changed mid-delay; re-evaluate. If the operator
			// paused, the directive must not dispatch. The stale timer is
			// abandoned rather than waited out.
			continue
		case <-c.after(delay):
			c.mu.Lock()
			blocked := c.paused && !c.stepReq
			c.mu.Unlock()
			if blocked {
				continue
			}
			return nil
		}
	}
}

func (c *Controller) waitSignal(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.wake:
		return nil
	}
}

// dispatch executes one non-blank directive against the engine and appends
// its verdict.
func (c *Controller) dispatch(d script.Directive) error {
	switch d := d.(type) {
	case script.Cancel:
		// Cancel text goes to the engine verbatim. The directive carries no
		// expected token, so its verdict is an unverified row.
		ev, err := c.engine.Cancel(d.Raw)
		if err != nil {
			return &EngineError{Op: "cancel", Cursor: c.State().Cursor, Err: err}
		}
		v := Classify(ev, "", false)
		c.append(v)
		return c.refreshView(&v)

	case script.Order:
		seq, err := c.engine.LastSequence()
		if err != nil {
			return &EngineError{Op: "sequence", Cursor: c.State().Cursor, Err: err}
		}
		cmd := strconv.FormatUint(seq+1, 10) + "," + d.Raw
		ev, err := c.engine.Submit(cmd)
		if err != nil {
			return &EngineError{Op: "submit", Cursor: c.State().Cursor, Err: err}
		}
		v := Classify(ev, d.Expect, d.HasExpect)
		c.append(v)
		c.logger.Debug("order dispatched", "cmd", cmd, "verdict", v.Kind, "success", v.Success)
		return c.refreshView(&v)

	case script.QuoteCheck:
		if d.Malformed != "" {
			// Script malformation fails the directive, not the run.
			v := ClassifyQuote(match.Quote{}, d)
			c.append(v)
			c.notify(&v)
			return nil
		}
		q, err := c.engine.Quote()
		if err != nil {
			return &EngineError{Op: "quote", Cursor: c.State().Cursor, Err: err}
		}
		v := ClassifyQuote(q, d)
		c.append(v)
		// No mutation occurred; the book view stays as is.
		c.notify(&v)
		return nil

	default:
		return nil
	}
}

// refreshView rebuilds the book view in full from a fresh snapshot.
func (c *Controller) refreshView(latest *Verdict) error {
	snap, err := c.engine.Snapshot()
	if err != nil {
		return &EngineError{Op: "snapshot", Cursor: c.State().Cursor, Err: err}
	}
	c.mu.Lock()
	c.view = depth.Render(snap)
	c.mu.Unlock()
	c.notify(latest)
	return nil
}

func (c *Controller) append(v Verdict) {
	c.mu.Lock()
	c.log = append(c.log, v)
	c.mu.Unlock()
}

// advance moves the cursor past the directive's source span (line plus
// terminating newline), executed or not.
func (c *Controller) advance(d script.Directive) {
	c.mu.Lock()
	c.cursor += len(d.Source()) + 1
	c.mu.Unlock()
}

func (c *Controller) result(name string) *RunResult {
	return &RunResult{Script: name, Verdicts: c.Log(), View: c.View()}
}

func (c *Controller) notify(latest *Verdict) {
	if c.observer == nil {
		return
	}
	c.observer(Update{State: c.State(), View: c.View(), Verdict: latest})
}
