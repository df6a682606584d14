package harness

// Verdict is the pass/fail classification of one executed directive.
// Verdicts are appended to an ordered log and never mutated after creation.
type Verdict struct {
	// Kind is the lowercased event variant for order and cancel commands
	// ("open", "cancelled", "rejected", "filled", "partiallyfilled") or
	// "quote" for quote assertions.
	Kind string `json:"type"`

	// OrderID is the engine-reported order ID. Quote verdicts carry none.
	OrderID uint64 `json:"id,omitempty"`

	// FilledQty is set for filled and partially-filled outcomes.
	FilledQty uint64 `json:"filled_qty,omitempty"`

	// Message is an optional diagnostic: the engine's reject reason, the
	// quote match/mismatch note, or a script-malformation description.
	Message string `json:"message,omitempty"`

	// Success reports whether the actual outcome satisfied the expected
	// one. A directive without an expectation yields Success=false: a
	// visibly-unverified row, not a silent skip.
	Success bool `json:"success"`
}
