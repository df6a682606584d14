package match

// Engine is the matching-engine boundary the harness drives.
//
// Commands are textual; the harness passes script text through verbatim
// (prefixing order commands with the next sequence number) and never
// interprets it. An engine is trusted not to fail for well-formed commands;
// a returned error is an engine-boundary failure and is fatal to the
// current run.
//
// The harness is the sole caller and issues at most one call at a time, so
// implementations do not need to be safe for concurrent use by the harness
// (they may still lock internally if they have other callers).
type Engine interface {
	// Submit executes an order command and returns the resulting event.
	Submit(cmd string) (Event, error)

	// Cancel executes a cancel command and returns the resulting event.
	Cancel(cmd string) (Event, error)

	// Quote returns the current best-bid/best-offer state.
	Quote() (Quote, error)

	// Snapshot returns the full aggregated book state, best first on both
	// sides.
	Snapshot() (Snapshot, error)

	// LastSequence returns the last sequence number the engine assigned.
	LastSequence() (uint64, error)

	// Reset clears all book state.
	Reset() error
}
