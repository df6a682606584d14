// Package harness replays conformance scripts against a matching engine
// and classifies each outcome against the script's expectations.
//
// A script (see internal/script) is parsed into directives; the playback
// controller drains them strictly sequentially against the engine, one
// outstanding call at a time. Each executed directive yields exactly one
// Verdict appended to an ordered, append-only log; the book view is rebuilt
// wholesale after every mutating command. An operator can pause, resume,
// single-step, change the pacing delay, or batch-replay whole suites.
//
// Replay is deterministic by design: there are no retries anywhere, so the
// same script against the same engine yields the same verdict log every
// time. The journal package exploits this for divergence checks.
package harness
