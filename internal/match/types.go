// Package match defines the boundary contract between the conformance
// harness and a limit-order-book matching engine.
//
// The harness never inspects engine internals. It drives an engine through
// the narrow Engine interface and interprets the tagged Event values the
// engine returns. Events are modelled as an explicit sum type (one struct
// per variant, sealed by an unexported marker method) so that a variant's
// fields can only be read after a type switch - a loosely-typed record with
// optional fields would invite "wrong field read" bugs.
package match

// Reject messages an engine is expected to use. The harness treats them as
// opaque diagnostics; they are defined here so the reference engine and
// tests agree on the exact strings.
const (
	// RejectInvalidOrderNumber is used when a command's sequence number is
	// not strictly increasing.
	RejectInvalidOrderNumber = "INVALID_ORDER_NUMBER"

	// RejectLiquidityNotAvailable is used when a market order finds no
	// resting liquidity at all.
	RejectLiquidityNotAvailable = "LIQUIDITY_NOT_AVAILABLE"
)

// Event is the tagged result of submitting an order or cancel command.
// Exactly one variant is produced per command.
type Event interface {
	// Kind returns the lowercased variant name used in canonical outcome
	// strings ("open", "cancelled", "rejected", "filled", "partiallyfilled").
	Kind() string

	// OrderID returns the ID of the order this event refers to.
	OrderID() uint64

	event()
}

// Open indicates the order is resting on the book. Sent only in response to
// limit orders that did not match.
type Open struct {
	ID uint64
}

// Cancelled indicates the order was removed from the book. Sent only in
// response to cancel commands.
type Cancelled struct {
	ID uint64
}

// Rejected indicates the order was not accepted. Message carries the
// engine's reject reason.
type Rejected struct {
	ID      uint64
	Message string
}

// Filled indicates the order was filled completely.
type Filled struct {
	ID        uint64
	FilledQty uint64
}

// PartiallyFilled indicates the order was filled for FilledQty out of its
// total quantity.
type PartiallyFilled struct {
	ID        uint64
	FilledQty uint64
}

func (Open) Kind() string            { return "open" }
func (Cancelled) Kind() string       { return "cancelled" }
func (Rejected) Kind() string        { return "rejected" }
func (Filled) Kind() string          { return "filled" }
func (PartiallyFilled) Kind() string { return "partiallyfilled" }

func (e Open) OrderID() uint64            { return e.ID }
func (e Cancelled) OrderID() uint64       { return e.ID }
func (e Rejected) OrderID() uint64        { return e.ID }
func (e Filled) OrderID() uint64          { return e.ID }
func (e PartiallyFilled) OrderID() uint64 { return e.ID }

func (Open) event()            {}
func (Cancelled) event()       {}
func (Rejected) event()        {}
func (Filled) event()          {}
func (PartiallyFilled) event() {}

// Quote is the top-of-book state: best bid and best ask with their
// aggregate quantities. A side with no resting orders reports zero for
// both fields.
type Quote struct {
	BidQty   uint64
	BidPrice uint64
	AskQty   uint64
	AskPrice uint64
}

// Level is one aggregated price level of a book snapshot.
type Level struct {
	Price uint64
	Qty   uint64
}

// Snapshot is a full order-book snapshot. Both sides are ordered best
// first: bids descending by price, asks ascending by price.
type Snapshot struct {
	Bids []Level
	Asks []Level
}
