package harness

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/roach88/bookcheck/internal/match"
	"github.com/roach88/bookcheck/internal/script"
)

// Fixed quote-assertion messages.
const (
	QuoteMatchMessage    = "bbo match"
	QuoteMismatchMessage = "bbo mismatch"
)

// unverifiedMessage flags a directive whose author forgot the "-expected"
// suffix.
const unverifiedMessage = "no expected outcome"

// Classify maps an engine event and an expected-outcome token to a verdict.
//
// The canonical actual-outcome string is "<kind>,<id>" or, for fills,
// "<kind>,<id>,<filledQty>". Success is substring containment, not
// equality, so a script may assert only a prefix (for example just
// "open,5" or even "open"). When hasExpect is false the verdict is a
// failed, unverified row.
func Classify(ev match.Event, expect string, hasExpect bool) Verdict {
	v := Verdict{Kind: ev.Kind(), OrderID: ev.OrderID()}

	actual := ev.Kind() + "," + strconv.FormatUint(ev.OrderID(), 10)
	switch e := ev.(type) {
	case match.Filled:
		v.FilledQty = e.FilledQty
		actual += "," + strconv.FormatUint(e.FilledQty, 10)
	case match.PartiallyFilled:
		v.FilledQty = e.FilledQty
		actual += "," + strconv.FormatUint(e.FilledQty, 10)
	case match.Rejected:
		// The reject reason is reported but not part of the canonical
		// string; scripts assert on "rejected,<id>".
		v.Message = e.Message
	}

	if !hasExpect {
		if v.Message == "" {
			v.Message = unverifiedMessage
		}
		return v
	}

	v.Success = strings.Contains(actual, expect)
	return v
}

// ClassifyQuote compares the engine's current quote against a parsed quote
// assertion. Success requires all four fields to compare equal. A malformed
// assertion classifies as a failed verdict carrying the parse diagnostic.
func ClassifyQuote(actual match.Quote, want script.QuoteCheck) Verdict {
	if want.Malformed != "" {
		return Verdict{Kind: "quote", Message: want.Malformed}
	}

	ok := bigEqualsUint64(want.BidQty, actual.BidQty) &&
		bigEqualsUint64(want.BidPrice, actual.BidPrice) &&
		bigEqualsUint64(want.AskQty, actual.AskQty) &&
		bigEqualsUint64(want.AskPrice, actual.AskPrice)

	v := Verdict{Kind: "quote", Success: ok, Message: QuoteMatchMessage}
	if !ok {
		v.Message = QuoteMismatchMessage
	}
	return v
}

// bigEqualsUint64 reports whether an arbitrary-precision expected value
// equals an engine quantity. Values outside uint64 range can never match.
func bigEqualsUint64(want *big.Int, actual uint64) bool {
	return want != nil && want.IsUint64() && want.Uint64() == actual
}
