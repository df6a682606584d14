// Package script parses the line-oriented conformance-script grammar.
//
// A script is UTF-8 text, one directive per "\n"-separated line:
//
//	<line> ::= "" | <cancel-line> | <bbo-line> | <order-line>
//	<cancel-line> ::= <text containing "cancel"> ["-" <expected>]
//	<bbo-line>    ::= <prefix> "bbo-" <bidQty> "," <bidPrice> "," <askQty> "," <askPrice>
//	<order-line>  ::= <order-fields> ["-" <expected>]
//
// Parsing is total: scripts are hand-authored, so malformed lines degrade
// to best-effort directives instead of failing the whole script. Blank
// lines are preserved in position so that character-offset bookkeeping for
// selection highlighting stays accurate.
package script

import (
	"fmt"
	"math/big"
	"strings"
)

// marker substrings that select a directive kind.
const (
	cancelMarker = "cancel"
	quoteMarker  = "bbo"
)

// Directive is one parsed unit of a script line. Variants: Blank, Cancel,
// Order and QuoteCheck. Directive order is exactly script line order.
type Directive interface {
	// Source returns the original line, used for cursor bookkeeping: the
	// playback cursor always advances by len(Source())+1 (the line plus its
	// terminating newline), executed or not.
	Source() string

	directive()
}

// Blank is an empty line, or a line whose order field is empty. It advances
// the cursor but produces no engine call.
type Blank struct {
	Line string
}

// Cancel sends its raw text to the engine's cancel operation verbatim.
type Cancel struct {
	Line string

	// Raw is the text before the first "-" delimiter.
	Raw string
}

// Order submits an order command. Raw lacks a sequence number; the playback
// controller assigns one at dispatch time.
type Order struct {
	Line string

	// Raw is the order fields before the first "-" delimiter.
	Raw string

	// Expect is the expected-outcome token after the delimiter, matched by
	// substring containment against the canonical outcome string. Valid
	// only when HasExpect is true.
	Expect    string
	HasExpect bool
}

// QuoteCheck asserts the current best-bid/best-offer state. The four values
// follow the "bbo-" marker, comma-separated, parsed as arbitrary-precision
// integers.
type QuoteCheck struct {
	Line string

	BidQty   *big.Int
	BidPrice *big.Int
	AskQty   *big.Int
	AskPrice *big.Int

	// Malformed carries a diagnostic when the assertion tokens did not
	// parse. A malformed quote check executes as a failed verdict rather
	// than aborting the script.
	Malformed string
}

func (d Blank) Source() string      { return d.Line }
func (d Cancel) Source() string     { return d.Line }
func (d Order) Source() string      { return d.Line }
func (d QuoteCheck) Source() string { return d.Line }

func (Blank) directive()      {}
func (Cancel) directive()     {}
func (Order) directive()      {}
func (QuoteCheck) directive() {}

// Parse turns raw script text into an ordered sequence of directives.
// It never fails; see the package comment for the degradation rules.
func Parse(text string) []Directive {
	lines := strings.Split(text, "\n")
	directives := make([]Directive, 0, len(lines))
	for _, line := range lines {
		directives = append(directives, parseLine(line))
	}
	return directives
}

func parseLine(line string) Directive {
	order, expect, hasExpect := strings.Cut(line, "-")
	if order == "" {
		// Empty line, or a line that was only a delimiter. Either way the
		// cursor still advances by the full source span.
		return Blank{Line: line}
	}

	switch {
	case strings.Contains(order, cancelMarker):
		return Cancel{Line: line, Raw: order}
	case strings.Contains(order, quoteMarker):
		return parseQuoteCheck(line)
	default:
		return Order{Line: line, Raw: order, Expect: expect, HasExpect: hasExpect}
	}
}

// parseQuoteCheck re-splits the original line on the marker plus "-" so
// that expected values containing "-"-free commas survive the initial
// delimiter cut.
func parseQuoteCheck(line string) Directive {
	d := QuoteCheck{Line: line}

	_, rest, ok := strings.Cut(line, quoteMarker+"-")
	if !ok {
		d.Malformed = fmt.Sprintf("quote assertion %q: missing %q delimiter", line, quoteMarker+"-")
		return d
	}

	tokens := strings.Split(rest, ",")
	if len(tokens) != 4 {
		d.Malformed = fmt.Sprintf("quote assertion %q: want 4 comma-separated values, got %d", line, len(tokens))
		return d
	}

	values := make([]*big.Int, 4)
	for i, token := range tokens {
		v, ok := new(big.Int).SetString(strings.TrimSpace(token), 10)
		if !ok {
			d.Malformed = fmt.Sprintf("quote assertion %q: value %q is not an integer", line, token)
			return d
		}
		values[i] = v
	}

	d.BidQty, d.BidPrice, d.AskQty, d.AskPrice = values[0], values[1], values[2], values[3]
	return d
}
