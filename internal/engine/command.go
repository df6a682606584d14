package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/bookcheck/internal/match"
)

// Textual command grammar, comma-separated:
//
//	<seq>,<user>,market,<side>,<qty>
//	<seq>,<user>,limit,<side>,<qty>,<price>
//	<seq>,<user>,ioc,<side>,<qty>,<price>
//	<seq>,<user>,fok,<side>,<qty>,<price>
//	cancel,<id>  (or  <id>,cancel)
//
// <side> is "bid" or "ask", case-insensitive. The sequence number doubles
// as the order ID.

type side int

const (
	sideBid side = iota
	sideAsk
)

type orderKind int

const (
	kindMarket orderKind = iota
	kindLimit
	kindIOC
	kindFOK
	kindCancel
)

// order is a parsed command.
type order struct {
	kind  orderKind
	id    uint64
	user  uint64
	side  side
	qty   uint64
	price uint64
}

// Submit parses and executes an order command. A parse error is an
// engine-boundary failure: the harness trusts callers to author well-formed
// order lines, so malformed text is fatal to the run rather than a verdict.
func (b *Book) Submit(cmd string) (match.Event, error) {
	o, err := parseCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("submit %q: %w", cmd, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.execute(o), nil
}

// Cancel parses and executes a cancel command. The command must contain the
// "cancel" keyword.
func (b *Book) Cancel(cmd string) (match.Event, error) {
	o, err := parseCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("cancel %q: %w", cmd, err)
	}
	if o.kind != kindCancel {
		return nil, fmt.Errorf("cancel %q: not a cancel command", cmd)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.execute(o), nil
}

func parseCommand(cmd string) (order, error) {
	fields := strings.Split(cmd, ",")
	if len(fields) < 2 {
		return order{}, fmt.Errorf("want at least 2 fields, got %d", len(fields))
	}

	if strings.Contains(strings.ToLower(cmd), "cancel") {
		return parseCancel(fields)
	}
	if len(fields) < 5 {
		return order{}, fmt.Errorf("want at least 5 fields, got %d", len(fields))
	}

	o := order{}
	var err error
	if o.id, err = strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64); err != nil {
		return order{}, fmt.Errorf("sequence %q: not an integer", fields[0])
	}
	if o.user, err = strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 64); err != nil {
		return order{}, fmt.Errorf("user %q: not an integer", fields[1])
	}
	if o.side, err = parseSide(fields[3]); err != nil {
		return order{}, err
	}
	if o.qty, err = strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 64); err != nil {
		return order{}, fmt.Errorf("qty %q: not an integer", fields[4])
	}

	kind := strings.ToLower(strings.TrimSpace(fields[2]))
	switch kind {
	case "market":
		o.kind = kindMarket
		return o, nil
	case "limit", "ioc", "fok":
		if len(fields) < 6 {
			return order{}, fmt.Errorf("%s order: want 6 fields, got %d", kind, len(fields))
		}
		if o.price, err = strconv.ParseUint(strings.TrimSpace(fields[5]), 10, 64); err != nil {
			return order{}, fmt.Errorf("price %q: not an integer", fields[5])
		}
		switch kind {
		case "limit":
			o.kind = kindLimit
		case "ioc":
			o.kind = kindIOC
		default:
			o.kind = kindFOK
		}
		return o, nil
	default:
		return order{}, fmt.Errorf("unknown order type %q", fields[2])
	}
}

// parseCancel accepts both "cancel,<id>" and "<id>,cancel": the first
// numeric field is the order ID.
func parseCancel(fields []string) (order, error) {
	for _, f := range fields {
		id, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err == nil {
			return order{kind: kindCancel, id: id}, nil
		}
	}
	return order{}, fmt.Errorf("cancel: no order ID field")
}

func parseSide(s string) (side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid":
		return sideBid, nil
	case "ask":
		return sideAsk, nil
	default:
		return 0, fmt.Errorf("side %q: want bid or ask", s)
	}
}
