// Package engine is an in-memory reference matching engine implementing
// the harness boundary.
//
// It exists so the harness is runnable and testable end to end without an
// external engine. The book is price-time priority: levels are matched best
// price first, orders within a level in arrival order. Prices and
// quantities are unsigned integers; fractional instruments must be scaled
// by the caller.
package engine

import (
	"sync"

	"github.com/roach88/bookcheck/internal/match"
)

// restingOrder is one open limit order on the book.
type restingOrder struct {
	id    uint64
	price uint64
	qty   uint64
}

// level is a FIFO queue of resting orders at one price.
type level struct {
	price  uint64
	orders []*restingOrder
}

func (l *level) qty() uint64 {
	var total uint64
	for _, o := range l.orders {
		total += o.qty
	}
	return total
}

// Book is the reference engine. All state is process-lifetime only.
type Book struct {
	mu sync.Mutex

	// bids and asks are kept sorted best price first: bids descending,
	// asks ascending. Empty levels are removed eagerly so snapshots never
	// contain zero-quantity levels.
	bids []*level
	asks []*level

	// orders indexes resting orders by ID for cancels.
	orders map[uint64]*restingOrder

	// lastSeq is the highest sequence number processed. Sequence numbers
	// must be strictly increasing across order commands; this keeps cancel
	// lookups and book reconstruction cheap.
	lastSeq uint64
}

// New creates an empty book.
func New() *Book {
	return &Book{orders: make(map[uint64]*restingOrder)}
}

// Quote returns the best-bid/best-offer state. An empty side reports zeros.
func (b *Book) Quote() (match.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var q match.Quote
	if len(b.bids) > 0 {
		q.BidPrice = b.bids[0].price
		q.BidQty = b.bids[0].qty()
	}
	if len(b.asks) > 0 {
		q.AskPrice = b.asks[0].price
		q.AskQty = b.asks[0].qty()
	}
	return q, nil
}

// Snapshot returns the aggregated book, best first on both sides.
func (b *Book) Snapshot() (match.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := match.Snapshot{
		Bids: make([]match.Level, 0, len(b.bids)),
		Asks: make([]match.Level, 0, len(b.asks)),
	}
	for _, lvl := range b.bids {
		snap.Bids = append(snap.Bids, match.Level{Price: lvl.price, Qty: lvl.qty()})
	}
	for _, lvl := range b.asks {
		snap.Asks = append(snap.Asks, match.Level{Price: lvl.price, Qty: lvl.qty()})
	}
	return snap, nil
}

// LastSequence returns the last sequence number processed.
func (b *Book) LastSequence() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeq, nil
}

// Reset clears all book state, including the sequence counter.
func (b *Book) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = nil
	b.asks = nil
	b.orders = make(map[uint64]*restingOrder)
	b.lastSeq = 0
	return nil
}

// execute runs a parsed order against the book. Callers hold b.mu.
func (b *Book) execute(o order) match.Event {
	if o.kind != kindCancel {
		if b.lastSeq >= o.id {
			return match.Rejected{ID: o.id, Message: match.RejectInvalidOrderNumber}
		}
		b.lastSeq = o.id
	}

	switch o.kind {
	case kindMarket:
		filled := b.matchQty(o.side, o.qty, 0, false)
		switch {
		case filled == 0:
			return match.Rejected{ID: o.id, Message: match.RejectLiquidityNotAvailable}
		case filled < o.qty:
			return match.PartiallyFilled{ID: o.id, FilledQty: filled}
		default:
			return match.Filled{ID: o.id, FilledQty: filled}
		}

	case kindLimit:
		filled := b.matchQty(o.side, o.qty, o.price, true)
		if filled == o.qty {
			return match.Filled{ID: o.id, FilledQty: filled}
		}
		b.rest(o.id, o.side, o.price, o.qty-filled)
		if filled == 0 {
			return match.Open{ID: o.id}
		}
		return match.PartiallyFilled{ID: o.id, FilledQty: filled}

	case kindIOC:
		// Immediate-or-cancel: fill what is available at the limit, never
		// rest the remainder.
		filled := b.matchQty(o.side, o.qty, o.price, true)
		switch {
		case filled == 0:
			return match.Rejected{ID: o.id, Message: match.RejectLiquidityNotAvailable}
		case filled < o.qty:
			return match.PartiallyFilled{ID: o.id, FilledQty: filled}
		default:
			return match.Filled{ID: o.id, FilledQty: filled}
		}

	case kindFOK:
		// Fill-or-kill: no partial fills.
		if b.availableQty(o.side, o.price) < o.qty {
			return match.Rejected{ID: o.id, Message: match.RejectLiquidityNotAvailable}
		}
		filled := b.matchQty(o.side, o.qty, o.price, true)
		return match.Filled{ID: o.id, FilledQty: filled}

	default: // kindCancel
		b.cancel(o.id)
		// Cancels are acknowledged whether or not the order was resting.
		return match.Cancelled{ID: o.id}
	}
}

// matchQty consumes up to qty from the opposite side, best levels first.
// When limited is true only levels at price or better are eligible.
// Returns the filled quantity.
func (b *Book) matchQty(side side, qty, price uint64, limited bool) uint64 {
	opposite := &b.asks
	crosses := func(levelPrice uint64) bool { return levelPrice <= price }
	if side == sideAsk {
		opposite = &b.bids
		crosses = func(levelPrice uint64) bool { return levelPrice >= price }
	}

	var filled uint64
	for filled < qty && len(*opposite) > 0 {
		lvl := (*opposite)[0]
		if limited && !crosses(lvl.price) {
			break
		}

		for filled < qty && len(lvl.orders) > 0 {
			maker := lvl.orders[0]
			take := qty - filled
			if maker.qty < take {
				take = maker.qty
			}
			maker.qty -= take
			filled += take
			if maker.qty == 0 {
				lvl.orders = lvl.orders[1:]
				delete(b.orders, maker.id)
			}
		}

		if len(lvl.orders) == 0 {
			*opposite = (*opposite)[1:]
		}
	}
	return filled
}

// availableQty sums the quantity resting at price or better on the side
// opposite to the taker.
func (b *Book) availableQty(side side, price uint64) uint64 {
	opposite := b.asks
	crosses := func(levelPrice uint64) bool { return levelPrice <= price }
	if side == sideAsk {
		opposite = b.bids
		crosses = func(levelPrice uint64) bool { return levelPrice >= price }
	}

	var total uint64
	for _, lvl := range opposite {
		if !crosses(lvl.price) {
			break
		}
		total += lvl.qty()
	}
	return total
}

// rest adds a limit order remainder to its side of the book.
func (b *Book) rest(id uint64, s side, price, qty uint64) {
	o := &restingOrder{id: id, price: price, qty: qty}
	b.orders[id] = o

	book := &b.bids
	before := func(a, b uint64) bool { return a > b } // bids descend
	if s == sideAsk {
		book = &b.asks
		before = func(a, b uint64) bool { return a < b } // asks ascend
	}

	for i, lvl := range *book {
		if lvl.price == price {
			lvl.orders = append(lvl.orders, o)
			return
		}
		if before(price, lvl.price) {
			*book = append(*book, nil)
			copy((*book)[i+1:], (*book)[i:])
			(*book)[i] = &level{price: price, orders: []*restingOrder{o}}
			return
		}
	}
	*book = append(*book, &level{price: price, orders: []*restingOrder{o}})
}

// cancel removes a resting order by ID. Returns false if unknown.
func (b *Book) cancel(id uint64) bool {
	o, ok := b.orders[id]
	if !ok {
		return false
	}
	delete(b.orders, id)

	for _, book := range []*[]*level{&b.bids, &b.asks} {
		for i, lvl := range *book {
			if lvl.price != o.price {
				continue
			}
			for j, resting := range lvl.orders {
				if resting.id == id {
					lvl.orders = append(lvl.orders[:j], lvl.orders[j+1:]...)
					break
				}
			}
			if len(lvl.orders) == 0 {
				*book = append((*book)[:i], (*book)[i+1:]...)
			}
			return true
		}
	}
	return true
}
