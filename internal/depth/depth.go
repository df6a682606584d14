// Package depth transforms raw order-book snapshots into display-ready
// views: cumulative depth totals, the bid/ask spread, and padding to a
// stable grid height.
package depth

import "github.com/roach88/bookcheck/internal/match"

// MinRows is the minimum number of rows rendered on each side. The display
// grid keeps a stable height regardless of book depth.
const MinRows = 30

// Row is one rendered price level. Total is the cumulative quantity at or
// better than this level, recomputed on every render - it is never
// persisted by the engine. The *Text fields carry locale-formatted values
// for presentation; placeholder rows leave them blank.
type Row struct {
	Price uint64 `json:"price"`
	Qty   uint64 `json:"qty"`
	Total uint64 `json:"total"`

	PriceText string `json:"price_text"`
	QtyText   string `json:"qty_text"`
	TotalText string `json:"total_text"`

	// Empty marks a padding placeholder with no book level behind it.
	Empty bool `json:"empty"`
}

// View is a display-ready book state, rebuilt in full from each snapshot
// so displayed state cannot drift from engine state. Asks are ordered
// worst-to-best so the best ask sits adjacent to the spread row; bids are
// best-to-worst.
type View struct {
	Bids   []Row  `json:"bids"`
	Asks   []Row  `json:"asks"`
	Spread uint64 `json:"spread"`
}

// Render builds a View from a raw snapshot. It is pure and idempotent:
// rendering the same snapshot twice yields identical views.
func Render(snap match.Snapshot) View {
	rows := len(snap.Asks)
	if len(snap.Bids) > rows {
		rows = len(snap.Bids)
	}
	if rows < MinRows {
		rows = MinRows
	}

	view := View{
		Bids: accumulate(snap.Bids, rows),
		Asks: accumulate(snap.Asks, rows),
	}

	// Accumulation runs best-to-worst; presentation wants asks reversed.
	reverse(view.Asks)

	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		// An empty side is a valid transient state, not an error; the spread
		// is simply 0 until both sides are populated.
		view.Spread = snap.Asks[0].Price - snap.Bids[0].Price
	}
	return view
}

// accumulate computes cumulative totals scanning from the best level
// outward, then pads with placeholder rows up to the target height.
func accumulate(levels []match.Level, rows int) []Row {
	out := make([]Row, 0, rows)
	var total uint64
	for _, lvl := range levels {
		total += lvl.Qty
		out = append(out, Row{
			Price:     lvl.Price,
			Qty:       lvl.Qty,
			Total:     total,
			PriceText: formatAmount(lvl.Price),
			QtyText:   formatAmount(lvl.Qty),
			TotalText: formatAmount(total),
		})
	}
	for len(out) < rows {
		out = append(out, Row{Empty: true})
	}
	return out
}

func reverse(rows []Row) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
