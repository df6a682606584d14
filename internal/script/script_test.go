package script

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyScript(t *testing.T) {
	directives := Parse("")

	require.Len(t, directives, 1)
	assert.Equal(t, Blank{Line: ""}, directives[0])
}

func TestParse_OrderWithExpectedToken(t *testing.T) {
	directives := Parse("5,limit,bid,10,100-open,5")

	require.Len(t, directives, 1)
	order, ok := directives[0].(Order)
	require.True(t, ok)
	assert.Equal(t, "5,limit,bid,10,100", order.Raw)
	assert.Equal(t, "open,5", order.Expect)
	assert.True(t, order.HasExpect)
	assert.Equal(t, "5,limit,bid,10,100-open,5", order.Source())
}

func TestParse_OrderWithoutExpectedToken(t *testing.T) {
	directives := Parse("5,limit,bid,10,100")

	require.Len(t, directives, 1)
	order, ok := directives[0].(Order)
	require.True(t, ok)
	assert.Equal(t, "5,limit,bid,10,100", order.Raw)
	assert.False(t, order.HasExpect)
}

func TestParse_Cancel(t *testing.T) {
	directives := Parse("cancel,9")

	require.Len(t, directives, 1)
	cancel, ok := directives[0].(Cancel)
	require.True(t, ok)
	assert.Equal(t, "cancel,9", cancel.Raw)
}

func TestParse_CancelKeepsOnlyOrderField(t *testing.T) {
	directives := Parse("cancel,9-cancelled,9")

	require.Len(t, directives, 1)
	cancel, ok := directives[0].(Cancel)
	require.True(t, ok)
	// Only the text before the delimiter is sent to the engine.
	assert.Equal(t, "cancel,9", cancel.Raw)
	assert.Equal(t, "cancel,9-cancelled,9", cancel.Source())
}

func TestParse_QuoteCheck(t *testing.T) {
	directives := Parse("bbo-1,100,2,101")

	require.Len(t, directives, 1)
	check, ok := directives[0].(QuoteCheck)
	require.True(t, ok)
	assert.Empty(t, check.Malformed)
	assert.Zero(t, check.BidQty.Cmp(big.NewInt(1)))
	assert.Zero(t, check.BidPrice.Cmp(big.NewInt(100)))
	assert.Zero(t, check.AskQty.Cmp(big.NewInt(2)))
	assert.Zero(t, check.AskPrice.Cmp(big.NewInt(101)))
}

func TestParse_QuoteCheckHugeValues(t *testing.T) {
	// Values beyond uint64 still parse; comparison against the engine quote
	// is the classifier's job.
	directives := Parse("bbo-99999999999999999999,1,0,0")

	require.Len(t, directives, 1)
	check, ok := directives[0].(QuoteCheck)
	require.True(t, ok)
	assert.Empty(t, check.Malformed)

	want, ok := new(big.Int).SetString("99999999999999999999", 10)
	require.True(t, ok)
	assert.Zero(t, check.BidQty.Cmp(want))
}

func TestParse_QuoteCheckMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "wrong arity", line: "bbo-1,2,3"},
		{name: "non-numeric value", line: "bbo-1,2,x,4"},
		{name: "missing delimiter", line: "1,bbo,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directives := Parse(tt.line)

			require.Len(t, directives, 1)
			check, ok := directives[0].(QuoteCheck)
			require.True(t, ok)
			assert.NotEmpty(t, check.Malformed)
		})
	}
}

func TestParse_BlankLinesPreserved(t *testing.T) {
	directives := Parse("cancel,1\n\n2,limit,ask,5,100-open,2\n")

	require.Len(t, directives, 4)
	assert.IsType(t, Cancel{}, directives[0])
	assert.IsType(t, Blank{}, directives[1])
	assert.IsType(t, Order{}, directives[2])
	// Trailing newline yields a final blank directive.
	assert.IsType(t, Blank{}, directives[3])
}

func TestParse_DelimiterOnlyLineIsBlank(t *testing.T) {
	directives := Parse("-open,5")

	require.Len(t, directives, 1)
	blank, ok := directives[0].(Blank)
	require.True(t, ok)
	// The full source span is preserved for cursor bookkeeping.
	assert.Equal(t, "-open,5", blank.Source())
}

func TestParse_TrailingDelimiterYieldsEmptyExpect(t *testing.T) {
	directives := Parse("5,limit,bid,10,100-")

	require.Len(t, directives, 1)
	order, ok := directives[0].(Order)
	require.True(t, ok)
	assert.True(t, order.HasExpect)
	assert.Empty(t, order.Expect)
}
