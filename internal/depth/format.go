package depth

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the single process-wide numeric formatter. Formatting is keyed
// only by locale; there is no other invalidation condition, so an explicit
// package-level printer replaces any implicit caching.
var printer = message.NewPrinter(language.English)

// formatAmount renders an integer with locale digit grouping ("1,234,567").
func formatAmount(v uint64) string {
	return printer.Sprintf("%d", v)
}
