package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is the display prefix for amounts.
const Currency = "KSh"

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators and at most three
// fraction digits, e.g. 2500 -> "2,500" and 1234.5 -> "1,234.5".
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v))
}

// Money renders an amount as "KSh 2,500".
func Money(v float64) string {
	return Currency + " " + FormatNumber(v)
}
