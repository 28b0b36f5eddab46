package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber returns a display number of the form ORD-<unix-ms>-<0..999>.
// Numbers are practically unique only; order_id is the enforced key.
func NewOrderNumber(now time.Time) string {
	return FormatOrderNumber(now, rand.IntN(1000))
}

// FormatOrderNumber builds an order number from a timestamp and a suffix.
func FormatOrderNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), suffix)
}
