package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is used for delivery dates in customer facing messages
const DateLayout = "Jan 02, 2006"

// FormatMoney renders an amount as dollars with two decimals, e.g. $90.00
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// Pluralize returns "1 item" or "3 items"
func Pluralize(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}

// FormatDate renders t with DateLayout, or "TBD" when t is nil
func FormatDate(t *time.Time) string {
	if t == nil {
		return "TBD"
	}
	return t.Format(DateLayout)
}
