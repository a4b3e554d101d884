// Package money formats dollar figures and rates for reports and narratives.
package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// USD rounds to whole dollars and groups thousands: 1234567.5 → "$1,234,568".
func USD(v float64) string {
	return withDollar(GroupDigits(decimal.NewFromFloat(v).Round(0).StringFixed(0)))
}

// USDCents keeps two places; used for per-square-foot figures.
func USDCents(v float64) string {
	return withDollar(GroupDigits(decimal.NewFromFloat(v).StringFixed(2)))
}

// Percent renders a signed percentage with one decimal place.
func Percent(v float64) string {
	d := decimal.NewFromFloat(v).Round(1)
	s := d.StringFixed(1) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// Rate renders a fraction as a whole percentage: 0.1375 → "14%".
func Rate(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

func Int(n int) string {
	return GroupDigits(strconv.Itoa(n))
}

func withDollar(s string) string {
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// GroupDigits inserts thousands separators into a plain decimal string,
// keeping any sign and fractional part.
func GroupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i:]
	}
	if len(s) <= 3 {
		return sign + s + frac
	}
	var b strings.Builder
	rem := len(s) % 3
	if rem > 0 {
		b.WriteString(s[:rem])
	}
	for i := rem; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String() + frac
}
