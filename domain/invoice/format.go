package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
}

// FormatAmount renders an amount with thousands separators and two decimals,
// prefixed by the currency symbol when known or the code otherwise.
// e.g., 1234.5 USD -> "$1,234.50", 99 CHF -> "CHF 99.00"
func FormatAmount(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	prefix, ok := currencySymbols[code]
	if !ok && code != "" {
		prefix = code + " "
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := RoundCents(d).StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + prefix + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
