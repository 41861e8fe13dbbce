package utils

import (
	"fmt"
	"math"
	"strings"
)

// RoundMoney rounds to two decimals, the precision of every amount column.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatAmount renders amount with thousands separators and the outlet
// currency code, e.g. "USD 1,250.50".
func FormatAmount(currency string, amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	formatted := fmt.Sprintf("%.2f", RoundMoney(amount))
	parts := strings.Split(formatted, ".")
	integerPart, decimalPart := parts[0], parts[1]

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := strings.Join(groups, ",") + "." + decimalPart
	if negative {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}
