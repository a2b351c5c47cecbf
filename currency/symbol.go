package currency

import (
	"math"
	"strconv"
	"strings"
)

// thousandsGroupSize is the number of digits in each group when formatting with thousands separators.
const thousandsGroupSize = 3

// notAvailable is the string returned for unformattable float values (NaN, Inf, overflow).
const notAvailable = "N/A"

// defaultDecimalPlaces is the default number of decimal places for unknown currencies.
const defaultDecimalPlaces = 2

// GetSymbol returns code's display symbol, or code itself if code is
// unknown or has no curated symbol (e.g. "CHF"). The lookup is
// case-sensitive; "usd" will not match "USD".
func GetSymbol(code string) string {
	if c, ok := currencyByCode[code]; ok && c.Symbol != "" {
		return c.Symbol
	}
	return code
}

// FormatAmount renders amount with code's symbol, rounded and
// thousands-separated at code's minor-unit precision (e.g.
// "$1,234.56", "¥1,235" for JPY's 0 decimals). NaN/Inf amounts render
// as "N/A"; negative amounts put the sign before the symbol.
func FormatAmount(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return notAvailable
	}

	decimals := getDecimals(code)
	rounded := roundAmount(amount, decimals)

	// Check for arithmetic overflow after rounding (e.g., math.MaxFloat64 * 100 → +Inf)
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) {
		return notAvailable
	}

	symbol := GetSymbol(code)
	if rounded < 0 {
		formatted := formatWithDecimals(math.Abs(rounded), decimals)
		return "-" + symbol + formatted
	}
	formatted := formatWithDecimals(rounded, decimals)
	return symbol + formatted
}

// FormatAmountNoSymbol is FormatAmount without the leading symbol.
func FormatAmountNoSymbol(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return notAvailable
	}

	decimals := getDecimals(code)
	rounded := roundAmount(amount, decimals)

	// Check for arithmetic overflow after rounding (e.g., math.MaxFloat64 * 100 → +Inf)
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) {
		return notAvailable
	}

	return formatWithDecimals(rounded, decimals)
}

// getDecimals returns the number of decimal places for the given currency code.
func getDecimals(code string) int {
	if c, ok := currencyByCode[code]; ok {
		return c.MinorUnits
	}
	return defaultDecimalPlaces
}

// roundAmount rounds the amount to the given number of decimal places.
// Returns the rounded value, which may be negative zero (-0.0) for small negative inputs.
func roundAmount(amount float64, decimals int) float64 {
	multiplier := math.Pow10(decimals)
	rounded := math.Round(amount*multiplier) / multiplier

	// Normalize negative zero to positive zero
	if rounded == 0 {
		return 0
	}
	return rounded
}

// formatWithDecimals formats a pre-rounded amount with the given decimal places and thousands separators.
func formatWithDecimals(amount float64, decimals int) string {
	formatted := strconv.FormatFloat(amount, 'f', decimals, 64)
	return addThousandsSeparators(formatted)
}

// addThousandsSeparators adds commas as thousands separators to a formatted number string.
func addThousandsSeparators(s string) string {
	// Split into integer and decimal parts
	parts := strings.Split(s, ".")
	intPart := parts[0]

	// Handle negative numbers
	negative := false
	if len(intPart) > 0 && intPart[0] == '-' {
		negative = true
		intPart = intPart[1:]
	}

	// Add commas from right to left
	n := len(intPart)
	if n <= thousandsGroupSize {
		// No separators needed
		if negative {
			intPart = "-" + intPart
		}
		if len(parts) > 1 {
			return intPart + "." + parts[1]
		}
		return intPart
	}

	// Calculate number of commas needed
	numCommas := (n - 1) / thousandsGroupSize

	// Build result with commas (include sign in builder to avoid extra allocation)
	var result strings.Builder
	if negative {
		result.Grow(1 + n + numCommas)
		result.WriteByte('-')
	} else {
		result.Grow(n + numCommas)
	}

	// Add digits with commas
	firstGroupLen := n - (numCommas * thousandsGroupSize)
	result.WriteString(intPart[:firstGroupLen])

	for i := firstGroupLen; i < n; i += thousandsGroupSize {
		result.WriteByte(',')
		result.WriteString(intPart[i : i+thousandsGroupSize])
	}

	s = result.String()

	if len(parts) > 1 {
		return s + "." + parts[1]
	}
	return s
}
