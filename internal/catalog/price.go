package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// priceRunPattern captures the first run of digits and periods after the
// input has been normalized from European notation.
var priceRunPattern = regexp.MustCompile(`[\d.]+`)

// ParsePrice extracts a numeric value from a free-text price string.
// Input is assumed to use European notation: periods are thousands
// separators and the comma is the decimal mark, so "1.234,56" yields
// 1234.56 and "€ 45,90" yields 45.90. Returns nil when no digits are
// present or the candidate run does not parse as a number.
func ParsePrice(text string) *float64 {
	normalized := strings.ReplaceAll(text, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	run := priceRunPattern.FindString(normalized)
	if run == "" {
		return nil
	}
	value, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return nil
	}
	return &value
}

// FormatPrice renders a parsed value back into the display form used across
// the catalog, e.g. "€45.90".
func FormatPrice(value float64) string {
	return fmt.Sprintf("€%.2f", value)
}
