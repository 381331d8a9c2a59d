package table

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric cell, auto-detecting the decimal separator.
// "1,234", "1.234,5", "12.0" and "7 %" are all accepted.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if IsNull(raw) {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)

	var dec rune = '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec = ','
	case cpos >= 0 && dpos < 0:
		// A lone comma followed by exactly three digits is a thousands separator.
		if len(raw)-cpos-1 != 3 || strings.Count(raw, ",") > 1 && !thousandsGrouped(raw, ',') {
			dec = ','
		}
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// thousandsGrouped reports whether every group after the first has three digits.
func thousandsGrouped(s string, sep rune) bool {
	parts := strings.Split(s, string(sep))
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
