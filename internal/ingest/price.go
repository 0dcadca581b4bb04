package ingest

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice reads a price such as "$4.99", "1 200,50 ₽", or "1,234.5".
// Whitespace and currency symbols are dropped.  When both ',' and '.'
// appear, the one seen first is the thousands separator; a lone ',' is the
// decimal separator.  What remains must be digits with at most one '.';
// anything else, including signs, exponents, and hex forms, is absent.
func ParsePrice(text string) *float64 {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, text)
	if s == "" {
		return nil
	}

	comma, dot := strings.IndexByte(s, ','), strings.IndexByte(s, '.')
	if comma >= 0 && dot >= 0 {
		if comma < dot {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainDecimal(s) {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// plainDecimal reports whether s is digits with at most one '.', and at
// least one digit.
func plainDecimal(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseRisk accepts only a run of ASCII digits after trimming.  Values that
// do not fit the 32-bit risk column are absent.
func ParseRisk(text string) *int {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil
		}
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil
	}
	r := int(v)
	return &r
}
