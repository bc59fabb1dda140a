package counter

import "math"

// ParseBound converts s to a bound with atoi semantics.
//
// Leading whitespace is skipped, an optional sign is accepted and the
// longest run of decimal digits is consumed. Anything after the digits is
// ignored. Input without digits yields 0. Values outside the int32 range
// saturate at math.MaxInt32 or math.MinInt32.
func ParseBound(s string) int32 {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32+1 {
			// Past every representable value; keep consuming digits without growing.
			n = math.MaxInt32 + 1
		}
	}

	if negative {
		n = -n
	}

	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	default:
		return int32(n)
	}
}

// isSpace reports whether c is whitespace in the C locale.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
