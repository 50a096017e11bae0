package library

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Year is an integer coerced from free text. Text that does not start with a
// number yields a not-a-number Year, which is still a valid value to send.
type Year struct {
	value int
	ok    bool
}

// YearOf wraps a known integer.
func YearOf(v int) Year { return Year{value: v, ok: true} }

// NaN is the not-a-number Year.
func NaN() Year { return Year{} }

// ParseYear reads a leading integer the way a lenient form does: leading
// whitespace is skipped, an optional sign is accepted, a 0x prefix switches to
// hex, and parsing stops at the first character that is not a digit.
// "1965" -> 1965, " 42abc" -> 42, "" -> NaN, "abc" -> NaN. Digits beyond the
// int range clamp to math.MaxInt (or its negation).
func ParseYear(s string) Year {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return NaN()
	}
	// too many digits saturate at the int range
	v, err := strconv.ParseInt(s[:end], base, strconv.IntSize)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return NaN()
	}
	if neg {
		v = -v
	}
	return YearOf(int(v))
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// Int returns the value and whether it is a number.
func (y Year) Int() (int, bool) { return y.value, y.ok }

// IsNaN reports whether the year failed to parse.
func (y Year) IsNaN() bool { return !y.ok }

func (y Year) String() string {
	if !y.ok {
		return "NaN"
	}
	return itoa(y.value)
}

// MarshalJSON encodes NaN as null, like a JSON encoder does for a NaN number.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.value)), nil
}

// UnmarshalJSON accepts an integer or null.
func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*y = NaN()
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*y = YearOf(v)
	return nil
}

func itoa(v int) string { return strconv.Itoa(v) }
