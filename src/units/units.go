// Package units converts size strings found in crash reports and JVM
// options to bytes.
package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"hserr-agent/src/opt"
)

// Size units.
const (
	K int64 = 1024
	M       = 1024 * K
	G       = 1024 * M
	T       = 1024 * G
)

// multipliers maps a unit letter (either case) to its byte multiplier.
var multipliers = map[byte]int64{
	'b': 1,
	'k': K,
	'm': M,
	'g': G,
	't': T,
}

var sizePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([bBkKmMgGtT])?(?:[bB]|iB)?\s*$`)

// Multiplier returns the byte multiplier for a unit letter.
func Multiplier(unit byte) (int64, bool) {
	m, ok := multipliers[unit|0x20]
	return m, ok
}

// ToBytes converts value expressed in unit to bytes.
func ToBytes(value int64, unit byte) opt.Value[int64] {
	m, ok := Multiplier(unit)
	if !ok {
		return opt.None[int64]()
	}
	if value > math.MaxInt64/m {
		return opt.None[int64]()
	}
	return opt.Some(value * m)
}

// ParseSize parses sizes such as "4g", "1024K", "2048 kB", "16M", "512" and
// "1.5G". A bare number is bytes.
func ParseSize(s string) opt.Value[int64] {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return opt.None[int64]()
	}
	unit := byte('b')
	if m[2] != "" {
		unit = m[2][0]
	}
	if strings.Contains(m[1], ".") {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return opt.None[int64]()
		}
		mult, _ := Multiplier(unit)
		return opt.Some(int64(f * float64(mult)))
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return opt.None[int64]()
	}
	return ToBytes(n, unit)
}

// ParseWithDefaultUnit parses a size whose bare numbers use unit instead of
// bytes, as in ThreadStackSize=1024 (kilobytes).
func ParseWithDefaultUnit(s string, unit byte) opt.Value[int64] {
	s = strings.TrimSpace(s)
	if s == "" {
		return opt.None[int64]()
	}
	last := s[len(s)-1]
	if last >= '0' && last <= '9' {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return opt.None[int64]()
		}
		return ToBytes(n, unit)
	}
	return ParseSize(s)
}

// Format renders bytes using the largest unit that divides evenly, falling
// back to one decimal place in the largest unit below the value. Negative
// values, such as an overdrawn commit charge, scale the same way.
func Format(bytes int64) string {
	if bytes < 0 && bytes != math.MinInt64 {
		return "-" + Format(-bytes)
	}
	switch {
	case bytes >= G && bytes%G == 0:
		return fmt.Sprintf("%dG", bytes/G)
	case bytes >= G:
		return fmt.Sprintf("%.1fG", float64(bytes)/float64(G))
	case bytes >= M && bytes%M == 0:
		return fmt.Sprintf("%dM", bytes/M)
	case bytes >= M:
		return fmt.Sprintf("%.1fM", float64(bytes)/float64(M))
	case bytes >= K && bytes%K == 0:
		return fmt.Sprintf("%dK", bytes/K)
	case bytes >= K:
		return fmt.Sprintf("%.1fK", float64(bytes)/float64(K))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// FormatOpt renders a possibly unknown size.
func FormatOpt(v opt.Value[int64]) string {
	b, ok := v.Get()
	if !ok {
		return "unknown"
	}
	return Format(b)
}
