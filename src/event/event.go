// Package event models one classified line of a JVM fatal error log. Every
// line becomes an Event holding its kind and raw text; typed views expose
// kind-specific values parsed lazily from the raw line.
package event

import (
	"regexp"
	"strconv"
	"strings"

	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// Event is one classified line. Events are values and never change after
// classification.
type Event struct {
	Kind Kind
	Line string
	// Header is set on the line that opens a multi-line section, as in
	// "Dynamic libraries:" or "/proc/meminfo:".
	Header bool
}

// New returns an event of kind k for line.
func New(k Kind, line string) Event {
	return Event{Kind: k, Line: line}
}

// NewHeader returns an event that opens a section of kind k.
func NewHeader(k Kind, line string) Event {
	return Event{Kind: k, Line: line, Header: true}
}

// Is reports whether e has kind k.
func (e Event) Is(k Kind) bool {
	return e.Kind == k
}

// submatch returns group n of re applied to s, or "".
func submatch(re *regexp.Regexp, s string, n int) string {
	m := re.FindStringSubmatch(s)
	if m == nil || n >= len(m) {
		return ""
	}
	return m[n]
}

func parseInt(s string) opt.Value[int64] {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return opt.None[int64]()
	}
	return opt.Some(n)
}

func parseHex(s string) opt.Value[int64] {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return opt.None[int64]()
	}
	return opt.Some(int64(n))
}

func parseFloat(s string) opt.Value[float64] {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return opt.None[float64]()
	}
	return opt.Some(f)
}

// kilobytes converts a number of kilobytes to bytes.
func kilobytes(s string) opt.Value[int64] {
	n, ok := parseInt(s).Get()
	if !ok {
		return opt.None[int64]()
	}
	return units.ToBytes(n, 'K')
}

// sized converts a number followed by a unit letter to bytes.
func sized(num, unit string) opt.Value[int64] {
	n, ok := parseInt(num).Get()
	if !ok || unit == "" {
		return opt.None[int64]()
	}
	return units.ToBytes(n, unit[0])
}
