// Package classify assigns every line of a JVM fatal error log to exactly
// one event kind.
package classify

import (
	"fmt"
	"strings"

	"hserr-agent/src/event"
)

var rules = table()

func init() {
	if err := checkCoverage(rules); err != nil {
		panic(err)
	}
}

// checkCoverage fails when a kind has no rule that can produce it.
func checkCoverage(rs []rule) error {
	covered := make(map[event.Kind]bool)
	for _, r := range rs {
		covered[r.kind] = true
	}
	var missing []string
	for _, k := range event.Kinds() {
		if !covered[k] {
			missing = append(missing, k.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("classify: kinds without a pattern: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Classify returns the event for line given the event of the line before
// it. The zero Event stands for "no previous line". Classify is total: a
// line that matches no rule becomes an event.Unknown event.
func Classify(line string, prev event.Event) event.Event {
	text := strings.TrimRight(line, "\r")
	for _, r := range rules {
		if r.match(text, prev) {
			return event.Event{Kind: r.kind, Line: line, Header: r.title(text)}
		}
	}
	return event.New(event.Unknown, line)
}

// Order returns the distinct kinds in the order their first rule is tried.
func Order() []event.Kind {
	seen := make(map[event.Kind]bool)
	var order []event.Kind
	for _, r := range rules {
		if !seen[r.kind] {
			seen[r.kind] = true
			order = append(order, r.kind)
		}
	}
	return order
}
