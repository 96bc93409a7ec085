// Package options reviews JVM runtime options. The crash analyzer hands it
// the flattened option string with a few facts about the runtime and host,
// and merges the returned diagnostics into its own list.
package options

import (
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/opt"
)

// Bundle is the input of an options review.
type Bundle struct {
	// Options is the flattened option string, environment options first.
	Options string
	// JavaMajor and JavaUpdate identify the runtime, as in 11 and 20.
	JavaMajor  opt.Value[int]
	JavaUpdate opt.Value[int]
	// Collectors are the garbage collectors reported by the crash log.
	Collectors []string
	// Container is set when the JVM ran inside a container.
	Container bool
	// OS is the operating system family.
	OS string
	// Bits is the addressing width, 32 or 64.
	Bits opt.Value[int]
	// TotalMemory is the memory available to the process in bytes.
	TotalMemory opt.Value[int64]
}

// Analyzer reviews a bundle of runtime options.
type Analyzer interface {
	Analyze(b Bundle) []analysis.Diagnostic
}

// Option is one parsed runtime option.
type Option struct {
	Raw string
	// Key identifies the setting: "-Xmx", "-Dname" or the -XX flag name.
	Key string
	// Value is the text after the key, "+" or "-" for -XX boolean flags.
	Value string
}

// Parse splits a flattened option string into options in order.
func Parse(options string) []Option {
	var out []Option
	for _, f := range strings.Fields(options) {
		out = append(out, parseOne(f))
	}
	return out
}

var sizePrefixes = []string{"-Xmx", "-Xms", "-Xmn", "-Xss"}

func parseOne(raw string) Option {
	o := Option{Raw: raw, Key: raw}
	switch {
	case strings.HasPrefix(raw, "-XX:+"), strings.HasPrefix(raw, "-XX:-"):
		o.Key = raw[5:]
		o.Value = raw[4:5]
	case strings.HasPrefix(raw, "-XX:"):
		name, value, _ := strings.Cut(raw[4:], "=")
		o.Key = name
		o.Value = value
	case strings.HasPrefix(raw, "-D"):
		name, value, _ := strings.Cut(raw, "=")
		o.Key = name
		o.Value = value
	default:
		for _, p := range sizePrefixes {
			if strings.HasPrefix(raw, p) {
				o.Key = p
				o.Value = strings.TrimPrefix(raw, p)
				break
			}
		}
	}
	return o
}

// Last returns the last option with key.
func Last(opts []Option, key string) (Option, bool) {
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i].Key == key {
			return opts[i], true
		}
	}
	return Option{}, false
}

// Enabled reports whether the last -XX:+key / -XX:-key turns the flag on,
// and whether it is set at all.
func Enabled(opts []Option, key string) (on, set bool) {
	o, ok := Last(opts, key)
	if !ok || (o.Value != "+" && o.Value != "-") {
		return false, false
	}
	return o.Value == "+", true
}
