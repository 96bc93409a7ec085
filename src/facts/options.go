package facts

import (
	"strconv"
	"strings"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// optionEnvVars are read by the launcher and prepended to the command line.
var optionEnvVars = []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"}

// Options returns the flattened runtime options: the option environment
// variables followed by jvm_args, or the Command Line when jvm_args is
// missing.
func Options(doc *document.Document) string {
	var parts []string
	for _, name := range optionEnvVars {
		if v, ok := Env(doc, name); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	args := ""
	for _, a := range doc.Arguments() {
		if a.Field() == "jvm_args" {
			args = a.Value()
			break
		}
	}
	if args == "" {
		if e, ok := doc.Singleton(event.CommandLine); ok {
			args = commandLineOptions(event.CommandLineLine{Event: e}.Value())
		}
	}
	if args != "" {
		parts = append(parts, args)
	}
	return strings.Join(parts, " ")
}

// commandLineOptions keeps the leading options of a command line, dropping
// the main class or -jar target and its arguments.
func commandLineOptions(cmd string) string {
	var out []string
	fields := strings.Fields(cmd)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if !strings.HasPrefix(f, "-") {
			break
		}
		if f == "-jar" || f == "-m" || f == "--module" {
			break
		}
		out = append(out, f)
		if (f == "-cp" || f == "-classpath" || f == "--class-path" || f == "-p" || f == "--module-path") && i+1 < len(fields) {
			i++
		}
	}
	return strings.Join(out, " ")
}

// OptionList returns the runtime options in order.
func OptionList(doc *document.Document) []string {
	return strings.Fields(Options(doc))
}

// OptionValue returns the text after prefix of the last option starting
// with prefix, as in OptionValue(doc, "-Xmx") returning "4g". The JVM
// honours the last occurrence.
func OptionValue(doc *document.Document, prefix string) (string, bool) {
	return lastValue(OptionList(doc), prefix)
}

func lastValue(options []string, prefix string) (string, bool) {
	for i := len(options) - 1; i >= 0; i-- {
		if strings.HasPrefix(options[i], prefix) {
			return strings.TrimPrefix(options[i], prefix), true
		}
	}
	return "", false
}

// OptionSize returns the size of the last option starting with prefix in
// bytes, as in OptionSize(doc, "-Xss") for -Xss512k.
func OptionSize(doc *document.Document, prefix string) opt.Value[int64] {
	v, ok := OptionValue(doc, prefix)
	if !ok {
		return opt.None[int64]()
	}
	return units.ParseSize(v)
}

// BoolOption returns the value of -XX:+name / -XX:-name, last one wins.
func BoolOption(doc *document.Document, name string) (value, set bool) {
	options := OptionList(doc)
	for i := len(options) - 1; i >= 0; i-- {
		switch options[i] {
		case "-XX:+" + name:
			return true, true
		case "-XX:-" + name:
			return false, true
		}
	}
	return false, false
}

// HasOption reports whether any option starts with prefix.
func HasOption(doc *document.Document, prefix string) bool {
	_, ok := OptionValue(doc, prefix)
	return ok
}

// Flag returns the [Global flags] entry for name.
func Flag(doc *document.Document, name string) (event.Flag, bool) {
	for _, f := range doc.Flags() {
		if f.Name() == name {
			return f, true
		}
	}
	return event.Flag{}, false
}

// FlagInt returns an integer global flag.
func FlagInt(doc *document.Document, name string) opt.Value[int64] {
	f, ok := Flag(doc, name)
	if !ok {
		return opt.None[int64]()
	}
	return f.Int()
}

// FlagBool returns a bool global flag.
func FlagBool(doc *document.Document, name string) (value, ok bool) {
	f, found := Flag(doc, name)
	if !found {
		return false, false
	}
	return f.Bool()
}

// Enabled resolves a boolean JVM setting: the global flag when printed,
// otherwise the command line option, otherwise def.
func Enabled(doc *document.Document, name string, def bool) bool {
	if v, ok := FlagBool(doc, name); ok {
		return v
	}
	if v, ok := BoolOption(doc, name); ok {
		return v
	}
	return def
}

// xxSize returns the size of -XX:name=value.
func xxSize(doc *document.Document, name string) opt.Value[int64] {
	return OptionSize(doc, "-XX:"+name+"=")
}

// Agents returns the -javaagent, -agentlib and -agentpath targets.
func Agents(doc *document.Document) []string {
	var agents []string
	for _, o := range OptionList(doc) {
		for _, prefix := range []string{"-javaagent:", "-agentlib:", "-agentpath:"} {
			if !strings.HasPrefix(o, prefix) {
				continue
			}
			target := strings.TrimPrefix(o, prefix)
			if i := strings.IndexAny(target, "=,"); i >= 0 {
				target = target[:i]
			}
			agents = append(agents, target)
		}
	}
	return agents
}

// xxInt returns an integer setting from the global flag or -XX:name=value.
func xxInt(doc *document.Document, name string) opt.Value[int64] {
	if v := FlagInt(doc, name); v.Known() {
		return v
	}
	v, ok := OptionValue(doc, "-XX:"+name+"=")
	if !ok {
		return opt.None[int64]()
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return opt.None[int64]()
	}
	return opt.Some(n)
}

func parsePercent(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
