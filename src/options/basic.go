package options

import (
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// MinThreadStack is the smallest -Xss not reported as too small.
const MinThreadStack = 256 * units.K

// Max32BitHeap is the largest heap that leaves a 32-bit process room for
// native memory.
const Max32BitHeap = 1536 * units.M

// lifecycle records the Java release that deprecated and removed a flag.
// Zero means never.
type lifecycle struct {
	flag       string
	deprecated int
	removed    int
}

var lifecycles = []lifecycle{
	{"UseConcMarkSweepGC", 9, 14},
	{"CMSIncrementalMode", 0, 9},
	{"CMSClassUnloadingEnabled", 0, 14},
	{"PermSize", 0, 8},
	{"MaxPermSize", 0, 8},
	{"UseSplitVerifier", 0, 8},
	{"PrintGCDetails", 9, 0},
	{"PrintGCDateStamps", 0, 9},
	{"PrintGCTimeStamps", 0, 9},
	{"TraceClassLoading", 9, 0},
	{"UseParNewGC", 9, 10},
	{"MaxRAMFraction", 10, 0},
	{"MinRAMFraction", 10, 0},
	{"InitialRAMFraction", 10, 0},
	{"UseCGroupMemoryLimitForHeap", 10, 11},
	{"AggressiveOpts", 11, 12},
	{"UseParallelOldGC", 14, 15},
	{"UseBiasedLocking", 15, 18},
}

var gcSelectors = []string{
	"UseSerialGC",
	"UseParallelGC",
	"UseConcMarkSweepGC",
	"UseG1GC",
	"UseShenandoahGC",
	"UseZGC",
	"UseEpsilonGC",
}

var unlockFlags = []string{
	"UnlockDiagnosticVMOptions",
	"UnlockExperimentalVMOptions",
}

// Basic is the built-in options analyzer.
type Basic struct{}

// NewBasic creates the built-in analyzer.
func NewBasic() *Basic {
	return &Basic{}
}

// Analyze reviews b. The result order is fixed: stack size, lifecycle
// findings in option order, duplicates, collectors, heap sizing, container
// support, unlocked options.
func (Basic) Analyze(b Bundle) []analysis.Diagnostic {
	opts := Parse(b.Options)
	var out []analysis.Diagnostic

	if xss, text := threadStack(opts); xss.Lt(opt.Some(MinThreadStack)) {
		out = append(out, analysis.New(analysis.OptsXssSmall, text, units.Format(MinThreadStack)))
	}

	out = append(out, lifecycleFindings(opts, b.JavaMajor)...)
	out = append(out, duplicates(opts)...)

	var selected []string
	for _, gc := range gcSelectors {
		if on, _ := Enabled(opts, gc); on {
			selected = append(selected, "-XX:+"+gc)
		}
	}
	if len(selected) > 1 {
		out = append(out, analysis.New(analysis.OptsGcConflict, strings.Join(selected, ", ")))
	}

	xmx := sizeOf(opts, "-Xmx", "MaxHeapSize")
	xms := sizeOf(opts, "-Xms", "InitialHeapSize")
	if xms.Gt(xmx) {
		out = append(out, analysis.New(analysis.OptsXmsGreaterXmx, units.FormatOpt(xms), units.FormatOpt(xmx)))
	}
	if xmx.Gt(b.TotalMemory) {
		out = append(out, analysis.New(analysis.OptsHeapExceedsMemory, units.FormatOpt(xmx), units.FormatOpt(b.TotalMemory)))
	}
	if b.Bits.Eq(opt.Some(32)) && xmx.Gt(opt.Some(Max32BitHeap)) {
		out = append(out, analysis.New(analysis.OptsLargeHeap32, units.FormatOpt(xmx)))
	}

	if on, set := Enabled(opts, "UseContainerSupport"); b.Container && set && !on {
		out = append(out, analysis.New(analysis.OptsContainerSupport))
	}

	var unlocked []string
	for _, f := range unlockFlags {
		if on, _ := Enabled(opts, f); on {
			unlocked = append(unlocked, "-XX:+"+f)
		}
	}
	if len(unlocked) > 0 {
		out = append(out, analysis.New(analysis.OptsUnlocked, strings.Join(unlocked, ", ")))
	}
	return out
}

// threadStack returns the last -Xss or -XX:ThreadStackSize (kilobytes when
// bare) in bytes, with the text to show.
func threadStack(opts []Option) (opt.Value[int64], string) {
	for i := len(opts) - 1; i >= 0; i-- {
		switch opts[i].Key {
		case "-Xss":
			return units.ParseSize(opts[i].Value), opts[i].Value
		case "ThreadStackSize":
			v := units.ParseWithDefaultUnit(opts[i].Value, 'k')
			return v, units.FormatOpt(v)
		}
	}
	return opt.None[int64](), ""
}

func sizeOf(opts []Option, short, long string) opt.Value[int64] {
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i].Key == short || opts[i].Key == long {
			return units.ParseSize(opts[i].Value)
		}
	}
	return opt.None[int64]()
}

func lifecycleFindings(opts []Option, major opt.Value[int]) []analysis.Diagnostic {
	m, ok := major.Get()
	if !ok {
		return nil
	}
	var out []analysis.Diagnostic
	seen := make(map[string]bool)
	for _, o := range opts {
		if seen[o.Key] || !strings.HasPrefix(o.Raw, "-XX:") {
			continue
		}
		for _, l := range lifecycles {
			if l.flag != o.Key {
				continue
			}
			seen[o.Key] = true
			switch {
			case l.removed > 0 && m >= l.removed:
				out = append(out, analysis.New(analysis.OptsRemoved, o.Raw, l.removed))
			case l.deprecated > 0 && m >= l.deprecated:
				out = append(out, analysis.New(analysis.OptsDeprecated, o.Raw, l.deprecated))
			}
		}
	}
	return out
}

// duplicates reports settings given more than once with different values.
func duplicates(opts []Option) []analysis.Diagnostic {
	var order []string
	values := make(map[string][]string)
	for _, o := range opts {
		if o.Key == o.Raw && !strings.HasPrefix(o.Raw, "-XX:") {
			continue
		}
		if _, ok := values[o.Key]; !ok {
			order = append(order, o.Key)
		}
		values[o.Key] = append(values[o.Key], o.Value)
	}
	var out []analysis.Diagnostic
	for _, k := range order {
		vs := values[k]
		if len(vs) < 2 || allEqual(vs) {
			continue
		}
		out = append(out, analysis.New(analysis.OptsDuplicate, k, len(vs), vs[len(vs)-1]))
	}
	return out
}

func allEqual(vs []string) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}
