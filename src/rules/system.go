package rules

import (
	"fmt"
	"strconv"
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/facts"
	"hserr-agent/src/units"
)

// System thresholds.
const (
	minThreadStack     = 256 * units.K
	highThreadCount    = 2000
	nprocUsagePercent  = 80
	minNofile          = 4096
	minGlibcMinor      = 17
	glibcRequiredSince = 11
)

func threadStack(c *Context) []Candidate {
	if v := facts.ThreadStackSize(c.Doc); v.LtV(minThreadStack) {
		return emit(analysis.ThreadStackSmall, size(v))
	}
	return nil
}

func threadCount(c *Context) []Candidate {
	if n := facts.ThreadCount(c.Doc); n > highThreadCount {
		return emit(analysis.ThreadCountHigh, n)
	}
	return nil
}

func threadRlimits(c *Context) []Candidate {
	var out []Candidate
	n := facts.ThreadCount(c.Doc)
	if nproc, ok := facts.RlimitSoft(c.Doc, "NPROC").Get(); ok && n > 0 && int64(n)*100 >= nproc*nprocUsagePercent {
		out = append(out, emit(analysis.ThreadNprocLow, nproc, n)...)
	}
	if r, ok := facts.Rlimit(c.Doc); ok && r.IsUnlimited("STACK") {
		out = append(out, emit(analysis.ThreadStackRlimit)...)
	}
	return out
}

func osContainer(c *Context) []Candidate {
	if !facts.IsContainer(c.Doc) {
		return nil
	}
	kind := facts.ContainerType(c.Doc)
	if kind == "" {
		kind = "cgroup type unknown"
	}
	limit := "unlimited"
	if l := facts.ContainerMemoryLimit(c.Doc); l.Known() {
		limit = size(l)
	}
	return emit(analysis.OsContainer, kind, limit)
}

func osVirtualization(c *Context) []Candidate {
	if h := facts.Hypervisor(c.Doc); h != "" {
		return emit(analysis.OsVirtualized, h)
	}
	return nil
}

// glibcMinor returns the minor version of a 2.x glibc.
func glibcMinor(version string) (int, bool) {
	major, minor, ok := strings.Cut(version, ".")
	if !ok || major != "2" {
		return 0, false
	}
	n, err := strconv.Atoi(minor)
	return n, err == nil
}

func osGlibc(c *Context) []Candidate {
	if !c.MajorKnown || c.Major < glibcRequiredSince {
		return nil
	}
	v := facts.GlibcVersion(c.Doc)
	if minor, ok := glibcMinor(v); ok && minor < minGlibcMinor {
		return emit(analysis.OsGlibcOld, v, c.Major)
	}
	return nil
}

func osCoreDump(c *Context) []Candidate {
	if facts.CoreDumpDisabled(c.Doc) {
		return emit(analysis.OsCoreDumpDisabled)
	}
	if loc := facts.CoreDumpLocation(c.Doc); loc != "" {
		return emit(analysis.OsCoreDumpWritten, loc)
	}
	return nil
}

func osLoad(c *Context) []Candidate {
	load, ok := facts.LoadAverage(c.Doc).Get()
	cpus := facts.ContainerCpuLimit(c.Doc).Or(facts.CpuCount(c.Doc))
	n, known := cpus.Get()
	if ok && known && n > 0 && load > float64(n) {
		return emit(analysis.OsLoadHigh, load, n)
	}
	return nil
}

func osNofile(c *Context) []Candidate {
	if v, ok := facts.RlimitSoft(c.Doc, "NOFILE").Get(); ok && v < minNofile {
		return emit(analysis.OsNofileLow, v)
	}
	return nil
}

// knownLibraries are native libraries often found in crashing processes.
var knownLibraries = []struct {
	prefix string
	name   string
}{
	{"libnetty_transport_native_epoll", "Netty native epoll transport"},
	{"libnetty_tcnative", "Netty tcnative"},
	{"libjnidispatch", "JNA"},
	{"libsqlitejdbc", "sqlite-jdbc"},
	{"librocksdbjni", "RocksDB JNI"},
	{"libzstd-jni", "zstd-jni"},
	{"libsnappyjava", "snappy-java"},
	{"liblz4-java", "lz4-java"},
	{"libjffi", "JFFI"},
	{"libyjpagent", "YourKit profiler agent"},
	{"libjprofilerti", "JProfiler agent"},
	{"liboneagent", "Dynatrace OneAgent"},
	{"libasyncProfiler", "async-profiler"},
}

func nativeLibraries(c *Context) []Candidate {
	var out []Candidate
	if libs := facts.ThirdPartyLibraries(c.Doc); len(libs) > 0 {
		out = append(out, emit(analysis.NativeThirdParty, strings.Join(libs, ", "))...)
	}
	for _, k := range knownLibraries {
		if name, ok := facts.HasLibrary(c.Doc, k.prefix); ok {
			out = append(out, Candidate{Code: analysis.NativeKnownLibrary, Args: []any{k.name, name}})
		}
	}
	return out
}

func nativeAgents(c *Context) []Candidate {
	agents := facts.Agents(c.Doc)
	if len(agents) == 0 {
		return nil
	}
	out := emit(analysis.NativeAgents, strings.Join(agents, ", "))
	for _, a := range agents {
		if a == "jdwp" || strings.Contains(a, "libjdwp") {
			out = append(out, emit(analysis.NativeDebugger)...)
			break
		}
	}
	return out
}

var oomCounters = []string{"java_heap_errors", "metaspace_errors", "class_metaspace_errors"}

func exceptionCounts(c *Context) []Candidate {
	var out []Candidate
	if n, ok := facts.ExceptionCount(c.Doc, "StackOverflowErrors").Get(); ok && n > 0 {
		out = append(out, emit(analysis.ExceptionStackOverflow, n)...)
	}
	var thrown []string
	for _, name := range oomCounters {
		if n, ok := facts.ExceptionCount(c.Doc, name).Get(); ok && n > 0 {
			thrown = append(thrown, fmt.Sprintf("%s=%d", name, n))
		}
	}
	if len(thrown) > 0 {
		out = append(out, emit(analysis.ExceptionOutOfMemory, strings.Join(thrown, ", "))...)
	}
	if n, ok := facts.ExceptionCount(c.Doc, "LinkageErrors").Get(); ok && n > 0 {
		out = append(out, emit(analysis.ExceptionLinkage, n)...)
	}
	return out
}

// heapDumpPath returns where -XX:+HeapDumpOnOutOfMemoryError writes: the
// HeapDumpPath file, or java_pid<pid>.hprof in that directory or in the
// working directory.
func heapDumpPath(c *Context) string {
	file := "java_pid<pid>.hprof"
	if pid, ok := facts.Pid(c.Doc).Get(); ok {
		file = fmt.Sprintf("java_pid%d.hprof", pid)
	}
	dir, ok := facts.OptionValue(c.Doc, "-XX:HeapDumpPath=")
	if !ok {
		if f, found := facts.Flag(c.Doc, "HeapDumpPath"); found {
			dir, ok = f.Value(), f.Value() != ""
		}
	}
	switch {
	case !ok || dir == "":
		return "the working directory as " + file
	case strings.HasSuffix(dir, ".hprof"):
		return dir
	case strings.HasSuffix(dir, "/"), strings.HasSuffix(dir, "\\"):
		return dir + file
	}
	return dir + "/" + file
}

func optsHeapDump(c *Context) []Candidate {
	var out []Candidate
	oom := facts.OutOfMemoryDetail(c.Doc) != ""
	for _, name := range oomCounters {
		if facts.ExceptionCount(c.Doc, name).GtV(0) {
			oom = true
		}
	}
	if facts.Enabled(c.Doc, "HeapDumpOnOutOfMemoryError", false) {
		out = append(out, emit(analysis.OptsHeapDumpPath, heapDumpPath(c))...)
	} else if oom && !c.Truncated {
		out = append(out, emit(analysis.OptsNoHeapDump)...)
	}
	if facts.OutOfMemoryDetail(c.Doc) != "" && facts.Enabled(c.Doc, "CrashOnOutOfMemoryError", false) {
		out = append(out, emit(analysis.OptsExitOnOom)...)
	}
	return out
}

func logTruncated(c *Context) []Candidate {
	if c.Doc.Total() > 0 && c.Truncated {
		return emit(analysis.LogTruncated)
	}
	return nil
}

func logUnidentified(c *Context) []Candidate {
	if n := len(c.Doc.Unidentified()); n > 0 {
		return emit(analysis.LogUnidentified, n)
	}
	return nil
}
