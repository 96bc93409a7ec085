package facts

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
)

var hypervisorPattern = regexp.MustCompile(`^(\w+) virtualization detected`)

// Env returns an environment variable from the report.
func Env(doc *document.Document, name string) (string, bool) {
	for _, e := range doc.Env() {
		if e.Name() == name {
			return e.Value(), true
		}
	}
	return "", false
}

// Hypervisor returns the detected hypervisor, as in KVM or VMWare.
func Hypervisor(doc *document.Document) string {
	for _, e := range doc.Events(event.Virtualization) {
		if m := hypervisorPattern.FindStringSubmatch(e.Line); m != nil {
			return m[1]
		}
	}
	return ""
}

// IsVirtualized reports a run under a hypervisor. Steal tick lines share
// the section but are printed on bare metal too.
func IsVirtualized(doc *document.Document) bool {
	for _, e := range doc.Events(event.Virtualization) {
		if strings.Contains(e.Line, "virtualization detected") {
			return true
		}
	}
	return false
}

// CpuCount returns the number of logical processors: the CPU line, then
// the Host line, then the count of cpuinfo processors.
func CpuCount(doc *document.Document) opt.Value[int64] {
	if e, ok := doc.Singleton(event.Cpu); ok {
		if v := (event.CpuLine{Event: e}).Total(); v.Known() {
			return v
		}
	}
	if e, ok := doc.Singleton(event.Host); ok {
		if v := (event.HostLine{Event: e}).Cores(); v.Known() {
			return v
		}
	}
	n := int64(0)
	for _, e := range doc.Events(event.CpuInfo) {
		if strings.HasPrefix(e.Line, "processor") {
			n++
		}
	}
	if n > 0 {
		return opt.Some(n)
	}
	return opt.None[int64]()
}

// LoadAverage returns the one minute load average.
func LoadAverage(doc *document.Document) opt.Value[float64] {
	e, ok := doc.Singleton(event.LoadAverage)
	if !ok {
		return opt.None[float64]()
	}
	return event.LoadAverageLine{Event: e}.OneMinute()
}

// Rlimit returns the rlimit line.
func Rlimit(doc *document.Document) (event.RlimitLine, bool) {
	e, ok := doc.Singleton(event.Rlimit)
	return event.RlimitLine{Event: e}, ok
}

// RlimitSoft returns the soft limit of resource; bytes for sized
// resources. Unlimited and missing are both unknown.
func RlimitSoft(doc *document.Document, resource string) opt.Value[int64] {
	r, ok := Rlimit(doc)
	if !ok {
		return opt.None[int64]()
	}
	return r.SoftValue(resource)
}

func limit(doc *document.Document, k event.Kind) opt.Value[int64] {
	e, ok := doc.Singleton(k)
	if !ok {
		return opt.None[int64]()
	}
	return event.LimitLine{Event: e}.Value()
}

// ThreadsMax returns /proc/sys/kernel/threads-max.
func ThreadsMax(doc *document.Document) opt.Value[int64] { return limit(doc, event.ThreadsMax) }

// MaxMapCount returns /proc/sys/vm/max_map_count.
func MaxMapCount(doc *document.Document) opt.Value[int64] { return limit(doc, event.MaxMapCount) }

// PidMax returns /proc/sys/kernel/pid_max.
func PidMax(doc *document.Document) opt.Value[int64] { return limit(doc, event.PidMax) }

// OvercommitMode returns /proc/sys/vm/overcommit_memory: 0 heuristic,
// 1 always, 2 strict accounting against CommitLimit.
func OvercommitMode(doc *document.Document) opt.Value[int64] {
	return limit(doc, event.OvercommitMemory)
}

// MappingCount returns the number of memory mappings listed under
// "Dynamic libraries:".
func MappingCount(doc *document.Document) int {
	n := 0
	for _, m := range doc.Libraries() {
		if m.IsMapping() {
			n++
		}
	}
	return n
}

// GlibcVersion returns the glibc version, as in 2.17.
func GlibcVersion(doc *document.Document) string {
	e, ok := doc.Singleton(event.Libc)
	if !ok {
		return ""
	}
	return event.LibcLine{Event: e}.GlibcVersion()
}

// KernelRelease returns the kernel release from uname.
func KernelRelease(doc *document.Document) string {
	e, ok := doc.Singleton(event.Uname)
	if !ok {
		return ""
	}
	return event.UnameLine{Event: e}.Kernel()
}

// systemLibraryDirs hold libraries that ship with the operating system.
var systemLibraryDirs = []string{"/lib/", "/lib64/", "/usr/lib/", "/usr/lib64/", "/usr/lib/x86_64-linux-gnu/", "/usr/lib/aarch64-linux-gnu/"}

// ThirdPartyLibraries returns the file names of mapped native libraries
// that are neither part of the runtime nor of the operating system,
// sorted and without duplicates.
func ThirdPartyLibraries(doc *document.Document) []string {
	home := JavaHome(doc)
	seen := make(map[string]bool)
	for _, m := range doc.Libraries() {
		p := strings.ReplaceAll(m.Path(), "\\", "/")
		if !isSharedLibrary(p) {
			continue
		}
		if home != "" && strings.HasPrefix(p, home+"/") {
			continue
		}
		if isSystemLibrary(p) {
			continue
		}
		seen[m.FileName()] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isSharedLibrary(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".dll") || strings.HasSuffix(lower, ".dylib") ||
		strings.HasSuffix(lower, ".so") || strings.Contains(lower, ".so.")
}

func isSystemLibrary(p string) bool {
	if strings.HasPrefix(p, "/usr/lib/jvm/") {
		return true
	}
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "c:/windows/") {
		return true
	}
	for _, dir := range systemLibraryDirs {
		if strings.HasPrefix(p, dir) && !strings.Contains(strings.TrimPrefix(p, dir), "/") {
			return true
		}
	}
	return false
}

// HasLibrary reports whether a mapped library file name starts with any
// of the prefixes.
func HasLibrary(doc *document.Document, prefixes ...string) (string, bool) {
	for _, m := range doc.Libraries() {
		name := m.FileName()
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return name, true
			}
		}
	}
	return "", false
}

// CrashTime returns the time of the crash from the time line.
func CrashTime(doc *document.Document) (time.Time, bool) {
	e, ok := doc.Singleton(event.Time)
	if !ok {
		return time.Time{}, false
	}
	return event.TimeLine{Event: e}.Time()
}

// Elapsed returns the JVM uptime at the crash in seconds.
func Elapsed(doc *document.Document) opt.Value[float64] {
	if e, ok := doc.Singleton(event.ElapsedTime); ok {
		if v := (event.ElapsedLine{Event: e}).Seconds(); v.Known() {
			return v
		}
	}
	if e, ok := doc.Singleton(event.Time); ok {
		return event.TimeLine{Event: e}.Elapsed()
	}
	return opt.None[float64]()
}

// IsTruncated reports a log without the END. marker.
func IsTruncated(doc *document.Document) bool {
	return !doc.Has(event.End)
}

// DaysBetween returns whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
