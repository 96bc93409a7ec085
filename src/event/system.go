package event

import (
	"regexp"
	"strings"
	"time"

	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

var (
	osPattern          = regexp.MustCompile(`^OS:\s*(.*)$`)
	hostPattern        = regexp.MustCompile(`^Host: (.*?),\s*(\d+) cores?,\s*(\d+[KMGT]),\s*(.*)$`)
	unamePattern       = regexp.MustCompile(`^uname:\s*(\S+)\s+(\S+)`)
	libcPattern        = regexp.MustCompile(`^libc:\s*glibc (\d+\.\d+)`)
	rlimitEntryPattern = regexp.MustCompile(`\b(STACK|CORE|NPROC|NOFILE|AS|CPU|DATA|FSIZE|MEMLOCK|RSS) ([^,/\s]+)(?:/([^,\s]+))?`)
	loadAvgPattern     = regexp.MustCompile(`^load average:\s*([\d.]+)\s+([\d.]+)\s+([\d.]+)`)
	cpuPattern         = regexp.MustCompile(`^CPU:\s*total (\d+)(?: \(initial active (\d+)\))?(?: \((\d+) cores per cpu, (\d+) threads per core\))?`)
	vmInfoPattern      = regexp.MustCompile(`^vm_info: (.*?) \(([^)]+)\) for (\S+) JRE (?:\(([^)]*Zulu[^)]*)\) )?\(([^)]+)\), built on (.+?) by "?([^"\s]+)"? with (.+)$`)
	timePattern        = regexp.MustCompile(`^[Tt]ime: (\w{3} \w{3}\s+\d+ \d{2}:\d{2}:\d{2} \d{4})`)
	elapsedPattern     = regexp.MustCompile(`elapsed time: (\d+(?:\.\d+)?) seconds`)
	trailingIntPattern = regexp.MustCompile(`(\d+)\s*$`)
	thpModePattern     = regexp.MustCompile(`\[(\w+(?:\+\w+)?)\]`)
	sigInfoPattern     = regexp.MustCompile(`^siginfo:\s*si_signo:\s*(\d+) \((\w+)\), si_code:\s*(-?\d+) \((\w+)\)(?:, si_addr:\s*(0x[0-9a-fA-F]+))?`)
	sigInfoWinPattern  = regexp.MustCompile(`^siginfo:\s*(?:ExceptionCode=)?(0x[0-9a-fA-F]+|EXCEPTION_\w+)[^,]*,\s*(reading|writing|execute) address (0x[0-9a-fA-F]+)`)
	vmOperationPattern = regexp.MustCompile(`^VM_Operation \((0x[0-9a-fA-F]+)\): (\w+), mode: (\w+)`)
	vmStatePattern     = regexp.MustCompile(`^VM state:\s*(.+)$`)
	vmArgumentPattern  = regexp.MustCompile(`^(jvm_args|jvm_flags|java_command|java_class_path \(initial\)|Launcher Type):\s*(.*)$`)
	commandLinePattern = regexp.MustCompile(`^Command Line:\s*(.*)$`)
	envPattern         = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)
	mappingPattern     = regexp.MustCompile(`^([0-9a-fA-F]+)-([0-9a-fA-F]+)\s+([-rwxps]{4})\s+[0-9a-fA-F]+\s+[0-9a-fA-F]+:[0-9a-fA-F]+\s+\d+\s*(.*)$`)
	winMappingPattern  = regexp.MustCompile(`^0x([0-9a-fA-F]+) - 0x([0-9a-fA-F]+)\s+(.+)$`)
	exceptionClassPat  = regexp.MustCompile(`<a '([\w/$]+)'`)
)

// OsLine is the "OS:" line or one of its continuation lines.
type OsLine struct{ Event }

// Text returns the operating system description on this line.
func (o OsLine) Text() string {
	if m := osPattern.FindStringSubmatch(o.Line); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(o.Line)
}

// HostLine is the "Host:" summary line.
type HostLine struct{ Event }

// CpuModel returns the processor description.
func (h HostLine) CpuModel() string {
	return submatch(hostPattern, h.Line, 1)
}

// Cores returns the number of cores.
func (h HostLine) Cores() opt.Value[int64] {
	return parseInt(submatch(hostPattern, h.Line, 2))
}

// Memory returns physical memory in bytes, as rounded by the JVM.
func (h HostLine) Memory() opt.Value[int64] {
	return units.ParseSize(submatch(hostPattern, h.Line, 3))
}

// OsText returns the operating system description.
func (h HostLine) OsText() string {
	return strings.TrimSpace(submatch(hostPattern, h.Line, 4))
}

// UnameLine is the "uname:" line.
type UnameLine struct{ Event }

// Family returns the kernel name, as in Linux or SunOS.
func (u UnameLine) Family() string {
	return submatch(unamePattern, u.Line, 1)
}

// Kernel returns the kernel release, as in 3.10.0-1160.el7.x86_64.
func (u UnameLine) Kernel() string {
	return submatch(unamePattern, u.Line, 2)
}

// Arch returns the machine hardware name, the last field of the line.
func (u UnameLine) Arch() string {
	fields := strings.Fields(u.Line)
	if len(fields) < 3 {
		return ""
	}
	return fields[len(fields)-1]
}

// LibcLine is the "libc:" line.
type LibcLine struct{ Event }

// GlibcVersion returns the glibc version, as in 2.17.
func (l LibcLine) GlibcVersion() string {
	return submatch(libcPattern, l.Line, 1)
}

// RlimitLine is the "rlimit:" line.
type RlimitLine struct{ Event }

// Soft returns the raw soft limit of a resource, as in "8192k" or "infinity".
func (r RlimitLine) Soft(resource string) string {
	for _, m := range rlimitEntryPattern.FindAllStringSubmatch(r.Line, -1) {
		if m[1] == resource {
			return m[2]
		}
	}
	return ""
}

// IsUnlimited reports an "infinity" soft limit.
func (r RlimitLine) IsUnlimited(resource string) bool {
	return r.Soft(resource) == "infinity"
}

// SoftValue returns the soft limit as a number. Sized resources (STACK,
// CORE, AS, DATA, FSIZE, MEMLOCK, RSS) are returned in bytes.
func (r RlimitLine) SoftValue(resource string) opt.Value[int64] {
	raw := r.Soft(resource)
	if raw == "" || raw == "infinity" {
		return opt.None[int64]()
	}
	switch resource {
	case "NPROC", "NOFILE", "CPU":
		return parseInt(raw)
	}
	return units.ParseSize(raw)
}

// LoadAverageLine is the "load average:" line.
type LoadAverageLine struct{ Event }

// OneMinute returns the one minute load average.
func (l LoadAverageLine) OneMinute() opt.Value[float64] {
	return parseFloat(submatch(loadAvgPattern, l.Line, 1))
}

// CpuLine is the "CPU:total N ..." line.
type CpuLine struct{ Event }

// Total returns the number of logical processors.
func (c CpuLine) Total() opt.Value[int64] {
	return parseInt(submatch(cpuPattern, c.Line, 1))
}

// Active returns the number of initially active processors.
func (c CpuLine) Active() opt.Value[int64] {
	return parseInt(submatch(cpuPattern, c.Line, 2))
}

// HasFeature reports whether a CPU feature flag is listed.
func (c CpuLine) HasFeature(feature string) bool {
	for _, f := range strings.Split(c.Line, ",") {
		if strings.TrimSpace(f) == feature {
			return true
		}
	}
	return false
}

// VmInfoLine is the "vm_info:" line.
type VmInfoLine struct{ Event }

// VmName returns the VM name, as in "OpenJDK 64-Bit Server VM".
func (v VmInfoLine) VmName() string {
	return submatch(vmInfoPattern, v.Line, 1)
}

// VmVersion returns the HotSpot version, as in 25.262-b10.
func (v VmInfoLine) VmVersion() string {
	return submatch(vmInfoPattern, v.Line, 2)
}

// Platform returns the build platform, as in linux-amd64.
func (v VmInfoLine) Platform() string {
	return submatch(vmInfoPattern, v.Line, 3)
}

// VendorTag returns a vendor string embedded in the JRE field, as in
// "Zulu 8.74.0.17-CA-linux64".
func (v VmInfoLine) VendorTag() string {
	return submatch(vmInfoPattern, v.Line, 4)
}

// Release returns the JRE release string, as in 1.8.0_262-b10.
func (v VmInfoLine) Release() string {
	return submatch(vmInfoPattern, v.Line, 5)
}

// Built returns the build time.
func (v VmInfoLine) Built() (time.Time, bool) {
	s := strings.Join(strings.Fields(submatch(vmInfoPattern, v.Line, 6)), " ")
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("Jan 2 2006 15:04:05", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Builder returns the user that built the JVM, as in mockbuild.
func (v VmInfoLine) Builder() string {
	return submatch(vmInfoPattern, v.Line, 7)
}

// Toolchain returns the compiler description.
func (v VmInfoLine) Toolchain() string {
	return submatch(vmInfoPattern, v.Line, 8)
}

// TimeLine is the "time:" or "Time:" line.
type TimeLine struct{ Event }

// Time returns the crash time. The zone abbreviation is not resolved; the
// result is in UTC.
func (t TimeLine) Time() (time.Time, bool) {
	s := submatch(timePattern, t.Line, 1)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.Join(strings.Fields(s), " ")
	tm, err := time.Parse("Mon Jan 2 15:04:05 2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}

// Elapsed returns the inline "elapsed time" of JDK 11 and later.
func (t TimeLine) Elapsed() opt.Value[float64] {
	return parseFloat(submatch(elapsedPattern, t.Line, 1))
}

// ElapsedLine is the "elapsed time:" line.
type ElapsedLine struct{ Event }

// Seconds returns the JVM uptime in seconds.
func (e ElapsedLine) Seconds() opt.Value[float64] {
	return parseFloat(submatch(elapsedPattern, e.Line, 1))
}

// LimitLine is a /proc/sys limit such as threads-max, max_map_count or
// pid_max. The value is either on the same line or on the following line.
type LimitLine struct{ Event }

// Value returns the limit.
func (l LimitLine) Value() opt.Value[int64] {
	line := strings.TrimSpace(l.Line)
	if l.Header && strings.HasSuffix(line, ":") {
		return opt.None[int64]()
	}
	return parseInt(submatch(trailingIntPattern, line, 1))
}

// HugepageLine is a transparent_hugepage setting line.
type HugepageLine struct{ Event }

// IsDefrag reports the defrag setting rather than the enabled setting.
func (h HugepageLine) IsDefrag() bool {
	return strings.Contains(h.Line, "defrag")
}

// Mode returns the selected mode, as in always, madvise or never.
func (h HugepageLine) Mode() string {
	return submatch(thpModePattern, h.Line, 1)
}

// SigInfoLine is the "siginfo:" line.
type SigInfoLine struct{ Event }

// Signal returns the signal name, as in SIGSEGV, or the Windows exception.
func (s SigInfoLine) Signal() string {
	if m := sigInfoPattern.FindStringSubmatch(s.Line); m != nil {
		return m[2]
	}
	return submatch(sigInfoWinPattern, s.Line, 1)
}

// Code returns the signal code name, as in SEGV_MAPERR.
func (s SigInfoLine) Code() string {
	return submatch(sigInfoPattern, s.Line, 4)
}

// Address returns the faulting address.
func (s SigInfoLine) Address() opt.Value[int64] {
	if m := sigInfoPattern.FindStringSubmatch(s.Line); m != nil {
		return parseHex(m[5])
	}
	return parseHex(submatch(sigInfoWinPattern, s.Line, 3))
}

// VmOperationLine is the "VM_Operation (0x...): Name, mode: ..." line.
type VmOperationLine struct{ Event }

// Name returns the operation, as in ParallelGCFailedAllocation.
func (v VmOperationLine) Name() string {
	return submatch(vmOperationPattern, v.Line, 2)
}

// Mode returns the operation mode, as in safepoint.
func (v VmOperationLine) Mode() string {
	return submatch(vmOperationPattern, v.Line, 3)
}

// IsGc reports a garbage collection operation.
func (v VmOperationLine) IsGc() bool {
	n := v.Name()
	return strings.Contains(n, "GC") || strings.Contains(n, "Collect")
}

// VmStateLine is the "VM state:" line.
type VmStateLine struct{ Event }

// State returns the state text.
func (v VmStateLine) State() string {
	return strings.TrimSpace(submatch(vmStatePattern, v.Line, 1))
}

// AtSafepoint reports that the VM was at a safepoint.
func (v VmStateLine) AtSafepoint() bool {
	s := v.State()
	return strings.HasPrefix(s, "at safepoint")
}

// ArgumentLine is one line of the "VM Arguments:" section.
type ArgumentLine struct{ Event }

// Field returns the field name, as in jvm_args or java_command.
func (a ArgumentLine) Field() string {
	return submatch(vmArgumentPattern, a.Line, 1)
}

// Value returns the field value.
func (a ArgumentLine) Value() string {
	return strings.TrimSpace(submatch(vmArgumentPattern, a.Line, 2))
}

// CommandLineLine is the "Command Line:" line.
type CommandLineLine struct{ Event }

// Value returns the command line after the label.
func (c CommandLineLine) Value() string {
	return strings.TrimSpace(submatch(commandLinePattern, c.Line, 1))
}

// EnvVar is one line of the "Environment Variables:" section.
type EnvVar struct{ Event }

// Name returns the variable name.
func (e EnvVar) Name() string {
	return submatch(envPattern, e.Line, 1)
}

// Value returns the variable value.
func (e EnvVar) Value() string {
	return submatch(envPattern, e.Line, 2)
}

// Mapping is one line of the "Dynamic libraries:" section.
type Mapping struct{ Event }

// Path returns the mapped file, or "" for anonymous mappings.
func (m Mapping) Path() string {
	if g := mappingPattern.FindStringSubmatch(m.Line); g != nil {
		return strings.TrimSpace(g[4])
	}
	return strings.TrimSpace(submatch(winMappingPattern, m.Line, 3))
}

// IsMapping reports an address range line rather than section noise.
func (m Mapping) IsMapping() bool {
	return mappingPattern.MatchString(m.Line) || winMappingPattern.MatchString(m.Line)
}

// Permissions returns the Linux mapping permissions, as in r-xp.
func (m Mapping) Permissions() string {
	return submatch(mappingPattern, m.Line, 3)
}

// FileName returns the last element of the mapped path.
func (m Mapping) FileName() string {
	p := strings.ReplaceAll(m.Path(), "\\", "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// IsJvmLibrary reports a mapping of the JVM shared library.
func (m Mapping) IsJvmLibrary() bool {
	switch m.FileName() {
	case "libjvm.so", "jvm.dll", "libjvm.dylib":
		return true
	}
	return false
}

// InternalException is one "Internal exceptions" event line.
type InternalException struct{ Event }

// ExceptionClass returns the thrown class in dotted form.
func (i InternalException) ExceptionClass() string {
	return strings.ReplaceAll(submatch(exceptionClassPat, i.Line, 1), "/", ".")
}
