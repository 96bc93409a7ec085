package event

import (
	"regexp"
	"strings"

	"hserr-agent/src/opt"
)

var (
	signalHeaderPattern    = regexp.MustCompile(`^#\s+(SIG[A-Z0-9]+|EXCEPTION_[A-Z_]+) \((0x[0-9a-fA-F]+)\) at pc=(0x[0-9a-fA-F]+), pid=(\d+), tid=(\S+)`)
	internalErrorPattern   = regexp.MustCompile(`^#\s+Internal Error \(([^)]+)\)`)
	outOfMemoryPattern     = regexp.MustCompile(`^#\s+Out of Memory Error \(([^)]+)\)`)
	failedAllocPattern     = regexp.MustCompile(`^# Native memory allocation \((mmap|malloc)\) failed to (?:map|allocate) (\d+) bytes(?: for (.+?))?\.?\s*$`)
	jreVersionPattern      = regexp.MustCompile(`^# JRE version: (.+)$`)
	jreBuildPattern        = regexp.MustCompile(`\(build ([^)]+)\)`)
	javaVmPattern          = regexp.MustCompile(`^# Java VM: (.+)$`)
	problematicFramePrefix = regexp.MustCompile(`^#\s+([CJjVvA])\s+(.+)$`)
	errorDetailPattern     = regexp.MustCompile(`^#\s+(Error: .+|guarantee\(.+|fatal error: .+|assert\(.+|Error: ShouldNotReachHere.*)$`)
)

// HeaderLine is a "#"-prefixed line from the top of the log.
type HeaderLine struct{ Event }

// Signal returns the signal or Windows exception name of the crash header,
// as in SIGSEGV or EXCEPTION_ACCESS_VIOLATION.
func (h HeaderLine) Signal() string {
	return submatch(signalHeaderPattern, h.Line, 1)
}

// IsSignal reports whether this is the "SIGxxx at pc=" line.
func (h HeaderLine) IsSignal() bool {
	return signalHeaderPattern.MatchString(h.Line)
}

// Pid returns the crashed process id from a signal, internal error or
// out-of-memory header line.
func (h HeaderLine) Pid() opt.Value[int64] {
	if m := signalHeaderPattern.FindStringSubmatch(h.Line); m != nil {
		return parseInt(m[4])
	}
	if i := strings.Index(h.Line, "pid="); i >= 0 {
		rest := h.Line[i+4:]
		if j := strings.IndexAny(rest, ", "); j >= 0 {
			rest = rest[:j]
		}
		return parseInt(rest)
	}
	return opt.None[int64]()
}

// IsInternalError reports an "Internal Error (file:line)" line.
func (h HeaderLine) IsInternalError() bool {
	return internalErrorPattern.MatchString(h.Line)
}

// InternalErrorSource returns the source location of an internal error.
func (h HeaderLine) InternalErrorSource() string {
	return submatch(internalErrorPattern, h.Line, 1)
}

// IsInsufficientMemory reports the native out-of-memory banner line.
func (h HeaderLine) IsInsufficientMemory() bool {
	return strings.HasPrefix(h.Line, "# There is insufficient memory for the Java Runtime Environment to continue")
}

// IsOutOfMemoryError reports an "Out of Memory Error (file:line)" line.
func (h HeaderLine) IsOutOfMemoryError() bool {
	return outOfMemoryPattern.MatchString(h.Line)
}

// OutOfMemorySource returns the source location of an out-of-memory error.
func (h HeaderLine) OutOfMemorySource() string {
	return submatch(outOfMemoryPattern, h.Line, 1)
}

// IsFailedAllocation reports a "Native memory allocation ... failed" line.
func (h HeaderLine) IsFailedAllocation() bool {
	return failedAllocPattern.MatchString(h.Line)
}

// FailedAllocationSize returns the size in bytes of the failed allocation.
func (h HeaderLine) FailedAllocationSize() opt.Value[int64] {
	return parseInt(submatch(failedAllocPattern, h.Line, 2))
}

// FailedAllocationMechanism returns "mmap" or "malloc".
func (h HeaderLine) FailedAllocationMechanism() string {
	return submatch(failedAllocPattern, h.Line, 1)
}

// FailedAllocationPurpose returns what the memory was for, as in
// "committing reserved memory" or "ChunkPool::allocate".
func (h HeaderLine) FailedAllocationPurpose() string {
	return submatch(failedAllocPattern, h.Line, 3)
}

// IsJreVersion reports the "# JRE version:" line.
func (h HeaderLine) IsJreVersion() bool {
	return jreVersionPattern.MatchString(h.Line)
}

// JreVersion returns the text after "# JRE version:".
func (h HeaderLine) JreVersion() string {
	return submatch(jreVersionPattern, h.Line, 1)
}

// JreBuild returns the "(build x)" release string of the JRE version line.
func (h HeaderLine) JreBuild() string {
	if !h.IsJreVersion() {
		return ""
	}
	return submatch(jreBuildPattern, h.Line, 1)
}

// IsJavaVm reports the "# Java VM:" line.
func (h HeaderLine) IsJavaVm() bool {
	return javaVmPattern.MatchString(h.Line)
}

// JavaVm returns the text after "# Java VM:".
func (h HeaderLine) JavaVm() string {
	return submatch(javaVmPattern, h.Line, 1)
}

// IsProblematicFrameTitle reports the "# Problematic frame:" line.
func (h HeaderLine) IsProblematicFrameTitle() bool {
	return strings.TrimSpace(h.Line) == "# Problematic frame:"
}

// FrameText returns the frame of a problematic-frame line in the same form
// as a stack frame line, as in "C  [libc.so.6+0x15b8ce]  memmove+0x1ae".
func (h HeaderLine) FrameText() string {
	m := problematicFramePrefix.FindStringSubmatch(h.Line)
	if m == nil {
		return ""
	}
	return m[1] + "  " + m[2]
}

// IsCoreDumpDisabled reports that the JVM could not write a core file.
func (h HeaderLine) IsCoreDumpDisabled() bool {
	return strings.Contains(h.Line, "Core dumps have been disabled") ||
		strings.Contains(h.Line, "No core dump will be written")
}

// IsCoreDumpWritten reports that a core file was or will be written.
func (h HeaderLine) IsCoreDumpWritten() bool {
	return strings.HasPrefix(h.Line, "# Core dump written") ||
		strings.HasPrefix(h.Line, "# Core dump will be written")
}

// IsCrashOutsideJvm reports the "crash happened outside the Java Virtual
// Machine in native code" hint.
func (h HeaderLine) IsCrashOutsideJvm() bool {
	return strings.Contains(h.Line, "outside the Java Virtual Machine")
}

// ErrorDetail returns the error text following an internal error, as in
// "guarantee(...) failed: ..." or "Error: ShouldNotReachHere()".
func (h HeaderLine) ErrorDetail() string {
	return submatch(errorDetailPattern, h.Line, 1)
}
