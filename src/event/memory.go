package event

import (
	"regexp"
	"strings"

	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

var (
	meminfoPattern       = regexp.MustCompile(`^([A-Za-z][\w()]*):\s+(\d+)(?:\s+kB)?\s*$`)
	memoryLinuxPattern   = regexp.MustCompile(`^Memory: ?(\d+)k page, physical (\d+)k\((\d+)k free\), swap (\d+)k\((\d+)k free\)`)
	memoryWindowsPattern = regexp.MustCompile(`^Memory: ?(\d+)k page, system-wide physical (\d+)M \((\d+)M free\)`)
	pageFilePattern      = regexp.MustCompile(`^TotalPageFile size (\d+)M \(AvailPageFile size (\d+)M\)`)
	containerPattern     = regexp.MustCompile(`^([a-z_]+):\s*(.*?)\s*$`)
	rssPattern           = regexp.MustCompile(`^Resident Set Size: (\d+)K`)
	virtualSizePattern   = regexp.MustCompile(`^Virtual Size: (\d+)K`)
	globalFlagPattern    = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s+=\s+(.*?)\s*\{([^}]*)\}(?:\s*\{([^}]*)\})?\s*$`)
	exceptionPattern     = regexp.MustCompile(`^(OutOfMemoryError (\w+)|StackOverflowErrors|LinkageErrors)=(\d+)$`)
)

// MeminfoLine is one line of /proc/meminfo.
type MeminfoLine struct{ Event }

// Name returns the field, as in MemTotal or HugePages_Total.
func (m MeminfoLine) Name() string {
	return submatch(meminfoPattern, m.Line, 1)
}

// HasUnit reports whether the value is in kB.
func (m MeminfoLine) HasUnit() bool {
	return strings.HasSuffix(strings.TrimSpace(m.Line), "kB")
}

// Bytes returns a kB valued field in bytes.
func (m MeminfoLine) Bytes() opt.Value[int64] {
	if !m.HasUnit() {
		return opt.None[int64]()
	}
	return kilobytes(submatch(meminfoPattern, m.Line, 2))
}

// Count returns a unitless field such as HugePages_Total.
func (m MeminfoLine) Count() opt.Value[int64] {
	if m.HasUnit() {
		return opt.None[int64]()
	}
	return parseInt(submatch(meminfoPattern, m.Line, 2))
}

// MemoryLine is the "Memory: 4k page, physical ..." line and its Windows
// continuation lines.
type MemoryLine struct{ Event }

// PageSize returns the page size in bytes.
func (m MemoryLine) PageSize() opt.Value[int64] {
	if s := submatch(memoryLinuxPattern, m.Line, 1); s != "" {
		return kilobytes(s)
	}
	return kilobytes(submatch(memoryWindowsPattern, m.Line, 1))
}

// Physical returns total physical memory in bytes.
func (m MemoryLine) Physical() opt.Value[int64] {
	if s := submatch(memoryLinuxPattern, m.Line, 2); s != "" {
		return kilobytes(s)
	}
	return sized(submatch(memoryWindowsPattern, m.Line, 2), "M")
}

// PhysicalFree returns free physical memory in bytes.
func (m MemoryLine) PhysicalFree() opt.Value[int64] {
	if s := submatch(memoryLinuxPattern, m.Line, 3); s != "" {
		return kilobytes(s)
	}
	return sized(submatch(memoryWindowsPattern, m.Line, 3), "M")
}

// Swap returns total swap in bytes, or the page file size on Windows.
func (m MemoryLine) Swap() opt.Value[int64] {
	if s := submatch(memoryLinuxPattern, m.Line, 4); s != "" {
		return kilobytes(s)
	}
	return sized(submatch(pageFilePattern, m.Line, 1), "M")
}

// SwapFree returns free swap in bytes, or the available page file on Windows.
func (m MemoryLine) SwapFree() opt.Value[int64] {
	if s := submatch(memoryLinuxPattern, m.Line, 5); s != "" {
		return kilobytes(s)
	}
	return sized(submatch(pageFilePattern, m.Line, 2), "M")
}

// ContainerLine is one line of the container (cgroup) information section.
type ContainerLine struct{ Event }

// Key returns the field name, as in memory_limit_in_bytes.
func (c ContainerLine) Key() string {
	return submatch(containerPattern, c.Line, 1)
}

// Value returns the raw field value.
func (c ContainerLine) Value() string {
	return submatch(containerPattern, c.Line, 2)
}

// IsUnlimited reports values meaning no limit.
func (c ContainerLine) IsUnlimited() bool {
	switch c.Value() {
	case "unlimited", "-1", "max", "no quota", "no shares", "not supported":
		return true
	}
	return false
}

// Bytes returns a size field in bytes. Values are either plain bytes or
// "N k".
func (c ContainerLine) Bytes() opt.Value[int64] {
	if c.IsUnlimited() {
		return opt.None[int64]()
	}
	v := strings.TrimSpace(c.Value())
	if strings.HasSuffix(v, " k") {
		return kilobytes(strings.TrimSuffix(v, " k"))
	}
	return units.ParseSize(v)
}

// ProcessMemoryLine is one line of the "Process Memory:" section.
type ProcessMemoryLine struct{ Event }

// Rss returns the resident set size in bytes.
func (p ProcessMemoryLine) Rss() opt.Value[int64] {
	return kilobytes(submatch(rssPattern, p.Line, 1))
}

// VirtualSize returns the virtual size in bytes.
func (p ProcessMemoryLine) VirtualSize() opt.Value[int64] {
	return kilobytes(submatch(virtualSizePattern, p.Line, 1))
}

// Flag is one line of the "[Global flags]" section, as in
// "size_t MaxHeapSize = 4294967296 {product} {ergonomic}".
type Flag struct{ Event }

// Type returns the flag type, as in size_t or bool.
func (f Flag) Type() string {
	return submatch(globalFlagPattern, f.Line, 1)
}

// Name returns the flag name.
func (f Flag) Name() string {
	return submatch(globalFlagPattern, f.Line, 2)
}

// Value returns the raw flag value.
func (f Flag) Value() string {
	return submatch(globalFlagPattern, f.Line, 3)
}

// Origin returns how the flag was set, as in "command line" or "ergonomic".
func (f Flag) Origin() string {
	return submatch(globalFlagPattern, f.Line, 5)
}

// Int returns the numeric value of an integer flag. Global flag sizes are
// always printed in bytes.
func (f Flag) Int() opt.Value[int64] {
	return parseInt(f.Value())
}

// Bool returns the value of a bool flag.
func (f Flag) Bool() (value, ok bool) {
	switch f.Value() {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ExceptionCountLine is one line of "OutOfMemory and StackOverflow
// Exception counts:".
type ExceptionCountLine struct{ Event }

// Name returns the counter, as in "java_heap_errors" or "StackOverflowErrors".
func (e ExceptionCountLine) Name() string {
	m := exceptionPattern.FindStringSubmatch(e.Line)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[2]
	}
	return m[1]
}

// Count returns the counter value.
func (e ExceptionCountLine) Count() opt.Value[int64] {
	return parseInt(submatch(exceptionPattern, e.Line, 3))
}
