package facts

import (
	"strings"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
)

func memoryLine(doc *document.Document) (event.MemoryLine, bool) {
	e, ok := doc.Singleton(event.Memory)
	return event.MemoryLine{Event: e}, ok
}

// memoryContinuation returns the Memory line and its Windows continuation
// lines.
func memoryContinuation(doc *document.Document) []event.MemoryLine {
	var out []event.MemoryLine
	for _, e := range doc.Events(event.Memory) {
		out = append(out, event.MemoryLine{Event: e})
	}
	return out
}

// MeminfoBytes returns a kB valued /proc/meminfo field in bytes.
func MeminfoBytes(doc *document.Document, name string) opt.Value[int64] {
	for _, m := range doc.Meminfo() {
		if m.Name() == name {
			return m.Bytes()
		}
	}
	return opt.None[int64]()
}

// MeminfoCount returns a unitless /proc/meminfo field.
func MeminfoCount(doc *document.Document, name string) opt.Value[int64] {
	for _, m := range doc.Meminfo() {
		if m.Name() == name {
			return m.Count()
		}
	}
	return opt.None[int64]()
}

// PhysicalMemory returns total physical memory in bytes: the Memory line,
// then MemTotal, then the Host line.
func PhysicalMemory(doc *document.Document) opt.Value[int64] {
	if m, ok := memoryLine(doc); ok {
		if v := m.Physical(); v.Known() {
			return v
		}
	}
	if v := MeminfoBytes(doc, "MemTotal"); v.Known() {
		return v
	}
	if e, ok := doc.Singleton(event.Host); ok {
		return event.HostLine{Event: e}.Memory()
	}
	return opt.None[int64]()
}

// PhysicalFree returns free physical memory in bytes: MemAvailable, then
// the Memory line, then MemFree.
func PhysicalFree(doc *document.Document) opt.Value[int64] {
	if v := MeminfoBytes(doc, "MemAvailable"); v.Known() {
		return v
	}
	if m, ok := memoryLine(doc); ok {
		if v := m.PhysicalFree(); v.Known() {
			return v
		}
	}
	return MeminfoBytes(doc, "MemFree")
}

// Swap returns total swap, or the Windows page file size, in bytes.
func Swap(doc *document.Document) opt.Value[int64] {
	for _, m := range memoryContinuation(doc) {
		if v := m.Swap(); v.Known() {
			return v
		}
	}
	return MeminfoBytes(doc, "SwapTotal")
}

// SwapFree returns free swap, or the available Windows page file, in bytes.
func SwapFree(doc *document.Document) opt.Value[int64] {
	for _, m := range memoryContinuation(doc) {
		if v := m.SwapFree(); v.Known() {
			return v
		}
	}
	return MeminfoBytes(doc, "SwapFree")
}

// CommitLimit returns the kernel commit limit in bytes.
func CommitLimit(doc *document.Document) opt.Value[int64] {
	return MeminfoBytes(doc, "CommitLimit")
}

// Committed returns Committed_AS in bytes.
func Committed(doc *document.Document) opt.Value[int64] {
	return MeminfoBytes(doc, "Committed_AS")
}

// CommitHeadroom returns CommitLimit minus Committed_AS. It is negative
// when the kernel lets commitments exceed the limit.
func CommitHeadroom(doc *document.Document) opt.Value[int64] {
	return opt.Sub(CommitLimit(doc), Committed(doc))
}

// HugePagesTotal returns the number of explicit huge pages.
func HugePagesTotal(doc *document.Document) opt.Value[int64] {
	return MeminfoCount(doc, "HugePages_Total")
}

// HugePageSize returns the huge page size in bytes.
func HugePageSize(doc *document.Document) opt.Value[int64] {
	return MeminfoBytes(doc, "Hugepagesize")
}

// HugePagesPool returns the memory reserved for explicit huge pages.
func HugePagesPool(doc *document.Document) opt.Value[int64] {
	total, ok := HugePagesTotal(doc).Get()
	if !ok {
		return opt.None[int64]()
	}
	size, ok := HugePageSize(doc).Get()
	if !ok {
		return opt.None[int64]()
	}
	return opt.Some(total * size)
}

// TransparentHugepages returns the THP enabled mode.
func TransparentHugepages(doc *document.Document) string {
	for _, e := range doc.All(event.TransparentHugepage) {
		h := event.HugepageLine{Event: e}
		if !h.IsDefrag() && h.Mode() != "" {
			return h.Mode()
		}
	}
	// The value is on the line after the heading in older releases.
	var afterEnabled bool
	for _, e := range doc.All(event.TransparentHugepage) {
		h := event.HugepageLine{Event: e}
		if e.Header {
			afterEnabled = !h.IsDefrag()
			continue
		}
		if afterEnabled && h.Mode() != "" {
			return h.Mode()
		}
	}
	return ""
}

// containerValue returns the container line with key.
func containerValue(doc *document.Document, key string) (event.ContainerLine, bool) {
	for _, c := range doc.Container() {
		if c.Key() == key {
			return c, true
		}
	}
	return event.ContainerLine{}, false
}

// ContainerType returns cgroupv1, cgroupv2 or "".
func ContainerType(doc *document.Document) string {
	if c, ok := containerValue(doc, "container_type"); ok {
		return c.Value()
	}
	return ""
}

// IsContainer reports a run inside a container: a cgroup memory limit or
// CPU quota, or a container runtime environment variable. Hosts print the
// cgroup section too, with unlimited values.
func IsContainer(doc *document.Document) bool {
	if ContainerMemoryLimit(doc).Known() {
		return true
	}
	if c, ok := containerValue(doc, "cpu_quota"); ok && c.Bytes().GtV(0) {
		return true
	}
	for _, name := range []string{"KUBERNETES_SERVICE_HOST", "container", "OPENSHIFT_BUILD_NAME"} {
		if _, ok := Env(doc, name); ok {
			return true
		}
	}
	return false
}

// ContainerMemoryLimit returns the cgroup memory limit in bytes.
func ContainerMemoryLimit(doc *document.Document) opt.Value[int64] {
	if c, ok := containerValue(doc, "memory_limit_in_bytes"); ok {
		return c.Bytes()
	}
	return opt.None[int64]()
}

// ContainerMemoryUsage returns the cgroup memory usage in bytes.
func ContainerMemoryUsage(doc *document.Document) opt.Value[int64] {
	if c, ok := containerValue(doc, "memory_usage_in_bytes"); ok {
		return c.Bytes()
	}
	return opt.None[int64]()
}

// ContainerCpuLimit returns the number of CPUs the JVM sees in the cgroup.
func ContainerCpuLimit(doc *document.Document) opt.Value[int64] {
	if c, ok := containerValue(doc, "active_processor_count"); ok {
		return c.Bytes()
	}
	return opt.None[int64]()
}

// AvailableMemory returns the memory the JVM sizes itself against: the
// container limit when lower than physical memory, otherwise physical
// memory.
func AvailableMemory(doc *document.Document) opt.Value[int64] {
	phys := PhysicalMemory(doc)
	if limit := ContainerMemoryLimit(doc); limit.Known() && (!phys.Known() || limit.Lt(phys)) {
		return limit
	}
	return phys
}

// ProcessRss returns the resident set size of the crashed process.
func ProcessRss(doc *document.Document) opt.Value[int64] {
	for _, p := range doc.ProcessMemory() {
		if v := p.Rss(); v.Known() {
			return v
		}
	}
	return opt.None[int64]()
}

// Footprint returns the JVM's memory footprint: RSS when printed,
// otherwise the committed heap.
func Footprint(doc *document.Document) opt.Value[int64] {
	return ProcessRss(doc).Or(HeapCapacity(doc))
}

// PageFileNearlyFull reports a Windows page file with less than a tenth
// available.
func PageFileNearlyFull(doc *document.Document) bool {
	if OsFamily(doc) != OsWindows {
		return false
	}
	total, ok := Swap(doc).Get()
	if !ok || total == 0 {
		return false
	}
	free, ok := SwapFree(doc).Get()
	return ok && free*10 < total
}

// NativeHeapLimitedByJavaHeap reports the header hint that the Java heap
// base address caps native heap growth.
func NativeHeapLimitedByJavaHeap(doc *document.Document) bool {
	for _, h := range doc.Headers() {
		if strings.Contains(h.Line, "maximum limit for the native heap growth") ||
			strings.Contains(h.Line, "Java Heap may be blocking the growth of the native heap") {
			return true
		}
	}
	return false
}
