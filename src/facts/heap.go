package facts

import (
	"sort"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// Collectors.
const (
	GcSerial     = "Serial"
	GcParallel   = "Parallel"
	GcCMS        = "CMS"
	GcG1         = "G1"
	GcShenandoah = "Shenandoah"
	GcZ          = "ZGC"
	GcEpsilon    = "Epsilon"
)

// gcFlags maps the -XX:+Use...GC flag to its collector.
var gcFlags = []struct {
	flag string
	gc   string
}{
	{"UseSerialGC", GcSerial},
	{"UseParallelGC", GcParallel},
	{"UseParallelOldGC", GcParallel},
	{"UseConcMarkSweepGC", GcCMS},
	{"UseG1GC", GcG1},
	{"UseShenandoahGC", GcShenandoah},
	{"UseZGC", GcZ},
	{"UseEpsilonGC", GcEpsilon},
}

var shapeCollectors = map[event.HeapShape]string{
	event.ShapePSYoungGen:      GcParallel,
	event.ShapeParOldGen:       GcParallel,
	event.ShapePSOldGen:        GcParallel,
	event.ShapeDefNew:          GcSerial,
	event.ShapeTenured:         GcSerial,
	event.ShapeParNew:          GcCMS,
	event.ShapeConcMarkSweep:   GcCMS,
	event.ShapeG1:              GcG1,
	event.ShapeShenandoahTitle: GcShenandoah,
	event.ShapeShenandoah:      GcShenandoah,
	event.ShapeZ:               GcZ,
}

// Collectors returns the garbage collectors in use, sorted: the global
// flags, then the command line, then the heap line shapes. More than one
// entry means several collector generations were reported or requested.
func Collectors(doc *document.Document) []string {
	found := make(map[string]bool)
	for _, g := range gcFlags {
		if v, ok := FlagBool(doc, g.flag); ok && v {
			found[g.gc] = true
		}
	}
	if len(found) == 0 {
		for _, g := range gcFlags {
			if v, ok := BoolOption(doc, g.flag); ok && v {
				found[g.gc] = true
			}
		}
	}
	if len(found) == 0 {
		for _, h := range doc.HeapLines() {
			if gc, ok := shapeCollectors[h.Shape()]; ok {
				found[gc] = true
			}
		}
	}
	out := make([]string, 0, len(found))
	for gc := range found {
		out = append(out, gc)
	}
	sort.Strings(out)
	return out
}

// UsesCollector reports whether gc is among the collectors.
func UsesCollector(doc *document.Document, gc string) bool {
	for _, c := range Collectors(doc) {
		if c == gc {
			return true
		}
	}
	return false
}

// HeapCapacity returns the total capacity of the Java heap in bytes: the
// sum of the young and old generation totals, or the single heap total of
// the region based collectors.
func HeapCapacity(doc *document.Document) opt.Value[int64] {
	return sumHeap(doc, event.HeapLine.Total)
}

// HeapUsed returns the bytes used in the Java heap.
func HeapUsed(doc *document.Document) opt.Value[int64] {
	return sumHeap(doc, event.HeapLine.Used)
}

func sumHeap(doc *document.Document, value func(event.HeapLine) opt.Value[int64]) opt.Value[int64] {
	sum := opt.None[int64]()
	for _, h := range doc.HeapLines() {
		switch h.Shape() {
		case event.ShapeNone, event.ShapeMetaspace, event.ShapeClassSpace, event.ShapeShenandoahTitle:
			continue
		}
		v := value(h)
		if !v.Known() {
			continue
		}
		if sum.Known() {
			sum = opt.Add(sum, v)
		} else {
			sum = v
		}
	}
	return sum
}

func metaspaceLine(doc *document.Document, shape event.HeapShape) (event.HeapLine, bool) {
	for _, h := range doc.HeapLines() {
		if h.Shape() == shape {
			return h, true
		}
	}
	return event.HeapLine{}, false
}

// MetaspaceUsed returns the metaspace bytes in use.
func MetaspaceUsed(doc *document.Document) opt.Value[int64] {
	if h, ok := metaspaceLine(doc, event.ShapeMetaspace); ok {
		return h.Used()
	}
	return opt.None[int64]()
}

// MetaspaceCommitted returns the committed metaspace bytes.
func MetaspaceCommitted(doc *document.Document) opt.Value[int64] {
	if h, ok := metaspaceLine(doc, event.ShapeMetaspace); ok {
		return h.Committed()
	}
	return opt.None[int64]()
}

// ClassSpaceUsed returns the compressed class space bytes in use.
func ClassSpaceUsed(doc *document.Document) opt.Value[int64] {
	if h, ok := metaspaceLine(doc, event.ShapeClassSpace); ok {
		return h.Used()
	}
	return opt.None[int64]()
}

// preciousLog returns a GC Precious Log size entry, as "Heap Max Capacity".
func preciousLog(doc *document.Document, key string) opt.Value[int64] {
	for _, p := range doc.PreciousLog() {
		if p.Key() == key {
			return p.Bytes()
		}
	}
	return opt.None[int64]()
}

// ramFraction returns the share of memory a heap default uses: the
// percentage option, else the deprecated fraction option, else def.
func ramFraction(doc *document.Document, percentage, fraction string, def float64) float64 {
	if v, ok := OptionValue(doc, "-XX:"+percentage+"="); ok {
		if p := parsePercent(v); p > 0 {
			return p / 100
		}
	}
	if n := xxInt(doc, fraction); n.GtV(0) {
		return 1 / float64(n.OrElse(1))
	}
	return def
}

// MaxHeapSize returns the maximum heap size in bytes. The sources in order:
// the MaxHeapSize global flag, -Xmx or -XX:MaxHeapSize, the collector's own
// record, a quarter of available memory (honouring MaxRAMPercentage), the
// reserved heap address range, and the observed heap capacity.
func MaxHeapSize(doc *document.Document) opt.Value[int64] {
	if v := FlagInt(doc, "MaxHeapSize"); v.Known() {
		return v
	}
	if v := maxHeapOption(doc); v.Known() {
		return v
	}
	if v := preciousLog(doc, "Heap Max Capacity"); v.Known() {
		return v
	}
	if mem, ok := AvailableMemory(doc).Get(); ok {
		return opt.Some(int64(float64(mem) * ramFraction(doc, "MaxRAMPercentage", "MaxRAMFraction", 0.25)))
	}
	if e, ok := doc.Singleton(event.HeapAddress); ok {
		if v := (event.HeapAddressLine{Event: e}).Size(); v.Known() {
			return v
		}
	}
	for _, h := range doc.HeapLines() {
		if v := h.MaxCapacity(); v.Known() {
			return v
		}
	}
	return HeapCapacity(doc)
}

// maxHeapOption returns the last of -Xmx and -XX:MaxHeapSize on the
// command line.
func maxHeapOption(doc *document.Document) opt.Value[int64] {
	return lastSizeOption(doc, "-Xmx", "-XX:MaxHeapSize=")
}

// lastSizeOption returns the size of whichever prefixed option comes last.
func lastSizeOption(doc *document.Document, prefixes ...string) opt.Value[int64] {
	options := OptionList(doc)
	for i := len(options) - 1; i >= 0; i-- {
		for _, p := range prefixes {
			if len(options[i]) > len(p) && options[i][:len(p)] == p {
				return units.ParseSize(options[i][len(p):])
			}
		}
	}
	return opt.None[int64]()
}

// InitialHeapSize returns the initial heap size in bytes: the global flag,
// -Xms or -XX:InitialHeapSize, the collector's record, then 1/64 of
// available memory (honouring InitialRAMPercentage).
func InitialHeapSize(doc *document.Document) opt.Value[int64] {
	if v := FlagInt(doc, "InitialHeapSize"); v.Known() {
		return v
	}
	if v := lastSizeOption(doc, "-Xms", "-XX:InitialHeapSize="); v.Known() {
		return v
	}
	if v := preciousLog(doc, "Heap Initial Capacity"); v.Known() {
		return v
	}
	if mem, ok := AvailableMemory(doc).Get(); ok {
		return opt.Some(int64(float64(mem) * ramFraction(doc, "InitialRAMPercentage", "InitialRAMFraction", 1.0/64)))
	}
	return opt.None[int64]()
}

// sizeSetting resolves a size flag: the global flag, the -XX option, then
// def.
func sizeSetting(doc *document.Document, name string, def opt.Value[int64]) opt.Value[int64] {
	if v := FlagInt(doc, name); v.Known() {
		return v
	}
	if v := xxSize(doc, name); v.Known() {
		return v
	}
	return def
}

// CodeCacheSize returns the reserved code cache in bytes: the flag, the
// option, the sum of the printed code heaps, then the JVM default.
func CodeCacheSize(doc *document.Document) opt.Value[int64] {
	if v := sizeSetting(doc, "ReservedCodeCacheSize", opt.None[int64]()); v.Known() {
		return v
	}
	sum := opt.None[int64]()
	for _, c := range doc.CodeCache() {
		if v := c.Size(); v.Known() {
			if sum.Known() {
				sum = opt.Add(sum, v)
			} else {
				sum = v
			}
		}
	}
	if sum.Known() {
		return sum
	}
	if Enabled(doc, "TieredCompilation", true) {
		return opt.Some(240 * units.M)
	}
	return opt.Some(48 * units.M)
}

// CodeCacheUsed returns the code cache bytes in use.
func CodeCacheUsed(doc *document.Document) opt.Value[int64] {
	sum := opt.None[int64]()
	for _, c := range doc.CodeCache() {
		if v := c.Used(); v.Known() {
			if sum.Known() {
				sum = opt.Add(sum, v)
			} else {
				sum = v
			}
		}
	}
	return sum
}

// IsCodeCacheFull reports that compilation was disabled for lack of code
// cache space.
func IsCodeCacheFull(doc *document.Document) bool {
	for _, c := range doc.CodeCache() {
		if c.IsCompilationDisabled() {
			return true
		}
	}
	return false
}

// MaxMetaspaceSize returns the metaspace limit, unknown when unlimited.
// The unlimited flag value 18446744073709547520 overflows int64 and so
// parses as unknown.
func MaxMetaspaceSize(doc *document.Document) opt.Value[int64] {
	return sizeSetting(doc, "MaxMetaspaceSize", opt.None[int64]())
}

// CompressedClassSpaceSize returns the compressed class space size.
func CompressedClassSpaceSize(doc *document.Document) opt.Value[int64] {
	if v := sizeSetting(doc, "CompressedClassSpaceSize", opt.None[int64]()); v.Known() {
		return v
	}
	if e, ok := doc.Singleton(event.CompressedClassSpace); ok {
		if v := (event.ClassSpaceLine{Event: e}).Size(); v.Known() {
			return v
		}
	}
	if UsesCompressedOops(doc) {
		return opt.Some(units.G)
	}
	return opt.None[int64]()
}

// MaxDirectMemorySize returns the NIO direct memory limit, which defaults
// to the maximum heap size.
func MaxDirectMemorySize(doc *document.Document) opt.Value[int64] {
	if v := sizeSetting(doc, "MaxDirectMemorySize", opt.None[int64]()); v.GtV(0) {
		return v
	}
	return MaxHeapSize(doc)
}

// CompressedOopsMode returns the compressed oops mode of the heap address
// line, as in "Zero based".
func CompressedOopsMode(doc *document.Document) string {
	e, ok := doc.Singleton(event.HeapAddress)
	if !ok {
		return ""
	}
	return event.HeapAddressLine{Event: e}.CompressedOopsMode()
}

// UsesCompressedOops reports compressed object pointers: the flag, else a
// 64-bit heap below the 32G limit.
func UsesCompressedOops(doc *document.Document) bool {
	if v, ok := FlagBool(doc, "UseCompressedOops"); ok {
		return v
	}
	if v, ok := BoolOption(doc, "UseCompressedOops"); ok {
		return v
	}
	if CompressedOopsMode(doc) != "" {
		return true
	}
	return Bits(doc).Is(64) && MaxHeapSize(doc).LtV(CompressedOopsLimit)
}

// CompressedOopsLimit is the largest heap that can use compressed oops
// with the default object alignment.
const CompressedOopsLimit = 32 * units.G

// UsesLargePages reports -XX:+UseLargePages.
func UsesLargePages(doc *document.Document) bool {
	return Enabled(doc, "UseLargePages", false)
}
