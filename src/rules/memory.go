package rules

import (
	"fmt"
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/facts"
	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// Allocation failure parameters.
const (
	// commitReserve is the commit headroom below which the kernel is taken
	// to refuse further commitments.
	commitReserve = 136 * units.M
	// startupWindow is the uptime in seconds within which a failed
	// allocation is blamed on a resource limit.
	startupWindow = 60.0
	// externalFootprintRatio is the share of physical memory the JVM must
	// stay under for the pressure to be blamed on other processes.
	externalFootprintRatio = 0.5
	// overcommitAlways is the vm.overcommit_memory mode that never refuses.
	overcommitAlways = 1
)

// Memory thresholds.
const (
	heapOfPhysicalPercent = 90
	lowFreeDivisor        = 20
	heapFullPercent       = 95
	metaspaceFullPercent  = 90
	codeCacheFullPercent  = 90
	mapCountPercent       = 95
	serialHeapLimit       = 4 * units.G
	oopsLimitMargin       = 6 * units.G
)

func size(v opt.Value[int64]) string {
	return units.FormatOpt(v)
}

func percent(part, whole opt.Value[int64]) (int, bool) {
	p, ok1 := part.Get()
	w, ok2 := whole.Get()
	if !ok1 || !ok2 || w <= 0 {
		return 0, false
	}
	return int(p * 100 / w), true
}

func oomJava(c *Context) []Candidate {
	detail := facts.OutOfMemoryDetail(c.Doc)
	switch {
	case detail == "":
		return nil
	case strings.Contains(detail, "Compressed class space"):
		return emit(analysis.OomClassSpace, size(facts.ClassSpaceUsed(c.Doc)), size(facts.CompressedClassSpaceSize(c.Doc)))
	case strings.Contains(detail, "Metaspace"):
		return emit(analysis.OomMetaspace, size(facts.MetaspaceUsed(c.Doc)), size(facts.MaxMetaspaceSize(c.Doc)))
	case strings.Contains(detail, "Java heap space"), strings.Contains(detail, "GC overhead limit"), strings.Contains(detail, "Requested array size"):
		return emit(analysis.OomJavaHeap, detail, size(facts.HeapUsed(c.Doc)), size(facts.MaxHeapSize(c.Doc)))
	}
	return nil
}

// oomNative reports a failed native allocation and, when one applies, the
// cause: the first branch whose guard holds.
func oomNative(c *Context) []Candidate {
	sz, purpose, failed := facts.FailedAllocation(c.Doc)
	if !failed {
		if !facts.IsOutOfMemory(c.Doc) || facts.OutOfMemoryDetail(c.Doc) != "" {
			return nil
		}
	}
	if purpose == "" {
		purpose = "an unknown purpose"
	}
	out := emit(analysis.OomNative, size(sz), purpose)
	if s, ok := sz.Get(); ok {
		out = append(out, allocationCause(c, s)...)
	}
	return out
}

func allocationCause(c *Context, s int64) []Candidate {
	doc := c.Doc
	phys := facts.PhysicalMemory(doc)
	physFree := facts.PhysicalFree(doc)
	swapFree := facts.SwapFree(doc)
	footprint := facts.Footprint(doc)
	need := opt.Some(s)
	small := opt.Map(phys, func(p int64) int64 { return int64(float64(p) * externalFootprintRatio) })

	if facts.Elapsed(doc).LtV(startupWindow) {
		for _, res := range []string{"AS", "DATA"} {
			if limit := facts.RlimitSoft(doc, res); limit.Known() {
				elapsed, _ := facts.Elapsed(doc).Get()
				return emit(analysis.OomStartupLimit, size(need), fmt.Sprintf("%.0fs", elapsed), res, size(limit))
			}
		}
	}
	if !facts.IsVirtualized(doc) && physFree.Lt(need) && swapFree.Lt(need) && footprint.Lt(small) {
		return emit(analysis.OomExternalPressure, size(physFree), size(phys), size(swapFree), size(footprint))
	}
	if facts.Bits(doc).Is(32) {
		return emit(analysis.OomSelfLimit, "32-bit process")
	}
	if facts.NativeHeapLimitedByJavaHeap(doc) {
		return emit(analysis.OomSelfLimit, "Java heap placed below the native heap")
	}
	if limit := facts.ContainerMemoryLimit(doc); limit.Known() {
		usage := facts.ContainerMemoryUsage(doc).Or(facts.ProcessRss(doc))
		if opt.Sub(limit, usage).Lt(need) {
			return emit(analysis.OomContainer, size(limit), size(usage), size(need))
		}
	}
	// Without an overcommit_memory line the kernel default, heuristic mode,
	// is assumed. Mode 1 never refuses a commit, so headroom is irrelevant.
	if headroom := facts.CommitHeadroom(doc); !facts.OvercommitMode(doc).Is(overcommitAlways) && (headroom.Lt(need) || headroom.LtV(commitReserve)) {
		return emit(analysis.OomOvercommit, size(need), size(headroom), size(facts.CommitLimit(doc)), size(facts.Committed(doc)))
	}
	if facts.IsVirtualized(doc) && physFree.Lt(need) && footprint.Lt(small) {
		hyp := facts.Hypervisor(doc)
		if hyp == "" {
			hyp = "unknown"
		}
		return emit(analysis.OomBallooning, hyp, size(physFree), size(phys), size(footprint))
	}
	return nil
}

// threadCreationFailures are header fragments of a failed thread start.
var threadCreationFailures = []string{
	"Cannot create worker GC thread",
	"Cannot create GC thread",
	"unable to create native thread",
	"unable to create new native thread",
	"pthread_create",
}

func oomThreads(c *Context) []Candidate {
	found := false
	for _, h := range c.Doc.Headers() {
		for _, f := range threadCreationFailures {
			if strings.Contains(h.Line, f) {
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return emit(analysis.OomThreads, facts.ThreadCount(c.Doc),
		facts.ThreadsMax(c.Doc).String(), facts.PidMax(c.Doc).String(), facts.RlimitSoft(c.Doc, "NPROC").String())
}

func oomMapCount(c *Context) []Candidate {
	if !facts.IsOutOfMemory(c.Doc) {
		return nil
	}
	max, ok := facts.MaxMapCount(c.Doc).Get()
	n := facts.MappingCount(c.Doc)
	if !ok || max <= 0 || int64(n)*100 < max*mapCountPercent {
		return nil
	}
	return emit(analysis.OomMapCount, n, max)
}

func oomPageFile(c *Context) []Candidate {
	if !facts.IsOutOfMemory(c.Doc) || !facts.PageFileNearlyFull(c.Doc) {
		return nil
	}
	return emit(analysis.OomPageFile, size(facts.SwapFree(c.Doc)), size(facts.Swap(c.Doc)))
}

func memorySwap(c *Context) []Candidate {
	if c.OS == facts.OsLinux && facts.Swap(c.Doc).Is(0) {
		return emit(analysis.MemoryNoSwap)
	}
	return nil
}

func memoryHeapSize(c *Context) []Candidate {
	var out []Candidate
	max := facts.MaxHeapSize(c.Doc)
	phys := facts.PhysicalMemory(c.Doc)
	if p, ok := percent(max, phys); ok && p > heapOfPhysicalPercent {
		out = append(out, emit(analysis.MemoryHeapExceedsPhysical, size(max), heapOfPhysicalPercent, size(phys))...)
	}
	if limit := facts.ContainerMemoryLimit(c.Doc); max.Gt(limit) {
		out = append(out, emit(analysis.MemoryHeapExceedsContainer, size(max), size(limit))...)
	}
	return out
}

func memoryFree(c *Context) []Candidate {
	free := facts.PhysicalFree(c.Doc)
	phys := facts.PhysicalMemory(c.Doc)
	f, ok1 := free.Get()
	p, ok2 := phys.Get()
	if ok1 && ok2 && f*lowFreeDivisor < p {
		return emit(analysis.MemoryLowFree, size(free), size(phys))
	}
	return nil
}

func memoryHugePages(c *Context) []Candidate {
	var out []Candidate
	if pool := facts.HugePagesPool(c.Doc); pool.GtV(0) && !facts.UsesLargePages(c.Doc) {
		total, _ := facts.HugePagesTotal(c.Doc).Get()
		out = append(out, emit(analysis.MemoryHugePagesUnused, size(pool), total, size(facts.HugePageSize(c.Doc)))...)
	}
	if facts.TransparentHugepages(c.Doc) == "always" {
		out = append(out, emit(analysis.MemoryThpAlways)...)
	}
	return out
}

func memoryCompressedOops(c *Context) []Candidate {
	if facts.Bits(c.Doc).Is(32) {
		return nil
	}
	max := facts.MaxHeapSize(c.Doc)
	if !max.Ge(opt.Some(facts.CompressedOopsLimit)) {
		return nil
	}
	out := emit(analysis.MemoryNoCompressedOops, size(max))
	if max.LtV(facts.CompressedOopsLimit + oopsLimitMargin) {
		out = append(out, emit(analysis.MemoryNearOopsLimit, size(max))...)
	}
	return out
}

func memoryFootprint(c *Context) []Candidate {
	rss := facts.ProcessRss(c.Doc)
	if p, ok := percent(rss, facts.PhysicalMemory(c.Doc)); ok {
		return emit(analysis.MemoryFootprint, size(rss), p)
	}
	return nil
}

func gcCollectors(c *Context) []Candidate {
	if len(c.Collectors) == 0 {
		return nil
	}
	out := emit(analysis.GcCollectors, strings.Join(c.Collectors, ", "))
	if len(c.Collectors) > 1 {
		out = append(out, emit(analysis.GcMultiple, strings.Join(c.Collectors, ", "))...)
	}
	for _, gc := range c.Collectors {
		switch gc {
		case facts.GcCMS:
			out = append(out, emit(analysis.GcCmsDeprecated)...)
		case facts.GcSerial:
			if max := facts.MaxHeapSize(c.Doc); max.GtV(serialHeapLimit) {
				out = append(out, emit(analysis.GcSerialLargeHeap, size(max))...)
			}
		}
	}
	return out
}

func gcHeapUsage(c *Context) []Candidate {
	used := facts.HeapUsed(c.Doc)
	max := facts.MaxHeapSize(c.Doc)
	if p, ok := percent(used, max); ok && p >= heapFullPercent {
		return emit(analysis.GcHeapFull, p, size(used), size(max))
	}
	return nil
}

func gcMetaspace(c *Context) []Candidate {
	used := facts.MetaspaceUsed(c.Doc)
	max := facts.MaxMetaspaceSize(c.Doc)
	if p, ok := percent(used, max); ok && p >= metaspaceFullPercent {
		return emit(analysis.GcMetaspaceNearMax, p, size(used), size(max))
	}
	return nil
}

func codeCache(c *Context) []Candidate {
	total := facts.CodeCacheSize(c.Doc)
	if facts.IsCodeCacheFull(c.Doc) {
		return emit(analysis.CodeCacheFull, size(total))
	}
	used := facts.CodeCacheUsed(c.Doc)
	if p, ok := percent(used, total); ok && p >= codeCacheFullPercent {
		return emit(analysis.CodeCacheNearFull, p, size(used), size(total))
	}
	return nil
}
