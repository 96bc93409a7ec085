package event

import (
	"regexp"
	"strings"

	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// HeapShape identifies which collector-specific line a heap summary line is.
type HeapShape string

const (
	ShapeNone            HeapShape = ""
	ShapePSYoungGen      HeapShape = "PSYoungGen"
	ShapeParOldGen       HeapShape = "ParOldGen"
	ShapePSOldGen        HeapShape = "PSOldGen"
	ShapeDefNew          HeapShape = "def new generation"
	ShapeTenured         HeapShape = "tenured generation"
	ShapeParNew          HeapShape = "par new generation"
	ShapeConcMarkSweep   HeapShape = "concurrent mark-sweep generation"
	ShapeG1              HeapShape = "garbage-first heap"
	ShapeShenandoahTitle HeapShape = "Shenandoah Heap"
	ShapeShenandoah      HeapShape = "Shenandoah totals"
	ShapeZ               HeapShape = "ZHeap"
	ShapeMetaspace       HeapShape = "Metaspace"
	ShapeClassSpace      HeapShape = "class space"
)

var (
	generationPattern = regexp.MustCompile(`^\s*(PSYoungGen|ParOldGen|PSOldGen|def new generation|tenured generation|par new generation|concurrent mark-sweep generation|garbage-first heap)\s+total (\d+)K, used (\d+)K`)
	shenandoahPattern = regexp.MustCompile(`^\s*(\d+)K (?:total|max), (?:.*?)(\d+)K committed, (\d+)K used`)
	zHeapPattern      = regexp.MustCompile(`^\s*ZHeap\s+used (\d+)M, capacity (\d+)M, max capacity (\d+)M`)
	metaspacePattern  = regexp.MustCompile(`^\s*(Metaspace|class space)\s+used (\d+)K,(?: capacity (\d+)K,)? committed (\d+)K, reserved (\d+)K`)

	heapAddressPattern = regexp.MustCompile(`^Heap address: (0x[0-9a-fA-F]+), size: (\d+) MB, Compressed Oops mode: ([^,]+)(?:, Oop shift amount: (\d+))?`)
	classSpacePattern  = regexp.MustCompile(`^Compressed class space (?:size: (\d+) Address: (0x[0-9a-fA-F]+)|mapped at: (0x[0-9a-fA-F]+)-(0x[0-9a-fA-F]+), reserved size: (\d+))`)
	narrowKlassPattern = regexp.MustCompile(`^Narrow klass base: (0x[0-9a-fA-F]+), Narrow klass shift: (\d+)`)
	codeCachePattern   = regexp.MustCompile(`^(CodeCache|CodeHeap '[^']+'): size=(\d+)Kb used=(\d+)Kb max_used=(\d+)Kb free=(\d+)Kb`)
	preciousLogPattern = regexp.MustCompile(`^\s+([A-Za-z][A-Za-z -]+):\s+(.+)$`)
)

// HeapLine is one line of the "Heap:" section.
type HeapLine struct{ Event }

// Shape returns which collector-specific summary this line is.
func (h HeapLine) Shape() HeapShape {
	if m := generationPattern.FindStringSubmatch(h.Line); m != nil {
		return HeapShape(m[1])
	}
	if m := metaspacePattern.FindStringSubmatch(h.Line); m != nil {
		return HeapShape(m[1])
	}
	switch {
	case strings.TrimSpace(h.Line) == "Shenandoah Heap":
		return ShapeShenandoahTitle
	case shenandoahPattern.MatchString(h.Line):
		return ShapeShenandoah
	case zHeapPattern.MatchString(h.Line):
		return ShapeZ
	}
	return ShapeNone
}

// Total returns the capacity of a generation or heap in bytes.
func (h HeapLine) Total() opt.Value[int64] {
	if m := generationPattern.FindStringSubmatch(h.Line); m != nil {
		return kilobytes(m[2])
	}
	if m := shenandoahPattern.FindStringSubmatch(h.Line); m != nil {
		return kilobytes(m[2])
	}
	if m := zHeapPattern.FindStringSubmatch(h.Line); m != nil {
		return sized(m[2], "M")
	}
	return opt.None[int64]()
}

// Used returns the bytes in use in a generation, heap or metaspace.
func (h HeapLine) Used() opt.Value[int64] {
	if m := generationPattern.FindStringSubmatch(h.Line); m != nil {
		return kilobytes(m[3])
	}
	if m := shenandoahPattern.FindStringSubmatch(h.Line); m != nil {
		return kilobytes(m[3])
	}
	if m := zHeapPattern.FindStringSubmatch(h.Line); m != nil {
		return sized(m[1], "M")
	}
	if m := metaspacePattern.FindStringSubmatch(h.Line); m != nil {
		return kilobytes(m[2])
	}
	return opt.None[int64]()
}

// MaxCapacity returns the ZGC max capacity in bytes.
func (h HeapLine) MaxCapacity() opt.Value[int64] {
	if m := zHeapPattern.FindStringSubmatch(h.Line); m != nil {
		return sized(m[3], "M")
	}
	return opt.None[int64]()
}

// Committed returns committed bytes of a metaspace line.
func (h HeapLine) Committed() opt.Value[int64] {
	return kilobytes(submatch(metaspacePattern, h.Line, 4))
}

// Reserved returns reserved bytes of a metaspace line.
func (h HeapLine) Reserved() opt.Value[int64] {
	return kilobytes(submatch(metaspacePattern, h.Line, 5))
}

// HeapAddressLine is "Heap address: 0x..., size: N MB, Compressed Oops mode: ...".
type HeapAddressLine struct{ Event }

// Address returns the heap base address.
func (h HeapAddressLine) Address() opt.Value[int64] {
	return parseHex(submatch(heapAddressPattern, h.Line, 1))
}

// Size returns the reserved heap size in bytes.
func (h HeapAddressLine) Size() opt.Value[int64] {
	return sized(submatch(heapAddressPattern, h.Line, 2), "M")
}

// CompressedOopsMode returns the mode, as in "Zero based" or "32-bit".
func (h HeapAddressLine) CompressedOopsMode() string {
	return strings.TrimSpace(submatch(heapAddressPattern, h.Line, 3))
}

// ClassSpaceLine is the "Compressed class space" line.
type ClassSpaceLine struct{ Event }

// Size returns the compressed class space size in bytes.
func (c ClassSpaceLine) Size() opt.Value[int64] {
	m := classSpacePattern.FindStringSubmatch(c.Line)
	if m == nil {
		return opt.None[int64]()
	}
	if m[1] != "" {
		return parseInt(m[1])
	}
	return parseInt(m[5])
}

// NarrowKlassLine is the "Narrow klass base:" line.
type NarrowKlassLine struct{ Event }

// Base returns the narrow klass base.
func (n NarrowKlassLine) Base() opt.Value[int64] {
	return parseHex(submatch(narrowKlassPattern, n.Line, 1))
}

// Shift returns the narrow klass shift.
func (n NarrowKlassLine) Shift() opt.Value[int64] {
	return parseInt(submatch(narrowKlassPattern, n.Line, 2))
}

// CodeCacheLine is a "CodeCache:" or "CodeHeap '...':" summary line.
type CodeCacheLine struct{ Event }

// IsSummary reports a line carrying size and usage.
func (c CodeCacheLine) IsSummary() bool {
	return codeCachePattern.MatchString(c.Line)
}

// Name returns "CodeCache" or the code heap name.
func (c CodeCacheLine) Name() string {
	return submatch(codeCachePattern, c.Line, 1)
}

// Size returns the size in bytes.
func (c CodeCacheLine) Size() opt.Value[int64] {
	return kilobytes(submatch(codeCachePattern, c.Line, 2))
}

// Used returns the bytes in use.
func (c CodeCacheLine) Used() opt.Value[int64] {
	return kilobytes(submatch(codeCachePattern, c.Line, 3))
}

// MaxUsed returns the high water mark in bytes.
func (c CodeCacheLine) MaxUsed() opt.Value[int64] {
	return kilobytes(submatch(codeCachePattern, c.Line, 4))
}

// Free returns the free bytes.
func (c CodeCacheLine) Free() opt.Value[int64] {
	return kilobytes(submatch(codeCachePattern, c.Line, 5))
}

// IsCompilationDisabled reports " compilation: disabled (not enough contiguous free space left)".
func (c CodeCacheLine) IsCompilationDisabled() bool {
	return strings.Contains(c.Line, "compilation: disabled")
}

// PreciousLogLine is one " Key: value" line of the GC Precious Log.
type PreciousLogLine struct{ Event }

// Key returns the entry name, as in "Heap Max Capacity".
func (p PreciousLogLine) Key() string {
	return strings.TrimSpace(submatch(preciousLogPattern, p.Line, 1))
}

// Value returns the raw entry value.
func (p PreciousLogLine) Value() string {
	return strings.TrimSpace(submatch(preciousLogPattern, p.Line, 2))
}

// Bytes returns the value as a size, for entries such as "3972M".
func (p PreciousLogLine) Bytes() opt.Value[int64] {
	return units.ParseSize(p.Value())
}
