package classify

import (
	"regexp"
	"strings"

	"hserr-agent/src/event"
)

// rule maps a line to a kind. Rules are tried in table order and the first
// match wins.
type rule struct {
	kind  event.Kind
	match func(line string, prev event.Event) bool
	// title reports whether a matched line opens a section without
	// carrying a value of its own.
	title func(line string) bool
}

func always(string) bool { return true }
func never(string) bool  { return false }

func endsWithColon(line string) bool {
	return strings.HasSuffix(strings.TrimSpace(line), ":")
}

// anchor matches a context-free single line carrying a value.
func anchor(k event.Kind, pattern string) rule {
	re := regexp.MustCompile(pattern)
	return rule{kind: k, match: func(line string, _ event.Event) bool { return re.MatchString(line) }, title: never}
}

// heading matches a context-free line that opens a section.
func heading(k event.Kind, pattern string) rule {
	re := regexp.MustCompile(pattern)
	return rule{kind: k, match: func(line string, _ event.Event) bool { return re.MatchString(line) }, title: always}
}

// headingOrValue matches a line that carries its value inline or, when it
// ends with a colon, on the following line.
func headingOrValue(k event.Kind, pattern string, isTitle func(string) bool) rule {
	re := regexp.MustCompile(pattern)
	return rule{kind: k, match: func(line string, _ event.Event) bool { return re.MatchString(line) }, title: isTitle}
}

// member matches any non-blank line that follows a line of the same kind.
func member(k event.Kind) rule {
	return rule{
		kind: k,
		match: func(line string, prev event.Event) bool {
			return prev.Kind == k && strings.TrimSpace(line) != ""
		},
		title: never,
	}
}

// memberOf matches any non-blank line following a line of one of the
// given kinds.
func memberOf(k event.Kind, within ...event.Kind) rule {
	return rule{
		kind: k,
		match: func(line string, prev event.Event) bool {
			if strings.TrimSpace(line) == "" {
				return false
			}
			for _, w := range within {
				if prev.Kind == w {
					return true
				}
			}
			return false
		},
		title: never,
	}
}

// memberMatching matches a line of the given shape following a line of the
// same kind.
func memberMatching(k event.Kind, pattern string) rule {
	re := regexp.MustCompile(pattern)
	return rule{
		kind: k,
		match: func(line string, prev event.Event) bool {
			return prev.Kind == k && re.MatchString(line)
		},
		title: never,
	}
}

// valueAfter matches the value line following a heading of kind k.
func valueAfter(k event.Kind, pattern string) rule {
	re := regexp.MustCompile(pattern)
	return rule{
		kind: k,
		match: func(line string, prev event.Event) bool {
			return prev.Kind == k && prev.Header && re.MatchString(line)
		},
		title: never,
	}
}

// spanning matches every line, blank or not, following a line of kind k.
// These sections contain blank lines and end at the next anchor or heading.
func spanning(k event.Kind) rule {
	return rule{
		kind:  k,
		match: func(_ string, prev event.Event) bool { return prev.Kind == k },
		title: never,
	}
}

const eventSectionSuffix = ` \(\d+ events?\):$`

var eventSections = []struct {
	kind  event.Kind
	title string
}{
	{event.CompilationEvent, `Compilation events`},
	{event.GcHeapHistoryEvent, `GC Heap History`},
	{event.DeoptimizationEvent, `Deoptimization events`},
	{event.ClassesRedefinedEvent, `Classes redefined`},
	{event.ClassesLoadedEvent, `Classes loaded`},
	{event.ClassesUnloadedEvent, `Classes unloaded`},
	{event.InternalExceptionEvent, `Internal exceptions`},
	{event.VmOperationEvent, `VM Operations`},
	{event.DllOperationEvent, `Dll operation events`},
	{event.OtherEvent, `(?:Memory protections|Nmethod flushes|ZGC Phase Switch|Other events|Release of memory)`},
	{event.VmEvent, `Events`},
}

// spanningKinds contain blank lines inside the section.
var spanningKinds = []event.Kind{
	event.RegisterToMemoryMapping,
	event.StackSlotToMemoryMapping,
	event.Metaspace,
	event.NativeMemoryTracking,
}

// memberKinds accept any non-blank line while the section is open.
var memberKinds = []event.Kind{
	event.CurrentCompileTask,
	event.Register,
	event.TopOfStack,
	event.Instructions,
	event.Thread,
	event.ThreadsClassSmrInfo,
	event.GcPreciousLog,
	event.Heap,
	event.HeapRegions,
	event.MarkingBits,
	event.DynamicLibrary,
	event.VmArguments,
	event.GlobalFlag,
	event.Logging,
	event.EnvironmentVariable,
	event.Locale,
	event.SignalHandler,
	event.Os,
	event.Meminfo,
	event.Container,
	event.TransparentHugepage,
	event.ProcessMemory,
	event.Cpu,
	event.CpuInfo,
	event.Virtualization,
	event.ExceptionCounts,
}

// table builds the ordered rule table. Order matters:
//  1. "#" header lines.
//  2. Anchors and headings, which are recognizable without context.
//  3. Sections that contain blank lines.
//  4. Blank lines, which close every other section.
//  5. Section members, which depend on the previous line's kind.
//  6. Context-free fallbacks for lines that survive a blank line.
func table() []rule {
	rules := []rule{
		anchor(event.Header, `^#`),

		anchor(event.Banner, `^-{3,}\s+(?:[A-Z] ?)+\s*-{3,}\s*$`),
		anchor(event.End, `^END\.\s*$`),
		anchor(event.CurrentThread, `^Current thread (?:\(0x[0-9a-fA-F]+\)|is native thread)`),
		heading(event.CurrentCompileTask, `^Current CompileTask:\s*$`),
		anchor(event.SigInfo, `^siginfo:`),
		heading(event.Register, `^Registers:\s*$`),
		heading(event.RegisterToMemoryMapping, `^Register to memory mapping:\s*$`),
		heading(event.TopOfStack, `^Top of Stack: \(sp=0x[0-9a-fA-F]+\)`),
		heading(event.Instructions, `^Instructions: \(pc=0x[0-9a-fA-F]+\)`),
		heading(event.StackSlotToMemoryMapping, `^Stack slot to memory mapping:\s*$`),
		anchor(event.StackHeader, `^Stack: \[0x[0-9a-fA-F]+,\s*0x[0-9a-fA-F]+\]`),
		heading(event.FrameSection, `^(?:Native|Java) frames: \(`),
		heading(event.Thread, `^(?:Java Threads: \( => current thread \)|Other Threads:|Threads with active compile tasks:)\s*$`),
		heading(event.ThreadsClassSmrInfo, `^Threads class SMR info:\s*$`),
		anchor(event.VmState, `^VM state:`),
		heading(event.VmMutex, `^VM Mutex/Monitor currently owned by a thread:`),
		anchor(event.VmOperation, `^VM_Operation \(0x[0-9a-fA-F]+\):`),
		anchor(event.HeapAddress, `^Heap address: 0x[0-9a-fA-F]+`),
		anchor(event.CdsArchive, `^CDS (?:archive\(s\)|disabled)`),
		anchor(event.CompressedClassSpace, `^Compressed class space (?:size|mapped at):`),
		anchor(event.NarrowKlass, `^Narrow klass base:`),
		heading(event.GcPreciousLog, `^GC Precious Log:\s*$`),
		heading(event.Heap, `^Heap:\s*$`),
		heading(event.HeapRegions, `^Heap Regions:`),
		anchor(event.CardTable, `^Card table byte_map:`),
		heading(event.MarkingBits, `^Marking Bits`),
		anchor(event.PollingPage, `^Polling page:`),
		heading(event.Metaspace, `^Metaspace:\s*$`),
		anchor(event.CodeCache, `^(?:CodeCache|CodeHeap '[^']+'): size=\d+Kb`),
	}
	for _, s := range eventSections {
		rules = append(rules, heading(s.kind, `^`+s.title+eventSectionSuffix))
	}
	rules = append(rules,
		heading(event.DynamicLibrary, `^Dynamic libraries:\s*$`),
		heading(event.VmArguments, `^VM Arguments:\s*$`),
		anchor(event.CommandLine, `^Command Line:`),
		heading(event.GlobalFlag, `^\[Global flags\]\s*$`),
		heading(event.Logging, `^Logging:\s*$`),
		heading(event.EnvironmentVariable, `^Environment Variables:\s*$`),
		heading(event.Locale, `^Active Locale:\s*$`),
		heading(event.SignalHandler, `^Signal Handlers:\s*$`),
		heading(event.NativeMemoryTracking, `^Native Memory Tracking:\s*$`),
		headingOrValue(event.Os, `^OS:`, func(line string) bool { return strings.TrimSpace(line) == "OS:" }),
		anchor(event.Host, `^Host: `),
		anchor(event.Uname, `^uname:`),
		anchor(event.OsUptime, `^OS uptime:`),
		anchor(event.Libc, `^libc:`),
		anchor(event.Rlimit, `^rlimit(?: \(soft/hard\))?:`),
		anchor(event.LoadAverage, `^load average:`),
		heading(event.Meminfo, `^/proc/meminfo:\s*$`),
		heading(event.Container, `^container \(cgroup\) information:\s*$`),
		headingOrValue(event.ThreadsMax, `^/proc/sys/kernel/threads-max\b`, endsWithColon),
		headingOrValue(event.MaxMapCount, `^/proc/sys/vm/max_map_count\b`, endsWithColon),
		headingOrValue(event.PidMax, `^/proc/sys/kernel/pid_max\b`, endsWithColon),
		headingOrValue(event.OvercommitMemory, `^/proc/sys/vm/overcommit_memory\b`, endsWithColon),
		headingOrValue(event.TransparentHugepage, `^/sys/kernel/mm/transparent_hugepage/(?:enabled|defrag)\b`, endsWithColon),
		heading(event.ProcessMemory, `^Process Memory:\s*$`),
		anchor(event.Cpu, `^CPU:\s*total \d+`),
		heading(event.CpuInfo, `^/proc/cpuinfo:\s*$`),
		anchor(event.Memory, `^Memory: ?\d+k page`),
		anchor(event.VmInfo, `^vm_info:`),
		anchor(event.Time, `^[Tt]ime: \w{3} \w{3}`),
		anchor(event.Timezone, `^timezone:`),
		anchor(event.ElapsedTime, `^elapsed time:`),
		anchor(event.Virtualization, `^(?:\w+ )?virtualization detected`),
		anchor(event.Virtualization, `^Steal ticks (?:percentage )?since vm start:`),
		heading(event.ExceptionCounts, `^OutOfMemory and StackOverflow Exception counts:\s*$`),
	)

	for _, k := range spanningKinds {
		rules = append(rules, spanning(k))
	}

	rules = append(rules, anchor(event.Blank, `^\s*$`))

	rules = append(rules,
		valueAfter(event.ThreadsMax, `^\s*\d+\s*$`),
		valueAfter(event.MaxMapCount, `^\s*\d+\s*$`),
		valueAfter(event.PidMax, `^\s*\d+\s*$`),
		valueAfter(event.OvercommitMemory, `^\s*\d+\s*$`),
		memberMatching(event.Memory, `^(?:TotalPageFile size|current process|Page Sizes:)`),
		memberMatching(event.VmMutex, `^\[0x[0-9a-fA-F]+\]`),
		memberMatching(event.CodeCache, `^\s+\S`),
		memberOf(event.Frame, event.FrameSection, event.Frame),
	)
	for _, s := range eventSections {
		rules = append(rules, member(s.kind))
	}
	for _, k := range memberKinds {
		rules = append(rules, member(k))
	}

	rules = append(rules,
		anchor(event.CpuInfo, `^(?:processor|vendor_id|cpu family|model|model name|stepping|microcode|cpu MHz|cache size|physical id|siblings|core id|cpu cores|apicid|initial apicid|fpu|fpu_exception|cpuid level|wp|flags|bugs|bogomips|clflush size|cache_alignment|address sizes|power management|BogoMIPS|Features|CPU implementer|CPU architecture|CPU variant|CPU part|CPU revision|Online cpus|Offline cpus|BIOS frequency limitation|Frequency switch latency \(ns\)|Available cpu frequencies|Current governor|Core performance/boost)\s*:`),
	)
	return rules
}
