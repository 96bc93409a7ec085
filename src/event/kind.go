package event

// Kind is the closed set of line kinds found in a JVM fatal error log.
type Kind int

const (
	Unknown Kind = iota
	Blank
	Header
	Banner
	End
	CurrentThread
	CurrentCompileTask
	SigInfo
	Register
	RegisterToMemoryMapping
	TopOfStack
	Instructions
	StackSlotToMemoryMapping
	StackHeader
	FrameSection
	Frame
	Thread
	ThreadsClassSmrInfo
	VmState
	VmMutex
	VmOperation
	HeapAddress
	CdsArchive
	CompressedClassSpace
	NarrowKlass
	GcPreciousLog
	Heap
	HeapRegions
	CardTable
	MarkingBits
	PollingPage
	Metaspace
	CodeCache
	CompilationEvent
	GcHeapHistoryEvent
	DeoptimizationEvent
	ClassesRedefinedEvent
	ClassesLoadedEvent
	ClassesUnloadedEvent
	InternalExceptionEvent
	VmOperationEvent
	DllOperationEvent
	OtherEvent
	VmEvent
	DynamicLibrary
	VmArguments
	CommandLine
	GlobalFlag
	Logging
	EnvironmentVariable
	Locale
	SignalHandler
	NativeMemoryTracking
	Os
	Host
	Uname
	OsUptime
	Libc
	Rlimit
	LoadAverage
	Meminfo
	Container
	ThreadsMax
	MaxMapCount
	PidMax
	OvercommitMemory
	TransparentHugepage
	ProcessMemory
	Cpu
	CpuInfo
	Memory
	VmInfo
	Time
	Timezone
	ElapsedTime
	Virtualization
	ExceptionCounts

	kindCount
)

var kindNames = [kindCount]string{
	Unknown:                  "unknown",
	Blank:                    "blank",
	Header:                   "header",
	Banner:                   "banner",
	End:                      "end",
	CurrentThread:            "current-thread",
	CurrentCompileTask:       "current-compile-task",
	SigInfo:                  "siginfo",
	Register:                 "register",
	RegisterToMemoryMapping:  "register-to-memory-mapping",
	TopOfStack:               "top-of-stack",
	Instructions:             "instructions",
	StackSlotToMemoryMapping: "stack-slot-to-memory-mapping",
	StackHeader:              "stack-header",
	FrameSection:             "frame-section",
	Frame:                    "frame",
	Thread:                   "thread",
	ThreadsClassSmrInfo:      "threads-class-smr-info",
	VmState:                  "vm-state",
	VmMutex:                  "vm-mutex",
	VmOperation:              "vm-operation",
	HeapAddress:              "heap-address",
	CdsArchive:               "cds-archive",
	CompressedClassSpace:     "compressed-class-space",
	NarrowKlass:              "narrow-klass",
	GcPreciousLog:            "gc-precious-log",
	Heap:                     "heap",
	HeapRegions:              "heap-regions",
	CardTable:                "card-table",
	MarkingBits:              "marking-bits",
	PollingPage:              "polling-page",
	Metaspace:                "metaspace",
	CodeCache:                "code-cache",
	CompilationEvent:         "compilation-event",
	GcHeapHistoryEvent:       "gc-heap-history-event",
	DeoptimizationEvent:      "deoptimization-event",
	ClassesRedefinedEvent:    "classes-redefined-event",
	ClassesLoadedEvent:       "classes-loaded-event",
	ClassesUnloadedEvent:     "classes-unloaded-event",
	InternalExceptionEvent:   "internal-exception-event",
	VmOperationEvent:         "vm-operation-event",
	DllOperationEvent:        "dll-operation-event",
	OtherEvent:               "other-event",
	VmEvent:                  "vm-event",
	DynamicLibrary:           "dynamic-library",
	VmArguments:              "vm-arguments",
	CommandLine:              "command-line",
	GlobalFlag:               "global-flag",
	Logging:                  "logging",
	EnvironmentVariable:      "environment-variable",
	Locale:                   "locale",
	SignalHandler:            "signal-handler",
	NativeMemoryTracking:     "native-memory-tracking",
	Os:                       "os",
	Host:                     "host",
	Uname:                    "uname",
	OsUptime:                 "os-uptime",
	Libc:                     "libc",
	Rlimit:                   "rlimit",
	LoadAverage:              "load-average",
	Meminfo:                  "meminfo",
	Container:                "container",
	ThreadsMax:               "threads-max",
	MaxMapCount:              "max-map-count",
	PidMax:                   "pid-max",
	OvercommitMemory:         "overcommit-memory",
	TransparentHugepage:      "transparent-hugepage",
	ProcessMemory:            "process-memory",
	Cpu:                      "cpu",
	CpuInfo:                  "cpuinfo",
	Memory:                   "memory",
	VmInfo:                   "vm-info",
	Time:                     "time",
	Timezone:                 "timezone",
	ElapsedTime:              "elapsed-time",
	Virtualization:           "virtualization",
	ExceptionCounts:          "exception-counts",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// Kinds returns every kind except Unknown, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := Kind(1); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return Unknown, false
}

// Singleton reports whether a report carries at most one value line of k.
func (k Kind) Singleton() bool {
	switch k {
	case SigInfo, Time, Timezone, ElapsedTime, Uname, CommandLine, VmInfo,
		VmOperation, VmState, HeapAddress, NarrowKlass, CompressedClassSpace,
		Rlimit, MaxMapCount, PidMax, OvercommitMemory, ThreadsMax, CurrentThread,
		CurrentCompileTask, Host, Libc, LoadAverage, OsUptime, Cpu,
		StackHeader, TransparentHugepage, CardTable, PollingPage, CdsArchive,
		End, Memory, Os:
		return true
	case Unknown, Blank, Header, Banner, Register, RegisterToMemoryMapping,
		TopOfStack, Instructions, StackSlotToMemoryMapping, FrameSection,
		Frame, Thread, ThreadsClassSmrInfo, VmMutex, GcPreciousLog, Heap,
		HeapRegions, MarkingBits, Metaspace, CodeCache, CompilationEvent,
		GcHeapHistoryEvent, DeoptimizationEvent, ClassesRedefinedEvent,
		ClassesLoadedEvent, ClassesUnloadedEvent, InternalExceptionEvent,
		VmOperationEvent, DllOperationEvent, OtherEvent, VmEvent,
		DynamicLibrary, VmArguments, GlobalFlag, Logging,
		EnvironmentVariable, Locale, SignalHandler, NativeMemoryTracking,
		Meminfo, Container, ProcessMemory, CpuInfo, Virtualization,
		ExceptionCounts:
		return false
	}
	panic("event: Singleton: unhandled kind " + k.String())
}
