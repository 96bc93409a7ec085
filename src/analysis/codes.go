// Package analysis defines the diagnostic codes a crash report can produce
// and the ordered list they are collected in.
package analysis

import (
	"fmt"
	"sort"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
)

// Rank orders severities from most to least severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarn:
		return 1
	}
	return 2
}

// Code identifies one diagnostic conclusion.
type Code string

// Reference database, vendor and install type.
const (
	ReleaseNotLatest    Code = "release.not-latest"
	ReleaseUnknownBuild Code = "release.unknown-build"
	ReleaseUnconfirmed  Code = "release.unconfirmed"
	ReleaseOld          Code = "release.old"
	ReleaseEol          Code = "release.eol"
	ReleaseDebugBuild   Code = "release.debug-build"
	VendorRedHat        Code = "vendor.redhat"
	VendorOther         Code = "vendor.other"
	VendorUnknown       Code = "vendor.unknown"
	InstallPackage      Code = "install.package"
	InstallArchive      Code = "install.archive"
	InstallRepackaged   Code = "install.repackaged"
	OsRuntimeMismatch   Code = "os.runtime-mismatch"
	OsRhelEol           Code = "os.rhel-eol"
	OsUnsupported       Code = "os.unsupported"
)

// Crash location.
const (
	CrashSignal         Code = "crash.signal"
	CrashNullPointer    Code = "crash.null-pointer"
	CrashJvmCode        Code = "crash.jvm-code"
	CrashNativeLibrary  Code = "crash.native-library"
	CrashCompiledCode   Code = "crash.compiled-code"
	CrashCompilerThread Code = "crash.compiler-thread"
	CrashGcThread       Code = "crash.gc-thread"
	CrashInternalError  Code = "crash.internal-error"
	CrashStackOverflow  Code = "crash.stack-overflow"
	CrashNativeThread   Code = "crash.native-thread"
	CrashVmThread       Code = "crash.vm-thread"
	CrashDuringGc       Code = "crash.during-gc"
	CrashAbort          Code = "crash.abort"
)

// Known defect signatures.
const (
	DefectG1Evacuation      Code = "defect.g1-evacuation"
	DefectCmsPromotion      Code = "defect.cms-promotion"
	DefectZipModified       Code = "defect.zip-modified"
	DefectFontRendering     Code = "defect.font-rendering"
	DefectC2Optimization    Code = "defect.c2-optimization"
	DefectC1Compilation     Code = "defect.c1-compilation"
	DefectMallocCorruption  Code = "defect.malloc-corruption"
	DefectNss               Code = "defect.nss"
	DefectUnsafeAccess      Code = "defect.unsafe-access"
	DefectMappedFile        Code = "defect.mapped-file"
	DefectPerfData          Code = "defect.perf-data"
	DefectShenandoahBarrier Code = "defect.shenandoah-barrier"
	DefectJfr               Code = "defect.jfr"
	DefectJvmtiAgent        Code = "defect.jvmti-agent"
	DefectClassUnloading    Code = "defect.class-unloading"
	DefectJna               Code = "defect.jna"
	DefectAwtHeadless       Code = "defect.awt-headless"
)

// Out of memory.
const (
	OomJavaHeap         Code = "oom.java-heap"
	OomMetaspace        Code = "oom.metaspace"
	OomClassSpace       Code = "oom.class-space"
	OomNative           Code = "oom.native"
	OomStartupLimit     Code = "oom.startup-limit"
	OomExternalPressure Code = "oom.external-pressure"
	OomSelfLimit        Code = "oom.self-limit"
	OomContainer        Code = "oom.container"
	OomOvercommit       Code = "oom.overcommit"
	OomBallooning       Code = "oom.ballooning"
	OomThreads          Code = "oom.threads"
	OomMapCount         Code = "oom.map-count"
	OomPageFile         Code = "oom.page-file"
)

// Memory configuration.
const (
	MemoryNoSwap               Code = "memory.no-swap"
	MemoryHeapExceedsPhysical  Code = "memory.heap-exceeds-physical"
	MemoryHeapExceedsContainer Code = "memory.heap-exceeds-container"
	MemoryLowFree              Code = "memory.low-free"
	MemoryHugePagesUnused      Code = "memory.hugepages-unused"
	MemoryThpAlways            Code = "memory.thp-always"
	MemoryNoCompressedOops     Code = "memory.no-compressed-oops"
	MemoryNearOopsLimit        Code = "memory.near-oops-limit"
	MemoryFootprint            Code = "memory.footprint"
)

// Garbage collection and code cache.
const (
	GcCollectors       Code = "gc.collectors"
	GcMultiple         Code = "gc.multiple"
	GcCmsDeprecated    Code = "gc.cms-deprecated"
	GcSerialLargeHeap  Code = "gc.serial-large-heap"
	GcHeapFull         Code = "gc.heap-full"
	GcMetaspaceNearMax Code = "gc.metaspace-near-max"
	CodeCacheFull      Code = "codecache.full"
	CodeCacheNearFull  Code = "codecache.near-full"
)

// Threads.
const (
	ThreadStackSmall  Code = "thread.stack-small"
	ThreadCountHigh   Code = "thread.count-high"
	ThreadNprocLow    Code = "thread.nproc-low"
	ThreadStackRlimit Code = "thread.stack-rlimit-unlimited"
)

// Operating system and environment.
const (
	OsContainer        Code = "os.container"
	OsVirtualized      Code = "os.virtualized"
	OsGlibcOld         Code = "os.glibc-old"
	OsCoreDumpDisabled Code = "os.core-dump-disabled"
	OsCoreDumpWritten  Code = "os.core-dump-written"
	OsLoadHigh         Code = "os.load-high"
	OsNofileLow        Code = "os.nofile-low"
)

// Native libraries and agents.
const (
	NativeThirdParty   Code = "native.third-party"
	NativeAgents       Code = "native.agents"
	NativeKnownLibrary Code = "native.known-library"
	NativeDebugger     Code = "native.debugger"
)

// Exceptions thrown before the crash.
const (
	ExceptionStackOverflow Code = "exception.stack-overflow"
	ExceptionOutOfMemory   Code = "exception.out-of-memory"
	ExceptionLinkage       Code = "exception.linkage"
)

// Core-level option findings.
const (
	OptsHeapDumpPath Code = "opts.heap-dump-path"
	OptsNoHeapDump   Code = "opts.no-heap-dump"
	OptsExitOnOom    Code = "opts.exit-on-oom"
)

// Runtime-options analyzer findings.
const (
	OptsXssSmall          Code = "opts.xss-small"
	OptsDeprecated        Code = "opts.deprecated"
	OptsRemoved           Code = "opts.removed"
	OptsDuplicate         Code = "opts.duplicate"
	OptsGcConflict        Code = "opts.gc-conflict"
	OptsXmsGreaterXmx     Code = "opts.xms-greater-xmx"
	OptsHeapExceedsMemory Code = "opts.heap-exceeds-memory"
	OptsContainerSupport  Code = "opts.container-support-disabled"
	OptsUnlocked          Code = "opts.unlocked"
	OptsLargeHeap32       Code = "opts.large-heap-32bit"
)

// Log quality.
const (
	LogStale        Code = "log.stale"
	LogTruncated    Code = "log.truncated"
	LogUnidentified Code = "log.unidentified"
)

// Entry describes a code.
type Entry struct {
	Code     Code
	Severity Severity
	// Template is a fmt format filled from the diagnostic arguments.
	Template string
}

var entries = []Entry{
	{ReleaseNotLatest, SeverityWarn, "Runtime %s is %d release(s) behind the latest known build %s%s."},
	{ReleaseUnknownBuild, SeverityWarn, "Runtime %s built %s by %s does not match any known build; its origin is unconfirmed."},
	{ReleaseUnconfirmed, SeverityInfo, "Runtime %s matches known release %s, but its build time is not recorded; the identity is unconfirmed."},
	{ReleaseOld, SeverityWarn, "Runtime is %d days old; builds older than a year miss many fixes."},
	{ReleaseEol, SeverityWarn, "Java %d is not a long-term support release and no longer receives updates."},
	{ReleaseDebugBuild, SeverityInfo, "Runtime is a debug build; it is slower and asserts more than a product build."},
	{VendorRedHat, SeverityInfo, "Runtime is a Red Hat build of OpenJDK (%s)."},
	{VendorOther, SeverityInfo, "Runtime vendor is %s."},
	{VendorUnknown, SeverityInfo, "Runtime vendor could not be determined."},
	{InstallPackage, SeverityInfo, "Runtime is installed from the %s package."},
	{InstallArchive, SeverityInfo, "Runtime is installed from the portable archive %s."},
	{InstallRepackaged, SeverityWarn, "Runtime %s runs from %s instead of its package location; it was copied or repackaged and does not receive OS updates."},
	{OsRuntimeMismatch, SeverityWarn, "Runtime package %s is built for %s but the OS is RHEL %d."},
	{OsRhelEol, SeverityWarn, "RHEL %d is past the end of its maintenance support."},
	{OsUnsupported, SeverityInfo, "Runtime is a Red Hat build running on %s, which is not a supported platform for it."},

	{CrashSignal, SeverityInfo, "Crash signal %s%s at address %s."},
	{CrashNullPointer, SeverityInfo, "Fault address %s is in the first page of memory: a NULL pointer dereference."},
	{CrashJvmCode, SeverityError, "Crash in JVM code at %s; possibly a JVM defect."},
	{CrashNativeLibrary, SeverityError, "Crash in native library %s (%s), outside the JVM; that library is the first suspect."},
	{CrashCompiledCode, SeverityError, "Crash in JIT compiled method %s (%s); possibly a compiler defect. Work around it with -XX:CompileCommand=exclude,%s."},
	{CrashCompilerThread, SeverityError, "Crash in compiler thread %s while compiling %s. Work around it with -XX:CompileCommand=exclude,%s."},
	{CrashGcThread, SeverityError, "Crash in garbage collector thread %s; usually heap corruption caused by native code, Unsafe or faulty memory."},
	{CrashInternalError, SeverityError, "JVM internal error at %s: %s"},
	{CrashStackOverflow, SeverityError, "Thread stack overflow: %s free of a %s stack."},
	{CrashNativeThread, SeverityInfo, "Crash on a native thread not attached to the JVM; the cause is native code."},
	{CrashVmThread, SeverityInfo, "Crash in the VM thread during %s."},
	{CrashDuringGc, SeverityInfo, "Crash happened during a garbage collection (%s)."},
	{CrashAbort, SeverityError, "The process aborted in %s; native code called abort()."},

	{DefectG1Evacuation, SeverityError, "Crash copying objects during G1 evacuation (%s); typically heap corruption from JNI code or Unsafe, or bad memory. Run with -XX:+VerifyBeforeGC -XX:+VerifyAfterGC to localize it."},
	{DefectCmsPromotion, SeverityError, "Crash in the CMS collector (%s); CMS is unmaintained and removed in Java 14. Switch to G1."},
	{DefectZipModified, SeverityError, "Crash reading a JAR or ZIP file that was modified while open (%s). Do not replace JARs of a running application; on Java 8 -Dsun.zip.disableMemoryMapping=true avoids the crash."},
	{DefectFontRendering, SeverityError, "Crash in font rendering (%s). Install fontconfig and a font package, or run headless with -Djava.awt.headless=true."},
	{DefectC2Optimization, SeverityError, "Crash in a C2 optimization pass (%s). Update the runtime or exclude the method being compiled."},
	{DefectC1Compilation, SeverityError, "Crash in the C1 compiler (%s). Update the runtime or exclude the method being compiled."},
	{DefectMallocCorruption, SeverityError, "Crash inside glibc malloc (%s): the native heap is corrupted, usually by a JNI library. Run with MALLOC_CHECK_=3 to catch it earlier."},
	{DefectNss, SeverityError, "Crash in NSS (%s) used by the SunPKCS11 provider. Update nss or remove the provider from java.security."},
	{DefectUnsafeAccess, SeverityError, "Crash in sun.misc.Unsafe memory access (%s); the application or a library touched freed or unmapped memory."},
	{DefectMappedFile, SeverityError, "SIGBUS accessing a memory mapped file (%s); the file was truncated while mapped or its filesystem ran out of space."},
	{DefectPerfData, SeverityError, "SIGBUS writing the performance data file (%s); /tmp is full or not writable. Free space or run with -XX:-UsePerfData."},
	{DefectShenandoahBarrier, SeverityError, "Crash in a Shenandoah barrier (%s). Update the runtime; switch to G1 if it recurs."},
	{DefectJfr, SeverityError, "Crash in Java Flight Recorder (%s). Update the runtime or disable the recording."},
	{DefectJvmtiAgent, SeverityError, "Crash in a JVMTI callback with agents attached (%s); the agent is the first suspect."},
	{DefectClassUnloading, SeverityError, "Crash during class unloading (%s); update the runtime, or disable class unloading with -XX:-ClassUnloading as a workaround."},
	{DefectJna, SeverityError, "Crash in JNA native dispatch (%s); a Java library called native code with wrong arguments."},
	{DefectAwtHeadless, SeverityError, "Crash in AWT native code (%s) without a display. Run with -Djava.awt.headless=true."},

	{OomJavaHeap, SeverityError, "Java heap exhausted (%s): %s used of %s."},
	{OomMetaspace, SeverityError, "Metaspace exhausted: %s used, MaxMetaspaceSize %s."},
	{OomClassSpace, SeverityError, "Compressed class space exhausted: %s used of %s. Increase -XX:CompressedClassSpaceSize."},
	{OomNative, SeverityError, "Out of native memory: failed to allocate %s for %s."},
	{OomStartupLimit, SeverityError, "Allocation of %s failed %s after startup under the %s resource limit %s; the limit is too low for this JVM."},
	{OomExternalPressure, SeverityError, "Other processes exhausted the host memory: %s physical free of %s and %s swap free, while the JVM footprint is only %s."},
	{OomSelfLimit, SeverityError, "The JVM exhausted its own address space (%s); the Java heap reservation blocks native memory growth. Lower -Xmx or use a 64-bit runtime without a zero based heap."},
	{OomContainer, SeverityError, "Container memory limit %s reached (usage %s) while allocating %s."},
	{OomOvercommit, SeverityError, "Possible commit accounting limit, overcommit suspected: %s requested with %s commit headroom (CommitLimit %s, Committed_AS %s)."},
	{OomBallooning, SeverityError, "Hypervisor (%s) memory ballooning suspected: %s physical free of %s while the JVM footprint is only %s."},
	{OomThreads, SeverityError, "Thread creation is limited: %d threads against threads-max %s, pid_max %s and NPROC %s."},
	{OomMapCount, SeverityError, "The process has %d memory mappings, at the vm.max_map_count limit of %d."},
	{OomPageFile, SeverityError, "Windows page file exhausted: %s available of %s. Enlarge the page file or reduce -Xmx."},

	{MemoryNoSwap, SeverityInfo, "No swap space is configured."},
	{MemoryHeapExceedsPhysical, SeverityWarn, "Maximum heap %s is more than %d%% of physical memory %s."},
	{MemoryHeapExceedsContainer, SeverityError, "Maximum heap %s exceeds the container memory limit %s."},
	{MemoryLowFree, SeverityWarn, "Physical memory was nearly exhausted: %s free of %s."},
	{MemoryHugePagesUnused, SeverityWarn, "%s is reserved for %d explicit huge pages of %s, but the JVM does not use large pages; that memory is unavailable to it."},
	{MemoryThpAlways, SeverityWarn, "Transparent huge pages are set to always; this causes latency spikes and memory bloat. Use madvise."},
	{MemoryNoCompressedOops, SeverityInfo, "Maximum heap %s is 32G or more, so compressed oops are disabled."},
	{MemoryNearOopsLimit, SeverityWarn, "Maximum heap %s is just above the 32G compressed oops limit; a heap below 32G holds about as many objects."},
	{MemoryFootprint, SeverityInfo, "JVM resident set size was %s (%d%% of physical memory)."},

	{GcCollectors, SeverityInfo, "Garbage collector: %s."},
	{GcMultiple, SeverityWarn, "Several garbage collectors are reported (%s); check for conflicting -XX:+Use...GC options."},
	{GcCmsDeprecated, SeverityWarn, "CMS is deprecated since Java 9 and removed in Java 14; migrate to G1."},
	{GcSerialLargeHeap, SeverityWarn, "The serial collector with a %s heap causes long pauses; use G1."},
	{GcHeapFull, SeverityWarn, "Java heap was %d%% full at the crash (%s of %s)."},
	{GcMetaspaceNearMax, SeverityWarn, "Metaspace was at %d%% of MaxMetaspaceSize (%s of %s)."},
	{CodeCacheFull, SeverityError, "Code cache full; the JIT compiler was disabled. Increase -XX:ReservedCodeCacheSize (currently %s)."},
	{CodeCacheNearFull, SeverityWarn, "Code cache was %d%% used (%s of %s)."},

	{ThreadStackSmall, SeverityWarn, "Thread stack size %s is small; deep recursion may overflow it."},
	{ThreadCountHigh, SeverityWarn, "%d threads existed at the crash."},
	{ThreadNprocLow, SeverityWarn, "NPROC soft limit %d is low for %d threads."},
	{ThreadStackRlimit, SeverityWarn, "The STACK resource limit is unlimited; the primordial thread stack then has no guard and some glibc versions size thread stacks badly. Set ulimit -s 8192."},

	{OsContainer, SeverityInfo, "Running in a container (%s, memory limit %s)."},
	{OsVirtualized, SeverityInfo, "Running under %s virtualization."},
	{OsGlibcOld, SeverityError, "glibc %s is older than the 2.17 required by Java %d."},
	{OsCoreDumpDisabled, SeverityInfo, "Core dumps are disabled; run ulimit -c unlimited to capture one next time."},
	{OsCoreDumpWritten, SeverityInfo, "A core dump was written: %s"},
	{OsLoadHigh, SeverityWarn, "Load average %.2f exceeded the %d available CPUs."},
	{OsNofileLow, SeverityWarn, "NOFILE soft limit %d is low for a server JVM."},

	{NativeThirdParty, SeverityInfo, "Third-party native libraries loaded: %s."},
	{NativeAgents, SeverityInfo, "Agents attached: %s."},
	{NativeKnownLibrary, SeverityWarn, "%s is loaded (%s); crashes are common with outdated versions of it."},
	{NativeDebugger, SeverityInfo, "The JDWP debugging agent is enabled."},

	{ExceptionStackOverflow, SeverityWarn, "%d StackOverflowError(s) were thrown before the crash."},
	{ExceptionOutOfMemory, SeverityError, "OutOfMemoryError was thrown before the crash: %s."},
	{ExceptionLinkage, SeverityInfo, "%d LinkageError(s) were thrown before the crash."},

	{OptsHeapDumpPath, SeverityInfo, "A heap dump is written on OutOfMemoryError to %s."},
	{OptsNoHeapDump, SeverityInfo, "Add -XX:+HeapDumpOnOutOfMemoryError to capture a heap dump next time."},
	{OptsExitOnOom, SeverityInfo, "The JVM is configured to crash on OutOfMemoryError; this log was written on purpose."},

	{OptsXssSmall, SeverityWarn, "-Xss%s is below %s."},
	{OptsDeprecated, SeverityWarn, "Option %s is deprecated since Java %d."},
	{OptsRemoved, SeverityWarn, "Option %s was removed in Java %d."},
	{OptsDuplicate, SeverityInfo, "Option %s is given %d times; the last value %s wins."},
	{OptsGcConflict, SeverityWarn, "Conflicting collector options: %s."},
	{OptsXmsGreaterXmx, SeverityError, "-Xms %s is larger than -Xmx %s."},
	{OptsHeapExceedsMemory, SeverityWarn, "-Xmx %s exceeds total memory %s."},
	{OptsContainerSupport, SeverityWarn, "Container support is disabled inside a container; the JVM sizes itself from host memory."},
	{OptsUnlocked, SeverityInfo, "Non-product options are unlocked: %s."},
	{OptsLargeHeap32, SeverityWarn, "-Xmx %s is large for a 32-bit process; little address space is left for native memory."},

	{LogStale, SeverityInfo, "The crash happened %d days ago; the system may have changed since."},
	{LogTruncated, SeverityWarn, "The log is truncated (no END. marker); conclusions may be incomplete."},
	{LogUnidentified, SeverityInfo, "%d line(s) were not recognized."},
}

var catalog = buildCatalog(entries)

func buildCatalog(es []Entry) map[Code]Entry {
	m := make(map[Code]Entry, len(es))
	for _, e := range es {
		if _, dup := m[e.Code]; dup {
			panic(fmt.Sprintf("analysis: duplicate code %s", e.Code))
		}
		m[e.Code] = e
	}
	return m
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// Catalog returns every entry sorted by code.
func Catalog() []Entry {
	out := append([]Entry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
