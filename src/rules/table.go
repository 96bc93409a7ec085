package rules

import "hserr-agent/src/analysis"

// table is evaluated in order. The order is the report order of the
// appended diagnostics.
var table = []Rule{
	{"release-latest", releaseLatest},
	{"release-unknown-build", releaseUnknownBuild},
	{"release-age", releaseAge},
	{"log-age", logAge},
	{"release-eol", releaseEol},
	{"release-debug", releaseDebug},
	{"vendor", vendor},
	{"install-type", installType},
	{"os-release", osRelease},

	{"crash-signal", crashSignal},
	{"crash-null-pointer", crashNullPointer},
	{"crash-internal-error", crashInternalError},
	{"crash-stack-overflow", crashStackOverflow},
	{"crash-compiler-thread", crashCompilerThread},
	{"crash-compiled-code", crashCompiledCode},
	{"crash-gc-thread", crashGcThread},
	{"crash-jvm-code", crashJvmCode},
	{"crash-native-library", crashNativeLibrary},
	{"crash-native-thread", crashNativeThread},
	{"crash-vm-thread", crashVmThread},
	{"crash-during-gc", crashDuringGc},
	{"crash-abort", crashAbort},
	{"known-defects", knownDefects},

	{"oom-java", oomJava},
	{"oom-native", oomNative},
	{"oom-threads", oomThreads},
	{"oom-map-count", oomMapCount},
	{"oom-page-file", oomPageFile},

	{"memory-swap", memorySwap},
	{"memory-heap-size", memoryHeapSize},
	{"memory-free", memoryFree},
	{"memory-hugepages", memoryHugePages},
	{"memory-compressed-oops", memoryCompressedOops},
	{"memory-footprint", memoryFootprint},

	{"gc-collectors", gcCollectors},
	{"gc-heap-usage", gcHeapUsage},
	{"gc-metaspace", gcMetaspace},
	{"code-cache", codeCache},

	{"thread-stack", threadStack},
	{"thread-count", threadCount},
	{"thread-rlimits", threadRlimits},

	{"os-container", osContainer},
	{"os-virtualization", osVirtualization},
	{"os-glibc", osGlibc},
	{"os-core-dump", osCoreDump},
	{"os-load", osLoad},
	{"os-nofile", osNofile},

	{"native-libraries", nativeLibraries},
	{"native-agents", nativeAgents},

	{"exception-counts", exceptionCounts},

	{"opts-heap-dump", optsHeapDump},

	{"log-truncated", logTruncated},
	{"log-unidentified", logUnidentified},
}

// crashLocations are the generic crash conclusions a known defect replaces.
var crashLocations = []analysis.Code{
	analysis.CrashJvmCode,
	analysis.CrashNativeLibrary,
	analysis.CrashCompiledCode,
	analysis.CrashCompilerThread,
	analysis.CrashGcThread,
	analysis.CrashAbort,
}

// supersedes lists, for a code, the less specific codes it removes when it
// fires. The relation is not transitive.
var supersedes = map[analysis.Code][]analysis.Code{
	analysis.CrashStackOverflow:  {analysis.CrashJvmCode, analysis.ThreadStackSmall, analysis.OptsXssSmall},
	analysis.CrashCompilerThread: {analysis.CrashJvmCode, analysis.CrashCompiledCode},
	analysis.CrashGcThread:       {analysis.CrashJvmCode},

	analysis.DefectG1Evacuation:      crashLocations,
	analysis.DefectCmsPromotion:      crashLocations,
	analysis.DefectZipModified:       crashLocations,
	analysis.DefectFontRendering:     crashLocations,
	analysis.DefectC2Optimization:    crashLocations,
	analysis.DefectC1Compilation:     crashLocations,
	analysis.DefectMallocCorruption:  crashLocations,
	analysis.DefectNss:               crashLocations,
	analysis.DefectUnsafeAccess:      crashLocations,
	analysis.DefectMappedFile:        crashLocations,
	analysis.DefectPerfData:          crashLocations,
	analysis.DefectShenandoahBarrier: crashLocations,
	analysis.DefectJfr:               crashLocations,
	analysis.DefectJvmtiAgent:        crashLocations,
	analysis.DefectClassUnloading:    crashLocations,
	analysis.DefectJna:               crashLocations,
	analysis.DefectAwtHeadless:       crashLocations,

	analysis.OomJavaHeap:         {analysis.ExceptionOutOfMemory, analysis.CrashInternalError},
	analysis.OomMetaspace:        {analysis.ExceptionOutOfMemory, analysis.CrashInternalError},
	analysis.OomClassSpace:       {analysis.ExceptionOutOfMemory, analysis.CrashInternalError},
	analysis.OomStartupLimit:     {analysis.OomNative},
	analysis.OomExternalPressure: {analysis.OomNative},
	analysis.OomSelfLimit:        {analysis.OomNative},
	analysis.OomContainer:        {analysis.OomNative},
	analysis.OomOvercommit:       {analysis.OomNative},
	analysis.OomBallooning:       {analysis.OomNative},
	analysis.OomThreads:          {analysis.OomNative},
	analysis.OomMapCount:         {analysis.OomNative},
	analysis.OomPageFile:         {analysis.OomNative},

	analysis.MemoryHeapExceedsPhysical:  {analysis.OptsHeapExceedsMemory},
	analysis.MemoryHeapExceedsContainer: {analysis.OptsHeapExceedsMemory, analysis.MemoryHeapExceedsPhysical},
	analysis.MemoryNearOopsLimit:        {analysis.MemoryNoCompressedOops},
	analysis.ThreadStackSmall:           {analysis.OptsXssSmall},
	analysis.CodeCacheFull:              {analysis.CodeCacheNearFull},
	analysis.OptsExitOnOom:              {analysis.CrashInternalError},
}
