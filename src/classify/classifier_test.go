package classify

import (
	"strings"
	"testing"

	"hserr-agent/src/event"
	"hserr-agent/src/samples"
)

type classified struct {
	kind   event.Kind
	header bool
}

func classifyAll(lines []string) []event.Event {
	var prev event.Event
	out := make([]event.Event, 0, len(lines))
	for _, l := range lines {
		e := Classify(l, prev)
		out = append(out, e)
		prev = e
	}
	return out
}

func checkSequence(t *testing.T, lines []string, want []classified) {
	t.Helper()
	if len(lines) != len(want) {
		t.Fatalf("test table mismatch: %d lines, %d expectations", len(lines), len(want))
	}
	got := classifyAll(lines)
	for i, e := range got {
		if e.Kind != want[i].kind || e.Header != want[i].header {
			t.Errorf("line %d %q: got %s (header=%v), want %s (header=%v)",
				i, lines[i], e.Kind, e.Header, want[i].kind, want[i].header)
		}
		if e.Line != lines[i] {
			t.Errorf("line %d: raw text changed to %q", i, e.Line)
		}
	}
}

func TestCoverage(t *testing.T) {
	if err := checkCoverage(rules); err != nil {
		t.Fatalf("registered rules should cover every kind: %v", err)
	}

	var partial []rule
	for _, r := range rules {
		if r.kind != event.Time {
			partial = append(partial, r)
		}
	}
	if err := checkCoverage(partial); err == nil {
		t.Error("expected an error when a kind has no pattern")
	}
}

func TestOrder(t *testing.T) {
	order := Order()
	if len(order) == 0 || order[0] != event.Header {
		t.Fatalf("header lines must be tried first, got %v", order)
	}
	seen := make(map[event.Kind]bool)
	for _, k := range order {
		if seen[k] {
			t.Errorf("kind %s listed twice", k)
		}
		seen[k] = true
	}
	if len(seen) != len(event.Kinds()) {
		t.Errorf("order lists %d kinds, want %d", len(seen), len(event.Kinds()))
	}
}

func TestClassifyAnchors(t *testing.T) {
	tests := []struct {
		line   string
		kind   event.Kind
		header bool
	}{
		{"# A fatal error has been detected by the Java Runtime Environment:", event.Header, false},
		{"#", event.Header, false},
		{"---------------  T H R E A D  ---------------", event.Banner, false},
		{"---------------  S U M M A R Y ------------", event.Banner, false},
		{"END.", event.End, false},
		{"END.\r", event.End, false},
		{"Current thread (0x00007f3c1800b800):  JavaThread \"main\" [_thread_in_vm, id=4242, stack(0x00007f3c1f0f3000,0x00007f3c1f1f4000)]", event.CurrentThread, false},
		{"Current thread is native thread", event.CurrentThread, false},
		{"siginfo: si_signo: 11 (SIGSEGV), si_code: 1 (SEGV_MAPERR), si_addr: 0x0000000000000000", event.SigInfo, false},
		{"Registers:", event.Register, true},
		{"Top of Stack: (sp=0x00007f3c1f1f2a10)", event.TopOfStack, true},
		{"Instructions: (pc=0x00007f3c1e6d8a4e)", event.Instructions, true},
		{"Stack: [0x00007f3c1f0f3000,0x00007f3c1f1f4000],  sp=0x00007f3c1f1f2a10,  free space=1018k", event.StackHeader, false},
		{"Native frames: (J=compiled Java code, A=aot compiled Java code, j=interpreted, Vv=VM code, C=native code)", event.FrameSection, true},
		{"Java Threads: ( => current thread )", event.Thread, true},
		{"Other Threads:", event.Thread, true},
		{"VM state:not at safepoint (normal execution)", event.VmState, false},
		{"VM_Operation (0x00007f3c1f1f2a10): ParallelGCFailedAllocation, mode: safepoint, requested by thread 0x00007f3c1800b800", event.VmOperation, false},
		{"Heap address: 0x0000000700000000, size: 4096 MB, Compressed Oops mode: Zero based, Oop shift amount: 3", event.HeapAddress, false},
		{"Narrow klass base: 0x0000000800000000, Narrow klass shift: 0", event.NarrowKlass, false},
		{"Compressed class space size: 1073741824 Address: 0x0000000800000000", event.CompressedClassSpace, false},
		{"Heap:", event.Heap, true},
		{"Metaspace:", event.Metaspace, true},
		{"CodeCache: size=245760Kb used=4096Kb max_used=4096Kb free=241664Kb", event.CodeCache, false},
		{"CodeHeap 'non-profiled nmethods': size=120032Kb used=1015Kb max_used=1015Kb free=119016Kb", event.CodeCache, false},
		{"Polling page: 0x00007f3c2e2b9000", event.PollingPage, false},
		{"Compilation events (10 events):", event.CompilationEvent, true},
		{"GC Heap History (2 events):", event.GcHeapHistoryEvent, true},
		{"Internal exceptions (10 events):", event.InternalExceptionEvent, true},
		{"Dll operation events (1 events):", event.DllOperationEvent, true},
		{"Events (10 events):", event.VmEvent, true},
		{"Dynamic libraries:", event.DynamicLibrary, true},
		{"VM Arguments:", event.VmArguments, true},
		{"Command Line: -Xmx4g -Dfoo=bar com.example.Main", event.CommandLine, false},
		{"[Global flags]", event.GlobalFlag, true},
		{"Environment Variables:", event.EnvironmentVariable, true},
		{"Signal Handlers:", event.SignalHandler, true},
		{"OS:Red Hat Enterprise Linux Server release 7.9 (Maipo)", event.Os, false},
		{"OS:", event.Os, true},
		{"uname:Linux 3.10.0-1160.el7.x86_64 #1 SMP Tue Aug 18 14:50:17 EDT 2020 x86_64", event.Uname, false},
		{"libc:glibc 2.17 NPTL 2.17 ", event.Libc, false},
		{"rlimit: STACK 8192k, CORE 0k, NPROC 4096, NOFILE 4096, AS infinity", event.Rlimit, false},
		{"load average:0.52 0.58 0.59", event.LoadAverage, false},
		{"/proc/meminfo:", event.Meminfo, true},
		{"container (cgroup) information:", event.Container, true},
		{"/proc/sys/kernel/threads-max (system-wide limit on the number of threads): 127655", event.ThreadsMax, false},
		{"/proc/sys/vm/max_map_count (maximum number of memory map areas a process may have):", event.MaxMapCount, true},
		{"/proc/sys/vm/overcommit_memory (overcommit mode): 0", event.OvercommitMemory, false},
		{"/sys/kernel/mm/transparent_hugepage/enabled: [always] madvise never", event.TransparentHugepage, false},
		{"CPU:total 4 (initial active 4) (2 cores per cpu, 1 threads per core) family 6 model 85", event.Cpu, false},
		{"/proc/cpuinfo:", event.CpuInfo, true},
		{"Memory: 4k page, physical 16265388k(2512148k free), swap 8388604k(8388604k free)", event.Memory, false},
		{"vm_info: OpenJDK 64-Bit Server VM (25.262-b10) for linux-amd64 JRE (1.8.0_262-b10), built on Jul 14 2020 17:40:17 by \"mockbuild\" with gcc 4.8.5 20150623 (Red Hat 4.8.5-39)", event.VmInfo, false},
		{"time: Thu Aug 13 10:40:12 2020", event.Time, false},
		{"Time: Thu Aug 13 10:40:12 2020 EDT elapsed time: 12 seconds (0d 0h 0m 12s)", event.Time, false},
		{"timezone: EDT", event.Timezone, false},
		{"elapsed time: 12 seconds (0d 0h 0m 12s)", event.ElapsedTime, false},
		{"KVM virtualization detected", event.Virtualization, false},
		{"OutOfMemory and StackOverflow Exception counts:", event.ExceptionCounts, true},
		{"", event.Blank, false},
		{"   ", event.Blank, false},
		{"something nobody prints", event.Unknown, false},
		{"processor\t: 0", event.CpuInfo, false},
	}
	for _, tt := range tests {
		e := Classify(tt.line, event.Event{})
		if e.Kind != tt.kind || e.Header != tt.header {
			t.Errorf("Classify(%q) = %s (header=%v), want %s (header=%v)",
				tt.line, e.Kind, e.Header, tt.kind, tt.header)
		}
	}
}

func TestClassifyFrames(t *testing.T) {
	lines := []string{
		"Native frames: (J=compiled Java code, j=interpreted, Vv=VM code, C=native code)",
		"C  [libc.so.6+0x39f7b]  abort+0x14b",
		"V  [libjvm.so+0x6d8a4e]  G1ParScanThreadState::copy_to_survivor_space(InCSetState, oopDesc*, markOopDesc*)+0x4e",
		"...<more frames>...",
		"",
		"Java frames: (J=compiled Java code, j=interpreted, Vv=VM code)",
		"j  java.lang.Thread.run()V+11",
		"v  ~StubRoutines::call_stub",
		"",
		"v  ~StubRoutines::call_stub",
	}
	checkSequence(t, lines, []classified{
		{event.FrameSection, true},
		{event.Frame, false},
		{event.Frame, false},
		{event.Frame, false},
		{event.Blank, false},
		{event.FrameSection, true},
		{event.Frame, false},
		{event.Frame, false},
		{event.Blank, false},
		{event.Unknown, false},
	})
}

func TestClassifyMultiLineOs(t *testing.T) {
	lines := []string{
		"OS:",
		"Red Hat Enterprise Linux release 8.6 (Ootpa)",
		"uname: Linux 4.18.0-372.9.1.el8.x86_64 #1 SMP Fri Apr 15 22:12:19 EDT 2022 x86_64",
		"OS uptime: 12 days 3:04 hours",
		"libc: glibc 2.28 NPTL 2.28 ",
	}
	checkSequence(t, lines, []classified{
		{event.Os, true},
		{event.Os, false},
		{event.Uname, false},
		{event.OsUptime, false},
		{event.Libc, false},
	})
}

func TestClassifyHeapHistoryVersusHeap(t *testing.T) {
	lines := []string{
		"GC Heap History (2 events):",
		"Event: 1.234 GC heap before",
		"{Heap before GC invocations=1 (full 0):",
		" garbage-first heap   total 262144K, used 24576K [0x0000000700000000, 0x0000000800000000)",
		"  region size 1024K, 24 young (24576K), 0 survivors (0K)",
		" Metaspace       used 8000K, capacity 8192K, committed 8448K, reserved 1056768K",
		"}",
		"",
		"Heap:",
		" garbage-first heap   total 262144K, used 30000K [0x0000000700000000, 0x0000000800000000)",
		"  region size 1024K, 30 young (30720K), 2 survivors (2048K)",
		" Metaspace       used 9000K, capacity 9216K, committed 9472K, reserved 1056768K",
		"",
	}
	history := classified{event.GcHeapHistoryEvent, false}
	heap := classified{event.Heap, false}
	checkSequence(t, lines, []classified{
		{event.GcHeapHistoryEvent, true},
		history, history, history, history, history, history,
		{event.Blank, false},
		{event.Heap, true},
		heap, heap, heap,
		{event.Blank, false},
	})
}

func TestClassifyLimits(t *testing.T) {
	lines := []string{
		"/proc/sys/kernel/threads-max (system-wide limit on the number of threads):",
		"127655",
		"/proc/sys/vm/max_map_count (maximum number of memory map areas a process may have):",
		"65530",
		"/proc/sys/kernel/pid_max (system-wide limit on number of process identifiers):",
		"not a number",
	}
	checkSequence(t, lines, []classified{
		{event.ThreadsMax, true},
		{event.ThreadsMax, false},
		{event.MaxMapCount, true},
		{event.MaxMapCount, false},
		{event.PidMax, true},
		{event.Unknown, false},
	})
}

func TestClassifySpanningSections(t *testing.T) {
	lines := []string{
		"Metaspace:",
		"",
		"Usage:",
		"  Non-class:      7.50 MB capacity,     7.20 MB ( 96%) used",
		"",
		"CodeHeap 'non-profiled nmethods': size=120032Kb used=1015Kb max_used=1015Kb free=119016Kb",
		" bounds [0x00007f3c0d3c0000, 0x00007f3c0d630000, 0x00007f3c148f8000]",
		"",
		" bounds [0x00007f3c0d3c0000, 0x00007f3c0d630000, 0x00007f3c148f8000]",
	}
	meta := classified{event.Metaspace, false}
	checkSequence(t, lines, []classified{
		{event.Metaspace, true},
		meta, meta, meta, meta,
		{event.CodeCache, false},
		{event.CodeCache, false},
		{event.Blank, false},
		{event.Unknown, false},
	})
}

func TestClassifyStealTicksAfterBlank(t *testing.T) {
	lines := []string{
		"",
		"Steal ticks since vm start: 0",
		"Steal ticks percentage since vm start:  0.000",
		"",
	}
	checkSequence(t, lines, []classified{
		{event.Blank, false},
		{event.Virtualization, false},
		{event.Virtualization, false},
		{event.Blank, false},
	})

	for i, e := range classifyAll(samples.Lines(samples.ContainerOOM)) {
		if strings.HasPrefix(e.Line, "Steal ticks") && e.Kind != event.Virtualization {
			t.Errorf("Classify(%q) at line %d = %s, expected %s", e.Line, i+1, e.Kind, event.Virtualization)
		}
	}
}

func TestClassifyWindowsMemory(t *testing.T) {
	lines := []string{
		"Memory: 4k page, system-wide physical 16306M (2389M free)",
		"TotalPageFile size 32690M (AvailPageFile size 3019M)",
		"current process WorkingSet (physical memory assigned to process): 1024M, peak: 1100M",
		"current process commit charge (\"private bytes\"): 1200M, peak: 1300M",
		"",
		"vm_info: OpenJDK 64-Bit Server VM (17.0.9+9-LTS) for windows-amd64 JRE (17.0.9+9-LTS), built on Oct 10 2023 00:00:00 by \"\" with MS VC++ 16.10 / 16.11 (VS2019)",
	}
	mem := classified{event.Memory, false}
	checkSequence(t, lines, []classified{
		mem, mem, mem, mem,
		{event.Blank, false},
		{event.VmInfo, false},
	})
}

func TestClassifySectionMembers(t *testing.T) {
	lines := []string{
		"Dynamic libraries:",
		"00400000-00401000 r-xp 00000000 fd:00 1234 /usr/lib/jvm/java-1.8.0-openjdk/jre/bin/java",
		"",
		"stray line",
		"Environment Variables:",
		"JAVA_HOME=/usr/lib/jvm/java-17",
		"OS=Windows_NT",
		"",
		"Internal exceptions (1 events):",
		"Event: 0.412 Thread 0x00007f3c1800b800 Exception <a 'java/lang/NoSuchMethodError'{0x0000000715a0b2c8}> (0x0000000715a0b2c8)",
	}
	checkSequence(t, lines, []classified{
		{event.DynamicLibrary, true},
		{event.DynamicLibrary, false},
		{event.Blank, false},
		{event.Unknown, false},
		{event.EnvironmentVariable, true},
		{event.EnvironmentVariable, false},
		{event.EnvironmentVariable, false},
		{event.Blank, false},
		{event.InternalExceptionEvent, true},
		{event.InternalExceptionEvent, false},
	})
}

func TestClassifyIsTotal(t *testing.T) {
	lines := []string{
		"", "#", "\x00\x01", "}", "{", "Event:", "[", "0x", "-----", "::::", "héllo wörld",
		"Heap", "Heap: ", "CPU:", "Memory:", "OS:", "time:", "rlimit",
	}
	prevs := []event.Event{{}, event.New(event.Frame, "x"), event.NewHeader(event.ThreadsMax, "x"), event.New(event.Metaspace, "")}
	for _, prev := range prevs {
		for _, l := range lines {
			e := Classify(l, prev)
			if e.Kind < event.Unknown || e.Kind.String() == "invalid" {
				t.Errorf("Classify(%q, %s) produced invalid kind %d", l, prev.Kind, e.Kind)
			}
		}
	}
}
