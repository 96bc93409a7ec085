package facts

import (
	"reflect"
	"testing"
	"time"

	"hserr-agent/src/document"
	"hserr-agent/src/units"
)

func parse(lines ...string) *document.Document {
	return document.Parse(lines)
}

const rhel7VmInfo = `vm_info: OpenJDK 64-Bit Server VM (25.262-b10) for linux-amd64 JRE (1.8.0_262-b10), built on Jul 14 2020 17:40:17 by "mockbuild" with gcc 4.8.5 20150623 (Red Hat 4.8.5-39)`

func TestScenarioOfficialPackageBuild(t *testing.T) {
	doc := parse(rhel7VmInfo)

	if got := Vendor(doc); got != VendorRedHat {
		t.Errorf("Vendor() = %q, expected %q", got, VendorRedHat)
	}
	if got := InstallType(doc); got != InstallPackage {
		t.Errorf("InstallType() = %q, expected %q", got, InstallPackage)
	}
	r, ok := Release(doc)
	if !ok {
		t.Fatal("expected a reference database match")
	}
	if r.ID != "java-1.8.0-openjdk-1.8.0.262.b10-0.el7_8.x86_64" {
		t.Errorf("Release().ID = %q", r.ID)
	}
	if !IsConfirmedRelease(doc) {
		t.Error("a match on the recorded build time should be confirmed")
	}
}

func TestScenarioDefaultHeapFromPhysicalMemory(t *testing.T) {
	doc := parse("Memory: 4k page, physical 16777216k(8388608k free), swap 0k(0k free)")

	if got, want := MaxHeapSize(doc), 4*units.G; !got.Is(want) {
		t.Errorf("MaxHeapSize() = %v, expected %d", got, want)
	}
	if got, want := InitialHeapSize(doc), 256*units.M; !got.Is(want) {
		t.Errorf("InitialHeapSize() = %v, expected %d", got, want)
	}
}

func TestMaxHeapPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int64
	}{
		{
			name: "global flag wins over options",
			lines: []string{
				"VM Arguments:",
				"jvm_args: -Xmx2g -Xms1g",
				"",
				"[Global flags]",
				"   size_t MaxHeapSize                              = 4294967296                                {product} {command line}",
				"",
			},
			want: 4 * units.G,
		},
		{
			name: "last option wins",
			lines: []string{
				"VM Arguments:",
				"jvm_args: -Xmx2g -XX:MaxHeapSize=3g",
				"",
				"Memory: 4k page, physical 16777216k(8388608k free), swap 0k(0k free)",
			},
			want: 3 * units.G,
		},
		{
			name: "MaxRAMPercentage",
			lines: []string{
				"VM Arguments:",
				"jvm_args: -XX:MaxRAMPercentage=75.0",
				"",
				"Memory: 4k page, physical 16777216k(8388608k free), swap 0k(0k free)",
			},
			want: 12 * units.G,
		},
		{
			name: "container limit below physical memory",
			lines: []string{
				"container (cgroup) information:",
				"container_type: cgroupv1",
				"memory_limit_in_bytes: 4194304 k",
				"",
				"Memory: 4k page, physical 16777216k(8388608k free), swap 0k(0k free)",
			},
			want: units.G,
		},
		{
			name: "observed heap address range",
			lines: []string{
				"Heap address: 0x0000000700000000, size: 4096 MB, Compressed Oops mode: Zero based, Oop shift amount: 3",
			},
			want: 4 * units.G,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxHeapSize(parse(tt.lines...)); !got.Is(tt.want) {
				t.Errorf("MaxHeapSize() = %v, expected %d", got, tt.want)
			}
		})
	}
}

func TestHugePagesPool(t *testing.T) {
	doc := parse(
		"/proc/meminfo:",
		"MemTotal:       1584652928 kB",
		"HugePages_Total:   696418",
		"HugePages_Free:    696418",
		"Hugepagesize:       2048 kB",
		"",
	)
	if got, want := HugePagesPool(doc), int64(696418)*2048*1024; !got.Is(want) {
		t.Errorf("HugePagesPool() = %v, expected %d", got, want)
	}
	if got := PhysicalMemory(doc); !got.Is(1584652928 * units.K) {
		t.Errorf("PhysicalMemory() = %v", got)
	}
}

func TestJavaVersion(t *testing.T) {
	tests := []struct {
		line   string
		major  int
		update int
	}{
		{rhel7VmInfo, 8, 262},
		{"# JRE version: OpenJDK Runtime Environment (Red_Hat-17.0.9.0.9-1) (17.0.9+9) (build 17.0.9+9-LTS)", 17, 9},
		{"# JRE version: OpenJDK Runtime Environment Temurin-21.0.1+12 (21.0.1+12) (build 21.0.1+12-LTS)", 21, 1},
	}
	for _, tt := range tests {
		doc := parse(tt.line)
		if got := JavaMajor(doc); !got.Is(tt.major) {
			t.Errorf("JavaMajor(%q) = %v, expected %d", tt.line, got, tt.major)
		}
		if got := JavaUpdate(doc); !got.Is(tt.update) {
			t.Errorf("JavaUpdate(%q) = %v, expected %d", tt.line, got, tt.update)
		}
	}
}

func TestVendor(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"# JRE version: OpenJDK Runtime Environment Temurin-17.0.9+9 (17.0.9+9) (build 17.0.9+9)", VendorAdoptium},
		{"# JRE version: OpenJDK Runtime Environment Corretto-17.0.9.8.1 (17.0.9+8) (build 17.0.9+8-LTS)", VendorAmazon},
		{"# JRE version: OpenJDK Runtime Environment Zulu17.46+19-CA (17.0.9+8) (build 17.0.9+8-LTS)", VendorAzul},
		{"# JRE version: OpenJDK Runtime Environment Microsoft-8552329 (17.0.9+8) (build 17.0.9+8-LTS)", VendorMicrosoft},
		{"# Java VM: Java HotSpot(TM) 64-Bit Server VM (25.391-b13 mixed mode linux-amd64 compressed oops)", VendorOracle},
		{"# JRE version: OpenJDK Runtime Environment (Red_Hat-17.0.9.0.9-1) (17.0.9+9) (build 17.0.9+9-LTS)", VendorRedHat},
		{"# JRE version: something else entirely", VendorUnknown},
	}
	for _, tt := range tests {
		if got := Vendor(parse(tt.line)); got != tt.want {
			t.Errorf("Vendor(%q) = %q, expected %q", tt.line, got, tt.want)
		}
	}
}

func TestPathReleaseRequiresMatchingBuildTime(t *testing.T) {
	libjvm := "7f3c1d800000-7f3c1e5a0000 r-xp 00000000 fd:00 1234 /usr/lib/jvm/java-17-openjdk-17.0.9.0.9-2.el8.x86_64/lib/server/libjvm.so"
	tests := []struct {
		name      string
		built     string
		confirmed bool
		install   string
	}{
		{"recorded build time", "Oct 13 2023 18:34:20", true, InstallPackage},
		{"contradicting build time", "Nov  2 2023 11:22:33", false, InstallUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(
				`vm_info: OpenJDK 64-Bit Server VM (17.0.9+9-LTS) for linux-amd64 JRE (17.0.9+9-LTS), built on `+tt.built+` by "mockbuild" with gcc 8.5.0 20210514 (Red Hat 8.5.0-18)`,
				"",
				"Dynamic libraries:",
				libjvm,
				"",
			)
			if got := IsConfirmedRelease(doc); got != tt.confirmed {
				t.Errorf("IsConfirmedRelease() = %v, expected %v", got, tt.confirmed)
			}
			if got := InstallType(doc); got != tt.install {
				t.Errorf("InstallType() = %q, expected %q", got, tt.install)
			}
		})
	}
}

func TestInstallTypeRepackaged(t *testing.T) {
	doc := parse(
		rhel7VmInfo,
		"",
		"Dynamic libraries:",
		"7f3c1d800000-7f3c1e5a0000 r-xp 00000000 fd:00 1234 /opt/app/jre/lib/amd64/server/libjvm.so",
		"",
	)
	if got := InstallType(doc); got != InstallRepackaged {
		t.Errorf("InstallType() = %q, expected %q", got, InstallRepackaged)
	}
}

func TestIdentityFromUname(t *testing.T) {
	doc := parse(
		"OS:Red Hat Enterprise Linux Server release 7.9 (Maipo)",
		"",
		"uname:Linux 3.10.0-1160.el7.x86_64 #1 SMP Tue Aug 18 14:50:17 EDT 2020 x86_64",
	)
	if got := Arch(doc); got != "x86_64" {
		t.Errorf("Arch() = %q", got)
	}
	if got := OsFamily(doc); got != OsLinux {
		t.Errorf("OsFamily() = %q", got)
	}
	if got := OsVendor(doc); got != "rhel" {
		t.Errorf("OsVendor() = %q", got)
	}
	if got := RhelMajor(doc); !got.Is(7) {
		t.Errorf("RhelMajor() = %v", got)
	}
	if got := Bits(doc); !got.Is(64) {
		t.Errorf("Bits() = %v", got)
	}
}

func TestOptions(t *testing.T) {
	doc := parse(
		"VM Arguments:",
		"jvm_args: -Xss256k -XX:+UseG1GC -XX:-UseG1GC -XX:+UseParallelGC -javaagent:/opt/agent.jar=debug -agentlib:jdwp=transport=dt_socket",
		"java_command: com.example.Main",
		"",
		"Environment Variables:",
		"JAVA_TOOL_OPTIONS=-Dfile.encoding=UTF-8",
		"",
	)
	if got := OptionList(doc)[0]; got != "-Dfile.encoding=UTF-8" {
		t.Errorf("environment options should come first, got %q", got)
	}
	if v, set := BoolOption(doc, "UseG1GC"); !set || v {
		t.Errorf("BoolOption(UseG1GC) = %v, %v; expected the last -XX:-UseG1GC", v, set)
	}
	if got := Collectors(doc); !reflect.DeepEqual(got, []string{GcParallel}) {
		t.Errorf("Collectors() = %v", got)
	}
	if got := ThreadStackSize(doc); !got.Is(256 * units.K) {
		t.Errorf("ThreadStackSize() = %v", got)
	}
	if got := Agents(doc); !reflect.DeepEqual(got, []string{"/opt/agent.jar", "jdwp"}) {
		t.Errorf("Agents() = %v", got)
	}
}

func TestCommandLineOptions(t *testing.T) {
	doc := parse("Command Line: -Xmx1g -cp /app/lib/* -Dx=y com.example.Main --port 8080 -Xmx9g")
	if got := OptionList(doc); !reflect.DeepEqual(got, []string{"-Xmx1g", "-cp", "-Dx=y"}) {
		t.Errorf("OptionList() = %v", got)
	}
	if got := MaxHeapSize(doc); !got.Is(units.G) {
		t.Errorf("application arguments must not count as options, MaxHeapSize() = %v", got)
	}
}

func TestThreadStackSizeFlagInKilobytes(t *testing.T) {
	doc := parse(
		"[Global flags]",
		"     intx ThreadStackSize                          = 1024                                   {pd product} {default}",
		"",
	)
	if got := ThreadStackSize(doc); !got.Is(units.M) {
		t.Errorf("ThreadStackSize() = %v, expected 1M", got)
	}
}

func TestCollectorsFromHeapShapes(t *testing.T) {
	doc := parse(
		"Heap:",
		" PSYoungGen      total 305664K, used 15728K [0x00000000eab00000, 0x0000000100000000, 0x0000000100000000)",
		" ParOldGen       total 699392K, used 12345K [0x00000000c0000000, 0x00000000eab00000, 0x00000000eab00000)",
		" Metaspace       used 9000K, capacity 9216K, committed 9472K, reserved 1056768K",
		"  class space    used 1000K, capacity 1024K, committed 1100K, reserved 1048576K",
		"",
	)
	if got := Collectors(doc); !reflect.DeepEqual(got, []string{GcParallel}) {
		t.Errorf("Collectors() = %v", got)
	}
	if got := HeapCapacity(doc); !got.Is((305664 + 699392) * units.K) {
		t.Errorf("HeapCapacity() = %v", got)
	}
	if got := HeapUsed(doc); !got.Is((15728 + 12345) * units.K) {
		t.Errorf("HeapUsed() = %v", got)
	}
	if got := MetaspaceUsed(doc); !got.Is(9000 * units.K) {
		t.Errorf("MetaspaceUsed() = %v", got)
	}
	if got := ClassSpaceUsed(doc); !got.Is(1000 * units.K) {
		t.Errorf("ClassSpaceUsed() = %v", got)
	}
}

func TestTopFrameSkipsToProblematicFrame(t *testing.T) {
	doc := parse(
		"# Problematic frame:",
		"# C  [libzip.so+0x12a4]  newEntry+0x64",
	)
	f, ok := TopFrame(doc)
	if !ok {
		t.Fatal("expected the problematic frame")
	}
	if f.Library() != "libzip.so" || f.Symbol() != "newEntry" {
		t.Errorf("TopFrame() = %q / %q", f.Library(), f.Symbol())
	}
	if CrashInJvm(doc) {
		t.Error("libzip.so is not the JVM library")
	}
}

func TestTopNativeFrameSkipsAbort(t *testing.T) {
	doc := parse(
		"Native frames: (J=compiled Java code, j=interpreted, Vv=VM code, C=native code)",
		"C  [libc.so.6+0x36387]  raise+0x37",
		"C  [libc.so.6+0x37a78]  abort+0x148",
		"V  [libjvm.so+0xa1b2c3]  os::abort(bool, void*, void const*)+0x1f",
		"",
	)
	f, ok := TopNativeFrame(doc)
	if !ok || !f.InJvmLibrary() {
		t.Fatalf("TopNativeFrame() = %q, %v", f.Line, ok)
	}
	if !CrashInJvm(doc) {
		t.Error("expected a crash in the JVM")
	}
}

func TestTopNativeFrameSkipsErrorReporter(t *testing.T) {
	doc := parse(
		"Native frames: (J=compiled Java code, j=interpreted, Vv=VM code, C=native code)",
		"V  [libjvm.so+0xec2f8d]  VMError::report_and_die(int, char const*, char const*, __va_list_tag*, Thread*, unsigned char*, void*, void*, char const*, int, unsigned long)+0x19d",
		"V  [libjvm.so+0x6a37f8]  report_vm_out_of_memory(char const*, int, unsigned long, VMErrorType, char const*, ...)+0xd8",
		"V  [libjvm.so+0xc2a5c0]  os::pd_commit_memory_or_exit(char*, unsigned long, unsigned long, bool, char const*)+0xf0",
		"",
	)
	f, ok := TopNativeFrame(doc)
	if !ok {
		t.Fatal("TopNativeFrame() found no frame")
	}
	if want := "os::pd_commit_memory_or_exit(char*, unsigned long, unsigned long, bool, char const*)"; f.Symbol() != want {
		t.Errorf("TopNativeFrame().Symbol() = %q, expected %q", f.Symbol(), want)
	}
}

func TestThirdPartyLibraries(t *testing.T) {
	doc := parse(
		"Dynamic libraries:",
		"7f3c1d800000-7f3c1e5a0000 r-xp 00000000 fd:00 1 /usr/lib/jvm/java-17-openjdk/lib/server/libjvm.so",
		"7f3c1d000000-7f3c1d100000 r-xp 00000000 fd:00 2 /usr/lib/jvm/java-17-openjdk/lib/libzip.so",
		"7f3c1c000000-7f3c1c100000 r-xp 00000000 fd:00 3 /usr/lib64/libc-2.28.so",
		"7f3c1b000000-7f3c1b100000 r-xp 00000000 fd:00 4 /tmp/jna-1234/jna5678.tmp",
		"7f3c1a000000-7f3c1a100000 r-xp 00000000 fd:00 5 /tmp/librocksdbjni12345.so",
		"7f3c1a000000-7f3c1a100000 r--p 00010000 fd:00 5 /tmp/librocksdbjni12345.so",
		"7f3c19000000-7f3c19100000 r-xp 00000000 fd:00 6 /opt/netty/libnetty_transport_native_epoll_x86_64.so",
		"",
	)
	want := []string{"libnetty_transport_native_epoll_x86_64.so", "librocksdbjni12345.so"}
	if got := ThirdPartyLibraries(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("ThirdPartyLibraries() = %v, expected %v", got, want)
	}
	if got := MappingCount(doc); got != 7 {
		t.Errorf("MappingCount() = %d", got)
	}
}

func TestCommitHeadroom(t *testing.T) {
	doc := parse(
		"/proc/meminfo:",
		"CommitLimit:     8000000 kB",
		"Committed_AS:    7990000 kB",
		"",
	)
	if got := CommitHeadroom(doc); !got.Is(10000 * units.K) {
		t.Errorf("CommitHeadroom() = %v", got)
	}
	if CommitHeadroom(parse()).Known() {
		t.Error("headroom without meminfo should be unknown")
	}
}

func TestLimits(t *testing.T) {
	doc := parse(
		"/proc/sys/kernel/threads-max (system-wide limit on the number of threads):",
		"127655",
		"/proc/sys/vm/max_map_count (maximum number of memory map areas a process may have): 65530",
		"rlimit (soft/hard): STACK 8192k/infinity , CORE 0k/infinity , NPROC 4096/514556 , NOFILE 65536/65536 , AS infinity/infinity",
	)
	if got := ThreadsMax(doc); !got.Is(127655) {
		t.Errorf("ThreadsMax() = %v", got)
	}
	if got := MaxMapCount(doc); !got.Is(65530) {
		t.Errorf("MaxMapCount() = %v", got)
	}
	if got := RlimitSoft(doc, "NPROC"); !got.Is(4096) {
		t.Errorf("RlimitSoft(NPROC) = %v", got)
	}
	if got := RlimitSoft(doc, "STACK"); !got.Is(8 * units.M) {
		t.Errorf("RlimitSoft(STACK) = %v", got)
	}
	if RlimitSoft(doc, "AS").Known() {
		t.Error("an unlimited AS should be unknown")
	}
}

func TestCrashTimeAndTruncation(t *testing.T) {
	doc := parse("Time: Thu Aug 13 10:40:12 2020 EDT elapsed time: 42.5 seconds (0d 0h 0m 42s)")
	ct, ok := CrashTime(doc)
	if !ok || !ct.Equal(time.Date(2020, time.August, 13, 10, 40, 12, 0, time.UTC)) {
		t.Errorf("CrashTime() = %v, %v", ct, ok)
	}
	if got := Elapsed(doc); !got.Is(42.5) {
		t.Errorf("Elapsed() = %v", got)
	}
	if !IsTruncated(doc) {
		t.Error("a log without END. is truncated")
	}
	if IsTruncated(parse("END.")) {
		t.Error("END. marks a complete log")
	}
}
