package rules

import (
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/event"
	"hserr-agent/src/facts"
)

// defect is a known crash signature. match returns the frame or fact that
// identified it.
type defect struct {
	code  analysis.Code
	match func(c *Context) (string, bool)
}

// defects are tried in order; every match is reported.
var defects = []defect{
	{analysis.DefectPerfData, sigbusWith("PerfMemory", "PerfData", "PerfLongVariant", "StatSampler", "hsperfdata")},
	{analysis.DefectMappedFile, mappedFile},
	{analysis.DefectZipModified, frames("ZIP_GetEntry", "ZIP_GetNextEntry", "ZIP_Lookup", "readCEN", "java.util.zip.ZipFile.getEntry", "java.util.zip.ZipFile$Source")},
	{analysis.DefectG1Evacuation, frames("copy_to_survivor_space", "G1ParScanThreadState::", "G1ParEvacuateFollowersClosure")},
	{analysis.DefectCmsPromotion, frames("CMSCollector::", "ConcurrentMarkSweepGeneration::", "CompactibleFreeListSpace::", "ParNewGeneration::", "CMSParRemarkTask")},
	{analysis.DefectShenandoahBarrier, frames("ShenandoahBarrierSet", "ShenandoahLoadReferenceBarrier", "ShenandoahHeap::evacuate")},
	{analysis.DefectClassUnloading, frames("ClassLoaderData::unload", "ClassLoaderDataGraph::do_unloading", "ClassLoaderDataGraph::purge", "Klass::clean_weak_klass_links", "MetadataOnStackMark")},
	{analysis.DefectC2Optimization, frames("PhaseIdealLoop::", "PhaseIterGVN::", "PhaseCFG::", "PhaseChaitin::", "PhaseMacroExpand::", "PhaseOutput::", "Compile::Optimize", "Matcher::match")},
	{analysis.DefectC1Compilation, frames("LinearScan::", "GraphBuilder::", "LIRGenerator::", "Canonicalizer::", "Compilation::compile_java_method")},
	{analysis.DefectMallocCorruption, frames("_int_free", "_int_malloc", "_int_realloc", "malloc_consolidate", "malloc_printerr", "unlink_chunk", "tcache_get")},
	{analysis.DefectNss, frames("libsoftokn3", "libnss3", "libnssdbm3", "libfreeblpriv3", "sun.security.pkcs11.")},
	{analysis.DefectFontRendering, frames("libfontmanager", "libfreetype", "fontmanager.dll", "FT_Load_Glyph", "sun.font.")},
	{analysis.DefectAwtHeadless, headlessAwt},
	{analysis.DefectJna, frames("libjnidispatch", "jnidispatch.dll", "com.sun.jna.")},
	{analysis.DefectUnsafeAccess, unsafeAccess},
	{analysis.DefectJfr, frames("JfrRecorder", "JfrStackTrace", "JfrThreadSampler", "JfrCheckpoint", "JfrStorage", "OSThreadSampler", "jdk.jfr.internal.")},
	{analysis.DefectJvmtiAgent, jvmtiAgent},
}

// frameMatching returns the first frame from the top mentioning any
// fragment. The problematic frame stands in for a missing stack.
func frameMatching(c *Context, fragments ...string) (event.StackFrame, bool) {
	frames := facts.Frames(c.Doc)
	if len(frames) == 0 {
		if f, ok := facts.ProblematicFrame(c.Doc); ok {
			frames = []event.StackFrame{f}
		}
	}
	for _, f := range frames {
		if f.Mentions(fragments...) {
			return f, true
		}
	}
	return event.StackFrame{}, false
}

func frames(fragments ...string) func(c *Context) (string, bool) {
	return func(c *Context) (string, bool) {
		f, ok := frameMatching(c, fragments...)
		if !ok {
			return "", false
		}
		return frameLabel(f), true
	}
}

func isSigbus(c *Context) bool {
	switch facts.Signal(c.Doc) {
	case "SIGBUS", "EXCEPTION_IN_PAGE_ERROR":
		return true
	}
	return false
}

func sigbusWith(fragments ...string) func(c *Context) (string, bool) {
	match := frames(fragments...)
	return func(c *Context) (string, bool) {
		if !isSigbus(c) {
			return "", false
		}
		return match(c)
	}
}

// mappedFile matches a SIGBUS in Java code or a copy routine: the access
// went through a mapped buffer whose file shrank.
func mappedFile(c *Context) (string, bool) {
	if !isSigbus(c) {
		return "", false
	}
	if _, perf := sigbusWith("PerfMemory", "PerfData", "PerfLongVariant", "StatSampler", "hsperfdata")(c); perf {
		return "", false
	}
	if f, ok := frameMatching(c, "MappedByteBuffer", "DirectByteBuffer", "Unsafe_CopyMemory", "Unsafe_GetByte", "Unsafe_GetInt", "Unsafe_GetLong", "memcpy", "memmove"); ok {
		return frameLabel(f), true
	}
	if f, ok := facts.TopFrame(c.Doc); ok && (f.IsJava() || f.Type() == event.FrameStub) {
		return frameLabel(f), true
	}
	return "", false
}

// unsafeAccess matches a crash inside an Unsafe accessor, either the VM
// entry point or the intrinsic compiled into a Java method.
func unsafeAccess(c *Context) (string, bool) {
	if isSigbus(c) {
		return "", false
	}
	if f, ok := facts.TopFrame(c.Doc); ok {
		if strings.HasPrefix(f.Symbol(), "Unsafe_") {
			return f.Symbol(), true
		}
		if m := f.Method(); f.IsJava() && strings.Contains(m, ".Unsafe.") {
			return m, true
		}
	}
	return "", false
}

// headlessAwt matches AWT native code with no DISPLAY set.
func headlessAwt(c *Context) (string, bool) {
	if c.OS != facts.OsLinux || c.Truncated {
		return "", false
	}
	if _, ok := facts.Env(c.Doc, "DISPLAY"); ok {
		return "", false
	}
	return frames("libawt_xawt", "sun.awt.X11", "awt_GraphicsEnv", "XToolkit")(c)
}

func jvmtiAgent(c *Context) (string, bool) {
	agents := facts.Agents(c.Doc)
	if len(agents) == 0 {
		return "", false
	}
	if _, ok := frameMatching(c, "JvmtiExport::", "JvmtiEnv::", "JvmtiTagMap", "JvmtiEventController"); !ok {
		return "", false
	}
	return strings.Join(agents, ", "), true
}

func knownDefects(c *Context) []Candidate {
	var out []Candidate
	for _, d := range defects {
		if where, ok := d.match(c); ok {
			out = append(out, emit(d.code, where)...)
		}
	}
	return out
}
