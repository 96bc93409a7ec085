package facts

import (
	"strings"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
	"hserr-agent/src/units"
)

// moreFrames marks a stack cut short by the JVM.
const moreFrames = "...<more frames>..."

// Frames returns the stack frames from the top down to the first
// "...<more frames>..." marker.
func Frames(doc *document.Document) []event.StackFrame {
	var out []event.StackFrame
	for _, f := range doc.Frames() {
		if strings.TrimSpace(f.Line) == moreFrames {
			break
		}
		if f.Type() != 0 {
			out = append(out, f)
		}
	}
	return out
}

// ProblematicFrame returns the frame named under "# Problematic frame:".
func ProblematicFrame(doc *document.Document) (event.StackFrame, bool) {
	headers := doc.Headers()
	for i, h := range headers {
		if !h.IsProblematicFrameTitle() || i+1 >= len(headers) {
			continue
		}
		if text := headers[i+1].FrameText(); text != "" {
			return event.AsFrame(text), true
		}
	}
	return event.StackFrame{}, false
}

// TopFrame returns the first stack frame, falling back to the problematic
// frame of the header.
func TopFrame(doc *document.Document) (event.StackFrame, bool) {
	if frames := Frames(doc); len(frames) > 0 {
		return frames[0], true
	}
	return ProblematicFrame(doc)
}

// TopCompiledFrame returns the first frame of JIT compiled Java code.
func TopCompiledFrame(doc *document.Document) (event.StackFrame, bool) {
	for _, f := range Frames(doc) {
		if f.IsCompiledJava() {
			return f, true
		}
	}
	if f, ok := ProblematicFrame(doc); ok && f.IsCompiledJava() {
		return f, true
	}
	return event.StackFrame{}, false
}

// TopNativeFrame returns the first frame outside Java code, skipping
// frames of the C library's abort path.
func TopNativeFrame(doc *document.Document) (event.StackFrame, bool) {
	for _, f := range Frames(doc) {
		if f.IsJava() || f.Type() == event.FrameStub {
			return event.StackFrame{}, false
		}
		if isAbortPath(f) || isErrorReporter(f) {
			continue
		}
		return f, true
	}
	return event.StackFrame{}, false
}

func isAbortPath(f event.StackFrame) bool {
	switch f.Symbol() {
	case "raise", "abort", "gsignal", "__GI_raise", "__GI_abort", "__pthread_kill_implementation", "pthread_kill":
		return true
	}
	return strings.HasPrefix(f.Library(), "libc.so") && f.Symbol() == ""
}

// isErrorReporter matches the frames of the JVM writing its own error
// report; they sit above the actual failure site.
func isErrorReporter(f event.StackFrame) bool {
	s := f.Symbol()
	for _, p := range []string{"VMError::", "report_vm_out_of_memory", "report_java_out_of_memory", "report_vm_error", "report_fatal"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// StackHasJvmFrames reports whether any frame is in the JVM library.
func StackHasJvmFrames(doc *document.Document) bool {
	for _, f := range Frames(doc) {
		if f.InJvmLibrary() {
			return true
		}
	}
	return false
}

// CrashInJvm reports a top native frame inside the JVM library.
func CrashInJvm(doc *document.Document) bool {
	f, ok := TopNativeFrame(doc)
	if !ok {
		f, ok = ProblematicFrame(doc)
	}
	return ok && (f.InJvmLibrary() || f.IsVm())
}

// StackMentions reports whether a frame above the first Java frame
// contains any of the fragments.
func StackMentions(doc *document.Document, fragments ...string) bool {
	frames := Frames(doc)
	if len(frames) == 0 {
		if f, ok := ProblematicFrame(doc); ok {
			frames = []event.StackFrame{f}
		}
	}
	for _, f := range frames {
		if f.Mentions(fragments...) {
			return true
		}
	}
	return false
}

// StackMentionsAnywhere reports whether any frame, native or Java,
// contains any of the fragments.
func StackMentionsAnywhere(doc *document.Document, fragments ...string) bool {
	for _, f := range doc.Frames() {
		if f.Mentions(fragments...) {
			return true
		}
	}
	return false
}

// CurrentThread returns the "Current thread" line.
func CurrentThread(doc *document.Document) (event.Current, bool) {
	e, ok := doc.Singleton(event.CurrentThread)
	return event.Current{Event: e}, ok
}

// CompileTask returns the method being compiled when the crash happened.
func CompileTask(doc *document.Document) (event.CompileTask, bool) {
	e, ok := doc.Singleton(event.CurrentCompileTask)
	return event.CompileTask{Event: e}, ok
}

// StackBounds returns the "Stack: [...]" line of the crashing thread.
func StackBounds(doc *document.Document) (event.StackBounds, bool) {
	e, ok := doc.Singleton(event.StackHeader)
	return event.StackBounds{Event: e}, ok
}

// StackFreeSpace returns the free stack of the crashing thread in bytes.
func StackFreeSpace(doc *document.Document) opt.Value[int64] {
	if b, ok := StackBounds(doc); ok {
		return b.FreeSpace()
	}
	return opt.None[int64]()
}

// DefaultThreadStackSize returns the JVM default for Java thread stacks on
// the platform.
func DefaultThreadStackSize(doc *document.Document) opt.Value[int64] {
	switch {
	case OsFamily(doc) == OsWindows:
		return opt.Some(units.M)
	case Arch(doc) == "aarch64" && OsFamily(doc) == OsMacOS:
		return opt.Some(units.M)
	case Arch(doc) == "ppc64le", Arch(doc) == "ppc64":
		return opt.Some(2 * units.M)
	case Arch(doc) == "x86":
		return opt.Some(320 * units.K)
	case Arch(doc) != "":
		return opt.Some(units.M)
	}
	return opt.None[int64]()
}

// ThreadStackSize returns the Java thread stack size in bytes: the
// ThreadStackSize global flag (printed in K), -Xss or
// -XX:ThreadStackSize, the platform default, then the observed size of
// the crashing thread's stack.
func ThreadStackSize(doc *document.Document) opt.Value[int64] {
	if v := FlagInt(doc, "ThreadStackSize"); v.Known() {
		k, _ := v.Get()
		if k > 0 {
			return opt.Some(k * units.K)
		}
	}
	options := OptionList(doc)
	for i := len(options) - 1; i >= 0; i-- {
		o := options[i]
		if strings.HasPrefix(o, "-Xss") {
			return units.ParseSize(strings.TrimPrefix(o, "-Xss"))
		}
		if strings.HasPrefix(o, "-XX:ThreadStackSize=") {
			return units.ParseWithDefaultUnit(strings.TrimPrefix(o, "-XX:ThreadStackSize="), 'k')
		}
	}
	if v := DefaultThreadStackSize(doc); v.Known() {
		return v
	}
	if b, ok := StackBounds(doc); ok {
		return b.Size()
	}
	return opt.None[int64]()
}

// ThreadCount returns the number of threads listed.
func ThreadCount(doc *document.Document) int {
	n := 0
	for _, t := range doc.Threads() {
		if t.IsDescriptor() {
			n++
		}
	}
	return n
}

// JavaThreadCount returns the number of Java threads listed.
func JavaThreadCount(doc *document.Document) int {
	n := 0
	for _, t := range doc.Threads() {
		if t.IsDescriptor() && t.IsJavaThread() {
			n++
		}
	}
	return n
}

// ExceptionCount returns an OutOfMemory/StackOverflow counter, as in
// "java_heap_errors", "metaspace_errors" or "StackOverflowErrors".
func ExceptionCount(doc *document.Document, name string) opt.Value[int64] {
	for _, c := range doc.ExceptionCounts() {
		if c.Name() == name {
			return c.Count()
		}
	}
	return opt.None[int64]()
}

// VmOperation returns the VM operation in progress.
func VmOperation(doc *document.Document) (event.VmOperationLine, bool) {
	e, ok := doc.Singleton(event.VmOperation)
	return event.VmOperationLine{Event: e}, ok
}

// AtSafepoint reports a crash at a safepoint.
func AtSafepoint(doc *document.Document) bool {
	e, ok := doc.Singleton(event.VmState)
	return ok && event.VmStateLine{Event: e}.AtSafepoint()
}

// DuringGc reports a crash inside a garbage collection: a GC VM operation
// or a GC worker as the crashing thread.
func DuringGc(doc *document.Document) bool {
	if op, ok := VmOperation(doc); ok && op.IsGc() {
		return true
	}
	if c, ok := CurrentThread(doc); ok && c.IsGcThread() {
		return true
	}
	return false
}

// Signal returns the crash signal or Windows exception: siginfo first,
// then the header.
func Signal(doc *document.Document) string {
	if e, ok := doc.Singleton(event.SigInfo); ok {
		if s := (event.SigInfoLine{Event: e}).Signal(); s != "" {
			return s
		}
	}
	for _, h := range doc.Headers() {
		if h.IsSignal() {
			return h.Signal()
		}
	}
	return ""
}

// SignalCode returns the signal code, as in SEGV_MAPERR.
func SignalCode(doc *document.Document) string {
	e, ok := doc.Singleton(event.SigInfo)
	if !ok {
		return ""
	}
	return event.SigInfoLine{Event: e}.Code()
}

// FaultAddress returns the faulting address.
func FaultAddress(doc *document.Document) opt.Value[int64] {
	e, ok := doc.Singleton(event.SigInfo)
	if !ok {
		return opt.None[int64]()
	}
	return event.SigInfoLine{Event: e}.Address()
}

// Pid returns the crashed process id.
func Pid(doc *document.Document) opt.Value[int64] {
	for _, h := range doc.Headers() {
		if v := h.Pid(); v.Known() {
			return v
		}
	}
	return opt.None[int64]()
}

// InternalError returns the source location and detail of an internal
// error or fatal error.
func InternalError(doc *document.Document) (source, detail string, ok bool) {
	for _, h := range doc.Headers() {
		if h.IsInternalError() {
			source, ok = h.InternalErrorSource(), true
		}
		if d := h.ErrorDetail(); d != "" && detail == "" {
			detail = d
		}
	}
	return source, detail, ok
}

// FailedAllocation returns the size of a failed native allocation and what
// it was for.
func FailedAllocation(doc *document.Document) (size opt.Value[int64], purpose string, ok bool) {
	for _, h := range doc.Headers() {
		if h.IsFailedAllocation() {
			return h.FailedAllocationSize(), h.FailedAllocationPurpose(), true
		}
	}
	return opt.None[int64](), "", false
}

// IsOutOfMemory reports an out of native memory crash.
func IsOutOfMemory(doc *document.Document) bool {
	for _, h := range doc.Headers() {
		if h.IsInsufficientMemory() || h.IsFailedAllocation() || h.IsOutOfMemoryError() {
			return true
		}
	}
	return false
}

// OutOfMemoryDetail returns the fatal error text of -XX:+CrashOnOutOfMemoryError,
// as in "Java heap space" or "Metaspace".
func OutOfMemoryDetail(doc *document.Document) string {
	const marker = "OutOfMemory encountered: "
	for _, h := range doc.Headers() {
		if i := strings.Index(h.Line, marker); i >= 0 {
			return strings.TrimSpace(h.Line[i+len(marker):])
		}
	}
	return ""
}

// CoreDumpDisabled reports that no core dump was written because of the
// core limit.
func CoreDumpDisabled(doc *document.Document) bool {
	for _, h := range doc.Headers() {
		if h.IsCoreDumpDisabled() {
			return true
		}
	}
	return false
}

// CoreDumpLocation returns the header text saying where a core dump went.
func CoreDumpLocation(doc *document.Document) string {
	for _, h := range doc.Headers() {
		if h.IsCoreDumpWritten() {
			text := strings.TrimSpace(strings.TrimPrefix(h.Line, "#"))
			if i := strings.Index(text, ":"); i >= 0 {
				return strings.TrimSpace(text[i+1:])
			}
			return text
		}
	}
	return ""
}
