package rules

import (
	"fmt"
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/event"
	"hserr-agent/src/facts"
	"hserr-agent/src/units"
)

// nullPage is the size of the unmapped page at address zero.
const nullPage = 4096

// stackOverflowFree is the free stack below which a crash is taken as a
// stack overflow. The guard zones of the JVM are smaller than this.
const stackOverflowFree = 24 * units.K

func hex(v int64) string {
	return fmt.Sprintf("0x%016x", v)
}

// frameLabel names a frame for a message: its symbol, Java method,
// library, or text.
func frameLabel(f event.StackFrame) string {
	if s := f.Symbol(); s != "" {
		return s
	}
	if m := f.Method(); m != "" {
		return m
	}
	if l := f.Library(); l != "" {
		if off, ok := f.Offset().Get(); ok {
			return fmt.Sprintf("%s+0x%x", l, off)
		}
		return l
	}
	return f.Text()
}

// excludeTarget converts "java.util.HashMap.get" or "java.util.HashMap::get"
// to the CompileCommand form "java.util.HashMap::get".
func excludeTarget(method string) string {
	if strings.Contains(method, "::") {
		return method
	}
	if i := strings.LastIndex(method, "."); i > 0 {
		return method[:i] + "::" + method[i+1:]
	}
	return method
}

func crashSignal(c *Context) []Candidate {
	sig := facts.Signal(c.Doc)
	if sig == "" {
		return nil
	}
	code := ""
	if sc := facts.SignalCode(c.Doc); sc != "" {
		code = " (" + sc + ")"
	}
	addr := "unknown"
	if a, ok := facts.FaultAddress(c.Doc).Get(); ok {
		addr = hex(a)
	}
	return emit(analysis.CrashSignal, sig, code, addr)
}

func crashNullPointer(c *Context) []Candidate {
	switch facts.Signal(c.Doc) {
	case "SIGSEGV", "SIGBUS", "EXCEPTION_ACCESS_VIOLATION":
	default:
		return nil
	}
	if a, ok := facts.FaultAddress(c.Doc).Get(); ok && a >= 0 && a < nullPage {
		return emit(analysis.CrashNullPointer, hex(a))
	}
	return nil
}

func crashInternalError(c *Context) []Candidate {
	source, detail, ok := facts.InternalError(c.Doc)
	if !ok {
		return nil
	}
	if detail == "" {
		detail = "no detail"
	}
	return emit(analysis.CrashInternalError, source, detail)
}

func crashStackOverflow(c *Context) []Candidate {
	if facts.Signal(c.Doc) == "" && !facts.StackMentions(c.Doc, "StackOverflow") {
		return nil
	}
	free := facts.StackFreeSpace(c.Doc)
	if !free.LtV(stackOverflowFree) {
		return nil
	}
	size := facts.ThreadStackSize(c.Doc)
	if b, ok := facts.StackBounds(c.Doc); ok && b.Size().Known() {
		size = b.Size()
	}
	return emit(analysis.CrashStackOverflow, units.FormatOpt(free), units.FormatOpt(size))
}

func crashCompilerThread(c *Context) []Candidate {
	t, ok := facts.CurrentThread(c.Doc)
	if !ok || !t.IsCompilerThread() {
		return nil
	}
	method := "an unknown method"
	target := "<method>"
	if task, ok := facts.CompileTask(c.Doc); ok && task.Method() != "" {
		method = task.Method()
		target = excludeTarget(method)
	}
	return emit(analysis.CrashCompilerThread, t.Name(), method, target)
}

func crashCompiledCode(c *Context) []Candidate {
	f, ok := facts.TopFrame(c.Doc)
	if !ok || !f.IsCompiledJava() || f.Method() == "" {
		return nil
	}
	compiler := f.Compiler()
	if compiler == "" {
		compiler = "compiler unknown"
	}
	return emit(analysis.CrashCompiledCode, f.Method(), compiler, excludeTarget(f.Method()))
}

func crashGcThread(c *Context) []Candidate {
	t, ok := facts.CurrentThread(c.Doc)
	if !ok || !t.IsGcThread() {
		return nil
	}
	return emit(analysis.CrashGcThread, t.Name())
}

// An allocation failure also ends in JVM frames, but the memory rules own it.
func crashJvmCode(c *Context) []Candidate {
	if facts.IsOutOfMemory(c.Doc) || !facts.CrashInJvm(c.Doc) {
		return nil
	}
	f, ok := facts.TopNativeFrame(c.Doc)
	if !ok {
		f, _ = facts.ProblematicFrame(c.Doc)
	}
	return emit(analysis.CrashJvmCode, frameLabel(f))
}

func crashNativeLibrary(c *Context) []Candidate {
	f, ok := facts.TopNativeFrame(c.Doc)
	if !ok || !f.IsNative() || f.InJvmLibrary() || f.Library() == "" {
		return nil
	}
	symbol := f.Symbol()
	if symbol == "" {
		symbol = "no symbol"
	}
	return emit(analysis.CrashNativeLibrary, f.Library(), symbol)
}

func crashNativeThread(c *Context) []Candidate {
	if t, ok := facts.CurrentThread(c.Doc); ok && t.IsNativeThread() {
		return emit(analysis.CrashNativeThread)
	}
	return nil
}

func crashVmThread(c *Context) []Candidate {
	t, ok := facts.CurrentThread(c.Doc)
	if !ok || t.Type() != "VMThread" {
		return nil
	}
	op := "an unknown VM operation"
	if o, ok := facts.VmOperation(c.Doc); ok && o.Name() != "" {
		op = o.Name()
	}
	return emit(analysis.CrashVmThread, op)
}

func crashDuringGc(c *Context) []Candidate {
	if !facts.DuringGc(c.Doc) {
		return nil
	}
	what := "garbage collector thread"
	if o, ok := facts.VmOperation(c.Doc); ok && o.IsGc() {
		what = o.Name()
	} else if t, ok := facts.CurrentThread(c.Doc); ok && t.Name() != "" {
		what = t.Name()
	}
	return emit(analysis.CrashDuringGc, what)
}

func crashAbort(c *Context) []Candidate {
	if facts.Signal(c.Doc) != "SIGABRT" {
		return nil
	}
	where := "native code"
	if f, ok := facts.TopNativeFrame(c.Doc); ok {
		where = frameLabel(f)
		if lib := f.Library(); lib != "" && f.Symbol() != "" {
			where = lib + " " + f.Symbol()
		}
	}
	return emit(analysis.CrashAbort, where)
}
