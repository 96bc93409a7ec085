package event

import (
	"regexp"
	"strings"

	"hserr-agent/src/opt"
)

var (
	framePattern         = regexp.MustCompile(`^([CJjVvA])\s+(.*)$`)
	nativeFramePattern   = regexp.MustCompile(`^\[([^+\]]+)\+(0x[0-9a-fA-F]+)\](?:\s+(.*))?$`)
	compiledFramePattern = regexp.MustCompile(`^(\d+)%?\s+(?:(C1|C2|c1|c2|JVMCI)\s+)?([\w$.<>/]+)`)
	javaMethodPattern    = regexp.MustCompile(`^([\w$.<>/]+)\(`)
	stackHeaderPattern   = regexp.MustCompile(`^Stack: \[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\](?:,\s+sp=(0x[0-9a-fA-F]+))?(?:,\s+free space=(\d+)k)?`)
	threadPattern        = regexp.MustCompile(`^(=>)?\s*(0x[0-9a-fA-F]+) (\w+)(?: "([^"]*)")?( daemon)?\s*\[(?:(_thread_\w+), )?`)
	threadIDPattern      = regexp.MustCompile(`id=(\d+)`)
	threadStackPattern   = regexp.MustCompile(`stack[:(]\s*(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)`)
	currentThreadPattern = regexp.MustCompile(`^Current thread \((0x[0-9a-fA-F]+)\):\s+(\w+)(?: "([^"]*)")?( daemon)?\s*\[(?:(_thread_\w+), )?`)
	compileTaskPattern   = regexp.MustCompile(`^(C1|C2|JVMCI)\s*:\s*\d+\s+\d+.*?\s([\w$.<>/]+::[\w$<>]+)`)
)

// Frame types as printed in the first column of a stack frame.
const (
	FrameNative      = 'C'
	FrameCompiled    = 'J'
	FrameInterpreted = 'j'
	FrameVm          = 'V'
	FrameStub        = 'v'
	FrameAot         = 'A'
)

// StackFrame is one line of the native or Java frames listing.
type StackFrame struct{ Event }

// AsFrame parses a stack frame from text in stack-line form. It is used for
// the problematic frame of the header.
func AsFrame(text string) StackFrame {
	return StackFrame{New(Frame, text)}
}

// Type returns the frame type letter, or 0 for lines such as
// "...<more frames>...".
func (f StackFrame) Type() byte {
	m := framePattern.FindStringSubmatch(f.Line)
	if m == nil {
		return 0
	}
	return m[1][0]
}

// Text returns the frame without its type column.
func (f StackFrame) Text() string {
	return strings.TrimSpace(submatch(framePattern, f.Line, 2))
}

// Library returns the library of a native or VM frame, as in "libjvm.so".
func (f StackFrame) Library() string {
	return submatch(nativeFramePattern, f.Text(), 1)
}

// Offset returns the library offset of a native or VM frame.
func (f StackFrame) Offset() opt.Value[int64] {
	return parseHex(submatch(nativeFramePattern, f.Text(), 2))
}

// Symbol returns the function of a native or VM frame with its "+0x"
// offset removed, or "" when the library has no symbols.
func (f StackFrame) Symbol() string {
	s := strings.TrimSpace(submatch(nativeFramePattern, f.Text(), 3))
	if i := strings.LastIndex(s, "+0x"); i > 0 {
		s = s[:i]
	}
	return s
}

// Method returns the Java method of a compiled or interpreted frame, as in
// "java.util.HashMap.get".
func (f StackFrame) Method() string {
	switch f.Type() {
	case FrameCompiled, FrameAot:
		return submatch(compiledFramePattern, f.Text(), 3)
	case FrameInterpreted:
		return submatch(javaMethodPattern, f.Text(), 1)
	}
	return ""
}

// Compiler returns the compiler of a compiled frame in upper case, C1 or C2.
func (f StackFrame) Compiler() string {
	if f.Type() != FrameCompiled {
		return ""
	}
	return strings.ToUpper(submatch(compiledFramePattern, f.Text(), 2))
}

// CompileID returns the compile id of a compiled frame.
func (f StackFrame) CompileID() opt.Value[int64] {
	if f.Type() != FrameCompiled {
		return opt.None[int64]()
	}
	return parseInt(submatch(compiledFramePattern, f.Text(), 1))
}

// IsCompiledJava reports a "J" frame.
func (f StackFrame) IsCompiledJava() bool { return f.Type() == FrameCompiled }

// IsInterpreted reports a "j" frame.
func (f StackFrame) IsInterpreted() bool { return f.Type() == FrameInterpreted }

// IsVm reports a "V" frame.
func (f StackFrame) IsVm() bool { return f.Type() == FrameVm }

// IsNative reports a "C" frame.
func (f StackFrame) IsNative() bool { return f.Type() == FrameNative }

// IsJava reports a compiled, interpreted or AOT frame.
func (f StackFrame) IsJava() bool {
	t := f.Type()
	return t == FrameCompiled || t == FrameInterpreted || t == FrameAot
}

// InJvmLibrary reports a frame in the JVM shared library.
func (f StackFrame) InJvmLibrary() bool {
	lib := f.Library()
	return lib == "libjvm.so" || lib == "jvm.dll" || lib == "libjvm.dylib"
}

// Mentions reports whether the frame text contains any of the fragments.
func (f StackFrame) Mentions(fragments ...string) bool {
	for _, s := range fragments {
		if strings.Contains(f.Line, s) {
			return true
		}
	}
	return false
}

// StackBounds is the "Stack: [bottom,top], sp=, free space=" line.
type StackBounds struct{ Event }

// Size returns the thread stack size in bytes.
func (s StackBounds) Size() opt.Value[int64] {
	m := stackHeaderPattern.FindStringSubmatch(s.Line)
	if m == nil {
		return opt.None[int64]()
	}
	return opt.Sub(parseHex(m[2]), parseHex(m[1]))
}

// FreeSpace returns the free stack space in bytes.
func (s StackBounds) FreeSpace() opt.Value[int64] {
	return kilobytes(submatch(stackHeaderPattern, s.Line, 4))
}

// ThreadLine is one entry of the Java Threads or Other Threads lists.
type ThreadLine struct{ Event }

// IsCurrent reports the "=>" marked thread.
func (t ThreadLine) IsCurrent() bool {
	return strings.HasPrefix(strings.TrimSpace(t.Line), "=>")
}

// IsDescriptor reports a line describing a thread rather than list noise.
func (t ThreadLine) IsDescriptor() bool {
	return !t.Header && threadPattern.MatchString(t.Line)
}

// Type returns the thread class, as in JavaThread or VMThread.
func (t ThreadLine) Type() string {
	return submatch(threadPattern, t.Line, 3)
}

// Name returns the quoted thread name.
func (t ThreadLine) Name() string {
	return submatch(threadPattern, t.Line, 4)
}

// State returns the thread state, as in _thread_in_native.
func (t ThreadLine) State() string {
	return submatch(threadPattern, t.Line, 6)
}

// IsDaemon reports a daemon thread.
func (t ThreadLine) IsDaemon() bool {
	return submatch(threadPattern, t.Line, 5) != ""
}

// IsJavaThread reports a JavaThread.
func (t ThreadLine) IsJavaThread() bool {
	return t.Type() == "JavaThread"
}

// StackSize returns the size of the thread's stack in bytes.
func (t ThreadLine) StackSize() opt.Value[int64] {
	m := threadStackPattern.FindStringSubmatch(t.Line)
	if m == nil {
		return opt.None[int64]()
	}
	return opt.Sub(parseHex(m[2]), parseHex(m[1]))
}

// Current is the "Current thread (0x...):" line.
type Current struct{ Event }

// IsNativeThread reports "Current thread is native thread".
func (c Current) IsNativeThread() bool {
	return strings.HasPrefix(c.Line, "Current thread is native thread")
}

// Type returns the thread class, as in JavaThread or GCTaskThread.
func (c Current) Type() string {
	return submatch(currentThreadPattern, c.Line, 2)
}

// Name returns the quoted thread name.
func (c Current) Name() string {
	return submatch(currentThreadPattern, c.Line, 3)
}

// State returns the thread state.
func (c Current) State() string {
	return submatch(currentThreadPattern, c.Line, 5)
}

// ID returns the operating system thread id.
func (c Current) ID() opt.Value[int64] {
	return parseInt(submatch(threadIDPattern, c.Line, 1))
}

// IsCompilerThread reports a C1 or C2 compiler thread.
func (c Current) IsCompilerThread() bool {
	return strings.Contains(c.Line, "CompilerThread")
}

// IsGcThread reports a garbage collection worker thread.
func (c Current) IsGcThread() bool {
	t := c.Type()
	return t == "GCTaskThread" || t == "ConcurrentGCThread" ||
		strings.Contains(c.Name(), "GC Thread") ||
		strings.Contains(c.Name(), "G1 ")
}

// CompileTask is the line under "Current CompileTask:".
type CompileTask struct{ Event }

// Compiler returns C1, C2 or JVMCI.
func (c CompileTask) Compiler() string {
	return submatch(compileTaskPattern, c.Line, 1)
}

// Method returns the method being compiled, as in java.util.HashMap::get.
func (c CompileTask) Method() string {
	return submatch(compileTaskPattern, c.Line, 2)
}
