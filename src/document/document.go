// Package document holds the classified form of one crash report.
package document

import (
	"hserr-agent/src/classify"
	"hserr-agent/src/event"
)

// Line is a line that matched no known pattern.
type Line struct {
	Number int // 1-based
	Text   string
}

// Document is built once by Parse and is read-only afterwards.
type Document struct {
	events       map[event.Kind][]event.Event
	unidentified []Line
	total        int
}

// Parse classifies lines in order and groups the events by kind. Every
// line lands either in exactly one kind collection or in the unidentified
// list.
func Parse(lines []string) *Document {
	d := &Document{
		events: make(map[event.Kind][]event.Event),
		total:  len(lines),
	}
	var prev event.Event
	for i, line := range lines {
		e := classify.Classify(line, prev)
		if e.Kind == event.Unknown {
			d.unidentified = append(d.unidentified, Line{Number: i + 1, Text: line})
		} else {
			d.events[e.Kind] = append(d.events[e.Kind], e)
		}
		prev = e
	}
	return d
}

// Total is the number of input lines.
func (d *Document) Total() int { return d.total }

// Unidentified returns the lines that matched no pattern, in file order.
func (d *Document) Unidentified() []Line { return d.unidentified }

// All returns every event of kind k in file order, section headings
// included.
func (d *Document) All(k event.Kind) []event.Event { return d.events[k] }

// Events returns the value-carrying events of kind k in file order.
func (d *Document) Events(k event.Kind) []event.Event {
	all := d.events[k]
	out := make([]event.Event, 0, len(all))
	for _, e := range all {
		if !e.Header {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether any line of kind k was seen, heading or not.
func (d *Document) Has(k event.Kind) bool { return len(d.events[k]) > 0 }

// Count returns the number of lines classified as k.
func (d *Document) Count(k event.Kind) int { return len(d.events[k]) }

// Counts returns the line count per kind for every kind seen.
func (d *Document) Counts() map[event.Kind]int {
	counts := make(map[event.Kind]int, len(d.events))
	for k, es := range d.events {
		counts[k] = len(es)
	}
	return counts
}

// Singleton returns the single value of a singleton section: the first
// value-carrying line of that kind. Later repetitions are ignored.
func (d *Document) Singleton(k event.Kind) (event.Event, bool) {
	if !k.Singleton() {
		panic("document: " + k.String() + " is not a singleton kind")
	}
	for _, e := range d.events[k] {
		if !e.Header {
			return e, true
		}
	}
	return event.Event{}, false
}

// Text returns the raw line of a singleton section, or "".
func (d *Document) Text(k event.Kind) string {
	e, ok := d.Singleton(k)
	if !ok {
		return ""
	}
	return e.Line
}

// Headers returns the "#" lines at the top of the report.
func (d *Document) Headers() []event.HeaderLine {
	es := d.events[event.Header]
	out := make([]event.HeaderLine, len(es))
	for i, e := range es {
		out[i] = event.HeaderLine{Event: e}
	}
	return out
}

// Frames returns the stack frames in file order, top frame first.
func (d *Document) Frames() []event.StackFrame {
	es := d.events[event.Frame]
	out := make([]event.StackFrame, len(es))
	for i, e := range es {
		out[i] = event.StackFrame{Event: e}
	}
	return out
}

// Threads returns the thread descriptor lines.
func (d *Document) Threads() []event.ThreadLine {
	es := d.Events(event.Thread)
	out := make([]event.ThreadLine, len(es))
	for i, e := range es {
		out[i] = event.ThreadLine{Event: e}
	}
	return out
}

// HeapLines returns the lines of the "Heap:" section.
func (d *Document) HeapLines() []event.HeapLine {
	es := d.Events(event.Heap)
	out := make([]event.HeapLine, len(es))
	for i, e := range es {
		out[i] = event.HeapLine{Event: e}
	}
	return out
}

// Meminfo returns the /proc/meminfo lines.
func (d *Document) Meminfo() []event.MeminfoLine {
	es := d.Events(event.Meminfo)
	out := make([]event.MeminfoLine, len(es))
	for i, e := range es {
		out[i] = event.MeminfoLine{Event: e}
	}
	return out
}

// Container returns the cgroup information lines.
func (d *Document) Container() []event.ContainerLine {
	es := d.Events(event.Container)
	out := make([]event.ContainerLine, len(es))
	for i, e := range es {
		out[i] = event.ContainerLine{Event: e}
	}
	return out
}

// Flags returns the [Global flags] entries.
func (d *Document) Flags() []event.Flag {
	es := d.Events(event.GlobalFlag)
	out := make([]event.Flag, len(es))
	for i, e := range es {
		out[i] = event.Flag{Event: e}
	}
	return out
}

// Arguments returns the VM Arguments lines.
func (d *Document) Arguments() []event.ArgumentLine {
	es := d.Events(event.VmArguments)
	out := make([]event.ArgumentLine, len(es))
	for i, e := range es {
		out[i] = event.ArgumentLine{Event: e}
	}
	return out
}

// Env returns the environment variables.
func (d *Document) Env() []event.EnvVar {
	es := d.Events(event.EnvironmentVariable)
	out := make([]event.EnvVar, len(es))
	for i, e := range es {
		out[i] = event.EnvVar{Event: e}
	}
	return out
}

// Libraries returns the dynamic library mappings.
func (d *Document) Libraries() []event.Mapping {
	es := d.Events(event.DynamicLibrary)
	out := make([]event.Mapping, len(es))
	for i, e := range es {
		out[i] = event.Mapping{Event: e}
	}
	return out
}

// CodeCache returns the code cache summary and heap lines.
func (d *Document) CodeCache() []event.CodeCacheLine {
	es := d.Events(event.CodeCache)
	out := make([]event.CodeCacheLine, len(es))
	for i, e := range es {
		out[i] = event.CodeCacheLine{Event: e}
	}
	return out
}

// PreciousLog returns the GC Precious Log entries.
func (d *Document) PreciousLog() []event.PreciousLogLine {
	es := d.Events(event.GcPreciousLog)
	out := make([]event.PreciousLogLine, len(es))
	for i, e := range es {
		out[i] = event.PreciousLogLine{Event: e}
	}
	return out
}

// ExceptionCounts returns the OutOfMemory/StackOverflow counters.
func (d *Document) ExceptionCounts() []event.ExceptionCountLine {
	es := d.Events(event.ExceptionCounts)
	out := make([]event.ExceptionCountLine, len(es))
	for i, e := range es {
		out[i] = event.ExceptionCountLine{Event: e}
	}
	return out
}

// ProcessMemory returns the Process Memory section lines.
func (d *Document) ProcessMemory() []event.ProcessMemoryLine {
	es := d.Events(event.ProcessMemory)
	out := make([]event.ProcessMemoryLine, len(es))
	for i, e := range es {
		out[i] = event.ProcessMemoryLine{Event: e}
	}
	return out
}

// InternalExceptions returns the "Internal exceptions" event lines.
func (d *Document) InternalExceptions() []event.InternalException {
	es := d.Events(event.InternalExceptionEvent)
	out := make([]event.InternalException, len(es))
	for i, e := range es {
		out[i] = event.InternalException{Event: e}
	}
	return out
}
