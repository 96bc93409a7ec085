// Package analyze turns crash report lines into a diagnosis report and runs
// the analyze agent that does so for reports arriving over the broker.
package analyze

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hserr-agent/src/contracts"
	"hserr-agent/src/document"
	"hserr-agent/src/facts"
	"hserr-agent/src/patterns"
	"hserr-agent/src/ranking"
	"hserr-agent/src/rules"
	"hserr-agent/src/units"
)

const unknown = "unknown"

// Analyze parses lines and evaluates every rule against them. The report
// gets a fresh id; Name and RequestID are left for the caller.
func Analyze(lines []string, now time.Time, opts ...rules.Option) contracts.DiagnosisReport {
	doc := document.Parse(lines)
	return AnalyzeDocument(doc, now, opts...)
}

// AnalyzeDocument is Analyze for an already parsed document.
func AnalyzeDocument(doc *document.Document, now time.Time, opts ...rules.Option) contracts.DiagnosisReport {
	list := rules.Evaluate(doc, now, opts...)
	entries := ranking.Entries(list)
	errors, warnings, infos := ranking.RankEntries(entries).Counts()

	return contracts.DiagnosisReport{
		ID:          uuid.New().String(),
		Signature:   Signature(doc),
		AnalyzedAt:  now,
		Summary:     Summarize(doc),
		Diagnostics: entries,
		Errors:      errors,
		Warnings:    warnings,
		Infos:       infos,
	}
}

// Signature identifies the crash by its kind and top frames, ignoring
// addresses, offsets and other per-process values.
func Signature(doc *document.Document) string {
	var frames []string
	for _, f := range facts.Frames(doc) {
		frames = append(frames, f.Text())
	}
	if len(frames) == 0 {
		if f, ok := facts.ProblematicFrame(doc); ok {
			frames = append(frames, f.Text())
		}
	}
	return patterns.Signature(CrashKind(doc), frames)
}

// CrashKind names what stopped the JVM: a signal or exception name, an
// internal error, or an out of memory condition.
func CrashKind(doc *document.Document) string {
	if s := facts.Signal(doc); s != "" {
		return s
	}
	if _, _, ok := facts.InternalError(doc); ok {
		return "InternalError"
	}
	if facts.IsOutOfMemory(doc) {
		return "OutOfMemoryError"
	}
	return ""
}

// Summarize collects the headline facts of doc.
func Summarize(doc *document.Document) contracts.Summary {
	s := contracts.Summary{
		Vendor:         orUnknown(facts.Vendor(doc)),
		InstallType:    orUnknown(facts.InstallType(doc)),
		JavaVersion:    orUnknown(facts.JavaVersion(doc)),
		OS:             orUnknown(facts.OsText(doc)),
		Arch:           orUnknown(facts.Arch(doc)),
		Collectors:     orUnknown(strings.Join(facts.Collectors(doc), ", ")),
		MaxHeap:        units.FormatOpt(facts.MaxHeapSize(doc)),
		PhysicalMemory: units.FormatOpt(facts.PhysicalMemory(doc)),
		CrashTime:      unknown,
		Elapsed:        unknown,
		Signal:         orUnknown(CrashKind(doc)),
		Truncated:      facts.IsTruncated(doc),
		TotalLines:     doc.Total(),
		Unidentified:   len(doc.Unidentified()),
	}
	if t, ok := facts.CrashTime(doc); ok {
		s.CrashTime = t.Format(time.RFC3339)
	}
	if secs, ok := facts.Elapsed(doc).Get(); ok {
		s.Elapsed = FormatElapsed(secs)
	}
	if f, ok := facts.TopFrame(doc); ok {
		s.ProblematicFrame = f.Text()
	} else {
		s.ProblematicFrame = unknown
	}
	return s
}

// FormatElapsed renders an uptime in seconds as a rounded duration, as in
// "1h0m0s" or "23h59m2s".
func FormatElapsed(secs float64) string {
	return (time.Duration(secs * float64(time.Second))).Round(time.Second).String()
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
