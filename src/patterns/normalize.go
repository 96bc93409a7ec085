// Package patterns normalizes crash report lines for both recurrence
// detection (grouping crashes with the same stack) and presentation.
//
// The same underlying patterns are used with different masking levels:
//   - MaskRecurrence: Aggressive normalization for grouping (drops offsets, masks numbers)
//   - MaskPresentation: Conservative normalization for display (keeps numbers)
package patterns

import (
	"regexp"
	"strings"
)

// MaskingLevel controls how aggressively lines are normalized.
type MaskingLevel int

const (
	// MaskPresentation keeps frame details a reader needs.
	// Use for: MCP responses, viewer panels.
	// Example: [libjvm.so+0x5b1c2e] → [libjvm.so+<HEX>]
	MaskPresentation MaskingLevel = iota

	// MaskRecurrence normalizes for grouping the same crash across builds
	// and processes.
	// Use for: crash signatures, recurrence counting.
	// Example: [libjvm.so+0x5b1c2e] → [libjvm.so]
	MaskRecurrence
)

// Shared regex patterns - compiled once at package init.
var (
	// hexAddressPattern matches hex addresses (0x prefixed).
	// Matches: 0x00007f3c2d5b1c2e
	hexAddressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)

	// offsetPattern matches a library or symbol offset.
	// Matches: +0x5b1c2e in [libjvm.so+0x5b1c2e]
	offsetPattern = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)

	// bytecodeIndexPattern matches the bytecode index of an interpreted frame.
	// Matches: +92 in getGlyphImagePtrs([I[JI)V+92
	bytecodeIndexPattern = regexp.MustCompile(`\+\d+$`)

	// numberPattern matches standalone numbers: compile ids, code sizes,
	// library versions.
	numberPattern = regexp.MustCompile(`\b\d+\b`)

	// longPathPattern matches absolute paths with 3+ directories.
	// Captures the file name for preservation.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:\]]+)`)

	// whitespacePattern matches multiple consecutive whitespace.
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize applies pattern normalization to a single line.
// The masking level determines how aggressively patterns are replaced.
func Normalize(line string, level MaskingLevel) string {
	switch level {
	case MaskPresentation:
		line = hexAddressPattern.ReplaceAllString(line, "<HEX>")
		line = compressPath(line)
	case MaskRecurrence:
		line = strings.TrimSpace(line)
		line = offsetPattern.ReplaceAllString(line, "")
		line = bytecodeIndexPattern.ReplaceAllString(line, "")
		line = hexAddressPattern.ReplaceAllString(line, "[HEX]")
		line = maskAllPaths(line)
		line = numberPattern.ReplaceAllString(line, "[NUM]")
	}

	return normalizeWhitespace(line)
}

// compressPath shortens long paths while preserving the file name.
// /usr/lib/jvm/java-11/lib/server/libjvm.so → .../libjvm.so
func compressPath(line string) string {
	return longPathPattern.ReplaceAllString(line, ".../$1")
}

// maskAllPaths keeps only the file name of long paths, so the same library
// installed in two places groups together.
func maskAllPaths(line string) string {
	return longPathPattern.ReplaceAllString(line, "[PATH]/$1")
}

// normalizeWhitespace collapses multiple spaces and trims.
func normalizeWhitespace(line string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}
