package mcp

import (
	"regexp"
	"strings"
)

// addressPattern matches hex addresses long enough to be pointers.
var addressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]{9,}\b`)

// maskAddresses replaces raw pointers with <ADDR>. Short offsets such as
// +0x1e1 are kept; they identify the instruction within a function.
func maskAddresses(line string) string {
	return addressPattern.ReplaceAllString(line, "<ADDR>")
}

// longPathPattern matches absolute paths with 3+ directories.
// Captures the filename at the end.
var longPathPattern = regexp.MustCompile(`/(?:[^/\s\[\]]+/){3,}([^/\s\[\]:+]+)`)

// compressPath shortens long file paths to .../filename.
func compressPath(line string) string {
	return longPathPattern.ReplaceAllString(line, ".../$1")
}

// whitespacePattern matches multiple consecutive whitespace characters.
var whitespacePattern = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses multiple spaces/tabs and trims.
func normalizeWhitespace(line string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// CompressLine shortens a message or frame for token efficiency.
func CompressLine(line string) string {
	return normalizeWhitespace(compressPath(maskAddresses(line)))
}

// CompressLines applies CompressLine to each line.
func CompressLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = CompressLine(l)
	}
	return out
}

// maxSummaryMessage is the message length kept in a FindingSummary.
const maxSummaryMessage = 100

// truncate shortens s to n bytes, ending in "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
