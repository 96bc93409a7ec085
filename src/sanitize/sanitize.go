// Package sanitize cleans crash report text before it is classified. Reports
// arrive through terminals, ticket attachments and pasted chat messages, so
// they carry colour codes, a byte order mark, CRLF endings and stray NULs.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// ANSI escape codes: \x1b[...m (SGR sequences) and cursor movement.
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// OSC sequences such as terminal titles: \x1b]...\x07
	oscPattern = regexp.MustCompile(`\x1b\][^\x07]*\x07`)
)

const bom = "\ufeff"

// StripANSI removes ANSI escape codes and OSC sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = ansiPattern.ReplaceAllString(s, "")
	return s
}

// Clean strips escape codes, a leading byte order mark, NUL bytes and
// carriage returns, and trims the trailing newline.
func Clean(s string) string {
	s = strings.TrimPrefix(s, bom)
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimRight(s, "\n")
}

// Lines cleans s and splits it into lines. Empty input has no lines.
func Lines(s string) []string {
	s = Clean(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
