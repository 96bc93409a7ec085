// Package ingest loads crash reports, splits them into chunks for the broker
// and runs the ingest agent.
package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/sanitize"
)

// MaxReportBytes bounds the decompressed size of a report.
const MaxReportBytes = 64 << 20

var gzipMagic = []byte{0x1f, 0x8b}

// Load reads the report at path. Gzip-compressed files are detected by
// content, not by extension.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Read reads, cleans and validates a report.
func Read(r io.Reader) ([]string, error) {
	data, err := ReadRaw(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadRaw returns the report bytes, decompressing gzip input.
func ReadRaw(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(gzipMagic))

	var src io.Reader = br
	if bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		defer zr.Close()
		src = zr
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxReportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(data) > MaxReportBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Parse cleans raw report text into lines and validates it.
func Parse(data []byte) ([]string, error) {
	lines := sanitize.Lines(string(data))
	if err := Validate(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Validate rejects input with no content or without any of the sections
// every fatal error log starts with.
func Validate(lines []string) error {
	blank := true
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			blank = false
			break
		}
	}
	if blank {
		return ErrEmptyReport
	}

	doc := document.Parse(lines)
	for _, k := range []event.Kind{event.Banner, event.SigInfo, event.CurrentThread, event.VmInfo} {
		if doc.Has(k) {
			return nil
		}
	}
	for _, h := range doc.All(event.Header) {
		if strings.Contains(h.Line, "fatal error has been detected") {
			return nil
		}
	}
	return ErrNotCrashReport
}
