package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"hserr-agent/src/samples"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestReadSamples(t *testing.T) {
	for _, name := range samples.Names() {
		t.Run(name, func(t *testing.T) {
			text, _ := samples.Text(name)
			lines, err := Read(strings.NewReader(text))
			if err != nil {
				t.Fatalf("Read(%s) error: %v", name, err)
			}
			if want := len(samples.Lines(name)); len(lines) != want {
				t.Errorf("Read(%s) = %d lines, expected %d", name, len(lines), want)
			}
		})
	}
}

func TestReadGzip(t *testing.T) {
	text, _ := samples.Text(samples.RhelG1)
	lines, err := Read(bytes.NewReader(gzipped(t, text)))
	if err != nil {
		t.Fatalf("Read(gzip) error: %v", err)
	}
	if want := len(samples.Lines(samples.RhelG1)); len(lines) != want {
		t.Errorf("Read(gzip) = %d lines, expected %d", len(lines), want)
	}
}

func TestReadCleansInput(t *testing.T) {
	text, _ := samples.Text(samples.ContainerOOM)
	dirty := "\ufeff" + strings.ReplaceAll(text, "\n", "\r\n")
	lines, err := Read(strings.NewReader(dirty))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	for i, l := range lines {
		if strings.ContainsAny(l, "\r\ufeff") {
			t.Fatalf("line %d still carries CR or BOM: %q", i+1, l)
		}
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyReport},
		{"blank lines", "\n\n   \n", ErrEmptyReport},
		{"other log", "2024-01-01 INFO started\n2024-01-01 INFO stopped\n", ErrNotCrashReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Read(%q) error = %v, expected %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestReadCorruptGzip(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("Read(corrupt gzip) error = %v, expected ErrUnreadable", err)
	}
}

func TestValidateHeaderOnly(t *testing.T) {
	lines := []string{
		"#",
		"# A fatal error has been detected by the Java Runtime Environment:",
		"#",
	}
	if err := Validate(lines); err != nil {
		t.Errorf("Validate(header only) = %v, expected nil", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	text, _ := samples.Text(samples.WindowsTruncated)

	plain := filepath.Join(dir, "hs_err_pid1.log")
	if err := os.WriteFile(plain, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "hs_err_pid1.log.gz")
	if err := os.WriteFile(compressed, gzipped(t, text), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		lines, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", path, err)
		}
		if want := len(samples.Lines(samples.WindowsTruncated)); len(lines) != want {
			t.Errorf("Load(%s) = %d lines, expected %d", path, len(lines), want)
		}
	}

	_, err := Load(filepath.Join(dir, "missing.log"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, expected os.ErrNotExist", err)
	}
}
