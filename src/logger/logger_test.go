package logger

import (
	"bytes"
	"testing"
)

func TestConsoleLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriterLogger(&out, &errOut, false)

	log.Info("[AnalyzeAgent] Published report %s", "r-1")
	log.Debug("hidden %d", 1)
	log.Error("[Store] save failed: %v", "boom")

	if got, want := out.String(), "[INFO] [AnalyzeAgent] Published report r-1\n"; got != want {
		t.Errorf("stdout = %q, expected %q", got, want)
	}
	if got, want := errOut.String(), "[ERROR] [Store] save failed: boom\n"; got != want {
		t.Errorf("stderr = %q, expected %q", got, want)
	}
}

func TestConsoleLoggerDebug(t *testing.T) {
	var out bytes.Buffer
	log := NewWriterLogger(&out, &out, true)
	log.Debug("parsed %d lines", 42)
	if got, want := out.String(), "[DEBUG] parsed 42 lines\n"; got != want {
		t.Errorf("Debug() wrote %q, expected %q", got, want)
	}
}
