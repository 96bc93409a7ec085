package tui

import (
	"strings"
	"testing"
)

func assertMaxWidth(t *testing.T, result string, width int) {
	t.Helper()
	for i, line := range strings.Split(result, "\n") {
		if lineWidth := VisualWidth(line); lineWidth > width {
			t.Errorf("line %d exceeds width %d: width=%d, content=%q", i, width, lineWidth, line)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{"short text", "hello world", 20, "hello world"},
		{"exact width", "hello world", 11, "hello world"},
		{"breaks on words", "hello world this is", 11, "hello world\nthis is"},
		{"keeps line breaks", "first line\nsecond", 20, "first line\nsecond"},
		{"empty string", "", 20, ""},
		{"zero width", "hello world", 0, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Wrap(tt.text, tt.width); result != tt.expected {
				t.Errorf("Wrap(%q, %d) = %q, expected %q", tt.text, tt.width, result, tt.expected)
			}
		})
	}
}

func TestWrap_MultipleLines(t *testing.T) {
	text := "Crash copying objects during G1 evacuation; typically heap corruption from JNI code"
	assertMaxWidth(t, Wrap(text, 15), 15)
}

func TestWrap_LongWord(t *testing.T) {
	text := "/usr/lib/jvm/java-1.8.0-openjdk-1.8.0.262.b10-0.el7_8.x86_64/jre/lib/amd64/server/libjvm.so"
	width := 40

	result := Wrap(text, width)
	lines := strings.Split(result, "\n")

	if len(lines) < 2 {
		t.Errorf("expected long word to be broken into multiple lines, got %d lines", len(lines))
	}
	assertMaxWidth(t, result, width)

	if reconstructed := strings.ReplaceAll(result, "\n", ""); reconstructed != text {
		t.Errorf("content was modified during wrapping\nexpected: %s\ngot:      %s", text, reconstructed)
	}
}

func TestWrap_LongWordThenShort(t *testing.T) {
	result := Wrap("verylongwordthatdoesntfit short", 20)
	assertMaxWidth(t, result, 20)
	if !strings.Contains(result, "short") {
		t.Errorf("Wrap() lost a word: %q", result)
	}
}

func TestWrap_MultiByteCharacters(t *testing.T) {
	text := "Hello 世界 this is a test with emoji 🎉 and more text 中文中文中文中文中文中文中文中文"
	assertMaxWidth(t, Wrap(text, 25), 25)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"\x1b[31mERROR\x1b[0m: failed", "ERROR: failed"},
		{"tab\tseparated", "tab separated"},
		{"bell\x07 and\r return", "bell and return"},
		{"keeps\nnewlines", "keeps\nnewlines"},
	}

	for _, tt := range tests {
		if result := CleanText(tt.input); result != tt.expected {
			t.Errorf("CleanText(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	text := "this is a very long text"

	withEllipsis := Truncate(text, 10, true)
	if VisualWidth(withEllipsis) > 10 || !strings.HasSuffix(withEllipsis, "...") {
		t.Errorf("Truncate(%q, 10, true) = %q", text, withEllipsis)
	}

	without := Truncate(text, 10, false)
	if VisualWidth(without) > 10 || strings.HasSuffix(without, "...") {
		t.Errorf("Truncate(%q, 10, false) = %q", text, without)
	}

	if result := Truncate(text, 0, true); result != "" {
		t.Errorf("Truncate(%q, 0, true) = %q, expected empty", text, result)
	}
}

func TestTruncateAndPad(t *testing.T) {
	for _, text := range []string{"short", "a much longer piece of text"} {
		result := TruncateAndPad(text, 10, true)
		if VisualWidth(result) != 10 {
			t.Errorf("TruncateAndPad(%q, 10) width = %d, expected 10", text, VisualWidth(result))
		}
	}
}

func TestSplitLines(t *testing.T) {
	if lines := SplitLines(""); len(lines) != 0 {
		t.Errorf("SplitLines(\"\") = %q, expected empty", lines)
	}
	if lines := SplitLines("a\nb"); len(lines) != 2 {
		t.Errorf("SplitLines(\"a\\nb\") = %q", lines)
	}
}
