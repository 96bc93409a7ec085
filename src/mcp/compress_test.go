package mcp

import "testing"

func TestMaskAddresses(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pointer",
			input:    "pc=0x00007f3a1c2b4e10, pid=4242",
			expected: "pc=<ADDR>, pid=4242",
		},
		{
			name:     "short offset kept",
			input:    "C  [libc.so.6+0x18e4b1]",
			expected: "C  [libc.so.6+0x18e4b1]",
		},
		{
			name:     "no address",
			input:    "SIGSEGV (0xb)",
			expected: "SIGSEGV (0xb)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := maskAddresses(tt.input); result != tt.expected {
				t.Errorf("maskAddresses(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCompressPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "long library path",
			input:    "loaded from /usr/lib/jvm/java-1.8.0/jre/lib/amd64/server/libjvm.so",
			expected: "loaded from .../libjvm.so",
		},
		{
			name:     "short path kept",
			input:    "found /tmp/hs_err.log",
			expected: "found /tmp/hs_err.log",
		},
		{
			name:     "no path",
			input:    "Java heap space",
			expected: "Java heap space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := compressPath(tt.input); result != tt.expected {
				t.Errorf("compressPath(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCompressLine(t *testing.T) {
	input := "  C  [libjvm.so+0x5d2a0b]   at 0x00007f3a1c2b4e10 in /opt/app/jdk/lib/server/libjvm.so  "
	expected := "C [libjvm.so+0x5d2a0b] at <ADDR> in .../libjvm.so"
	if result := CompressLine(input); result != expected {
		t.Errorf("CompressLine(%q) = %q, expected %q", input, result, expected)
	}
}

func TestCompressLines(t *testing.T) {
	if result := CompressLines(nil); result != nil {
		t.Errorf("CompressLines(nil) = %v, expected nil", result)
	}
	result := CompressLines([]string{"a   b", " c "})
	if len(result) != 2 || result[0] != "a b" || result[1] != "c" {
		t.Errorf("CompressLines() = %q", result)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
	}

	for _, tt := range tests {
		if result := truncate(tt.input, tt.n); result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", tt.input, tt.n, result, tt.expected)
		}
	}
}
