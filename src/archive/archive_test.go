package archive

import (
	"context"
	"errors"
	"testing"

	"hserr-agent/src/config"
)

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "reports/abc.log.gz" {
		t.Errorf("Key(%q) = %q, expected %q", "abc", got, "reports/abc.log.gz")
	}
}

func TestMemoryArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive()

	text := []byte("#\n# A fatal error has been detected by the Java Runtime Environment:\n#\n")
	if err := a.Put(ctx, Key("r1"), text); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := a.Get(ctx, Key("r1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(text) {
		t.Errorf("Get() = %q, expected %q", got, text)
	}
	if a.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", a.Len())
	}
}

func TestMemoryArchiveMissingKey(t *testing.T) {
	_, err := NewMemoryArchive().Get(context.Background(), Key("nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, expected ErrNotFound", err)
	}
}

func TestCompressIsGzip(t *testing.T) {
	z, err := compress([]byte("hello"))
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if len(z) < 2 || z[0] != 0x1f || z[1] != 0x8b {
		t.Errorf("compress() does not start with the gzip magic: % x", z[:2])
	}
	if _, err := decompress([]byte("plain")); err == nil {
		t.Error("decompress of plain text should fail")
	}
}

func TestNewMinioArchiveValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ArchiveConfig
	}{
		{"no endpoint", config.ArchiveConfig{Bucket: "b", AccessKey: "a", SecretKey: "s"}},
		{"no credentials", config.ArchiveConfig{Endpoint: "localhost:9000", Bucket: "b"}},
		{"no bucket", config.ArchiveConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMinioArchive(tt.cfg); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}
