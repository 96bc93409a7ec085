// Package archive keeps the raw text of analyzed crash reports so they can
// be re-analyzed later. Reports are stored gzip-compressed under
// reports/<report-id>.log.gz.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ErrNotFound is returned by Get for an unknown key.
var ErrNotFound = errors.New("archived report not found")

// Archive stores raw reports by key.
type Archive interface {
	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the bytes stored under key, decompressed.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key returns the object key for a report.
func Key(reportID string) string {
	return "reports/" + reportID + ".log.gz"
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("corrupt archive object: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// MemoryArchive keeps objects in a map. It is used in local mode and tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates an empty MemoryArchive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

func (m *MemoryArchive) Put(ctx context.Context, key string, data []byte) error {
	z, err := compress(data)
	if err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = z
	return nil
}

func (m *MemoryArchive) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	z, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decompress(z)
}

// Len returns the number of stored objects.
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
