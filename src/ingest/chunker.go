package ingest

import (
	"fmt"
	"sort"
	"strings"

	"hserr-agent/src/contracts"
)

// TargetChunkSize is the target size for each chunk (256KB). Chunks never
// overlap so the analyze agent can reassemble the exact report.
const TargetChunkSize = 256 * 1024

// MaxChunks bounds the chunk count of a report no larger than
// MaxReportBytes. Every other chunk holds more than TargetChunkSize bytes.
const MaxChunks = 2*MaxReportBytes/TargetChunkSize + 1

// Chunk splits report lines into chunks of about TargetChunkSize bytes.
// A single line longer than the target gets a chunk of its own.
func Chunk(lines []string, requestID, reportID, name string, metadata map[string]string) []contracts.ReportChunk {
	if len(lines) == 0 {
		return []contracts.ReportChunk{}
	}

	var chunks []contracts.ReportChunk
	lineStart := 1
	size := 0

	flush := func(end int) {
		chunks = append(chunks, contracts.ReportChunk{
			RequestID:  requestID,
			ReportID:   reportID,
			Name:       name,
			ChunkIndex: len(chunks),
			Content:    strings.Join(lines[lineStart-1:end], "\n"),
			LineStart:  lineStart,
			LineEnd:    end,
			Metadata:   copyMetadata(metadata),
		})
		lineStart = end + 1
		size = 0
	}

	for i, line := range lines {
		lineSize := len(line) + 1 // +1 for newline
		if size+lineSize > TargetChunkSize && size > 0 {
			flush(i)
		}
		size += lineSize
	}
	flush(len(lines))

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

// copyMetadata creates a copy of the metadata map.
func copyMetadata(original map[string]string) map[string]string {
	if original == nil {
		return make(map[string]string)
	}
	copy := make(map[string]string, len(original))
	for k, v := range original {
		copy[k] = v
	}
	return copy
}

// FormatChunkInfo returns a human-readable summary of chunk information.
func FormatChunkInfo(chunk contracts.ReportChunk) string {
	return fmt.Sprintf("Chunk %d/%d of %s: lines %d-%d (%d bytes)",
		chunk.ChunkIndex+1,
		chunk.TotalChunks,
		chunk.ReportID,
		chunk.LineStart,
		chunk.LineEnd,
		len(chunk.Content))
}

// Assembler collects chunks per report until every chunk has arrived.
// It is not safe for concurrent use.
type Assembler struct {
	pending map[string]map[int]contracts.ReportChunk
}

// NewAssembler creates an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{pending: make(map[string]map[int]contracts.ReportChunk)}
}

// Add records chunk. When it completes its report, Add returns the report
// lines in order and forgets the report. Duplicate chunks are ignored.
func (a *Assembler) Add(chunk contracts.ReportChunk) ([]string, bool, error) {
	if chunk.TotalChunks <= 0 || chunk.TotalChunks > MaxChunks || chunk.ChunkIndex < 0 || chunk.ChunkIndex >= chunk.TotalChunks {
		return nil, false, fmt.Errorf("invalid chunk %d/%d for report %s", chunk.ChunkIndex, chunk.TotalChunks, chunk.ReportID)
	}

	got, ok := a.pending[chunk.ReportID]
	if !ok {
		got = make(map[int]contracts.ReportChunk)
		a.pending[chunk.ReportID] = got
	}
	for _, c := range got {
		if c.TotalChunks != chunk.TotalChunks {
			delete(a.pending, chunk.ReportID)
			return nil, false, fmt.Errorf("report %s: chunk count changed from %d to %d", chunk.ReportID, c.TotalChunks, chunk.TotalChunks)
		}
		break
	}
	got[chunk.ChunkIndex] = chunk

	if len(got) < chunk.TotalChunks {
		return nil, false, nil
	}
	delete(a.pending, chunk.ReportID)

	ordered := make([]contracts.ReportChunk, 0, len(got))
	for _, c := range got {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })

	var lines []string
	for _, c := range ordered {
		lines = append(lines, strings.Split(c.Content, "\n")...)
	}
	return lines, true, nil
}

// Pending returns the number of incomplete reports.
func (a *Assembler) Pending() int {
	return len(a.pending)
}
