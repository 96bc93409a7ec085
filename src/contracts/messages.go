// Package contracts defines the messages exchanged between the ingest and
// analyze agents.
package contracts

import "time"

// Topics carried by the broker.
const (
	// TopicRequests carries CrashReportRequest, keyed by request id.
	TopicRequests = "hserr.requests"
	// TopicReportsRaw carries ReportChunk, keyed by report id.
	TopicReportsRaw = "hserr.reports.raw"
	// TopicDiagnoses carries DiagnosisReport, keyed by request id.
	TopicDiagnoses = "hserr.diagnoses"
)

// Request sources.
const (
	SourceInline  = "inline"
	SourcePath    = "path"
	SourceArchive = "archive"
)

// CrashReportRequest asks the ingest agent to load and chunk one crash report.
type CrashReportRequest struct {
	RequestID string `json:"request_id"`
	// Source is SourceInline, SourcePath or SourceArchive.
	Source string `json:"source"`
	// Name is a display name, usually the file name of the report.
	Name string `json:"name"`
	// Location is a file path or an archive object key, depending on Source.
	Location string `json:"location,omitempty"`
	// Content holds the report text for SourceInline.
	Content     string            `json:"content,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ReportChunk is a contiguous run of report lines.
// Published to: hserr.reports.raw
// Key: {report_id}
type ReportChunk struct {
	RequestID   string            `json:"request_id"`
	ReportID    string            `json:"report_id"`
	Name        string            `json:"name"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Content     string            `json:"content"`
	LineStart   int               `json:"line_start"` // First line number in this chunk
	LineEnd     int               `json:"line_end"`   // Last line number in this chunk
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DiagnosisReport is the analysis result for one crash report.
// Published to: hserr.diagnoses
// Key: {request_id}
type DiagnosisReport struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id,omitempty"`
	Name      string `json:"name"`
	// Signature identifies crashes with the same kind and top frames.
	Signature   string            `json:"signature"`
	AnalyzedAt  time.Time         `json:"analyzed_at"`
	Summary     Summary           `json:"summary"`
	Diagnostics []DiagnosticEntry `json:"diagnostics"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Infos       int               `json:"infos"`
	// Recurrence is the number of stored reports sharing Signature,
	// including this one. Zero when no store was consulted.
	Recurrence int `json:"recurrence,omitempty"`
}

// DiagnosticEntry is one ranked conclusion.
type DiagnosticEntry struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	// Rank is the 1-based position in report order.
	Rank int `json:"rank"`
}

// Summary holds the headline facts of a report. Values that could not be
// determined are "unknown".
type Summary struct {
	Vendor           string `json:"vendor"`
	InstallType      string `json:"install_type"`
	JavaVersion      string `json:"java_version"`
	OS               string `json:"os"`
	Arch             string `json:"arch"`
	Collectors       string `json:"collectors"`
	MaxHeap          string `json:"max_heap"`
	PhysicalMemory   string `json:"physical_memory"`
	CrashTime        string `json:"crash_time"`
	Elapsed          string `json:"elapsed"`
	Signal           string `json:"signal"`
	ProblematicFrame string `json:"problematic_frame"`
	Truncated        bool   `json:"truncated"`
	TotalLines       int    `json:"total_lines"`
	Unidentified     int    `json:"unidentified"`
}

// HasErrors reports whether any diagnostic has severity ERROR.
func (r DiagnosisReport) HasErrors() bool {
	return r.Errors > 0
}

// Request states.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RequestStatus tracks a submitted request through the agents.
type RequestStatus struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	// ReportID is set once the report has been analyzed.
	ReportID string `json:"report_id,omitempty"`
	// Error describes why a failed request failed.
	Error string `json:"error,omitempty"`
}
