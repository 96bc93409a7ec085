package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"hserr-agent/src/config"
	"hserr-agent/src/logger"
	"hserr-agent/src/pipeline"
	"hserr-agent/src/samples"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p, err := pipeline.NewLocalPipeline(context.Background(), &config.Config{}, logger.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewLocalPipeline failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	s, err := NewServer(p, 8, logger.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("result has %d content items, expected 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content is %T, expected text", result.Content[0])
	}
	return text.Text
}

func analyzeSample(t *testing.T, s *Server, name string) Manifest {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	content, _ := samples.Text(name)
	result, err := s.handleAnalyze(ctx, callRequest("analyze_crash_report", map[string]any{
		"content": content,
		"name":    name + ".log",
	}))
	if err != nil {
		t.Fatalf("handleAnalyze error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleAnalyze failed: %s", resultText(t, result))
	}

	var m Manifest
	if err := json.Unmarshal([]byte(resultText(t, result)), &m); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	return m
}

func TestHandleAnalyze(t *testing.T) {
	s := newTestServer(t)
	m := analyzeSample(t, s, samples.RhelG1)

	if m.ReportID == "" || m.Name != samples.RhelG1+".log" {
		t.Errorf("identity = %q/%q", m.ReportID, m.Name)
	}
	if m.Recurrence != 1 {
		t.Errorf("Recurrence = %d, expected 1", m.Recurrence)
	}
	if m.Summary.Vendor != "Red Hat" || m.Summary.Signal != "SIGSEGV" {
		t.Errorf("Summary = %+v", m.Summary)
	}
	if len(m.Errors) == 0 {
		t.Error("expected at least one error finding")
	}
	for _, f := range m.Errors {
		if f.Severity != "ERROR" {
			t.Errorf("non-error finding %s in Errors", f.Code)
		}
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache Len() = %d, expected 1", s.cache.Len())
	}
}

func TestHandleAnalyzeRejects(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no input", map[string]any{}},
		{"blank content", map[string]any{"content": "   "}},
		{"not a crash report", map[string]any{"content": "hello world"}},
		{"missing file", map[string]any{"path": "/nonexistent/hs_err_pid1.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleAnalyze(ctx, callRequest("analyze_crash_report", tt.args))
			if err != nil {
				t.Fatalf("handleAnalyze error: %v", err)
			}
			if !result.IsError {
				t.Errorf("handleAnalyze(%v) succeeded, expected a tool error", tt.args)
			}
		})
	}
}

func TestHandleGetReport(t *testing.T) {
	s := newTestServer(t)
	m := analyzeSample(t, s, samples.ContainerOOM)
	ctx := context.Background()

	result, err := s.handleGetReport(ctx, callRequest("get_report", map[string]any{
		"report_id": m.ReportID,
		"detailed":  true,
	}))
	if err != nil || result.IsError {
		t.Fatalf("handleGetReport failed: %v", err)
	}
	var detailed Manifest
	if err := json.Unmarshal([]byte(resultText(t, result)), &detailed); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if detailed.ReportID != m.ReportID {
		t.Errorf("ReportID = %q, expected %q", detailed.ReportID, m.ReportID)
	}
	if len(detailed.Other) != 0 || len(detailed.Errors) != len(m.Errors)+len(m.Other) {
		t.Errorf("detailed has %d findings, expected %d", len(detailed.Errors), len(m.Errors)+len(m.Other))
	}

	for _, args := range []map[string]any{{}, {"report_id": "missing"}} {
		result, err := s.handleGetReport(ctx, callRequest("get_report", args))
		if err != nil || !result.IsError {
			t.Errorf("handleGetReport(%v) = %v, expected a tool error", args, err)
		}
	}
}

func TestHandleListReports(t *testing.T) {
	s := newTestServer(t)
	first := analyzeSample(t, s, samples.RhelG1)
	analyzeSample(t, s, samples.RhelG1)
	analyzeSample(t, s, samples.ContainerOOM)
	ctx := context.Background()

	tests := []struct {
		name     string
		args     map[string]any
		expected int
	}{
		{"all", map[string]any{}, 3},
		{"by signature", map[string]any{"signature": first.Signature}, 2},
		{"limited", map[string]any{"limit": 1}, 1},
		{"by priority", map[string]any{"by_priority": true}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleListReports(ctx, callRequest("list_reports", tt.args))
			if err != nil || result.IsError {
				t.Fatalf("handleListReports failed: %v", err)
			}
			var listing []ReportListing
			if err := json.Unmarshal([]byte(resultText(t, result)), &listing); err != nil {
				t.Fatalf("listing is not JSON: %v", err)
			}
			if len(listing) != tt.expected {
				t.Errorf("got %d reports, expected %d", len(listing), tt.expected)
			}
		})
	}
}

func TestHandleExplainCode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleExplainCode(ctx, callRequest("explain_code", map[string]any{"code": "crash.signal"}))
	if err != nil || result.IsError {
		t.Fatalf("handleExplainCode failed: %v", err)
	}
	var e CodeExplanation
	if err := json.Unmarshal([]byte(resultText(t, result)), &e); err != nil {
		t.Fatalf("explanation is not JSON: %v", err)
	}
	if e.Code != "crash.signal" || e.Severity == "" || e.Template == "" {
		t.Errorf("explanation = %+v", e)
	}

	result, err = s.handleExplainCode(ctx, callRequest("explain_code", nil))
	if err != nil || result.IsError {
		t.Fatalf("handleExplainCode(all) failed: %v", err)
	}
	var all []CodeExplanation
	if err := json.Unmarshal([]byte(resultText(t, result)), &all); err != nil || len(all) < 10 {
		t.Errorf("catalog = %d codes, %v", len(all), err)
	}

	result, _ = s.handleExplainCode(ctx, callRequest("explain_code", map[string]any{"code": "no.such.code"}))
	if !result.IsError {
		t.Error("unknown code did not return a tool error")
	}
}
