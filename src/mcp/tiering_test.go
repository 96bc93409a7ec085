package mcp

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"hserr-agent/src/contracts"
	"hserr-agent/src/ranking"
)

func testReport(errs, warns, infos int) contracts.DiagnosisReport {
	r := contracts.DiagnosisReport{
		ID:         "rep-1",
		RequestID:  "req-1",
		Name:       "hs_err_pid1.log",
		Signature:  "abc",
		AnalyzedAt: time.Date(2024, 5, 21, 10, 0, 0, 0, time.UTC),
		Recurrence: 3,
		Summary:    contracts.Summary{ProblematicFrame: "V  [libjvm.so+0x5d2a0b]   G1ParScanThreadState::copy"},
	}
	rank := 1
	add := func(n int, severity string) {
		for i := 0; i < n; i++ {
			r.Diagnostics = append(r.Diagnostics, contracts.DiagnosticEntry{
				Code:     fmt.Sprintf("%s.%d", strings.ToLower(severity), i),
				Severity: severity,
				Message:  fmt.Sprintf("%s message %d", severity, i),
				Rank:     rank,
			})
			rank++
		}
	}
	// Infos first so tiering has to reorder.
	add(infos, "INFO")
	add(warns, "WARN")
	add(errs, "ERROR")
	r.Errors, r.Warnings, r.Infos = errs, warns, infos
	return r
}

func TestTierLimits(t *testing.T) {
	tests := []struct {
		limit                int
		errs, warns, infosLn int
	}{
		{0, DefaultErrorLimit, DefaultWarnLimit, DefaultInfoLimit},
		{DefaultErrorLimit, DefaultErrorLimit, DefaultWarnLimit, DefaultInfoLimit},
		{3, 3, 2, 1},
		{1, 1, 1, 1},
		{30, 30, 20, 10},
	}

	for _, tt := range tests {
		e, w, i := tierLimits(tt.limit)
		if e != tt.errs || w != tt.warns || i != tt.infosLn {
			t.Errorf("tierLimits(%d) = %d/%d/%d, expected %d/%d/%d", tt.limit, e, w, i, tt.errs, tt.warns, tt.infosLn)
		}
	}
}

func TestTierReport(t *testing.T) {
	tiers, omitted := TierReport(testReport(2, 1, 1), 0)

	if len(tiers.Errors) != 2 || len(tiers.Warnings) != 1 || len(tiers.Infos) != 1 {
		t.Fatalf("tiers = %d/%d/%d, expected 2/1/1", len(tiers.Errors), len(tiers.Warnings), len(tiers.Infos))
	}
	if omitted != 0 {
		t.Errorf("omitted = %d, expected 0", omitted)
	}
	if tiers.Errors[0].Code != "error.0" || tiers.Errors[1].Code != "error.1" {
		t.Errorf("error order = %s, %s", tiers.Errors[0].Code, tiers.Errors[1].Code)
	}
	// Ranks assigned by the report are kept.
	if tiers.Errors[0].Rank != 3 {
		t.Errorf("Rank = %d, expected 3", tiers.Errors[0].Rank)
	}
}

func TestTierReportLimits(t *testing.T) {
	tiers, omitted := TierReport(testReport(5, 4, 4), 3)

	if len(tiers.Errors) != 3 || len(tiers.Warnings) != 2 || len(tiers.Infos) != 1 {
		t.Errorf("tiers = %d/%d/%d, expected 3/2/1", len(tiers.Errors), len(tiers.Warnings), len(tiers.Infos))
	}
	if omitted != 2+2+3 {
		t.Errorf("omitted = %d, expected 7", omitted)
	}
}

func TestToManifest(t *testing.T) {
	report := testReport(1, 2, 1)
	report.Diagnostics[1].Message = strings.Repeat("x", 150)

	m := ToManifest(report, 0, false)

	if m.ReportID != "rep-1" || m.RequestID != "req-1" || m.Signature != "abc" || m.Recurrence != 3 {
		t.Errorf("identity = %+v", m)
	}
	if m.Summary.ProblematicFrame != "V [libjvm.so+0x5d2a0b] G1ParScanThreadState::copy" {
		t.Errorf("ProblematicFrame = %q", m.Summary.ProblematicFrame)
	}
	if len(m.Errors) != 1 || m.Errors[0].Severity != "ERROR" {
		t.Fatalf("Errors = %+v", m.Errors)
	}
	if len(m.Other) != 3 {
		t.Fatalf("Other = %d, expected 3", len(m.Other))
	}
	if m.Other[0].Tier != ranking.TierWarn || m.Other[2].Tier != ranking.TierInfo {
		t.Errorf("Other tiers = %d, %d", m.Other[0].Tier, m.Other[2].Tier)
	}
	for _, s := range m.Other {
		if len(s.Message) > maxSummaryMessage {
			t.Errorf("summary message not truncated: %d bytes", len(s.Message))
		}
	}
}

func TestToManifestDetailed(t *testing.T) {
	m := ToManifest(testReport(1, 2, 1), 0, true)

	if len(m.Errors) != 4 {
		t.Errorf("Errors = %d, expected all 4 findings", len(m.Errors))
	}
	if len(m.Other) != 0 {
		t.Errorf("Other = %d, expected none", len(m.Other))
	}
	if m.Errors[0].Severity != "ERROR" || m.Errors[3].Severity != "INFO" {
		t.Errorf("detailed order = %s..%s", m.Errors[0].Severity, m.Errors[3].Severity)
	}
}

func TestToListing(t *testing.T) {
	l := ToListing(testReport(1, 1, 1))

	if l.ReportID != "rep-1" || l.Errors != 1 || l.Warnings != 1 || l.Recurrence != 3 {
		t.Errorf("ToListing() = %+v", l)
	}
	if l.AnalyzedAt != "2024-05-21T10:00:00Z" {
		t.Errorf("AnalyzedAt = %q", l.AnalyzedAt)
	}
	if l.Headline != "ERROR message 0" {
		t.Errorf("Headline = %q, expected the first error", l.Headline)
	}

	if empty := ToListing(contracts.DiagnosisReport{ID: "x"}); empty.Headline != "" {
		t.Errorf("Headline = %q for a report without findings", empty.Headline)
	}
}
