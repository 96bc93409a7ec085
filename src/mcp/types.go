// Package mcp provides the MCP server that exposes crash report analysis
// to LLM clients.
package mcp

import "hserr-agent/src/contracts"

// Finding is one diagnostic as returned to the client.
type Finding struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Rank     int    `json:"rank"`
}

// FindingSummary is a shortened finding for the lower tiers.
type FindingSummary struct {
	Code     string `json:"code"`
	Tier     int    `json:"tier"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// TieredResponse holds a report's findings grouped by tier.
type TieredResponse struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
	Infos    []Finding `json:"infos"`
}

// Manifest is the analyze_crash_report and get_report response. Errors are
// returned in full; warnings and infos are summarized unless requested.
type Manifest struct {
	ReportID   string            `json:"report_id"`
	RequestID  string            `json:"request_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Signature  string            `json:"signature,omitempty"`
	Recurrence int               `json:"recurrence"`
	Summary    contracts.Summary `json:"summary"`
	Errors     []Finding         `json:"errors"`
	Other      []FindingSummary  `json:"other,omitempty"`
	Omitted    int               `json:"omitted,omitempty"`
}

// ReportListing is one row of list_reports.
type ReportListing struct {
	ReportID   string `json:"report_id"`
	Name       string `json:"name,omitempty"`
	AnalyzedAt string `json:"analyzed_at"`
	Signature  string `json:"signature,omitempty"`
	Recurrence int    `json:"recurrence"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
	Headline   string `json:"headline,omitempty"`
}

// CodeExplanation is the explain_code response.
type CodeExplanation struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Template string `json:"template"`
}
