package mcp

import (
	"time"

	"hserr-agent/src/contracts"
	"hserr-agent/src/ranking"
)

// Default finding limits per tier.
// Errors are the conclusions, so more of them are returned.
const (
	DefaultErrorLimit = 15
	DefaultWarnLimit  = 10
	DefaultInfoLimit  = 5
)

// tierLimits scales the per-tier limits from the error limit.
func tierLimits(limit int) (errs, warns, infos int) {
	if limit <= 0 || limit == DefaultErrorLimit {
		return DefaultErrorLimit, DefaultWarnLimit, DefaultInfoLimit
	}
	return limit, max(1, limit*2/3), max(1, limit/3)
}

// TierReport groups a report's diagnostics into tiers, applying the limits
// derived from limit. It returns the tiers and how many findings were cut.
func TierReport(report contracts.DiagnosisReport, limit int) (TieredResponse, int) {
	errLimit, warnLimit, infoLimit := tierLimits(limit)
	tiers := ranking.RankEntries(report.Diagnostics)

	var out TieredResponse
	omitted := 0
	take := func(entries []ranking.RankedEntry, n int) []Finding {
		var found []Finding
		for _, e := range entries {
			if len(found) >= n {
				omitted++
				continue
			}
			found = append(found, toFinding(e.Entry))
		}
		return found
	}
	out.Errors = take(tiers.Errors, errLimit)
	out.Warnings = take(tiers.Warnings, warnLimit)
	out.Infos = take(tiers.Infos, infoLimit)
	return out, omitted
}

func toFinding(e contracts.DiagnosticEntry) Finding {
	return Finding{
		Code:     e.Code,
		Severity: e.Severity,
		Message:  CompressLine(e.Message),
		Rank:     e.Rank,
	}
}

// ToManifest builds the response for a report. Errors are returned in
// full. Warnings and infos are summarized unless detailed is set, in which
// case they are returned in full as well.
func ToManifest(report contracts.DiagnosisReport, limit int, detailed bool) Manifest {
	tiers, omitted := TierReport(report, limit)

	summary := report.Summary
	summary.ProblematicFrame = CompressLine(summary.ProblematicFrame)

	m := Manifest{
		ReportID:   report.ID,
		RequestID:  report.RequestID,
		Name:       report.Name,
		Signature:  report.Signature,
		Recurrence: report.Recurrence,
		Summary:    summary,
		Errors:     tiers.Errors,
		Omitted:    omitted,
	}
	if detailed {
		m.Errors = append(m.Errors, tiers.Warnings...)
		m.Errors = append(m.Errors, tiers.Infos...)
		return m
	}

	for _, f := range tiers.Warnings {
		m.Other = append(m.Other, toSummary(f, ranking.TierWarn))
	}
	for _, f := range tiers.Infos {
		m.Other = append(m.Other, toSummary(f, ranking.TierInfo))
	}
	return m
}

func toSummary(f Finding, tier int) FindingSummary {
	return FindingSummary{
		Code:     f.Code,
		Tier:     tier,
		Severity: f.Severity,
		Message:  truncate(f.Message, maxSummaryMessage),
	}
}

// ToListing converts a report into a list_reports row. The headline is the
// first error, or the first finding when there are none.
func ToListing(report contracts.DiagnosisReport) ReportListing {
	l := ReportListing{
		ReportID:   report.ID,
		Name:       report.Name,
		AnalyzedAt: report.AnalyzedAt.UTC().Format(time.RFC3339),
		Signature:  report.Signature,
		Recurrence: report.Recurrence,
		Errors:     report.Errors,
		Warnings:   report.Warnings,
	}
	if flat := ranking.RankEntries(report.Diagnostics).FlattenByTier(); len(flat) > 0 {
		l.Headline = truncate(CompressLine(flat[0].Entry.Message), maxSummaryMessage)
	}
	return l
}
