// Package ranking groups diagnoses and reports into severity tiers.
// Both the MCP server and TUI consume this package to ensure consistent
// prioritization of diagnostics.
package ranking

import (
	"sort"

	"hserr-agent/src/analysis"
	"hserr-agent/src/contracts"
)

// Tier constants for diagnostic classification.
const (
	TierError = 1 // Conclusions that explain the crash
	TierWarn  = 2 // Likely contributors and risky configuration
	TierInfo  = 3 // Context
)

// RankedEntry wraps a DiagnosticEntry with its tier.
type RankedEntry struct {
	Entry contracts.DiagnosticEntry
	Tier  int
}

// TieredEntries groups diagnostics by tier. Within a tier the report order
// is kept.
type TieredEntries struct {
	Errors   []RankedEntry
	Warnings []RankedEntry
	Infos    []RankedEntry
}

// RankEntries classifies entries into tiers.
// Duplicates (same code and message) are removed, keeping the first.
func RankEntries(entries []contracts.DiagnosticEntry) TieredEntries {
	var out TieredEntries
	if len(entries) == 0 {
		return out
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		key := e.Code + "\x00" + e.Message
		if seen[key] {
			continue
		}
		seen[key] = true

		ranked := RankedEntry{Entry: e, Tier: ClassifyTier(e.Severity)}
		switch ranked.Tier {
		case TierError:
			out.Errors = append(out.Errors, ranked)
		case TierWarn:
			out.Warnings = append(out.Warnings, ranked)
		default:
			out.Infos = append(out.Infos, ranked)
		}
	}
	return out
}

// FlattenByTier returns all entries ordered by tier, keeping report order
// inside each tier. Entry.Rank is left as assigned by the report.
func (te TieredEntries) FlattenByTier() []RankedEntry {
	total := len(te.Errors) + len(te.Warnings) + len(te.Infos)
	if total == 0 {
		return nil
	}

	result := make([]RankedEntry, 0, total)
	result = append(result, te.Errors...)
	result = append(result, te.Warnings...)
	result = append(result, te.Infos...)
	return result
}

// Counts returns the count per tier.
func (te TieredEntries) Counts() (errors, warnings, infos int) {
	return len(te.Errors), len(te.Warnings), len(te.Infos)
}

// ClassifyTier maps a severity name to its tier. Unknown severities are
// treated as informational.
func ClassifyTier(severity string) int {
	switch analysis.Severity(severity) {
	case analysis.SeverityError:
		return TierError
	case analysis.SeverityWarn:
		return TierWarn
	}
	return TierInfo
}

// Entries converts an engine list into report entries with 1-based ranks.
func Entries(list analysis.List) []contracts.DiagnosticEntry {
	out := make([]contracts.DiagnosticEntry, len(list))
	for i, d := range list {
		out[i] = contracts.DiagnosticEntry{
			Code:     string(d.Code),
			Severity: string(d.Severity),
			Message:  d.Message,
			Rank:     i + 1,
		}
	}
	return out
}

// SortReports orders reports for listing: reports with errors first, then
// by recurrence (descending), then newest first.
func SortReports(reports []contracts.DiagnosisReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.HasErrors() != b.HasErrors() {
			return a.HasErrors()
		}
		if a.Recurrence != b.Recurrence {
			return a.Recurrence > b.Recurrence
		}
		return a.AnalyzedAt.After(b.AnalyzedAt)
	})
}

// BuildSignatureMap counts reports per crash signature.
// Reports without a signature are skipped.
func BuildSignatureMap(reports []contracts.DiagnosisReport) map[string]int {
	result := make(map[string]int)
	for _, r := range reports {
		if r.Signature == "" {
			continue
		}
		result[r.Signature]++
	}
	return result
}
