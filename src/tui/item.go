package tui

import (
	"hserr-agent/src/contracts"
	"hserr-agent/src/ranking"
)

// Item is one diagnostic shown in the list. It implements bubbles/list.Item.
type Item struct {
	Entry contracts.DiagnosticEntry
	Tier  int
	// Rank is the position in the ranked display, starting at 1.
	Rank int
	// Label names the report the diagnostic belongs to.
	Label  string
	Report *contracts.DiagnosisReport
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Entry.Message }

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return i.Entry.Message }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string { return i.Entry.Code }

// GetRecurrence returns how often the item's crash signature has been seen.
func (i Item) GetRecurrence() int {
	if i.Report == nil || i.Report.Recurrence < 1 {
		return 1
	}
	return i.Report.Recurrence
}

// ItemsFromReport ranks a report's diagnostics by tier.
// Ranks continue from offset.
func ItemsFromReport(report *contracts.DiagnosisReport, label string, offset int) []Item {
	ranked := ranking.RankEntries(report.Diagnostics).FlattenByTier()
	items := make([]Item, len(ranked))
	for i, r := range ranked {
		items[i] = Item{
			Entry:  r.Entry,
			Tier:   r.Tier,
			Rank:   offset + i + 1,
			Label:  label,
			Report: report,
		}
	}
	return items
}
