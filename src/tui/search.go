package tui

import (
	"strings"
)

// matches reports whether an item contains the lowercased query in its
// message, code, severity or report label.
func (i Item) matches(query string) bool {
	for _, field := range []string{i.Entry.Message, i.Entry.Code, i.Entry.Severity, i.Label} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// applyFilter filters items by report, tier and search query
func (m *MainModel) applyFilter() {
	report := m.header.GetFilter()
	tier := m.header.GetTier()
	query := strings.ToLower(strings.TrimSpace(m.searchQuery))

	var filtered []Item
	for _, item := range m.items {
		if report != AllReports && item.Label != report {
			continue
		}
		if tier != 0 && item.Tier != tier {
			continue
		}
		if query != "" && !item.matches(query) {
			continue
		}
		filtered = append(filtered, item)
	}

	m.listView.SetItems(filtered)
	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		m.updateDetailContent(selectedItem)
	} else {
		m.detailViewport.SetContent("")
	}
}
