package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"hserr-agent/src/ranking"
)

// AllReports is the report filter that shows every report.
const AllReports = "ALL"

// Header represents the top status bar component.
type Header struct {
	status         string
	selectedReport string
	reports        []string
	tier           int
	searchQuery    string
	searchMode     bool
	styles         *StyleConfig
}

// NewHeader creates a new header with default styles
func NewHeader(status string, reports []string) Header {
	return NewHeaderWithStyles(status, reports, DefaultStyles())
}

// NewHeaderWithStyles creates a new header with custom styles
func NewHeaderWithStyles(status string, reports []string, styles *StyleConfig) Header {
	return Header{
		status:         status,
		selectedReport: AllReports,
		reports:        reports,
		styles:         styles,
	}
}

// SetStatus replaces the status text.
func (h *Header) SetStatus(status string) {
	h.status = status
}

// SetReports replaces the report labels and resets the filter.
func (h *Header) SetReports(reports []string) {
	h.reports = reports
	h.selectedReport = AllReports
}

// SetFilter sets the current report filter
func (h *Header) SetFilter(filter string) {
	h.selectedReport = filter
}

// GetFilter returns the current report filter
func (h Header) GetFilter() string {
	return h.selectedReport
}

// CycleFilter cycles to the next report
func (h *Header) CycleFilter() {
	filters := append([]string{AllReports}, h.reports...)
	currentIndex := 0
	for i, f := range filters {
		if f == h.selectedReport {
			currentIndex = i
			break
		}
	}
	h.selectedReport = filters[(currentIndex+1)%len(filters)]
}

// SetTier sets the tier filter; zero shows every tier.
func (h *Header) SetTier(tier int) {
	h.tier = tier
}

// GetTier returns the tier filter.
func (h Header) GetTier() int {
	return h.tier
}

// SetSearch updates the search state
func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

func tierName(tier int) string {
	switch tier {
	case ranking.TierError:
		return "ERROR"
	case ranking.TierWarn:
		return "WARN"
	case ranking.TierInfo:
		return "INFO"
	}
	return "ALL"
}

// Render renders the header
func (h Header) Render(width int) string {
	sectionStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 2)

	status := sectionStyle.Render(h.status)
	filter := sectionStyle.Render(fmt.Sprintf("Report: %s", Truncate(h.selectedReport, 30, true)))
	tier := sectionStyle.Render(fmt.Sprintf("Tier: %s", tierName(h.tier)))

	var searchText string
	switch {
	case h.searchMode:
		searchText = fmt.Sprintf("Search: %s█", h.searchQuery)
	case h.searchQuery != "":
		searchText = fmt.Sprintf("Search: %s", h.searchQuery)
	default:
		searchText = "[/] to search"
	}

	searchStyle := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 2)
	if h.searchMode {
		searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
	}
	search := searchStyle.Render(searchText)

	content := lipgloss.JoinHorizontal(lipgloss.Left, status, filter, tier, search)

	headerStyle := lipgloss.NewStyle().
		Background(h.styles.DarkBackground).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width).
		MaxWidth(width)

	return headerStyle.Render(content)
}
