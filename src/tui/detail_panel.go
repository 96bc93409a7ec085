package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hserr-agent/src/analysis"
	"hserr-agent/src/contracts"
	"hserr-agent/src/patterns"
)

// summaryRows lists the report facts shown under each diagnostic.
func summaryRows(report *contracts.DiagnosisReport) [][2]string {
	s := report.Summary
	rows := [][2]string{
		{"Vendor", s.Vendor},
		{"Install", s.InstallType},
		{"Java", s.JavaVersion},
		{"OS", s.OS},
		{"Arch", s.Arch},
		{"GC", s.Collectors},
		{"Max heap", s.MaxHeap},
		{"Memory", s.PhysicalMemory},
		{"Crashed", s.CrashTime},
		{"Uptime", s.Elapsed},
		{"Signal", s.Signal},
		{"Frame", patterns.Normalize(s.ProblematicFrame, patterns.MaskPresentation)},
		{"Lines", fmt.Sprintf("%d (%d unidentified)", s.TotalLines, s.Unidentified)},
		{"Seen", fmt.Sprintf("%d time(s)", max(1, report.Recurrence))},
	}
	if s.Truncated {
		rows = append(rows, [2]string{"Log", "truncated"})
	}
	return rows
}

// renderDetail renders the detail content for a diagnostic
func (m MainModel) renderDetail(item Item, maxWidth int) string {
	var content strings.Builder

	header := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Render(Wrap(fmt.Sprintf("%s | %s | rank %d", item.Entry.Code, item.Entry.Severity, item.Rank), maxWidth))
	fmt.Fprintf(&content, "%s\n\n", header)

	msgStyle := lipgloss.NewStyle().Foreground(m.styles.TierColor(item.Tier)).Bold(true)
	fmt.Fprintln(&content, msgStyle.Render(Wrap(CleanText(item.Entry.Message), maxWidth)))
	fmt.Fprintln(&content)

	if entry, ok := analysis.Lookup(analysis.Code(item.Entry.Code)); ok {
		faint := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Faint(true)
		fmt.Fprintln(&content, faint.Render(Wrap("Template: "+entry.Template, maxWidth)))
		fmt.Fprintln(&content)
	}

	if item.Report == nil {
		return content.String()
	}

	fmt.Fprintln(&content, m.styles.LabelStyle().Render("Report:"))
	label := m.styles.LabelStyle()
	for _, row := range summaryRows(item.Report) {
		if row[1] == "" {
			continue
		}
		line := Wrap(fmt.Sprintf("%-9s %s", row[0]+":", CleanText(row[1])), maxWidth)
		key, rest, _ := strings.Cut(line, ":")
		fmt.Fprintln(&content, label.Render(key+":")+rest)
	}

	return content.String()
}

// updateDetailContent updates the viewport with content from the selected item
func (m *MainModel) updateDetailContent(item Item) {
	// One column of padding on each side.
	maxWidth := m.detailViewport.Width - 2
	m.detailViewport.SetContent(m.renderDetail(item, maxWidth))
	m.detailViewport.GotoTop()
}

// renderDetailPanel renders the right panel with detail viewport
func (m MainModel) renderDetailPanel(width, height int) string {
	borderColor := m.styles.BorderColor
	if m.detailFocused {
		borderColor = m.styles.AccentBlue
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width - 2).
		Height(height)

	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		headerRow := lipgloss.NewStyle().
			Foreground(m.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 1).
			Render(Truncate("Report: "+selectedItem.Label, width-2, true))

		return lipgloss.JoinVertical(lipgloss.Left, headerRow, box.Render(m.detailViewport.View()))
	}

	placeholderRow := lipgloss.NewStyle().
		Foreground(m.styles.TextSecondary).
		Padding(0, 1).
		Render(" ")

	empty := box.
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(m.styles.TextSecondary).
		Faint(true).
		Render("No diagnostics match")

	return lipgloss.JoinVertical(lipgloss.Left, placeholderRow, empty)
}
