package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// panelDimensions holds calculated layout dimensions
type panelDimensions struct {
	availableHeight int
	leftPanelWidth  int
	rightPanelWidth int
}

// calculateDimensions computes panel sizes from the terminal size.
// Render and resize both use it.
func (m MainModel) calculateDimensions() panelDimensions {
	headerHeight := lipgloss.Height(m.header.Render(m.width))
	// header + help line (1) + panel column header row (1) + panel borders (2)
	availableHeight := max(1, m.height-headerHeight-1-1-2)

	// Diagnostic list | detail, split evenly
	leftPanelWidth := m.width / 2
	rightPanelWidth := m.width - leftPanelWidth

	return panelDimensions{
		availableHeight: availableHeight,
		leftPanelWidth:  leftPanelWidth,
		rightPanelWidth: rightPanelWidth,
	}
}

// View renders the complete TUI layout
func (m MainModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.header.Render(m.width)

	switch {
	case m.status == StatusFailed:
		msg := lipgloss.NewStyle().
			Foreground(m.styles.ErrorColor).
			Width(m.width).
			Padding(1, 2).
			Render(Wrap(CleanText(m.err.Error()), max(1, m.width-4)) + "\n\nPress q to quit.")
		return lipgloss.JoinVertical(lipgloss.Left, header, msg)

	case m.status == StatusLoading && len(m.items) == 0:
		centeredProgress := lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			PaddingTop(2).
			Render(m.progress.View())
		return lipgloss.JoinVertical(lipgloss.Left, header, centeredProgress)
	}

	dims := m.calculateDimensions()

	leftPanel := m.renderListPanel(dims.leftPanelWidth, dims.availableHeight)
	rightPanel := m.renderDetailPanel(dims.rightPanelWidth, dims.availableHeight)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, m.renderHelpText())
}

// renderHelpText renders context-aware help text at the bottom
func (m MainModel) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sep := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Render(" • ")

	var keys [][2]string
	switch {
	case m.searchMode:
		keys = [][2]string{{"Enter", "Apply"}, {"Esc", "Clear"}}
	case m.detailFocused:
		keys = [][2]string{{"j/k", "Scroll"}, {"Esc", "Back"}, {"q", "Quit"}}
	default:
		keys = [][2]string{{"j/k", "Nav"}, {"0-3", "All/Err/Warn/Info"}, {"Enter", "Detail"}, {"Tab", "Report"}, {"/", "Search"}, {"q", "Quit"}}
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", keyStyle.Render(k[0]), k[1])
	}

	return m.styles.HelpStyle().MaxWidth(max(0, m.width)).Render(strings.Join(parts, sep))
}

// resizeComponents handles window resize events
func (m *MainModel) resizeComponents() {
	dims := m.calculateDimensions()

	// List sits inside the panel border.
	m.listView.SetSize(dims.leftPanelWidth-2, dims.availableHeight)

	// Viewport sits inside the border, below the report header row.
	m.detailViewport.Width = dims.rightPanelWidth - 2
	m.detailViewport.Height = dims.availableHeight - 1

	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		m.updateDetailContent(selectedItem)
	}
}
