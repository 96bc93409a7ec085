package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hserr-agent/src/ranking"
)

const (
	// listRenderingOverhead keeps a margin inside the panel border.
	listRenderingOverhead = 2

	severityWidth = 4
	codeWidth     = 14
)

// Delegate renders diagnostic items as table rows.
type Delegate struct {
	RankWidth  int
	RecurWidth int
	styles     *StyleConfig
}

// NewDelegate creates a new delegate with default styles
func NewDelegate() Delegate {
	return NewDelegateWithStyles(DefaultStyles())
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{
		RankWidth:  2,
		RecurWidth: 2,
		styles:     styles,
	}
}

// SetColumnWidths sizes the rank and recurrence columns for the largest values.
func (d *Delegate) SetColumnWidths(maxRank, maxRecurrence int) {
	d.RankWidth = max(2, len(fmt.Sprint(maxRank)))
	d.RecurWidth = max(2, len(fmt.Sprint(maxRecurrence)))
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// severityLabel is the fixed width severity column.
func severityLabel(tier int) string {
	switch tier {
	case ranking.TierError:
		return "ERR "
	case ranking.TierWarn:
		return "WARN"
	}
	return "INFO"
}

// getSnippetText returns the first line of the message, or the code when
// the message is blank.
func getSnippetText(entry Item) string {
	msg := CleanText(entry.Entry.Message)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return entry.Entry.Code
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	rankCol := fmt.Sprintf("%*d", d.RankWidth, entry.Rank)
	sevCol := severityLabel(entry.Tier)
	recurCol := fmt.Sprintf("%*d", d.RecurWidth, entry.GetRecurrence())
	codeCol := TruncateAndPad(entry.Entry.Code, codeWidth, true)

	// Fixed columns plus four separators of three columns each.
	fixedWidth := d.RankWidth + severityWidth + d.RecurWidth + codeWidth + 12
	availableWidth := m.Width() - fixedWidth - listRenderingOverhead

	var snippet string
	if availableWidth > 0 {
		snippet = TruncateAndPad(getSnippetText(entry), availableWidth, true)
	}

	sevStyle := lipgloss.NewStyle().Foreground(d.styles.TierColor(entry.Tier))
	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	if isSelected {
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
		sevStyle = sevStyle.Bold(true).Background(d.styles.SelectedColor)
	}

	sep := style.Render(" │ ")
	fmt.Fprint(w, style.Render(rankCol)+sep+sevStyle.Render(sevCol)+sep+
		style.Render(recurCol)+sep+style.Render(codeCol)+sep+style.Render(snippet))
}
