package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// View manages the list of diagnostic items.
type View struct {
	list     list.Model
	items    []Item
	delegate *Delegate
}

// NewView creates a new diagnostic list view
func NewView(styles *StyleConfig) View {
	delegate := NewDelegateWithStyles(styles)
	l := list.New([]list.Item{}, &delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return View{
		list:     l,
		items:    []Item{},
		delegate: &delegate,
	}
}

// Update handles list navigation
func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// SetSize sets the list dimensions
func (v *View) SetSize(width, height int) {
	v.list.SetSize(width, height)
}

// SetItems sets the list items and sizes the columns for them.
func (v *View) SetItems(items []Item) {
	v.items = items

	maxRank := 0
	maxRecurrence := 0
	for _, item := range items {
		maxRank = max(maxRank, item.Rank)
		maxRecurrence = max(maxRecurrence, item.GetRecurrence())
	}
	v.delegate.SetColumnWidths(maxRank, maxRecurrence)

	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	v.list.SetItems(listItems)
	if v.list.Index() >= len(items) {
		v.list.Select(0)
	}
}

// Items returns the items currently listed.
func (v View) Items() []Item {
	return v.items
}

// GetSelectedItem returns the currently selected item
func (v View) GetSelectedItem() (Item, bool) {
	item, ok := v.list.SelectedItem().(Item)
	return item, ok
}

// Render returns the string representation of the view
func (v View) Render() string {
	return v.list.View()
}

// GetDelegate returns the delegate for accessing column widths
func (v View) GetDelegate() *Delegate {
	return v.delegate
}
