// Package tui provides the terminal viewer for diagnosis reports. The list
// on the left holds every diagnostic ranked by tier; the panel on the right
// shows the selected diagnostic with its report summary.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"hserr-agent/src/contracts"
)

// Status of the viewer.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

// ReportsMsg delivers analyzed reports to the viewer.
type ReportsMsg struct {
	Reports []contracts.DiagnosisReport
}

// LoadErrorMsg reports that loading failed.
type LoadErrorMsg struct {
	Err error
}

// MainModel is the Bubble Tea model of the viewer.
type MainModel struct {
	title   string
	reports []contracts.DiagnosisReport
	items   []Item

	header         Header
	listView       View
	detailViewport viewport.Model
	progress       ProgressModel
	styles         *StyleConfig

	status        Status
	err           error
	width, height int
	ready         bool
	detailFocused bool
	searchMode    bool
	searchQuery   string
}

// NewLoadingModel creates a viewer that waits for a ReportsMsg.
func NewLoadingModel(title string) MainModel {
	styles := DefaultStyles()
	return MainModel{
		title:          title,
		header:         NewHeaderWithStyles(title, nil, styles),
		listView:       NewView(styles),
		detailViewport: viewport.New(0, 0),
		progress:       NewProgressModel(),
		styles:         styles,
		status:         StatusLoading,
	}
}

// NewMainModel creates a viewer showing reports.
func NewMainModel(title string, reports []contracts.DiagnosisReport) MainModel {
	m := NewLoadingModel(title)
	m.setReports(reports)
	return m
}

// reportLabels names each report by file name, falling back to its id.
// Repeated names get a numeric suffix.
func reportLabels(reports []contracts.DiagnosisReport) []string {
	labels := make([]string, len(reports))
	seen := make(map[string]int)
	for i, r := range reports {
		label := r.Name
		if label == "" {
			label = r.ID
		}
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s #%d", label, n)
		}
		labels[i] = label
	}
	return labels
}

func (m *MainModel) setReports(reports []contracts.DiagnosisReport) {
	m.reports = reports
	labels := reportLabels(reports)

	m.items = nil
	for i := range m.reports {
		m.items = append(m.items, ItemsFromReport(&m.reports[i], labels[i], len(m.items))...)
	}

	m.header.SetReports(labels)
	m.header.SetStatus(m.statusText())
	m.status = StatusReady
	m.progress, _ = m.progress.Update(ProgressMsg{Stage: StageComplete})
	m.applyFilter()
}

func (m MainModel) statusText() string {
	errs, warns := 0, 0
	for _, r := range m.reports {
		errs += r.Errors
		warns += r.Warnings
	}
	return fmt.Sprintf("%s: %d report(s), %d error(s), %d warning(s)", m.title, len(m.reports), errs, warns)
}

// Init starts the spinner while loading.
func (m MainModel) Init() tea.Cmd {
	if m.status == StatusLoading {
		return SpinnerTick()
	}
	return nil
}

// Update handles messages and updates the model state.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()
		return m, nil

	case ReportsMsg:
		m.setReports(msg.Reports)
		m.resizeComponents()
		return m, nil

	case LoadErrorMsg:
		m.status = StatusFailed
		m.err = msg.Err
		return m, nil

	case ProgressMsg, SpinnerTickMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searchMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.searchMode = false
			m.searchQuery = ""
		case tea.KeyEnter:
			m.searchMode = false
		case tea.KeyBackspace:
			if r := []rune(m.searchQuery); len(r) > 0 {
				m.searchQuery = string(r[:len(r)-1])
			}
		case tea.KeyRunes, tea.KeySpace:
			m.searchQuery += string(msg.Runes)
		default:
			return m, nil
		}
		m.header.SetSearch(m.searchQuery, m.searchMode)
		m.applyFilter()
		return m, nil
	}

	if m.detailFocused {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "left", "h":
			m.detailFocused = false
			return m, nil
		}
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.searchMode = true
		m.header.SetSearch(m.searchQuery, true)
		return m, nil
	case "tab":
		m.header.CycleFilter()
		m.applyFilter()
		return m, nil
	case "0", "1", "2", "3":
		m.header.SetTier(int(msg.Runes[0] - '0'))
		m.applyFilter()
		return m, nil
	case "enter", "right", "l":
		if _, ok := m.listView.GetSelectedItem(); ok {
			m.detailFocused = true
		}
		return m, nil
	}

	before := m.listView.list.Index()
	var cmd tea.Cmd
	m.listView, cmd = m.listView.Update(msg)
	if m.listView.list.Index() != before {
		if item, ok := m.listView.GetSelectedItem(); ok {
			m.updateDetailContent(item)
		}
	}
	return m, cmd
}

// Start runs the viewer over reports until the user quits.
func Start(title string, reports []contracts.DiagnosisReport) error {
	p := tea.NewProgram(NewMainModel(title, reports), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Loader produces reports, reporting progress as it goes.
type Loader func(progress func(ProgressMsg)) ([]contracts.DiagnosisReport, error)

// StartLoading shows the loading screen while load runs, then the reports.
func StartLoading(title string, load Loader) error {
	p := tea.NewProgram(NewLoadingModel(title), tea.WithAltScreen())

	go func() {
		reports, err := load(func(msg ProgressMsg) { p.Send(msg) })
		if err != nil {
			p.Send(LoadErrorMsg{Err: err})
			return
		}
		p.Send(ReportsMsg{Reports: reports})
	}()

	_, err := p.Run()
	return err
}
