package view

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
)

type logState int

const (
	logStateBrowse logState = iota
	logStateFilter
)

var statusCycle = []deliverylog.Status{"", deliverylog.StatusSent, deliverylog.StatusFailed, deliverylog.StatusEmail}

// LogModel browses the audit trail with the same filters as the dashboard.
type LogModel struct {
	CommonModel
	svc *export.Service

	state   logState
	table   table.Model
	entries []export.Entry
	form    *huh.Form

	statusIdx int
	filter    export.Filter
	loading   bool
	err       error

	values *logFilterValues
}

type logFilterValues struct {
	invoice string
	due     string
}

func NewLogModel(svc *export.Service) LogModel {
	columns := []table.Column{
		{Title: "Timestamp", Width: 19},
		{Title: "Invoice", Width: 14},
		{Title: "Interval", Width: 8},
		{Title: "Due", Width: 10},
		{Title: "Status", Width: 7},
		{Title: "Method", Width: 8},
		{Title: "Destination", Width: 24},
		{Title: "Tries", Width: 5},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return LogModel{svc: svc, table: t, loading: true}
}

func (m LogModel) Title() string { return "Reminder Log" }

func (m LogModel) ShortHelp() string {
	if m.state == logStateFilter {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | s: status filter | f: invoice/due filter | c: clear | r: refresh"
}

func (m LogModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLogMsg:
		m.loading = false
		m.err = msg.err
		m.entries = msg.entries
		slices.Reverse(m.entries) // newest first
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)

		return m, nil
	}

	if m.state == logStateFilter {
		return m.updateFilter(msg)
	}

	return m.updateBrowse(msg)
}

func (m LogModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusCycle)
			m.filter.Status = string(statusCycle[m.statusIdx])

			return m, m.loadCmd()
		case "c":
			m.statusIdx = 0
			m.filter = export.Filter{}

			return m, m.loadCmd()
		case "f":
			return m.enterFilterMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LogModel) enterFilterMode() (tea.Model, tea.Cmd) {
	m.values = &logFilterValues{invoice: m.filter.Invoice, due: m.filter.DueDate}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("invoice").
				Title("Invoice").
				Description("Part of the invoice id or number").
				Value(&m.values.invoice),

			huh.NewInput().
				Key("due").
				Title("Due date").
				Placeholder("YYYY-MM-DD").
				Value(&m.values.due).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) > 10 {
						return fmt.Errorf("at most 10 characters")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = logStateFilter
	m.table.Blur()

	return m, m.form.Init()
}

func (m LogModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = logStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.filter.Invoice = strings.TrimSpace(m.values.invoice)
	m.filter.DueDate = strings.TrimSpace(m.values.due)
	m.state = logStateBrowse
	m.form = nil
	m.table.Focus()

	return m, m.loadCmd()
}

func (m LogModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading reminder log...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	status := "All"
	if m.filter.Status != "" {
		status = m.filter.Status
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [f] Invoice: %s Due: %s | %d entries",
		activeStyle(status),
		activeStyle(orAny(m.filter.Invoice)),
		activeStyle(orAny(m.filter.DueDate)),
		len(m.entries),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == logStateFilter && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("Filter\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	} else if e, ok := m.selected(); ok {
		content = lipgloss.JoinVertical(lipgloss.Left, content,
			lipgloss.NewStyle().Faint(true).PaddingTop(1).Render(e.Message))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m LogModel) selected() (export.Entry, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		return export.Entry{}, false
	}

	return m.entries[idx], true
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}

	return s
}

func (m *LogModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.entries))

	for _, e := range m.entries {
		rows = append(rows, table.Row{
			e.Timestamp.Format(deliverylog.TimestampLayout),
			e.InvoiceNumber,
			strconv.Itoa(e.Interval),
			e.DueDate,
			string(e.Status),
			string(e.Method),
			e.Phone,
			strconv.Itoa(e.Attempts),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadLogMsg struct {
	entries []export.Entry
	err     error
}

func (m LogModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		entries, err := m.svc.List(filter)
		return loadLogMsg{entries: entries, err: err}
	}
}
