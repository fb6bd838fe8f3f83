package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
)

type exportState int

const (
	exportStateForm exportState = iota
	exportStateExporting
	exportStateResult
)

type exportValues struct {
	status  string
	invoice string
	due     string
	path    string
}

type ExportModel struct {
	CommonModel
	exportService *export.Service

	state   exportState
	err     error
	form    *huh.Form
	spinner spinner.Model

	// Form bindings live on the heap; the model itself is copied on every update.
	values *exportValues

	file    string
	summary string
}

func NewExportModel(svc *export.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService: svc,
		state:         exportStateForm,
		values:        &exportValues{path: "exports"},
		spinner:       s,
	}
	m.form = m.buildForm()

	return m
}

func (m ExportModel) Title() string { return "Export Reminder Log" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Writing workbook..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	v := m.values
	filter := export.Filter{Status: v.status, Invoice: v.invoice, DueDate: v.due}

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(filter, v.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.file = result.file
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildForm() *huh.Form {
	v := m.values

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("status").
				Title("Status").
				Options(
					huh.NewOption("All", ""),
					huh.NewOption("Sent", string(deliverylog.StatusSent)),
					huh.NewOption("Failed", string(deliverylog.StatusFailed)),
					huh.NewOption("Email", string(deliverylog.StatusEmail)),
				).
				Value(&v.status),

			huh.NewInput().
				Key("invoice").
				Title("Invoice").
				Placeholder("any").
				Value(&v.invoice),

			huh.NewInput().
				Key("due").
				Title("Due date").
				Placeholder("YYYY-MM").
				Value(&v.due),

			huh.NewInput().
				Key("path").
				Title("Save to").
				Description("Created if missing").
				Placeholder("exports").
				Value(&v.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Writing workbook...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Workbook saved")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Written to "+m.file,
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	file string
	body string
	err  error
}

func (m ExportModel) runExportCmd(filter export.Filter, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := m.exportService.Export(filter, path, time.Now())
		if err != nil {
			return exportResultMsg{err: err}
		}

		entries, err := m.exportService.List(filter)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{file: file, body: m.exportService.GenerateSummary(entries)}
	}
}
