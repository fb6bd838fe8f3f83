package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Pass is a named operation the operator can trigger by hand. It returns a
// one-line report of what it did.
type Pass struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

type passState int

const (
	passStateForm passState = iota
	passStateRunning
	passStateResult
)

const passTimeout = 30 * time.Minute

type passValues struct {
	choice  int
	confirm bool
}

// PassModel runs one pass on demand after confirmation.
type PassModel struct {
	CommonModel
	passes []Pass

	state   passState
	form    *huh.Form
	spinner spinner.Model

	values *passValues

	report string
	err    error
}

func NewPassModel(passes []Pass) PassModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := PassModel{passes: passes, spinner: s, values: &passValues{}}
	m.form = m.buildForm()

	return m
}

func (m PassModel) Title() string { return "Run a Pass" }

func (m PassModel) ShortHelp() string {
	if m.state == passStateRunning {
		return "Running..."
	}

	return "Esc: back"
}

func (m PassModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m PassModel) buildForm() *huh.Form {
	v := m.values

	opts := make([]huh.Option[int], len(m.passes))
	for i, p := range m.passes {
		opts[i] = huh.NewOption(p.Name, i)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Key("pass").
				Title("Pass").
				Options(opts...).
				Value(&v.choice),

			huh.NewConfirm().
				Key("confirm").
				Title("Run it now?").
				Description("Reminders go out to customers.").
				Value(&v.confirm),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m PassModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case passStateForm:
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

		if !m.values.confirm {
			return m, Back
		}

		m.state = passStateRunning

		return m, tea.Batch(m.spinner.Tick, m.runCmd(m.passes[m.values.choice]))

	case passStateRunning:
		if res, ok := msg.(passResultMsg); ok {
			m.state = passStateResult
			m.report, m.err = res.report, res.err

			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case passStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m PassModel) View() string {
	switch m.state {
	case passStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case passStateRunning:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Running %s pass...", m.spinner.View(), m.passes[m.values.choice].Name))
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(1).Render(activeStyle("Done. ") + m.report)
}

type passResultMsg struct {
	report string
	err    error
}

func (m PassModel) runCmd(p Pass) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
		defer cancel()

		report, err := p.Run(ctx)

		return passResultMsg{report: report, err: err}
	}
}
