package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/dunning/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/dunning/internal/app"
	"github.com/MrJamesThe3rd/dunning/internal/config"
	"github.com/MrJamesThe3rd/dunning/internal/export"
)

type model struct {
	app           *app.App
	exportService *export.Service

	currentView View

	logView    view.LogModel
	exportView view.ExportModel
	passView   view.PassModel
}

type View int

const (
	ViewMenu   View = 0
	ViewLog    View = 1
	ViewExport View = 2
	ViewPass   View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cfg.Logging.Quiet = true

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to set up", "error", err)
		os.Exit(1)
	}

	expSvc := a.Export()

	return model{
		app:           a,
		exportService: expSvc,
		currentView:   ViewMenu,
		logView:       view.NewLogModel(expSvc),
		exportView:    view.NewExportModel(expSvc),
		passView:      view.NewPassModel(passes(a)),
	}
}

func passes(a *app.App) []view.Pass {
	return []view.Pass{
		{Name: "Reminders", Run: func(ctx context.Context) (string, error) {
			runner, err := a.Runner(ctx)
			if err != nil {
				return "", err
			}

			res, err := runner.Run(ctx)

			return fmt.Sprintf("%d due, %d sent, %d by email, %d failed, %d already sent",
				res.Due, res.Sent, res.Emailed, res.Failed, res.AlreadySent), err
		}},
		{Name: "Retry failed", Run: func(ctx context.Context) (string, error) {
			retrier, err := a.Retrier()
			if err != nil {
				return "", err
			}

			res, err := retrier.Run(ctx)

			return fmt.Sprintf("%d retried, %d recovered, %d gave up",
				res.Retried, res.Recovered, res.GaveUp), err
		}},
		{Name: "Maintenance", Run: func(ctx context.Context) (string, error) {
			res, err := a.Sweeper().Run(ctx)

			return fmt.Sprintf("%d PDFs removed, %d rows archived", res.PDFsRemoved, res.RowsArchived), err
		}},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewLog
				m.logView = view.NewLogModel(m.exportService)

				return m, m.logView.Init()
			case "2":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService)

				return m, m.exportView.Init()
			case "3":
				m.currentView = ViewPass
				m.passView = view.NewPassModel(passes(m.app))

				return m, m.passView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLog:
		var newModel tea.Model
		newModel, cmd = m.logView.Update(msg)
		m.logView = newModel.(view.LogModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	case ViewPass:
		var newModel tea.Model
		newModel, cmd = m.passView.Update(msg)
		m.passView = newModel.(view.PassModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.app.Config.App.Name + " TUI\n\n" +
				"1. Browse Reminder Log\n" +
				"2. Export Reminder Log\n" +
				"3. Run a Pass\n\n" +
				"q. Quit",
		)
	case ViewLog:
		return m.logView.View()
	case ViewExport:
		return m.exportView.View()
	case ViewPass:
		return m.passView.View()
	}

	return "Unknown View"
}

func main() {
	m := initialModel()
	defer m.app.Close()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
