// Package tui is a terminal dashboard over the dependency engine. It never
// edits the graph; it polls for changes made by other processes and can run
// an integrity audit on demand.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/depgraph/internal/config"
	"github.com/aristath/depgraph/internal/engine"
	"github.com/aristath/depgraph/internal/events"
	"github.com/aristath/depgraph/internal/scheduler"
)

// Source is the slice of the engine the dashboard reads from.
type Source interface {
	CalculateCriticalPath(ctx context.Context, projectID string) (*scheduler.Schedule, error)
	BlockedTasks(ctx context.Context, projectID string) ([]engine.BlockedTask, error)
	ValidateAllDependencies(ctx context.Context) (*engine.AuditReport, error)
}

// pollInterval is how often the panes reload to pick up edits made by
// other depgraph processes.
const pollInterval = 5 * time.Second

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneCritical PaneID = iota
	PaneBlocked
	paneCount
)

// pollMsg asks for a periodic reload.
type pollMsg struct{}

// auditMsg carries the result of an integrity audit.
type auditMsg struct {
	report *engine.AuditReport
	err    error
}

// snapshotMsg carries one refresh of both panes.
type snapshotMsg struct {
	schedule *scheduler.Schedule
	blocked  []engine.BlockedTask
	err      error
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	ctx          context.Context
	source       Source
	criticalPane CriticalPaneModel
	blockedPane  BlockedPaneModel
	settingsPane SettingsPaneModel
	focusedPane  PaneID
	eventSub     <-chan events.Event
	width        int
	height       int
	quitting     bool
	showSettings bool
	config       *config.Config
	project      string // --project override; empty follows config
	audit        *engine.AuditReport
	err          error
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll, and
// reloads from source whenever one arrives. The engine behind source should
// publish to the same bus so that audits run from the dashboard show up.
func New(ctx context.Context, source Source, eventBus *events.EventBus, cfg *config.Config, globalPath, projectPath, project string) Model {
	return Model{
		ctx:          ctx,
		source:       source,
		criticalPane: NewCriticalPaneModel(),
		blockedPane:  NewBlockedPaneModel(),
		settingsPane: NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:  PaneCritical,
		eventSub:     eventBus.SubscribeAll(256),
		config:       cfg,
		project:      project,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), waitForEvent(m.eventSub), poll())
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// validate runs an integrity audit. The engine announces completion on the
// bus; the report itself comes back as an auditMsg.
func (m Model) validate() tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		report, err := src.ValidateAllDependencies(ctx)
		return auditMsg{report: report, err: err}
	}
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// currentProject is the project being displayed.
func (m Model) currentProject() string {
	if m.project != "" {
		return m.project
	}
	return m.config.DefaultProject
}

// refresh loads a fresh snapshot from the source.
func (m Model) refresh() tea.Cmd {
	ctx, src, project := m.ctx, m.source, m.currentProject()
	return func() tea.Msg {
		sched, err := src.CalculateCriticalPath(ctx, project)
		if err != nil {
			return snapshotMsg{err: fmt.Errorf("critical path: %w", err)}
		}
		blocked, err := src.BlockedTasks(ctx, project)
		if err != nil {
			return snapshotMsg{err: fmt.Errorf("blocked tasks: %w", err)}
		}
		return snapshotMsg{schedule: sched, blocked: blocked}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)

			// The pane hides itself on esc and after a save
			if !m.settingsPane.IsVisible() {
				m.showSettings = false
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyRefresh:
			cmds = append(cmds, m.refresh())

		case KeyValidate:
			cmds = append(cmds, m.validate())

		case KeyTab:
			m.focusedPane = (m.focusedPane + 1) % paneCount
			m.updateFocusStates()

		case KeyShiftTab:
			m.focusedPane = (m.focusedPane + paneCount - 1) % paneCount
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneCritical
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneBlocked
			m.updateFocusStates()

		default:
			switch m.focusedPane {
			case PaneCritical:
				var cmd tea.Cmd
				m.criticalPane, cmd = m.criticalPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneBlocked:
				var cmd tea.Cmd
				m.blockedPane, cmd = m.blockedPane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case snapshotMsg:
		m.err = msg.err
		var cmd tea.Cmd
		m.criticalPane, cmd = m.criticalPane.Update(msg)
		cmds = append(cmds, cmd)
		m.blockedPane, cmd = m.blockedPane.Update(msg)
		cmds = append(cmds, cmd)

	case settingsSavedMsg:
		cmds = append(cmds, m.refresh())

	case pollMsg:
		cmds = append(cmds, m.refresh(), poll())

	case auditMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("audit: %w", msg.err)
		} else {
			m.audit = msg.report
		}

	case events.Event:
		// Any change in the graph or the tasks invalidates both panes
		cmds = append(cmds, m.refresh(), waitForEvent(m.eventSub))

	default:
		// Form internals (cursor blinks and the like) while settings are open
		if m.showSettings {
			var cmd tea.Cmd
			m.settingsPane, cmd = m.settingsPane.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, m.criticalPane.View(), m.blockedPane.View())

	status := HelpView()
	if m.err != nil {
		status = StyleError.Render("✗ " + m.err.Error())
	} else if p := m.currentProject(); p != "" {
		status = StyleHelp.Render("project "+p+" | ") + status
	}

	if m.audit == nil {
		return lipgloss.JoinVertical(lipgloss.Left, content, status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, auditView(m.audit, m.width), status)
}

// auditView summarizes the last audit on one line.
func auditView(r *engine.AuditReport, width int) string {
	if r.Valid {
		return StyleStatusComplete.Render(fmt.Sprintf("✓ audit: %d dependencies, no issues", r.TotalDependencies))
	}
	line := fmt.Sprintf("✗ audit: %d issues in %d dependencies, first: %s %s",
		len(r.Issues), r.TotalDependencies, r.Issues[0].DependencyID, r.Issues[0].Message)
	if width > 3 {
		line = truncate(line, width)
	}
	return StyleError.Render(line)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 55) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 2 // status bar and audit line

	m.criticalPane.SetSize(leftWidth, availableHeight)
	m.blockedPane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.criticalPane.SetFocused(m.focusedPane == PaneCritical)
	m.blockedPane.SetFocused(m.focusedPane == PaneBlocked)
}
