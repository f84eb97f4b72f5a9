package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aristath/depgraph/internal/scheduler"
)

// CriticalPaneModel shows the critical path of the current schedule.
type CriticalPaneModel struct {
	schedule *scheduler.Schedule
	width    int
	height   int
	focused  bool
}

// NewCriticalPaneModel creates a new critical path pane.
func NewCriticalPaneModel() CriticalPaneModel {
	return CriticalPaneModel{}
}

// Update handles messages for the critical path pane.
func (m CriticalPaneModel) Update(msg tea.Msg) (CriticalPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		if msg.err == nil {
			m.schedule = msg.schedule
		}
	}

	return m, nil
}

// View renders the critical path pane.
func (m CriticalPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Critical Path")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	switch {
	case m.schedule == nil:
		b.WriteString(StyleStatusPending.Render("Loading..."))
	case len(m.schedule.AllTasks) == 0:
		b.WriteString(StyleStatusPending.Render("No dated tasks to schedule"))
	default:
		m.renderSchedule(&b)
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

func (m CriticalPaneModel) renderSchedule(b *strings.Builder) {
	s := m.schedule

	b.WriteString(fmt.Sprintf("Window:   %s → %s\n", formatDay(s.ProjectStart), formatDay(s.ProjectEnd)))
	b.WriteString(fmt.Sprintf("Duration: %d days\n", s.TotalDuration))
	b.WriteString(fmt.Sprintf("Critical: %s of %d\n\n",
		StyleCritical.Render(strconv.Itoa(len(s.CriticalPath))), len(s.AllTasks)))

	// Share of scheduled tasks that sit on the critical path
	barWidth := min(m.width-12, 40)
	if barWidth > 0 {
		criticalWidth := (len(s.CriticalPath) * barWidth) / len(s.AllTasks)
		bar := StyleCritical.Render(strings.Repeat("=", criticalWidth))
		bar += StyleStatusPending.Render(strings.Repeat(".", barWidth-criticalWidth))
		b.WriteString(fmt.Sprintf("[%s]\n\n", bar))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleStatusPending).
		Headers("TASK", "START", "FINISH", "DAYS", "SLACK")

	for _, ts := range s.AllTasks {
		t.Row(
			truncate(ts.Title, 24),
			ts.EarliestStart.Format(time.DateOnly),
			ts.EarliestFinish.Format(time.DateOnly),
			strconv.Itoa(ts.Duration),
			slackLabel(ts),
		)
	}
	b.WriteString(t.Render())
}

// SetSize updates the pane dimensions.
func (m *CriticalPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *CriticalPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func slackLabel(ts scheduler.TaskSchedule) string {
	if ts.IsCritical {
		return "critical"
	}
	return strconv.Itoa(ts.Slack)
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-3 {
		r = r[:width-3]
	}
	return string(r) + "..."
}
