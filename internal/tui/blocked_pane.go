package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/depgraph/internal/engine"
)

const blockedListWidth = 25

// BlockedPaneModel lists blocked tasks and shows the blockers of the
// selected one in a scrollable viewport.
type BlockedPaneModel struct {
	blocked     []engine.BlockedTask
	loaded      bool
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
}

// NewBlockedPaneModel creates a new blocked tasks pane.
func NewBlockedPaneModel() BlockedPaneModel {
	return BlockedPaneModel{viewport: viewport.New(0, 0)}
}

// Update handles messages for the blocked tasks pane.
func (m BlockedPaneModel) Update(msg tea.Msg) (BlockedPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.blocked)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case snapshotMsg:
		if msg.err != nil {
			break
		}
		selected := m.selectedTaskID()
		m.blocked = msg.blocked
		m.loaded = true
		// Keep the selection on the same task across refreshes
		m.selectedIdx = 0
		for i, b := range m.blocked {
			if b.ID == selected {
				m.selectedIdx = i
				break
			}
		}
		m.updateViewportContent()
	}

	return m, cmd
}

// View renders the blocked tasks pane.
func (m BlockedPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	viewportWidth := m.width - blockedListWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderList(blockedListWidth),
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m BlockedPaneModel) renderList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render(fmt.Sprintf("Blocked (%d)", len(m.blocked)))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(StyleStatusPending.Render("Loading..."))
	case len(m.blocked) == 0:
		b.WriteString(StyleStatusComplete.Render("Nothing is blocked"))
	default:
		for i, t := range m.blocked {
			line := fmt.Sprintf("%s %s", StyleStatusBlocked.Render("■"), truncate(label(t), width-2))
			if i == m.selectedIdx {
				line = StyleSelected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

func label(t engine.BlockedTask) string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}

func (m BlockedPaneModel) selectedTaskID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.blocked) {
		return m.blocked[m.selectedIdx].ID
	}
	return ""
}

// updateViewportContent shows the blockers of the selected task.
func (m *BlockedPaneModel) updateViewportContent() {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.blocked) {
		m.viewport.SetContent("No blocked tasks.")
		return
	}

	t := m.blocked[m.selectedIdx]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s [%s]\n", StyleTitle.Render(label(t)), t.Status))
	b.WriteString("waiting on:\n\n")
	for _, blocker := range t.BlockingTasks {
		name := blocker.Title
		if name == "" {
			name = blocker.TaskID
		}
		b.WriteString(fmt.Sprintf("  %s %s\n      %s, status %s\n",
			StyleStatusBlocked.Render("←"), name, blocker.DependencyType, blocker.Status))
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

func (m *BlockedPaneModel) resizeViewport() {
	viewportWidth := m.width - blockedListWidth - 4
	viewportHeight := m.height - 4

	m.viewport.Width = max(viewportWidth, 10)
	m.viewport.Height = max(viewportHeight, 5)
}

// SetSize updates the pane dimensions.
func (m *BlockedPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *BlockedPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
