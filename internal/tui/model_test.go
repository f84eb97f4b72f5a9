package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/depgraph/internal/config"
	"github.com/aristath/depgraph/internal/engine"
	"github.com/aristath/depgraph/internal/events"
	"github.com/aristath/depgraph/internal/graph"
	"github.com/aristath/depgraph/internal/scheduler"
)

type fakeSource struct {
	projects []string
	schedule *scheduler.Schedule
	blocked  []engine.BlockedTask
	report   *engine.AuditReport
	audits   int
	err      error
}

func (f *fakeSource) CalculateCriticalPath(_ context.Context, projectID string) (*scheduler.Schedule, error) {
	f.projects = append(f.projects, projectID)
	return f.schedule, f.err
}

func (f *fakeSource) BlockedTasks(context.Context, string) ([]engine.BlockedTask, error) {
	return f.blocked, nil
}

func (f *fakeSource) ValidateAllDependencies(context.Context) (*engine.AuditReport, error) {
	f.audits++
	return f.report, f.err
}

func sampleSource() *fakeSource {
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	return &fakeSource{
		schedule: &scheduler.Schedule{
			CriticalPath:  []scheduler.TaskSchedule{{TaskID: "A", Title: "Schema", IsCritical: true}},
			TotalDuration: 6,
			ProjectStart:  &start,
			ProjectEnd:    &end,
			AllTasks: []scheduler.TaskSchedule{
				{TaskID: "A", Title: "Schema", Duration: 2, EarliestStart: start, EarliestFinish: start.AddDate(0, 0, 2), IsCritical: true},
				{TaskID: "D", Title: "Docs", Duration: 1, EarliestStart: start.AddDate(0, 0, 2), EarliestFinish: start.AddDate(0, 0, 3), Slack: 3},
			},
		},
		blocked: []engine.BlockedTask{{
			Task: &scheduler.Task{ID: "B", Title: "API", Status: "To Do"},
			BlockingTasks: []scheduler.Blocker{
				{TaskID: "A", Title: "Schema", Status: "In Progress", DependencyType: graph.FinishToStart},
			},
		}},
	}
}

func newTestModel(t *testing.T, src Source, project string) Model {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Close)
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DefaultProject = "apollo"
	m := New(context.Background(), src, bus, cfg, filepath.Join(dir, "global.json"), filepath.Join(dir, "project.json"), project)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func TestRefreshRendersBothPanes(t *testing.T) {
	src := sampleSource()
	m := newTestModel(t, src, "")

	msg := m.refresh()()
	next, _ := m.Update(msg)
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"Critical Path", "Schema", "Docs", "critical", "Blocked (1)", "API", "finish_to_start", "project apollo"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if len(src.projects) != 1 || src.projects[0] != "apollo" {
		t.Errorf("expected default project to be queried, got %v", src.projects)
	}
}

func TestProjectOverride(t *testing.T) {
	src := sampleSource()
	m := newTestModel(t, src, "gemini")

	m.refresh()()

	if src.projects[0] != "gemini" {
		t.Errorf("expected override project, got %v", src.projects)
	}
}

func TestRefreshErrorShownInStatusBar(t *testing.T) {
	src := sampleSource()
	src.err = errors.New("store offline")
	m := newTestModel(t, src, "")

	next, _ := m.Update(m.refresh()())
	m = next.(Model)

	if !strings.Contains(m.View(), "store offline") {
		t.Error("expected refresh error in the status bar")
	}
}

func TestEventTriggersRefresh(t *testing.T) {
	m := newTestModel(t, sampleSource(), "")

	_, cmd := m.Update(events.DependencyAddedEvent{Edge: graph.Edge{ID: "dep_1"}})
	if cmd == nil {
		t.Fatal("expected a refresh command after a bus event")
	}
}

func TestPollReloadsAndReschedules(t *testing.T) {
	src := sampleSource()
	m := newTestModel(t, src, "")

	_, cmd := m.Update(pollMsg{})
	if cmd == nil {
		t.Fatal("expected a refresh and the next tick after a poll")
	}
}

func TestValidateKeyRunsAudit(t *testing.T) {
	tests := []struct {
		name   string
		report *engine.AuditReport
		err    error
		want   string
	}{
		{
			name:   "clean",
			report: &engine.AuditReport{Valid: true, TotalDependencies: 4, Issues: []engine.Issue{}},
			want:   "audit: 4 dependencies, no issues",
		},
		{
			name: "issues",
			report: &engine.AuditReport{TotalDependencies: 3, Issues: []engine.Issue{
				{DependencyID: "dep_x", Kind: engine.IssueOrphaned, Message: "missing successor Z"},
				{DependencyID: "dep_y", Kind: engine.IssueOrphaned, Message: "missing predecessor W"},
			}},
			want: "audit: 2 issues in 3 dependencies, first: dep_x missing successor Z",
		},
		{
			name: "failure",
			err:  errors.New("store offline"),
			want: "audit: store offline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sampleSource()
			m := newTestModel(t, src, "")
			src.report, src.err = tt.report, tt.err

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
			if cmd == nil {
				t.Fatal("expected v to start an audit")
			}
			msg := cmd()
			if src.audits != 1 {
				t.Fatalf("expected one audit, got %d", src.audits)
			}

			next, _ := m.Update(msg)
			if view := next.(Model).View(); !strings.Contains(view, tt.want) {
				t.Errorf("expected %q in view:\n%s", tt.want, view)
			}
		})
	}
}

func TestFocusCycling(t *testing.T) {
	m := newTestModel(t, sampleSource(), "")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.focusedPane != PaneBlocked {
		t.Errorf("expected blocked pane focus, got %d", m.focusedPane)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.focusedPane != PaneCritical {
		t.Errorf("expected focus to wrap to the critical pane, got %d", m.focusedPane)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, sampleSource(), "")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !next.(Model).quitting {
		t.Fatal("expected q to quit")
	}
}

func TestValidateHours(t *testing.T) {
	for in, ok := range map[string]bool{"8": true, "1": true, "0": false, "-3": false, "six": false} {
		if err := validateHours(in); (err == nil) != ok {
			t.Errorf("validateHours(%q) = %v", in, err)
		}
	}
}
