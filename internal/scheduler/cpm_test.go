package scheduler

import (
	"testing"
	"time"

	"github.com/aristath/depgraph/internal/graph"
)

var base = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

// at returns base shifted by n days.
func at(n int) *time.Time {
	t := base.AddDate(0, 0, n)
	return &t
}

// span builds a task dated from base+start for dur days.
func span(id string, start, dur int) *Task {
	return &Task{ID: id, Title: "Task " + id, Status: "To Do", StartDate: at(start), DueDate: at(start + dur)}
}

func dep(pred, succ string, typ graph.DependencyType, lag int) graph.Edge {
	return graph.Edge{ID: pred + "-" + succ, PredecessorID: pred, SuccessorID: succ, Type: typ, Lag: lag}
}

func fs(pred, succ string) graph.Edge {
	return dep(pred, succ, graph.FinishToStart, 0)
}

func byID(s *Schedule) map[string]TaskSchedule {
	out := make(map[string]TaskSchedule, len(s.AllTasks))
	for _, ts := range s.AllTasks {
		out[ts.TaskID] = ts
	}
	return out
}

func assertTiming(t *testing.T, ts TaskSchedule, es, ef, slack int) {
	t.Helper()
	if !ts.EarliestStart.Equal(*at(es)) {
		t.Errorf("task %s: expected ES=base+%d, got %s", ts.TaskID, es, ts.EarliestStart.Format(time.DateOnly))
	}
	if !ts.EarliestFinish.Equal(*at(ef)) {
		t.Errorf("task %s: expected EF=base+%d, got %s", ts.TaskID, ef, ts.EarliestFinish.Format(time.DateOnly))
	}
	if ts.Slack != slack {
		t.Errorf("task %s: expected slack=%d, got %d", ts.TaskID, slack, ts.Slack)
	}
	if ts.IsCritical != (slack == 0) {
		t.Errorf("task %s: expected critical=%v, got %v", ts.TaskID, slack == 0, ts.IsCritical)
	}
}

func TestCriticalPath_LinearChain(t *testing.T) {
	// A(2) -> B(3) -> C(1)
	tasks := []*Task{span("A", 0, 2), span("B", 2, 3), span("C", 5, 1)}
	edges := []graph.Edge{fs("A", "B"), fs("B", "C")}

	s := CriticalPath(tasks, edges, Options{})

	if s.TotalDuration != 6 {
		t.Errorf("expected total duration 6, got %d", s.TotalDuration)
	}
	if len(s.CriticalPath) != 3 {
		t.Fatalf("expected 3 critical tasks, got %d", len(s.CriticalPath))
	}
	for i, id := range []string{"A", "B", "C"} {
		if s.CriticalPath[i].TaskID != id {
			t.Errorf("critical path[%d] = %s, want %s", i, s.CriticalPath[i].TaskID, id)
		}
	}

	got := byID(s)
	assertTiming(t, got["A"], 0, 2, 0)
	assertTiming(t, got["B"], 2, 5, 0)
	assertTiming(t, got["C"], 5, 6, 0)

	if !s.ProjectStart.Equal(*at(0)) || !s.ProjectEnd.Equal(*at(6)) {
		t.Errorf("unexpected project window %s..%s", s.ProjectStart, s.ProjectEnd)
	}
	if len(s.TopoOrder) != 3 || s.TopoOrder[0] != "A" || s.TopoOrder[2] != "C" {
		t.Errorf("unexpected topo order %v", s.TopoOrder)
	}
}

func TestCriticalPath_ParallelBranchHasSlack(t *testing.T) {
	// A(2) -> B(3) -> C(1)
	//      \-> D(1)
	tasks := []*Task{span("A", 0, 2), span("B", 2, 3), span("C", 5, 1), span("D", 2, 1)}
	edges := []graph.Edge{fs("A", "B"), fs("B", "C"), fs("A", "D")}

	s := CriticalPath(tasks, edges, Options{})

	if s.TotalDuration != 6 {
		t.Errorf("expected total duration 6, got %d", s.TotalDuration)
	}
	got := byID(s)
	assertTiming(t, got["D"], 2, 3, 3)
	if !got["D"].LatestStart.Equal(*at(5)) || !got["D"].LatestFinish.Equal(*at(6)) {
		t.Errorf("unexpected latest window for D: %s..%s", got["D"].LatestStart, got["D"].LatestFinish)
	}
	for _, ts := range s.CriticalPath {
		if ts.TaskID == "D" {
			t.Error("D must not be on the critical path")
		}
	}
	if len(s.AllTasks) != 4 {
		t.Errorf("expected all 4 tasks annotated, got %d", len(s.AllTasks))
	}
}

func TestCriticalPath_DependencyTypes(t *testing.T) {
	tests := []struct {
		name  string
		tasks []*Task
		edge  graph.Edge
		total int
		wantA [3]int // es, ef, slack
		wantB [3]int
	}{
		{
			name:  "finish to start with lag",
			tasks: []*Task{span("A", 0, 2), span("B", 0, 1)},
			edge:  dep("A", "B", graph.FinishToStart, 2),
			total: 5,
			wantA: [3]int{0, 2, 0},
			wantB: [3]int{4, 5, 0},
		},
		{
			name:  "start to start with lag",
			tasks: []*Task{span("A", 0, 3), span("B", 0, 1)},
			edge:  dep("A", "B", graph.StartToStart, 1),
			total: 3,
			wantA: [3]int{0, 3, 0},
			wantB: [3]int{1, 2, 1},
		},
		{
			name:  "finish to finish",
			tasks: []*Task{span("A", 0, 4), span("B", 0, 2)},
			edge:  dep("A", "B", graph.FinishToFinish, 0),
			total: 4,
			wantA: [3]int{0, 4, 0},
			wantB: [3]int{2, 4, 0},
		},
		{
			name:  "start to finish",
			tasks: []*Task{span("A", 0, 2), span("B", 0, 1)},
			edge:  dep("A", "B", graph.StartToFinish, 3),
			total: 3,
			wantA: [3]int{0, 2, 0},
			wantB: [3]int{2, 3, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := CriticalPath(tt.tasks, []graph.Edge{tt.edge}, Options{})
			if s.TotalDuration != tt.total {
				t.Errorf("expected total duration %d, got %d", tt.total, s.TotalDuration)
			}
			got := byID(s)
			assertTiming(t, got["A"], tt.wantA[0], tt.wantA[1], tt.wantA[2])
			assertTiming(t, got["B"], tt.wantB[0], tt.wantB[1], tt.wantB[2])
		})
	}
}

func TestCriticalPath_NegativeLagClampsToProjectEnd(t *testing.T) {
	// A(2) -> B(1) with lag -2: B overlaps A entirely and finishes first.
	tasks := []*Task{span("A", 0, 2), span("B", 0, 1)}
	edges := []graph.Edge{dep("A", "B", graph.FinishToStart, -2)}

	s := CriticalPath(tasks, edges, Options{})

	if s.TotalDuration != 2 {
		t.Errorf("expected total duration 2, got %d", s.TotalDuration)
	}
	got := byID(s)
	assertTiming(t, got["A"], 0, 2, 0)
	assertTiming(t, got["B"], 0, 1, 1)

	// B allows A to finish on day 3, past the project end; A stays pinned to it.
	if !got["A"].LatestFinish.Equal(*at(2)) {
		t.Errorf("expected A to latest-finish at the project end, got %s", got["A"].LatestFinish.Format(time.DateOnly))
	}
	if len(s.CriticalPath) != 1 || s.CriticalPath[0].TaskID != "A" {
		t.Errorf("expected only A on the critical path, got %+v", s.CriticalPath)
	}
}

func TestCriticalPath_SkipsUndatedTasks(t *testing.T) {
	undated := &Task{ID: "U", Title: "Undated", EstimatedHours: 40}
	tasks := []*Task{span("A", 0, 2), undated, span("B", 2, 1)}
	edges := []graph.Edge{fs("A", "U"), fs("U", "B")}

	s := CriticalPath(tasks, edges, Options{})

	if len(s.AllTasks) != 2 {
		t.Fatalf("expected 2 scheduled tasks, got %d", len(s.AllTasks))
	}
	got := byID(s)
	if _, ok := got["U"]; ok {
		t.Error("undated task must not be scheduled")
	}
	// Without U, B is a source anchored at its own start date.
	assertTiming(t, got["B"], 2, 3, 0)
	assertTiming(t, got["A"], 0, 2, 1)
}

func TestCriticalPath_DueOnlySourceAnchorsToday(t *testing.T) {
	dueOnly := &Task{ID: "E", Title: "Due only", DueDate: at(30), EstimatedHours: 16}
	now := func() time.Time { return base.AddDate(0, 0, 10).Add(15 * time.Hour) }

	s := CriticalPath([]*Task{dueOnly}, nil, Options{Now: now})

	got := byID(s)
	assertTiming(t, got["E"], 10, 12, 0)
	if s.TotalDuration != 2 {
		t.Errorf("expected total duration 2, got %d", s.TotalDuration)
	}
}

func TestCriticalPath_TerminatesOnCycle(t *testing.T) {
	tasks := []*Task{span("A", 0, 1), span("B", 0, 2), span("C", 0, 1)}
	edges := []graph.Edge{fs("A", "B"), fs("B", "A"), fs("B", "C")}

	s := CriticalPath(tasks, edges, Options{})

	if len(s.AllTasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(s.AllTasks))
	}
	if s.TopoOrder != nil {
		t.Errorf("expected no topo order for cyclic input, got %v", s.TopoOrder)
	}
}

func TestCriticalPath_Empty(t *testing.T) {
	for name, tasks := range map[string][]*Task{
		"no tasks":      nil,
		"only undated":  {{ID: "A", Title: "A"}},
		"nil snapshots": {nil},
	} {
		t.Run(name, func(t *testing.T) {
			s := CriticalPath(tasks, []graph.Edge{fs("A", "B")}, Options{})
			if s.CriticalPath == nil || len(s.CriticalPath) != 0 {
				t.Errorf("expected empty, non-nil critical path, got %v", s.CriticalPath)
			}
			if s.TotalDuration != 0 {
				t.Errorf("expected total duration 0, got %d", s.TotalDuration)
			}
			if s.ProjectStart != nil || s.ProjectEnd != nil {
				t.Error("expected nil project dates")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name        string
		task        Task
		hoursPerDay int
		want        int
	}{
		{name: "both dates", task: Task{StartDate: at(0), DueDate: at(3)}, want: 3},
		{name: "same day", task: Task{StartDate: at(0), DueDate: at(0)}, want: 1},
		{name: "due before start", task: Task{StartDate: at(3), DueDate: at(0)}, want: 1},
		{name: "partial day rounds up", task: Task{StartDate: at(0), DueDate: func() *time.Time { d := base.Add(30 * time.Hour); return &d }()}, want: 2},
		{name: "estimate", task: Task{EstimatedHours: 20}, want: 3},
		{name: "estimate custom day", task: Task{EstimatedHours: 20}, hoursPerDay: 10, want: 2},
		{name: "start only uses estimate", task: Task{StartDate: at(0), EstimatedHours: 9}, want: 2},
		{name: "nothing", task: Task{}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(&tt.task, tt.hoursPerDay); got != tt.want {
				t.Errorf("Duration() = %d, want %d", got, tt.want)
			}
		})
	}
}
