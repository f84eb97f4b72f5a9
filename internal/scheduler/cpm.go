package scheduler

import (
	"sort"
	"time"

	"github.com/aristath/depgraph/internal/graph"
)

// Options tunes a critical path run.
type Options struct {
	HoursPerDay int
	// Now anchors source tasks that have a due date but no start date.
	// Defaults to time.Now.
	Now func() time.Time
}

// TaskSchedule is the computed timing of one task.
type TaskSchedule struct {
	TaskID         string    `json:"task_id"`
	Title          string    `json:"title"`
	Duration       int       `json:"duration"`
	EarliestStart  time.Time `json:"earliest_start"`
	EarliestFinish time.Time `json:"earliest_finish"`
	LatestStart    time.Time `json:"latest_start"`
	LatestFinish   time.Time `json:"latest_finish"`
	Slack          int       `json:"slack"`
	IsCritical     bool      `json:"is_critical"`
}

// Schedule is the result of a critical path run. An empty task set yields an
// empty Schedule with nil project dates.
type Schedule struct {
	CriticalPath  []TaskSchedule `json:"critical_path"`
	TotalDuration int            `json:"total_duration"`
	ProjectStart  *time.Time     `json:"project_start"`
	ProjectEnd    *time.Time     `json:"project_end"`
	AllTasks      []TaskSchedule `json:"all_tasks"`
	// TopoOrder is nil when the scheduled edges contain a cycle.
	TopoOrder []string `json:"topo_order,omitempty"`
}

type mark int

const (
	unvisited mark = iota
	visiting
	done
)

type link struct {
	node *node
	typ  graph.DependencyType
	lag  int
}

// node holds day numbers (days since the Unix epoch).
type node struct {
	task     *Task
	duration int
	es, ef   int
	ls, lf   int
	preds    []link
	succs    []link
	fwd, bwd mark
}

// CriticalPath runs a forward and a backward pass over the dated tasks and
// the edges between them. Tasks without any date are left out. Both passes
// keep per-node visiting markers, so a cycle in the input degrades the
// result instead of recursing forever.
func CriticalPath(tasks []*Task, edges []graph.Edge, opts Options) *Schedule {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	nodes := make(map[string]*node)
	var order []*node
	for _, t := range tasks {
		if t == nil || !t.Dated() {
			continue
		}
		if _, dup := nodes[t.ID]; dup {
			continue
		}
		n := &node{task: t, duration: Duration(t, opts.HoursPerDay)}
		nodes[t.ID] = n
		order = append(order, n)
	}

	if len(order) == 0 {
		return &Schedule{
			CriticalPath: []TaskSchedule{},
			AllTasks:     []TaskSchedule{},
		}
	}

	var kept []graph.Edge
	for _, e := range edges {
		pred, succ := nodes[e.PredecessorID], nodes[e.SuccessorID]
		if pred == nil || succ == nil {
			continue
		}
		kept = append(kept, e)
		pred.succs = append(pred.succs, link{node: succ, typ: e.Type, lag: e.Lag})
		succ.preds = append(succ.preds, link{node: pred, typ: e.Type, lag: e.Lag})
	}

	today := dayNumber(opts.Now())
	for _, n := range order {
		forward(n, today)
	}

	end := order[0].ef
	for _, n := range order {
		end = max(end, n.ef)
	}

	for _, n := range order {
		backward(n, end)
	}

	result := &Schedule{
		CriticalPath: []TaskSchedule{},
		AllTasks:     make([]TaskSchedule, 0, len(order)),
	}
	for _, n := range order {
		slack := n.ls - n.es
		ts := TaskSchedule{
			TaskID:         n.task.ID,
			Title:          n.task.Title,
			Duration:       n.duration,
			EarliestStart:  dayDate(n.es),
			EarliestFinish: dayDate(n.ef),
			LatestStart:    dayDate(n.ls),
			LatestFinish:   dayDate(n.lf),
			Slack:          slack,
			IsCritical:     slack == 0,
		}
		result.AllTasks = append(result.AllTasks, ts)
		if ts.IsCritical {
			result.CriticalPath = append(result.CriticalPath, ts)
		}
	}

	sort.SliceStable(result.CriticalPath, func(i, j int) bool {
		return result.CriticalPath[i].EarliestStart.Before(result.CriticalPath[j].EarliestStart)
	})

	// Project start is the earliest critical start; fall back to the
	// earliest start overall when negative lags leave nothing critical.
	start := order[0].es
	if len(result.CriticalPath) > 0 {
		start = dayNumber(result.CriticalPath[0].EarliestStart)
	} else {
		for _, n := range order {
			start = min(start, n.es)
		}
	}

	projectStart, projectEnd := dayDate(start), dayDate(end)
	result.ProjectStart = &projectStart
	result.ProjectEnd = &projectEnd
	result.TotalDuration = end - start

	ids := make([]string, 0, len(order))
	for _, n := range order {
		ids = append(ids, n.task.ID)
	}
	if topo, err := graph.TopoSort(ids, kept); err == nil {
		result.TopoOrder = topo
	}

	return result
}

// forward resolves earliest start/finish. A predecessor still being visited
// sits on a cycle and contributes nothing.
func forward(n *node, today int) {
	if n.fwd != unvisited {
		return
	}
	n.fwd = visiting

	resolved := false
	for _, l := range n.preds {
		forward(l.node, today)
		if l.node.fwd != done {
			continue
		}
		bound := earliestStartBound(l, n.duration)
		if !resolved || bound > n.es {
			n.es = bound
			resolved = true
		}
	}
	if !resolved {
		n.es = anchorDay(n.task, today)
	}

	n.ef = n.es + n.duration
	n.fwd = done
}

// backward resolves latest start/finish against the project end. No task may
// finish later than the project end, even when a negative lag on an outgoing
// link would allow it.
func backward(n *node, end int) {
	if n.bwd != unvisited {
		return
	}
	n.bwd = visiting

	n.lf = end
	for _, l := range n.succs {
		backward(l.node, end)
		if l.node.bwd != done {
			continue
		}
		n.lf = min(n.lf, latestFinishBound(l, n.duration))
	}

	n.ls = n.lf - n.duration
	n.bwd = done
}

// earliestStartBound is the earliest start the successor (with the given
// duration) may take given one predecessor link.
func earliestStartBound(l link, duration int) int {
	p := l.node
	switch l.typ {
	case graph.FinishToStart:
		return p.ef + l.lag
	case graph.StartToStart:
		return p.es + l.lag
	case graph.FinishToFinish:
		return p.ef + l.lag - duration
	case graph.StartToFinish:
		return p.es + l.lag - duration
	}
	return p.ef + l.lag
}

// latestFinishBound is the latest finish the predecessor (with the given
// duration) may take given one successor link.
func latestFinishBound(l link, duration int) int {
	s := l.node
	switch l.typ {
	case graph.FinishToStart:
		return s.ls - l.lag
	case graph.StartToStart:
		return s.ls - l.lag + duration
	case graph.FinishToFinish:
		return s.lf - l.lag
	case graph.StartToFinish:
		return s.lf - l.lag + duration
	}
	return s.ls - l.lag
}

// anchorDay places a source task on the calendar: its declared start date,
// or today when only a due date is known.
func anchorDay(t *Task, today int) int {
	if t.StartDate != nil {
		return dayNumber(*t.StartDate)
	}
	return today
}
