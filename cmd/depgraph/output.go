package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aristath/depgraph/internal/scheduler"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func describeTask(t *scheduler.Task) (title, status string) {
	if t == nil {
		return "(missing)", "-"
	}
	return t.Title, string(t.Status)
}

func blockerIDs(blockers []scheduler.Blocker) string {
	ids := make([]string, 0, len(blockers))
	for _, b := range blockers {
		ids = append(ids, b.TaskID)
	}
	return strings.Join(ids, ", ")
}
