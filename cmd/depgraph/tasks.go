package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/depgraph/internal/graph"
	"github.com/aristath/depgraph/internal/scheduler"
)

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task snapshots dependencies are checked against",
	}
	cmd.AddCommand(taskPutCmd(a))
	cmd.AddCommand(taskRmCmd(a))
	cmd.AddCommand(taskListCmd(a))
	return cmd
}

func taskPutCmd(a *app) *cobra.Command {
	var (
		title, project, status string
		start, due             string
		hours                  float64
	)

	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or update a task",
		Long: `Create or update a task. On update only the flags given are changed.
Dates use YYYY-MM-DD; pass an empty string to clear one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			task, err := a.store.GetTask(ctx, args[0])
			switch {
			case errors.Is(err, graph.ErrNotFound):
				task = &scheduler.Task{ID: args[0], Status: a.cfg.Workflow[0], ProjectID: a.cfg.DefaultProject}
			case err != nil:
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				task.Title = title
			}
			if flags.Changed("project") {
				task.ProjectID = project
			}
			if flags.Changed("status") {
				s := scheduler.Status(status)
				if a.cfg.Workflow.Rank(s) < 0 {
					return fmt.Errorf("status %q is not in the workflow %v", status, a.cfg.Workflow)
				}
				task.Status = s
			}
			if flags.Changed("start") {
				if task.StartDate, err = parseDay(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if flags.Changed("due") {
				if task.DueDate, err = parseDay(due); err != nil {
					return fmt.Errorf("--due: %w", err)
				}
			}
			if flags.Changed("hours") {
				task.EstimatedHours = hours
			}

			if err := a.store.SaveTask(ctx, task); err != nil {
				return err
			}

			if a.jsonOut {
				return outputJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", task.ID, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	cmd.Flags().StringVar(&status, "status", "", "Workflow status")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Estimated hours")
	return cmd
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func taskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task snapshot; its dependencies are kept and show up as orphaned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func taskListCmd(a *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.store.ListTasks(cmd.Context(), a.project(project))
			if err != nil {
				return err
			}
			if a.jsonOut {
				if tasks == nil {
					tasks = []*scheduler.Task{}
				}
				return outputJSON(cmd.OutOrStdout(), tasks)
			}

			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{
					t.ID, t.Title, t.ProjectID, string(t.Status),
					formatDate(t.StartDate), formatDate(t.DueDate),
					strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64),
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "PROJECT", "STATUS", "START", "DUE", "HOURS"}, rows)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default from config)")
	return cmd
}

func canStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "can-start <task>",
		Short: "Check whether a task's predecessors allow it to start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gating, err := a.engine.CanStartTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, gating)
			}
			if gating.CanStart {
				fmt.Fprintf(out, "%s can start\n", args[0])
				return nil
			}

			fmt.Fprintf(out, "%s is blocked by:\n", args[0])
			rows := make([][]string, 0, len(gating.BlockingTasks))
			for _, b := range gating.BlockingTasks {
				rows = append(rows, []string{b.TaskID, b.Title, string(b.Status), b.DependencyType.String()})
			}
			return renderTable(out, []string{"TASK", "TITLE", "STATUS", "TYPE"}, rows)
		},
	}
}

func blockedCmd(a *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "List tasks that cannot start yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blocked, err := a.engine.BlockedTasks(cmd.Context(), a.project(project))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, blocked)
			}
			if len(blocked) == 0 {
				fmt.Fprintln(out, "nothing is blocked")
				return nil
			}

			rows := make([][]string, 0, len(blocked))
			for _, b := range blocked {
				rows = append(rows, []string{b.ID, b.Title, string(b.Status), blockerIDs(b.BlockingTasks)})
			}
			return renderTable(out, []string{"TASK", "TITLE", "STATUS", "BLOCKED BY"}, rows)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default from config)")
	return cmd
}
