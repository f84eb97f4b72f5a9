package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/depgraph/internal/scheduler"
)

func criticalPathCmd(a *app) *cobra.Command {
	var project string
	var all bool

	cmd := &cobra.Command{
		Use:   "critical-path",
		Short: "Compute the schedule and critical path of dated tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := a.engine.CalculateCriticalPath(cmd.Context(), a.project(project))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, sched)
			}
			if len(sched.AllTasks) == 0 {
				fmt.Fprintln(out, "no dated tasks to schedule")
				return nil
			}

			fmt.Fprintf(out, "%s -> %s, %d days, %d of %d tasks critical\n",
				formatDate(sched.ProjectStart), formatDate(sched.ProjectEnd),
				sched.TotalDuration, len(sched.CriticalPath), len(sched.AllTasks))

			list := sched.CriticalPath
			if all {
				list = sched.AllTasks
			}
			return renderTable(out, []string{"TASK", "TITLE", "START", "FINISH", "DAYS", "SLACK"}, scheduleRows(list))
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Show every scheduled task, not only critical ones")
	return cmd
}

func scheduleRows(list []scheduler.TaskSchedule) [][]string {
	rows := make([][]string, 0, len(list))
	for _, ts := range list {
		slack := strconv.Itoa(ts.Slack)
		if ts.IsCritical {
			slack = "critical"
		}
		rows = append(rows, []string{
			ts.TaskID, ts.Title,
			formatDate(&ts.EarliestStart), formatDate(&ts.EarliestFinish),
			strconv.Itoa(ts.Duration), slack,
		})
	}
	return rows
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every stored dependency for orphans and cycles",
		Long:  "Check every stored dependency for orphans and cycles. Exits non-zero when issues are found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.engine.ValidateAllDependencies(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := outputJSON(out, report); err != nil {
					return err
				}
			} else if report.Valid {
				fmt.Fprintf(out, "%d dependencies, no issues\n", report.TotalDependencies)
			} else {
				rows := make([][]string, 0, len(report.Issues))
				for _, issue := range report.Issues {
					rows = append(rows, []string{issue.DependencyID, string(issue.Kind), issue.Message, strings.Join(issue.Path, " -> ")})
				}
				if err := renderTable(out, []string{"DEPENDENCY", "KIND", "MESSAGE", "PATH"}, rows); err != nil {
					return err
				}
			}

			if !report.Valid {
				return fmt.Errorf("%d issues in %d dependencies", len(report.Issues), report.TotalDependencies)
			}
			return nil
		},
	}
}
