package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/depgraph/internal/engine"
	"github.com/aristath/depgraph/internal/graph"
)

func depCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Add, remove and list dependencies",
	}
	cmd.AddCommand(depAddCmd(a))
	cmd.AddCommand(depRmCmd(a))
	cmd.AddCommand(depListCmd(a))
	return cmd
}

func depAddCmd(a *app) *cobra.Command {
	var typeName string
	var lag int

	cmd := &cobra.Command{
		Use:   "add <successor> <predecessor>",
		Short: "Make successor depend on predecessor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := graph.ParseDependencyType(typeName)
			if err != nil {
				return err
			}

			edge, err := a.engine.AddDependency(cmd.Context(), args[0], args[1], typ, lag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, edge)
			}
			fmt.Fprintf(out, "%s: %s -> %s (%s, lag %d)\n", edge.ID, edge.PredecessorID, edge.SuccessorID, edge.Type, edge.Lag)
			return nil
		},
	}

	names := make([]string, 0, len(graph.DependencyTypes()))
	for _, t := range graph.DependencyTypes() {
		names = append(names, t.String())
	}
	cmd.Flags().StringVar(&typeName, "type", graph.FinishToStart.String(), "Dependency type: "+strings.Join(names, ", "))
	cmd.Flags().IntVar(&lag, "lag", 0, "Lag in days, may be negative")
	return cmd
}

func depRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <dependency-id>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.RemoveDependency(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonOut {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"removed": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func depListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task>",
		Short: "List direct predecessors and successors of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.engine.TaskDependencies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return outputJSON(cmd.OutOrStdout(), deps)
			}

			var rows [][]string
			add := func(direction string, links []engine.Link, other func(graph.Edge) string) {
				for _, l := range links {
					title, status := describeTask(l.Task)
					rows = append(rows, []string{
						direction, l.Edge.ID, other(l.Edge), title, status,
						l.Edge.Type.String(), strconv.Itoa(l.Edge.Lag),
					})
				}
			}
			add("after", deps.Predecessors, func(e graph.Edge) string { return e.PredecessorID })
			add("before", deps.Successors, func(e graph.Edge) string { return e.SuccessorID })

			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no dependencies\n", args[0])
				return nil
			}
			return renderTable(cmd.OutOrStdout(), []string{"", "ID", "TASK", "TITLE", "STATUS", "TYPE", "LAG"}, rows)
		},
	}
}

func chainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chain <task>",
		Short: "List every task the given task transitively waits on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.engine.DependencyChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printIDs(cmd, ids)
		},
	}
}

func impactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <task>",
		Short: "List every task transitively waiting on the given task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.engine.ImpactChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printIDs(cmd, ids)
		},
	}
}

func (a *app) printIDs(cmd *cobra.Command, ids []string) error {
	if a.jsonOut {
		if ids == nil {
			ids = []string{}
		}
		return outputJSON(cmd.OutOrStdout(), ids)
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
