package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/depgraph/internal/logging"
	"github.com/aristath/depgraph/internal/tui"
)

const shutdownTimeout = 10 * time.Second

func tuiCmd(a *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the critical path and blocked task dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			model := tui.New(ctx, a.engine, a.bus, a.cfg, a.globalPath, a.projectPath, project)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			return runProgram(ctx, p, shutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default from config)")
	return cmd
}

// runProgram runs p until it exits or ctx is cancelled. On cancellation the
// program is asked to quit and given timeout to do so.
func runProgram(ctx context.Context, p *tea.Program, timeout time.Duration) error {
	logger := logging.FromContext(ctx)

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	select {
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		select {
		case err := <-errChan:
			if err != nil {
				logger.Warn("tui exit error", "error", err)
			}
		case <-shutdownCtx.Done():
			logger.Warn("shutdown timeout exceeded, forcing exit")
		}
		return nil
	}
}
