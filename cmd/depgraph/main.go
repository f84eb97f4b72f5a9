// Command depgraph manages task dependencies and answers scheduling
// questions over them: what blocks a task, what it impacts, and which tasks
// sit on the critical path.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/depgraph/internal/config"
	"github.com/aristath/depgraph/internal/engine"
	"github.com/aristath/depgraph/internal/events"
	"github.com/aristath/depgraph/internal/logging"
	"github.com/aristath/depgraph/internal/persistence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stderr)
	err := a.rootCmd().ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintf(os.Stderr, "Error: %v\n", cerr)
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand needs. It is populated by the root
// command's pre-run hook and released by close.
type app struct {
	configPath string
	dbPath     string
	jsonOut    bool
	logOut     io.Writer

	cfg         *config.Config
	globalPath  string
	projectPath string
	store       *persistence.SQLiteStore
	bus         *events.EventBus
	engine      *engine.Engine
	closers     []io.Closer
}

func newApp(logOut io.Writer) *app {
	return &app{logOut: logOut}
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "depgraph",
		Short: "Task dependency graph and critical path scheduling",
		Long: `depgraph links tasks with finish-to-start, start-to-start, finish-to-finish
and start-to-finish dependencies, refuses links that would create a cycle,
and computes start gating, impact chains and the critical path.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Project config file (default .depgraph/config.json)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides db_path)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(depCmd(a))
	rootCmd.AddCommand(chainCmd(a))
	rootCmd.AddCommand(impactCmd(a))
	rootCmd.AddCommand(canStartCmd(a))
	rootCmd.AddCommand(blockedCmd(a))
	rootCmd.AddCommand(criticalPathCmd(a))
	rootCmd.AddCommand(validateCmd(a))
	rootCmd.AddCommand(taskCmd(a))
	rootCmd.AddCommand(tuiCmd(a))

	return rootCmd
}

// open loads config, the logger and the store, and builds the engine.
func (a *app) open(cmd *cobra.Command) error {
	globalPath, projectPath, err := config.Paths()
	if err != nil {
		return err
	}
	if a.configPath != "" {
		projectPath = a.configPath
	}
	a.globalPath, a.projectPath = globalPath, projectPath

	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	logger, logCloser := logging.New(cfg, a.logOut)
	a.closers = append(a.closers, logCloser)
	ctx := logging.WithLogger(cmd.Context(), logger)
	cmd.SetContext(ctx)

	store, err := persistence.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.DBPath, err)
	}
	a.store = store

	a.bus = events.NewEventBus()
	a.engine = engine.New(store, store, engine.Options{
		Workflow:    cfg.Workflow,
		HoursPerDay: cfg.HoursPerDay,
		Bus:         a.bus,
	})

	logger.Debug("depgraph ready", "db", cfg.DBPath, "project", cfg.DefaultProject)
	return nil
}

// close releases whatever open acquired. It is safe to call more than once.
func (a *app) close() error {
	if a.bus != nil {
		a.bus.Close()
	}
	var firstErr error
	if a.store != nil {
		firstErr = a.store.Close()
		a.store = nil
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// project resolves a --project flag against the configured default.
func (a *app) project(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.DefaultProject
}
