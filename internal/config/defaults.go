package config

import (
	"path/filepath"

	"github.com/aristath/depgraph/internal/scheduler"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DBPath:      filepath.Join(".depgraph", "depgraph.db"),
		Workflow:    append(scheduler.Workflow(nil), scheduler.DefaultWorkflow...),
		HoursPerDay: scheduler.DefaultHoursPerDay,
		LogLevel:    "info",
	}
}
