package config

import "github.com/aristath/depgraph/internal/scheduler"

// Config is the top-level configuration.
type Config struct {
	DBPath         string             `json:"db_path"`                   // SQLite file holding edges and task snapshots
	Workflow       scheduler.Workflow `json:"workflow,omitempty"`        // Ordered statuses, last one terminal
	HoursPerDay    int                `json:"hours_per_day,omitempty"`   // Converts estimates into days
	DefaultProject string             `json:"default_project,omitempty"` // Used when --project is omitted
	LogFile        string             `json:"log_file,omitempty"`        // Rotated log file; empty logs to stderr
	LogLevel       string             `json:"log_level,omitempty"`       // debug, info, warn or error
}
