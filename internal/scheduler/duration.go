package scheduler

import (
	"math"
	"time"
)

// DefaultHoursPerDay converts estimated hours into working days.
const DefaultHoursPerDay = 8

const secondsPerDay = 24 * 60 * 60

// Duration resolves how many whole days a task occupies: the span between
// its start and due dates when both exist, otherwise its estimate divided by
// hoursPerDay, otherwise one day. The result is never below 1.
func Duration(t *Task, hoursPerDay int) int {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}

	if t.StartDate != nil && t.DueDate != nil {
		days := int(math.Ceil(t.DueDate.Sub(*t.StartDate).Hours() / 24))
		return max(days, 1)
	}

	if t.EstimatedHours > 0 {
		days := int(math.Ceil(t.EstimatedHours / float64(hoursPerDay)))
		return max(days, 1)
	}

	return 1
}

// dayNumber maps a time onto whole days since the Unix epoch (UTC).
func dayNumber(t time.Time) int {
	return int(math.Floor(float64(t.UTC().Unix()) / secondsPerDay))
}

// dayDate is the inverse of dayNumber, at midnight UTC.
func dayDate(day int) time.Time {
	return time.Unix(int64(day)*secondsPerDay, 0).UTC()
}
