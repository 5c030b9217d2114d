package pm

import (
	"time"

	"mouldtrack-backend/internal/metrics"
)

// Status of a preventive-maintenance task. Overdue exists both as a stored
// value and as a read-time derivation; EffectiveStatus reconciles the two.
type Status string

const (
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "In Progress"
	StatusOverdue    Status = "Overdue"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is a recognized task status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// Frequency of a recurring maintenance activity.
type Frequency string

const (
	FrequencyDaily     Frequency = "Daily"
	FrequencyWeekly    Frequency = "Weekly"
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnually  Frequency = "Annually"
)

// Valid reports whether f is a recognized frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// Task is a scheduled preventive-maintenance ticket. Status here is the
// stored status; consumers display EffectiveStatus(task, now).
type Task struct {
	TicketID  string    `json:"ticketId"`
	MachineID string    `json:"machineId"`
	Activity  string    `json:"activity"`
	Frequency Frequency `json:"frequency"`
	Assignee  string    `json:"assignee"`
	DueDate   time.Time `json:"dueDate"`
	Status    Status    `json:"status"`
	Checklist []string  `json:"checklist,omitempty"`
}

func (t Task) clone() Task {
	out := t
	if t.Checklist != nil {
		out.Checklist = append([]string(nil), t.Checklist...)
	}
	return out
}

// EffectiveStatus derives the status a consumer should display at the given
// instant. A stored Completed always wins; otherwise a past due date reads as
// Overdue regardless of the stored value. Pure read-time derivation: two
// callers at different instants may legitimately disagree.
func EffectiveStatus(t Task, now time.Time) Status {
	if t.Status == StatusCompleted {
		return StatusCompleted
	}
	if metrics.IsOverdue(t.DueDate, now) {
		return StatusOverdue
	}
	return t.Status
}
