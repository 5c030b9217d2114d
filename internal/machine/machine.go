package machine

import "time"

// Status is the lifecycle state of a moulding machine.
type Status string

const (
	StatusRunning     Status = "Running"
	StatusBreakdown   Status = "Breakdown"
	StatusMaintenance Status = "Maintenance"
	StatusIdle        Status = "Idle"
)

// Valid reports whether s is one of the four recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusBreakdown, StatusMaintenance, StatusIdle:
		return true
	}
	return false
}

// Machine is a snapshot of a machine's live record. The registry owns the
// authoritative copy; snapshots handed to callers are detached values.
type Machine struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Model            string    `json:"model"`
	Status           Status    `json:"status"`
	StrokeCount      int64     `json:"strokeCount"`
	UtilizationLimit int64     `json:"utilizationLimit"`
	HealthScore      int       `json:"healthScore"`
	OilLevel         int       `json:"oilLevel"`
	LastServiced     time.Time `json:"lastServiced"`
	CycleTime        float64   `json:"cycleTime"`
}

// Stats aggregates machine counts per status for the dashboard cards.
type Stats struct {
	Running     int `json:"running"`
	Breakdown   int `json:"breakdown"`
	Maintenance int `json:"maintenance"`
	Idle        int `json:"idle"`
	Total       int `json:"total"`
}
