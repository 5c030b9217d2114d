package model

import "time"

// BreakdownHistory is the append-only archive of closed breakdown events
// (cold table). The live ledger stays in memory; rows land here when a
// ticket is verified and closed.
type BreakdownHistory struct {
	ID               string    `gorm:"primaryKey;size:64"`
	MachineID        string    `gorm:"index;not null"`
	DowntimeStart    time.Time `gorm:"not null;index"`
	DowntimeEnd      time.Time `gorm:"not null"`
	RootCause        string    `gorm:"size:256;not null"`
	CorrectiveAction string    `gorm:"size:1024"`
	SparesUsed       string    `gorm:"size:1024"` // newline-joined part list
	Recurrence       int       `gorm:"not null"`
	ArchivedAt       time.Time `gorm:"not null"`
}

// PMTaskHistory archives completed preventive-maintenance tickets.
type PMTaskHistory struct {
	TicketID    string    `gorm:"primaryKey;size:64"`
	MachineID   string    `gorm:"index;not null"`
	Activity    string    `gorm:"size:256;not null"`
	Frequency   string    `gorm:"size:16"`
	Assignee    string    `gorm:"size:128"`
	DueDate     time.Time `gorm:"not null"`
	Checklist   string    `gorm:"size:2048"` // newline-joined items
	CompletedAt time.Time `gorm:"not null;index"`
}
