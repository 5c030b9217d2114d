package model

import "time"

// Asset is a tracked factory asset from the assets-management screen.
type Asset struct {
	SerialNo              string `gorm:"primaryKey;size:32"`
	Name                  string `gorm:"size:128;not null"`
	Category              string `gorm:"size:32;not null"` // Machinery/Tooling/Electronics/Facility
	Status                string `gorm:"size:32;not null"` // In Use/In Repair/In Storage/Decommissioned
	Location              string `gorm:"size:128"`
	PurchaseDate          time.Time
	Value                 float64
	ServiceIntervalMonths int
	NextServiceDate       *time.Time
	ExpiryDate            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Mould is a mould-master row: the tool whose stroke life bounds machine
// utilization.
type Mould struct {
	ID                   string `gorm:"primaryKey;size:32"`
	Model                string `gorm:"size:64;not null"`
	OEM                  string `gorm:"size:128"`
	StrokeLife           int64  `gorm:"not null"`
	UtilizationThreshold int64  `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TeamMember is a team-master row.
type TeamMember struct {
	ID         string `gorm:"primaryKey;size:32"`
	Name       string `gorm:"size:128;not null"`
	Role       string `gorm:"size:64;not null"` // Operator/Maintenance Engineer/Supervisor/QA
	Department string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
