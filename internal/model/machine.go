package model

import "time"

// MachineRecord is the machine-master row. The live registry is seeded from
// these rows at startup and flushed back on registration and status changes.
type MachineRecord struct {
	ID               string `gorm:"primaryKey;size:32"`
	Name             string `gorm:"size:128;not null"`
	Model            string `gorm:"size:64"`
	Status           string `gorm:"size:16;not null"`
	StrokeCount      int64  `gorm:"not null"`
	UtilizationLimit int64  `gorm:"not null"`
	HealthScore      int
	OilLevel         int
	LastServiced     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
