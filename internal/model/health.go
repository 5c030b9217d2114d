package model

import "time"

// HealthCheck is one submitted mould inspection. The derived score feeds the
// machine registry's health fields; the raw assessment is kept for the
// quality table.
type HealthCheck struct {
	ID               int64  `gorm:"autoIncrement;primaryKey"`
	MachineID        string `gorm:"index;not null"`
	InsertWear       string `gorm:"size:64;not null"`
	CoolingCondition string `gorm:"size:64;not null"`
	CavityPolish     string `gorm:"size:64;not null"`
	Comments         string `gorm:"size:1024"`
	HealthScore      int    `gorm:"not null"`
	OilLevel         int    `gorm:"not null"`
	SubmittedAt      time.Time `gorm:"not null;index"`
}
