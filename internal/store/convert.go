package store

import (
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/model"
)

// RecordFromMachine maps a live registry snapshot to its master row.
func RecordFromMachine(m machine.Machine) model.MachineRecord {
	return model.MachineRecord{
		ID:               m.ID,
		Name:             m.Name,
		Model:            m.Model,
		Status:           string(m.Status),
		StrokeCount:      m.StrokeCount,
		UtilizationLimit: m.UtilizationLimit,
		HealthScore:      m.HealthScore,
		OilLevel:         m.OilLevel,
		LastServiced:     m.LastServiced,
	}
}

// MachineFromRecord maps a master row to a live registry machine.
func MachineFromRecord(rec model.MachineRecord) machine.Machine {
	return machine.Machine{
		ID:               rec.ID,
		Name:             rec.Name,
		Model:            rec.Model,
		Status:           machine.Status(rec.Status),
		StrokeCount:      rec.StrokeCount,
		UtilizationLimit: rec.UtilizationLimit,
		HealthScore:      rec.HealthScore,
		OilLevel:         rec.OilLevel,
		LastServiced:     rec.LastServiced,
	}
}
