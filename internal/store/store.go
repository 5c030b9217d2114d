package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/model"
	"mouldtrack-backend/internal/pm"
)

// Store defines the interface for all database operations. The live
// lifecycle state lives in memory; this layer persists master data, the
// inspection log, and the append-only archives.
type Store interface {
	DB() *gorm.DB

	// Machine master
	UpsertMachine(ctx context.Context, rec model.MachineRecord) error
	SaveMachineState(ctx context.Context, m machine.Machine) error
	ListMachineRecords(ctx context.Context) ([]model.MachineRecord, error)

	// Archives
	ArchiveBreakdown(ctx context.Context, ev breakdown.Event) error
	ArchivePMTask(ctx context.Context, t pm.Task) error
	ListBreakdownHistory(ctx context.Context, machineID string) ([]model.BreakdownHistory, error)
	ListPMTaskHistory(ctx context.Context, machineID string) ([]model.PMTaskHistory, error)

	// Master data
	UpsertAsset(ctx context.Context, a model.Asset) error
	ListAssets(ctx context.Context) ([]model.Asset, error)
	DeleteAsset(ctx context.Context, serialNo string) error
	UpsertMould(ctx context.Context, m model.Mould) error
	ListMoulds(ctx context.Context) ([]model.Mould, error)
	DeleteMould(ctx context.Context, id string) error
	UpsertTeamMember(ctx context.Context, tm model.TeamMember) error
	ListTeamMembers(ctx context.Context) ([]model.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error

	// Health checks
	RecordHealthCheck(ctx context.Context, hc model.HealthCheck) error
	ListHealthChecks(ctx context.Context, machineID string, limit int) ([]model.HealthCheck, error)
	MonthlyHealthAverages(ctx context.Context, months int, now time.Time) ([]HealthHistoryPoint, error)
}

// HealthHistoryPoint is one month of averaged health scores for the
// dashboard chart.
type HealthHistoryPoint struct {
	Month          string `json:"month"`
	AvgHealthScore int    `json:"avgHealthScore"`
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertMachine writes the machine-master row, replacing mutable columns on
// conflict.
func (s *gormStore) UpsertMachine(ctx context.Context, rec model.MachineRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "model", "status", "stroke_count", "utilization_limit",
			"health_score", "oil_level", "last_serviced", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert machine %s: %w", rec.ID, err)
	}
	return nil
}

// SaveMachineState flushes a live registry snapshot back to the master row.
func (s *gormStore) SaveMachineState(ctx context.Context, m machine.Machine) error {
	return s.UpsertMachine(ctx, RecordFromMachine(m))
}

func (s *gormStore) ListMachineRecords(ctx context.Context) ([]model.MachineRecord, error) {
	var recs []model.MachineRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list machine records: %w", err)
	}
	return recs, nil
}

// ArchiveBreakdown appends a closed event to the cold table. Replaying the
// same event id is a no-op, so archival retries are safe.
func (s *gormStore) ArchiveBreakdown(ctx context.Context, ev breakdown.Event) error {
	if ev.DowntimeEnd == nil {
		return fmt.Errorf("archive breakdown %s: event is still open", ev.ID)
	}
	row := model.BreakdownHistory{
		ID:               ev.ID,
		MachineID:        ev.MachineID,
		DowntimeStart:    ev.DowntimeStart,
		DowntimeEnd:      *ev.DowntimeEnd,
		RootCause:        ev.RootCause,
		CorrectiveAction: ev.CorrectiveAction,
		SparesUsed:       strings.Join(ev.SparesUsed, "\n"),
		Recurrence:       ev.Recurrence,
		ArchivedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("archive breakdown %s: %w", ev.ID, err)
	}
	return nil
}

// ArchivePMTask appends a completed ticket snapshot to the cold table.
func (s *gormStore) ArchivePMTask(ctx context.Context, t pm.Task) error {
	row := model.PMTaskHistory{
		TicketID:    t.TicketID,
		MachineID:   t.MachineID,
		Activity:    t.Activity,
		Frequency:   string(t.Frequency),
		Assignee:    t.Assignee,
		DueDate:     t.DueDate,
		Checklist:   strings.Join(t.Checklist, "\n"),
		CompletedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("archive pm task %s: %w", t.TicketID, err)
	}
	return nil
}

func (s *gormStore) ListBreakdownHistory(ctx context.Context, machineID string) ([]model.BreakdownHistory, error) {
	q := s.db.WithContext(ctx).Order("downtime_start DESC")
	if machineID != "" {
		q = q.Where("machine_id = ?", machineID)
	}
	var rows []model.BreakdownHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list breakdown history: %w", err)
	}
	return rows, nil
}

func (s *gormStore) ListPMTaskHistory(ctx context.Context, machineID string) ([]model.PMTaskHistory, error) {
	q := s.db.WithContext(ctx).Order("completed_at DESC")
	if machineID != "" {
		q = q.Where("machine_id = ?", machineID)
	}
	var rows []model.PMTaskHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pm task history: %w", err)
	}
	return rows, nil
}

func (s *gormStore) UpsertAsset(ctx context.Context, a model.Asset) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "serial_no"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "category", "status", "location", "purchase_date", "value",
			"service_interval_months", "next_service_date", "expiry_date", "updated_at",
		}),
	}).Create(&a).Error
	if err != nil {
		return fmt.Errorf("upsert asset %s: %w", a.SerialNo, err)
	}
	return nil
}

func (s *gormStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	var assets []model.Asset
	if err := s.db.WithContext(ctx).Order("serial_no").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

func (s *gormStore) DeleteAsset(ctx context.Context, serialNo string) error {
	res := s.db.WithContext(ctx).Delete(&model.Asset{SerialNo: serialNo})
	if res.Error != nil {
		return fmt.Errorf("delete asset %s: %w", serialNo, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) UpsertMould(ctx context.Context, m model.Mould) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"model", "oem", "stroke_life", "utilization_threshold", "updated_at",
		}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert mould %s: %w", m.ID, err)
	}
	return nil
}

func (s *gormStore) ListMoulds(ctx context.Context) ([]model.Mould, error) {
	var moulds []model.Mould
	if err := s.db.WithContext(ctx).Order("id").Find(&moulds).Error; err != nil {
		return nil, fmt.Errorf("list moulds: %w", err)
	}
	return moulds, nil
}

func (s *gormStore) DeleteMould(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Mould{ID: id})
	if res.Error != nil {
		return fmt.Errorf("delete mould %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) UpsertTeamMember(ctx context.Context, tm model.TeamMember) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "department", "updated_at"}),
	}).Create(&tm).Error
	if err != nil {
		return fmt.Errorf("upsert team member %s: %w", tm.ID, err)
	}
	return nil
}

func (s *gormStore) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := s.db.WithContext(ctx).Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

func (s *gormStore) DeleteTeamMember(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.TeamMember{ID: id})
	if res.Error != nil {
		return fmt.Errorf("delete team member %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) RecordHealthCheck(ctx context.Context, hc model.HealthCheck) error {
	if err := s.db.WithContext(ctx).Create(&hc).Error; err != nil {
		return fmt.Errorf("record health check for machine %s: %w", hc.MachineID, err)
	}
	return nil
}

func (s *gormStore) ListHealthChecks(ctx context.Context, machineID string, limit int) ([]model.HealthCheck, error) {
	q := s.db.WithContext(ctx).Order("submitted_at DESC")
	if machineID != "" {
		q = q.Where("machine_id = ?", machineID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var checks []model.HealthCheck
	if err := q.Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("list health checks: %w", err)
	}
	return checks, nil
}

// MonthlyHealthAverages aggregates health scores per calendar month over the
// trailing window. Aggregation happens in Go to stay portable across the
// sqlite and postgres dialects.
func (s *gormStore) MonthlyHealthAverages(ctx context.Context, months int, now time.Time) ([]HealthHistoryPoint, error) {
	if months <= 0 {
		months = 8
	}
	cutoff := now.AddDate(0, -months, 0)

	var checks []model.HealthCheck
	err := s.db.WithContext(ctx).
		Where("submitted_at >= ?", cutoff).
		Find(&checks).Error
	if err != nil {
		return nil, fmt.Errorf("monthly health averages: %w", err)
	}

	type bucket struct {
		sum   int
		count int
		key   string // YYYY-MM, for ordering
		label string
	}
	buckets := make(map[string]*bucket)
	for _, hc := range checks {
		ts := hc.SubmittedAt.UTC()
		key := ts.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, label: ts.Format("Jan")}
			buckets[key] = b
		}
		b.sum += hc.HealthScore
		b.count++
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key < ordered[j].key })

	points := make([]HealthHistoryPoint, 0, len(ordered))
	for _, b := range ordered {
		points = append(points, HealthHistoryPoint{
			Month:          b.label,
			AvgHealthScore: b.sum / b.count,
		})
	}
	return points, nil
}
