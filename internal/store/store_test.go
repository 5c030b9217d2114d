package store

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/model"
	"mouldtrack-backend/internal/pm"
)

var testDBSeq atomic.Int64

// testDSN returns a uniquely named shared in-memory database, so every
// pooled connection sees the same schema and tests stay isolated.
func testDSN() string {
	return fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
}

// A helper function to create an in-memory database with the schema applied.
func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(testDSN()), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&model.MachineRecord{},
		&model.BreakdownHistory{},
		&model.PMTaskHistory{},
		&model.Asset{},
		&model.Mould{},
		&model.TeamMember{},
		&model.HealthCheck{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)

	return NewGormStore(db)
}

func TestGormStore_UpsertMachine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := model.MachineRecord{
		ID:               "M-01",
		Name:             "Press Line 1",
		Model:            "HX-2000",
		Status:           "Running",
		StrokeCount:      1000,
		UtilizationLimit: 100000,
		HealthScore:      90,
	}
	require.NoError(t, s.UpsertMachine(ctx, rec))

	// A second write with the same ID must replace, not duplicate.
	rec.StrokeCount = 2000
	rec.Status = "Idle"
	require.NoError(t, s.UpsertMachine(ctx, rec))

	recs, err := s.ListMachineRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(2000), recs[0].StrokeCount)
	assert.Equal(t, "Idle", recs[0].Status)
}

func TestGormStore_SaveMachineState_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := machine.Machine{
		ID:               "M-02",
		Name:             "Press Line 2",
		Status:           machine.StatusRunning,
		StrokeCount:      5000,
		UtilizationLimit: 80000,
		HealthScore:      75,
		OilLevel:         60,
	}
	require.NoError(t, s.SaveMachineState(ctx, m))

	recs, err := s.ListMachineRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got := MachineFromRecord(recs[0])
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Status, got.Status)
	assert.Equal(t, m.StrokeCount, got.StrokeCount)
	assert.Equal(t, m.HealthScore, got.HealthScore)
}

func TestGormStore_ArchiveBreakdown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	ev := breakdown.Event{
		ID:               "BD-001",
		MachineID:        "M-01",
		DowntimeStart:    start,
		DowntimeEnd:      &end,
		RootCause:        "Hydraulic leak",
		CorrectiveAction: "Replaced seal",
		SparesUsed:       []string{"Seal kit", "Hydraulic oil"},
		Status:           breakdown.StatusClosed,
		Recurrence:       2,
	}
	require.NoError(t, s.ArchiveBreakdown(ctx, ev))

	// Replaying the same event is a no-op.
	require.NoError(t, s.ArchiveBreakdown(ctx, ev))

	rows, err := s.ListBreakdownHistory(ctx, "M-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hydraulic leak", rows[0].RootCause)
	assert.Equal(t, "Seal kit\nHydraulic oil", rows[0].SparesUsed)
	assert.Equal(t, 2, rows[0].Recurrence)
}

func TestGormStore_ArchiveBreakdown_RejectsOpenEvent(t *testing.T) {
	s := newTestStore(t)

	ev := breakdown.Event{
		ID:            "BD-002",
		MachineID:     "M-01",
		DowntimeStart: time.Now(),
		RootCause:     "Motor fault",
		Status:        breakdown.StatusOpen,
	}
	err := s.ArchiveBreakdown(context.Background(), ev)
	assert.Error(t, err)
}

func TestGormStore_ArchivePMTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := pm.Task{
		TicketID:  "PM-001",
		MachineID: "M-01",
		Activity:  "Lubrication",
		Frequency: pm.FrequencyWeekly,
		Assignee:  "R. Patel",
		DueDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Checklist: []string{"Check oil level", "Grease bearings"},
	}
	require.NoError(t, s.ArchivePMTask(ctx, task))
	require.NoError(t, s.ArchivePMTask(ctx, task))

	rows, err := s.ListPMTaskHistory(ctx, "M-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lubrication", rows[0].Activity)
	assert.Equal(t, "Check oil level\nGrease bearings", rows[0].Checklist)
}

func TestGormStore_MasterData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertAsset(ctx, model.Asset{
		SerialNo: "AST-100", Name: "Forklift", Category: "Machinery", Status: "In Use",
	}))
	require.NoError(t, s.UpsertMould(ctx, model.Mould{
		ID: "MLD-7", Model: "Cavity-4", StrokeLife: 500000, UtilizationThreshold: 475000,
	}))
	require.NoError(t, s.UpsertTeamMember(ctx, model.TeamMember{
		ID: "T-1", Name: "A. Okafor", Role: "Maintenance Engineer",
	}))

	assets, err := s.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	moulds, err := s.ListMoulds(ctx)
	require.NoError(t, err)
	assert.Len(t, moulds, 1)

	members, err := s.ListTeamMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	require.NoError(t, s.DeleteAsset(ctx, "AST-100"))
	err = s.DeleteAsset(ctx, "AST-100")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = s.DeleteTeamMember(ctx, "no-such-member")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormStore_MonthlyHealthAverages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	checks := []model.HealthCheck{
		{MachineID: "M-01", InsertWear: "Good", CoolingCondition: "Good", CavityPolish: "Good", HealthScore: 90, OilLevel: 80, SubmittedAt: now.AddDate(0, -1, 0)},
		{MachineID: "M-02", InsertWear: "Fair", CoolingCondition: "Good", CavityPolish: "Fair", HealthScore: 70, OilLevel: 60, SubmittedAt: now.AddDate(0, -1, 2)},
		{MachineID: "M-01", InsertWear: "Good", CoolingCondition: "Good", CavityPolish: "Good", HealthScore: 95, OilLevel: 85, SubmittedAt: now},
		// Outside the window, must be ignored.
		{MachineID: "M-01", InsertWear: "Poor", CoolingCondition: "Poor", CavityPolish: "Poor", HealthScore: 10, OilLevel: 5, SubmittedAt: now.AddDate(-1, 0, 0)},
	}
	for _, hc := range checks {
		require.NoError(t, s.RecordHealthCheck(ctx, hc))
	}

	points, err := s.MonthlyHealthAverages(ctx, 3, now)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "Jul", points[0].Month)
	assert.Equal(t, 80, points[0].AvgHealthScore)
	assert.Equal(t, "Aug", points[1].Month)
	assert.Equal(t, 95, points[1].AvgHealthScore)
}

func TestGormStore_ListHealthChecks_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordHealthCheck(ctx, model.HealthCheck{
			MachineID: "M-01", InsertWear: "Good", CoolingCondition: "Good",
			CavityPolish: "Good", HealthScore: 80 + i, OilLevel: 70,
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := s.ListHealthChecks(ctx, "M-01", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	assert.Equal(t, 84, got[0].HealthScore)
}

// The error path is exercised against a mocked connection, matching how the
// postgres deployment surfaces failures.
func TestGormStore_ListMachineRecords_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machine_records"`)).
		WillReturnError(assert.AnError)

	s := NewGormStore(gormDB)
	_, err = s.ListMachineRecords(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
