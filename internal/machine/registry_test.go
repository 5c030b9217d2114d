package machine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mouldtrack-backend/internal/fault"
)

type recordingNotifier struct {
	mu         sync.Mutex
	warnings   []string
	breakdowns []string
}

func (n *recordingNotifier) NotifyMaintenanceWarning(machineID, name string, ratio float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, machineID)
}

func (n *recordingNotifier) NotifyBreakdown(machineID, name, rootCause string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.breakdowns = append(n.breakdowns, machineID)
}

func (n *recordingNotifier) warningCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.warnings)
}

func newTestRegistry(t *testing.T, notifier Notifier, machines ...Machine) *Registry {
	t.Helper()
	opts := []Option{WithClock(func() time.Time { return time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC) })}
	if notifier != nil {
		opts = append(opts, WithNotifier(notifier))
	}
	r := NewRegistry(opts...)
	for _, m := range machines {
		require.NoError(t, r.Register(m))
	}
	return r
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Machine{ID: "MC-001", Status: StatusRunning, UtilizationLimit: 100000}))

	testCases := []struct {
		name string
		m    Machine
	}{
		{name: "missing id", m: Machine{Status: StatusRunning, UtilizationLimit: 1000}},
		{name: "duplicate id", m: Machine{ID: "MC-001", Status: StatusIdle, UtilizationLimit: 1000}},
		{name: "bad status", m: Machine{ID: "MC-002", Status: "Exploded", UtilizationLimit: 1000}},
		{name: "negative strokes", m: Machine{ID: "MC-003", Status: StatusIdle, StrokeCount: -1, UtilizationLimit: 1000}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tc.m), fault.ErrValidation)
		})
	}

	// A broken limit is accepted; only threshold evaluation is disabled.
	assert.NoError(t, r.Register(Machine{ID: "MC-004", Status: StatusRunning, UtilizationLimit: 0}))
}

func TestAutoMaintenanceTransitionFiresOnce(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{
		ID: "MC-001", Name: "Moulding Machine 1", Status: StatusRunning,
		StrokeCount: 97000, UtilizationLimit: 100000,
	})

	// 97,000 -> 99,000 crosses the 0.98 watermark.
	m, err := r.UpdateCounters("MC-001", 99000, 13.2)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, m.Status)

	// A second tick at 1.00 must not transition again or fail; the machine
	// stays in Maintenance until an operator releases it.
	m, err = r.UpdateCounters("MC-001", 100000, 12.8)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, m.Status)
}

func TestBoundaryRatioTriggersMaintenance(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{
		ID: "MC-001", Status: StatusRunning, StrokeCount: 0, UtilizationLimit: 100000,
	})

	m, err := r.UpdateCounters("MC-001", 98000, 13)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, m.Status, "ratio == 0.98 must trigger")
}

func TestMaintenanceWarningLatch(t *testing.T) {
	notifier := &recordingNotifier{}
	r := newTestRegistry(t, notifier, Machine{
		ID: "MC-002", Name: "Moulding Machine 2", Status: StatusRunning,
		StrokeCount: 94000, UtilizationLimit: 100000,
	})

	// Crossing 0.95 fires the warning once.
	_, err := r.UpdateCounters("MC-002", 95000, 13)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.warningCount())

	// Staying above the watermark must not repeat it every tick.
	_, err = r.UpdateCounters("MC-002", 95500, 13)
	require.NoError(t, err)
	_, err = r.UpdateCounters("MC-002", 96000, 13)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.warningCount())
}

func TestWarningRearmsAfterNewRunningInterval(t *testing.T) {
	notifier := &recordingNotifier{}
	r := newTestRegistry(t, notifier, Machine{
		ID: "MC-002", Status: StatusRunning, StrokeCount: 95000, UtilizationLimit: 100000,
	})

	_, err := r.UpdateCounters("MC-002", 95100, 13)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.warningCount())

	// Operator parks the machine and restarts it; the next interval above
	// the watermark warns again.
	_, err = r.SetStatus("MC-002", StatusIdle)
	require.NoError(t, err)
	_, err = r.SetStatus("MC-002", StatusRunning)
	require.NoError(t, err)

	_, err = r.UpdateCounters("MC-002", 95200, 13)
	require.NoError(t, err)
	assert.Equal(t, 2, notifier.warningCount())
}

func TestMisconfiguredLimitDisablesEvaluation(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{ID: "MC-009", Status: StatusRunning, UtilizationLimit: 0})

	// Counter updates still apply, no transition ever fires.
	m, err := r.UpdateCounters("MC-009", 500000, 13)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, m.Status)

	_, err = r.Utilization("MC-009")
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}

func TestStrokeCountMonotonicWhileRunning(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{
		ID: "MC-001", Status: StatusRunning, StrokeCount: 5000, UtilizationLimit: 100000,
	})

	_, err := r.UpdateCounters("MC-001", 4000, 13)
	assert.ErrorIs(t, err, fault.ErrValidation)

	m, err := r.Get("MC-001")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), m.StrokeCount, "rejected update must not mutate")
}

func TestOperatorTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "running to idle", from: StatusRunning, to: StatusIdle, allowed: true},
		{name: "idle to running", from: StatusIdle, to: StatusRunning, allowed: true},
		{name: "maintenance to running", from: StatusMaintenance, to: StatusRunning, allowed: true},
		{name: "maintenance to idle", from: StatusMaintenance, to: StatusIdle, allowed: true},
		{name: "running to maintenance is automatic only", from: StatusRunning, to: StatusMaintenance, allowed: false},
		{name: "operator cannot declare breakdown", from: StatusRunning, to: StatusBreakdown, allowed: false},
		{name: "operator cannot clear breakdown", from: StatusBreakdown, to: StatusRunning, allowed: false},
		{name: "no self transition", from: StatusIdle, to: StatusIdle, allowed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRegistry(t, nil, Machine{ID: "MC-001", Status: tc.from, UtilizationLimit: 100000})
			m, err := r.SetStatus("MC-001", tc.to)
			if !tc.allowed {
				assert.ErrorIs(t, err, fault.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, m.Status)
		})
	}
}

func TestLeavingMaintenanceRecordsService(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{ID: "MC-004", Status: StatusMaintenance, UtilizationLimit: 100000})

	m, err := r.SetStatus("MC-004", StatusRunning)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC), m.LastServiced)
}

func TestBreakdownRoundTrip(t *testing.T) {
	notifier := &recordingNotifier{}
	r := newTestRegistry(t, notifier, Machine{ID: "MC-003", Status: StatusRunning, UtilizationLimit: 200000})

	require.NoError(t, r.OnBreakdownReported("MC-003", "Hydraulic pump failure"))
	m, err := r.Get("MC-003")
	require.NoError(t, err)
	assert.Equal(t, StatusBreakdown, m.Status)
	assert.Equal(t, []string{"MC-003"}, notifier.breakdowns)

	require.NoError(t, r.OnBreakdownClosed("MC-003"))
	m, err = r.Get("MC-003")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, m.Status)
}

func TestUpdateHealthBounds(t *testing.T) {
	r := newTestRegistry(t, nil, Machine{ID: "MC-005", Status: StatusIdle, UtilizationLimit: 150000})

	m, err := r.UpdateHealth("MC-005", 87, 62)
	require.NoError(t, err)
	assert.Equal(t, 87, m.HealthScore)
	assert.Equal(t, 62, m.OilLevel)

	_, err = r.UpdateHealth("MC-005", 101, 50)
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = r.UpdateHealth("MC-005", 50, -2)
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = r.UpdateHealth("MC-404", 50, 50)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestStats(t *testing.T) {
	r := newTestRegistry(t, nil,
		Machine{ID: "MC-001", Status: StatusRunning, UtilizationLimit: 1},
		Machine{ID: "MC-002", Status: StatusRunning, UtilizationLimit: 1},
		Machine{ID: "MC-003", Status: StatusBreakdown, UtilizationLimit: 1},
		Machine{ID: "MC-004", Status: StatusMaintenance, UtilizationLimit: 1},
		Machine{ID: "MC-005", Status: StatusIdle, UtilizationLimit: 1},
	)

	assert.Equal(t, Stats{Running: 2, Breakdown: 1, Maintenance: 1, Idle: 1, Total: 5}, r.Stats())
}
