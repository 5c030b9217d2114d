package machine

import (
	"log"
	"sort"
	"sync"
	"time"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/metrics"
)

// Notifier receives non-blocking lifecycle notifications. Implementations
// must not block the caller; the push worker pool dispatches onto a channel.
type Notifier interface {
	NotifyMaintenanceWarning(machineID, name string, ratio float64)
	NotifyBreakdown(machineID, name, rootCause string)
}

// entry pairs a machine record with its own lock so transitions for
// different machines never serialize against each other.
type entry struct {
	mu sync.Mutex
	m  Machine

	// warned latches the 0.95 warning for the current over-watermark
	// running interval so it fires at most once per interval.
	warned bool
	// limitReported suppresses repeated logging for a machine whose
	// utilization limit is misconfigured.
	limitReported bool
}

// Registry owns the live machine collection. All status transitions go
// through it; callers only ever see detached snapshots.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*entry

	notifier Notifier
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithNotifier wires lifecycle notifications to n.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// WithClock overrides the registry clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		machines: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a machine to the registry. The initial status is taken as
// configured; no status is forced. A non-positive utilization limit is
// accepted but disables threshold evaluation for that machine.
func (r *Registry) Register(m Machine) error {
	if m.ID == "" {
		return fault.Validationf("machine id is required")
	}
	if !m.Status.Valid() {
		return fault.Validationf("unknown machine status %q", m.Status)
	}
	if m.StrokeCount < 0 {
		return fault.Validationf("stroke count must be non-negative, got %d", m.StrokeCount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.machines[m.ID]; exists {
		return fault.Validationf("machine %s is already registered", m.ID)
	}
	if m.UtilizationLimit <= 0 {
		log.Printf("machine %s has a non-positive utilization limit (%d); threshold evaluation disabled", m.ID, m.UtilizationLimit)
	}
	r.machines[m.ID] = &entry{m: m}
	return nil
}

// Get returns a snapshot of the machine with the given id.
func (r *Registry) Get(id string) (Machine, error) {
	e, err := r.entry(id)
	if err != nil {
		return Machine{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m, nil
}

// Exists reports whether a machine with the given id is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.machines[id]
	return ok
}

// List returns snapshots of all machines, ordered by id.
func (r *Registry) List() []Machine {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.machines))
	for _, e := range r.machines {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Machine, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.m)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns machine counts per status.
func (r *Registry) Stats() Stats {
	var s Stats
	for _, m := range r.List() {
		s.Total++
		switch m.Status {
		case StatusRunning:
			s.Running++
		case StatusBreakdown:
			s.Breakdown++
		case StatusMaintenance:
			s.Maintenance++
		case StatusIdle:
			s.Idle++
		}
	}
	return s
}

// Utilization returns the machine's current utilization ratio. It fails with
// a configuration error when the machine's limit makes the ratio undefined.
func (r *Registry) Utilization(id string) (float64, error) {
	m, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return metrics.Utilization(m.StrokeCount, m.UtilizationLimit)
}

// UpdateCounters sets the machine's stroke count and cycle time, then applies
// the automatic transition rules. The stroke count may not decrease while the
// machine is running.
func (r *Registry) UpdateCounters(id string, strokeCount int64, cycleTime float64) (Machine, error) {
	e, err := r.entry(id)
	if err != nil {
		return Machine{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if strokeCount < 0 {
		return Machine{}, fault.Validationf("stroke count must be non-negative, got %d", strokeCount)
	}
	if e.m.Status == StatusRunning && strokeCount < e.m.StrokeCount {
		return Machine{}, fault.Validationf("stroke count for running machine %s may not decrease (%d -> %d)", id, e.m.StrokeCount, strokeCount)
	}

	e.m.StrokeCount = strokeCount
	if cycleTime > 0 {
		e.m.CycleTime = cycleTime
	}
	r.evaluateLocked(e)
	return e.m, nil
}

// evaluateLocked applies the utilization rules to e, which must be locked.
// Status is only re-derived here, on a counter change, never on reads.
func (r *Registry) evaluateLocked(e *entry) {
	if e.m.UtilizationLimit <= 0 {
		if !e.limitReported {
			log.Printf("skipping threshold evaluation for machine %s: non-positive utilization limit", e.m.ID)
			e.limitReported = true
		}
		return
	}
	if e.m.Status != StatusRunning {
		return
	}

	ratio := float64(e.m.StrokeCount) / float64(e.m.UtilizationLimit)
	if metrics.ThresholdCrossed(ratio, metrics.MaintenanceWatermark) {
		log.Printf("machine %s reached %.1f%% utilization, forcing maintenance", e.m.ID, ratio*100)
		e.m.Status = StatusMaintenance
		e.warned = false
		return
	}

	if metrics.ThresholdCrossed(ratio, metrics.WarnWatermark) {
		if !e.warned && r.notifier != nil {
			r.notifier.NotifyMaintenanceWarning(e.m.ID, e.m.Name, ratio)
		}
		e.warned = true
	} else {
		// Dropping back below the watermark re-arms the warning.
		e.warned = false
	}
}

// operatorTransitions lists the status changes an explicit operator action
// may perform. Breakdown is entered and left only through the ledger.
var operatorTransitions = map[Status][]Status{
	StatusRunning:     {StatusIdle},
	StatusIdle:        {StatusRunning},
	StatusMaintenance: {StatusRunning, StatusIdle},
}

// SetStatus performs an explicit operator transition. Leaving Maintenance
// records the service time.
func (r *Registry) SetStatus(id string, to Status) (Machine, error) {
	if !to.Valid() {
		return Machine{}, fault.Validationf("unknown machine status %q", to)
	}

	e, err := r.entry(id)
	if err != nil {
		return Machine{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	allowed := false
	for _, next := range operatorTransitions[e.m.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return Machine{}, fault.InvalidStatef("operator may not move machine %s from %s to %s", id, e.m.Status, to)
	}

	if e.m.Status == StatusMaintenance {
		e.m.LastServiced = r.now().UTC()
	}
	e.m.Status = to
	e.warned = false
	return e.m, nil
}

// UpdateHealth records an inspection's health score and oil level. Both are
// external inputs, never derived in the registry.
func (r *Registry) UpdateHealth(id string, healthScore, oilLevel int) (Machine, error) {
	if healthScore < 0 || healthScore > 100 {
		return Machine{}, fault.Validationf("health score must be within 0-100, got %d", healthScore)
	}
	if oilLevel < 0 || oilLevel > 100 {
		return Machine{}, fault.Validationf("oil level must be within 0-100, got %d", oilLevel)
	}

	e, err := r.entry(id)
	if err != nil {
		return Machine{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.m.HealthScore = healthScore
	e.m.OilLevel = oilLevel
	return e.m, nil
}

// OnBreakdownReported moves the machine into Breakdown in response to a new
// ledger event. A machine already down stays down.
func (r *Registry) OnBreakdownReported(id, rootCause string) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.m.Status != StatusBreakdown {
		e.m.Status = StatusBreakdown
		e.warned = false
	}
	machineName := e.m.Name
	e.mu.Unlock()

	if r.notifier != nil {
		r.notifier.NotifyBreakdown(id, machineName, rootCause)
	}
	return nil
}

// OnBreakdownClosed returns the machine to Running once its ticket is
// verified and closed. If an operator moved it elsewhere in the meantime the
// current status is kept.
func (r *Registry) OnBreakdownClosed(id string) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.m.Status == StatusBreakdown {
		e.m.Status = StatusRunning
	}
	return nil
}

func (r *Registry) entry(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.machines[id]
	if !ok {
		return nil, fault.NotFoundf("machine %s", id)
	}
	return e, nil
}
