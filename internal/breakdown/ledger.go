package breakdown

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"mouldtrack-backend/internal/fault"
)

// Status of a breakdown event. An event is Open from report until the
// operator verifies the repair and closes it; it is never mutated afterward.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Event is one breakdown record. DowntimeEnd is nil exactly while the event
// is Open.
type Event struct {
	ID               string     `json:"id"`
	MachineID        string     `json:"machineId"`
	DowntimeStart    time.Time  `json:"downtimeStart"`
	DowntimeEnd      *time.Time `json:"downtimeEnd"`
	RootCause        string     `json:"rootCause"`
	CorrectiveAction string     `json:"correctiveAction"`
	SparesUsed       []string   `json:"sparesUsed,omitempty"`
	Status           Status     `json:"status"`
	Recurrence       int        `json:"recurrence"`
}

func (e Event) clone() Event {
	out := e
	if e.DowntimeEnd != nil {
		end := *e.DowntimeEnd
		out.DowntimeEnd = &end
	}
	if e.SparesUsed != nil {
		out.SparesUsed = append([]string(nil), e.SparesUsed...)
	}
	return out
}

// MachineGate is the ledger's view of the machine registry: existence checks
// before mutation, and the two automatic transitions a ledger event drives.
type MachineGate interface {
	Exists(machineID string) bool
	OnBreakdownReported(machineID, rootCause string) error
	OnBreakdownClosed(machineID string) error
}

// Archiver persists a closed event outside the request path. Implementations
// must not block; the ledger fires and forgets.
type Archiver interface {
	ArchiveBreakdown(ev Event)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status    Status
	MachineID string
}

// Ledger is the append-only in-memory breakdown log.
type Ledger struct {
	mu     sync.Mutex
	events []*Event
	byID   map[string]*Event

	gate     MachineGate
	archiver Archiver
	now      func() time.Time
	newID    func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithArchiver wires closed-event archival to a.
func WithArchiver(a Archiver) Option {
	return func(l *Ledger) { l.archiver = a }
}

// WithClock overrides the ledger clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides event id generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger creates an empty ledger bound to the given machine gate.
func NewLedger(gate MachineGate, opts ...Option) *Ledger {
	l := &Ledger{
		byID:  make(map[string]*Event),
		gate:  gate,
		now:   time.Now,
		newID: func() string { return "BD-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Report appends a new Open event and moves the machine into Breakdown.
// Recurrence counts prior Closed events for the same machine and root cause,
// plus this one; Open duplicates are not counted.
func (l *Ledger) Report(machineID, rootCause, correctiveAction string, sparesUsed []string) (Event, error) {
	if rootCause == "" {
		return Event{}, fault.Validationf("root cause is required")
	}
	if machineID == "" {
		return Event{}, fault.Validationf("machine id is required")
	}
	if !l.gate.Exists(machineID) {
		return Event{}, fault.Validationf("unknown machine %s", machineID)
	}

	l.mu.Lock()
	recurrence := 1
	for _, ev := range l.events {
		if ev.MachineID == machineID && ev.RootCause == rootCause && ev.Status == StatusClosed {
			recurrence++
		}
	}
	ev := &Event{
		ID:               l.newID(),
		MachineID:        machineID,
		DowntimeStart:    l.now().UTC(),
		RootCause:        rootCause,
		CorrectiveAction: correctiveAction,
		SparesUsed:       append([]string(nil), sparesUsed...),
		Status:           StatusOpen,
		Recurrence:       recurrence,
	}
	l.events = append(l.events, ev)
	l.byID[ev.ID] = ev
	snapshot := ev.clone()
	l.mu.Unlock()

	if err := l.gate.OnBreakdownReported(machineID, rootCause); err != nil {
		// The machine vanished between the existence check and the
		// transition; the event stands, the transition is logged upstream.
		return snapshot, err
	}
	return snapshot, nil
}

// Close stamps the downtime end on an Open event and returns the machine to
// service. Closing a closed event fails and leaves the record untouched.
func (l *Ledger) Close(id string) (Event, error) {
	l.mu.Lock()
	ev, ok := l.byID[id]
	if !ok {
		l.mu.Unlock()
		return Event{}, fault.NotFoundf("breakdown event %s", id)
	}
	if ev.Status == StatusClosed {
		l.mu.Unlock()
		return Event{}, fault.InvalidStatef("breakdown event %s is already closed", id)
	}

	end := l.now().UTC()
	if end.Before(ev.DowntimeStart) {
		end = ev.DowntimeStart
	}
	ev.DowntimeEnd = &end
	ev.Status = StatusClosed
	snapshot := ev.clone()
	l.mu.Unlock()

	if err := l.gate.OnBreakdownClosed(snapshot.MachineID); err != nil {
		return snapshot, err
	}
	if l.archiver != nil {
		l.archiver.ArchiveBreakdown(snapshot)
	}
	return snapshot, nil
}

// Get returns the event with the given id.
func (l *Ledger) Get(id string) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev, ok := l.byID[id]
	if !ok {
		return Event{}, fault.NotFoundf("breakdown event %s", id)
	}
	return ev.clone(), nil
}

// List returns events matching the filter, oldest first.
func (l *Ledger) List(f Filter) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0, len(l.events))
	for _, ev := range l.events {
		if f.Status != "" && ev.Status != f.Status {
			continue
		}
		if f.MachineID != "" && ev.MachineID != f.MachineID {
			continue
		}
		out = append(out, ev.clone())
	}
	return out
}

// OpenCount returns the number of Open events, for the dashboard.
func (l *Ledger) OpenCount() int {
	return len(l.List(Filter{Status: StatusOpen}))
}
