package pm

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/metrics"
)

// MachineDirectory is the scheduler's view of the machine registry.
type MachineDirectory interface {
	Exists(machineID string) bool
}

// Archiver persists a completed task snapshot outside the request path.
type Archiver interface {
	ArchivePMTask(t Task)
}

// Scheduler owns the preventive-maintenance task collection. Tickets are
// never deleted; completion is terminal.
type Scheduler struct {
	mu    sync.Mutex
	tasks []*Task
	byID  map[string]*Task

	machines MachineDirectory
	archiver Archiver
	now      func() time.Time
	newID    func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithArchiver wires completed-task archival to a.
func WithArchiver(a Archiver) Option {
	return func(s *Scheduler) { s.archiver = a }
}

// WithClock overrides the scheduler clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithTicketGenerator overrides ticket id generation, for tests.
func WithTicketGenerator(newID func() string) Option {
	return func(s *Scheduler) { s.newID = newID }
}

// NewScheduler creates an empty scheduler bound to the machine directory.
func NewScheduler(machines MachineDirectory, opts ...Option) *Scheduler {
	s := &Scheduler{
		byID:     make(map[string]*Task),
		machines: machines,
		now:      time.Now,
		newID:    newTicketID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTicketID returns a globally unique ticket id whose uuid-v7 core keeps
// tickets sortable by creation time.
func newTicketID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "PM-" + id.String()
}

// Schedule creates a new ticket in Scheduled state.
func (s *Scheduler) Schedule(machineID, activity string, frequency Frequency, assignee string, dueDate time.Time, checklist []string) (Task, error) {
	if machineID == "" {
		return Task{}, fault.Validationf("machine id is required")
	}
	if !s.machines.Exists(machineID) {
		return Task{}, fault.Validationf("unknown machine %s", machineID)
	}
	if activity == "" {
		return Task{}, fault.Validationf("activity is required")
	}
	if !frequency.Valid() {
		return Task{}, fault.Validationf("unknown frequency %q", frequency)
	}
	if dueDate.IsZero() {
		return Task{}, fault.Validationf("due date is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Task{
		TicketID:  s.newID(),
		MachineID: machineID,
		Activity:  activity,
		Frequency: frequency,
		Assignee:  assignee,
		DueDate:   dueDate,
		Status:    StatusScheduled,
		Checklist: append([]string(nil), checklist...),
	}
	s.tasks = append(s.tasks, t)
	s.byID[t.TicketID] = t
	return t.clone(), nil
}

// MarkCompleted transitions a ticket to Completed. Allowed from any
// non-terminal stored status; Completed is terminal and a second completion
// fails without mutation.
func (s *Scheduler) MarkCompleted(ticketID string) (Task, error) {
	s.mu.Lock()
	t, ok := s.byID[ticketID]
	if !ok {
		s.mu.Unlock()
		return Task{}, fault.NotFoundf("pm task %s", ticketID)
	}
	if t.Status == StatusCompleted {
		s.mu.Unlock()
		return Task{}, fault.InvalidStatef("pm task %s is already completed", ticketID)
	}
	t.Status = StatusCompleted
	snapshot := t.clone()
	s.mu.Unlock()

	if s.archiver != nil {
		s.archiver.ArchivePMTask(snapshot)
	}
	return snapshot, nil
}

// MarkInProgress moves a Scheduled (or effectively Overdue) ticket into
// In Progress.
func (s *Scheduler) MarkInProgress(ticketID string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[ticketID]
	if !ok {
		return Task{}, fault.NotFoundf("pm task %s", ticketID)
	}
	if t.Status == StatusCompleted {
		return Task{}, fault.InvalidStatef("pm task %s is already completed", ticketID)
	}
	if t.Status == StatusInProgress {
		return Task{}, fault.InvalidStatef("pm task %s is already in progress", ticketID)
	}
	t.Status = StatusInProgress
	return t.clone(), nil
}

// Get returns the ticket with the given id.
func (s *Scheduler) Get(ticketID string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[ticketID]
	if !ok {
		return Task{}, fault.NotFoundf("pm task %s", ticketID)
	}
	return t.clone(), nil
}

// List returns tasks matching the filter, in scheduling order. Status
// filtering matches the effective status at now, not the stored one.
func (s *Scheduler) List(f Filter, now time.Time) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch f.kind {
		case filterByStatus:
			if EffectiveStatus(*t, now) != f.status {
				continue
			}
		case filterByDate:
			if !metrics.SameDay(f.date, t.DueDate) {
				continue
			}
		}
		out = append(out, t.clone())
	}
	return out
}

// PendingCount returns the number of tasks not yet completed, for the
// dashboard.
func (s *Scheduler) PendingCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, t := range s.tasks {
		if EffectiveStatus(*t, now) != StatusCompleted {
			n++
		}
	}
	return n
}

// StatusCounts aggregates effective statuses at now, for the PM chart.
func (s *Scheduler) StatusCounts(now time.Time) map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Status]int, 4)
	for _, t := range s.tasks {
		counts[EffectiveStatus(*t, now)]++
	}
	return counts
}
