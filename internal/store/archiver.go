package store

import (
	"context"
	"log"

	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/pm"
)

// archiveJob carries exactly one snapshot to persist.
type archiveJob struct {
	breakdown *breakdown.Event
	task      *pm.Task
}

// AsyncArchiver moves closed breakdowns and completed PM tasks into the cold
// tables without blocking the lifecycle operations that produced them. It
// satisfies both breakdown.Archiver and pm.Archiver.
type AsyncArchiver struct {
	store Store
	jobs  chan archiveJob
}

// NewAsyncArchiver creates an archiver with the given queue depth.
func NewAsyncArchiver(store Store, buffer int) *AsyncArchiver {
	if buffer <= 0 {
		buffer = 64
	}
	return &AsyncArchiver{
		store: store,
		jobs:  make(chan archiveJob, buffer),
	}
}

// Start launches the archival worker. It drains until ctx is cancelled.
func (a *AsyncArchiver) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case job := <-a.jobs:
				a.process(ctx, job)
			case <-ctx.Done():
				log.Println("Archiver shutting down")
				return
			}
		}
	}()
}

func (a *AsyncArchiver) process(ctx context.Context, job archiveJob) {
	switch {
	case job.breakdown != nil:
		if err := a.store.ArchiveBreakdown(ctx, *job.breakdown); err != nil {
			log.Printf("Error archiving breakdown %s: %v", job.breakdown.ID, err)
		}
	case job.task != nil:
		if err := a.store.ArchivePMTask(ctx, *job.task); err != nil {
			log.Printf("Error archiving pm task %s: %v", job.task.TicketID, err)
		}
	}
}

// ArchiveBreakdown queues a closed event. A full queue drops the job with a
// log line rather than blocking the close operation.
func (a *AsyncArchiver) ArchiveBreakdown(ev breakdown.Event) {
	select {
	case a.jobs <- archiveJob{breakdown: &ev}:
	default:
		log.Printf("Archive queue full, dropping breakdown %s", ev.ID)
	}
}

// ArchivePMTask queues a completed task snapshot.
func (a *AsyncArchiver) ArchivePMTask(t pm.Task) {
	select {
	case a.jobs <- archiveJob{task: &t}:
	default:
		log.Printf("Archive queue full, dropping pm task %s", t.TicketID)
	}
}
