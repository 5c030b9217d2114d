package breakdown

import (
	"sort"
	"time"

	"mouldtrack-backend/internal/metrics"
)

// MTTR is the mean downtime of the Closed events in the slice. The second
// return is false when no Closed event exists; callers report "N/A" rather
// than zero.
func MTTR(events []Event) (time.Duration, bool) {
	var total time.Duration
	var closed int
	for _, ev := range events {
		if ev.Status != StatusClosed || ev.DowntimeEnd == nil {
			continue
		}
		total += metrics.Between(ev.DowntimeStart, *ev.DowntimeEnd)
		closed++
	}
	if closed == 0 {
		return 0, false
	}
	return total / time.Duration(closed), true
}

// MTBF is the mean gap between consecutive downtime starts in the slice,
// which must belong to a single machine. Undefined with fewer than two
// events.
func MTBF(events []Event) (time.Duration, bool) {
	if len(events) < 2 {
		return 0, false
	}
	starts := make([]time.Time, len(events))
	for i, ev := range events {
		starts[i] = ev.DowntimeStart
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	var total time.Duration
	for i := 1; i < len(starts); i++ {
		total += starts[i].Sub(starts[i-1])
	}
	return total / time.Duration(len(starts)-1), true
}

// AvgRecurrence is the mean recurrence across all events, open and closed.
// Undefined over an empty slice.
func AvgRecurrence(events []Event) (float64, bool) {
	if len(events) == 0 {
		return 0, false
	}
	var sum int
	for _, ev := range events {
		sum += ev.Recurrence
	}
	return float64(sum) / float64(len(events)), true
}

// KPIs are the ledger-wide aggregates behind the breakdown dashboard cards.
// A false Defined flag renders as "N/A".
type KPIs struct {
	MTTR           time.Duration
	MTTRDefined    bool
	MTBF           time.Duration
	MTBFDefined    bool
	AvgRecurrence  float64
	AvgRecDefined  bool
	OpenBreakdowns int
}

// KPIs computes the ledger-wide aggregates. MTBF is averaged over the
// machines for which it is defined.
func (l *Ledger) KPIs() KPIs {
	events := l.List(Filter{})

	var out KPIs
	out.MTTR, out.MTTRDefined = MTTR(events)
	out.AvgRecurrence, out.AvgRecDefined = AvgRecurrence(events)

	perMachine := make(map[string][]Event)
	for _, ev := range events {
		perMachine[ev.MachineID] = append(perMachine[ev.MachineID], ev)
		if ev.Status == StatusOpen {
			out.OpenBreakdowns++
		}
	}
	var total time.Duration
	var defined int
	for _, machineEvents := range perMachine {
		if mtbf, ok := MTBF(machineEvents); ok {
			total += mtbf
			defined++
		}
	}
	if defined > 0 {
		out.MTBF = total / time.Duration(defined)
		out.MTBFDefined = true
	}
	return out
}
