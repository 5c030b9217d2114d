package pm

import "time"

// filterKind tags the single active filter. Status and date filtering are
// mutually exclusive, so the filter is one tagged value rather than two
// independent fields.
type filterKind int

const (
	filterNone filterKind = iota
	filterByStatus
	filterByDate
)

// Filter selects tasks either by effective status or by due-date calendar
// day, never both. The zero value matches everything.
type Filter struct {
	kind   filterKind
	status Status
	date   time.Time
}

// FilterNone matches all tasks.
func FilterNone() Filter { return Filter{} }

// FilterByStatus matches tasks whose effective status equals s.
func FilterByStatus(s Status) Filter {
	return Filter{kind: filterByStatus, status: s}
}

// FilterByDate matches tasks due on the same calendar day as date, ignoring
// clock time.
func FilterByDate(date time.Time) Filter {
	return Filter{kind: filterByDate, date: date}
}
