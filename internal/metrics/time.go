package metrics

import "time"

// Since returns the elapsed duration from t to now. Negative results are
// clamped to zero so callers never render a negative downtime.
func Since(t, now time.Time) time.Duration {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return d
}

// Between returns the duration from start to end. Negative results are
// clamped to zero.
func Between(start, end time.Time) time.Duration {
	return Since(start, end)
}

// IsOverdue reports whether due lies strictly before now.
func IsOverdue(due, now time.Time) bool {
	return due.Before(now)
}

// SameDay reports whether a and b fall on the same calendar day, compared in
// a's location so that a date filter ignores clock time consistently.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
