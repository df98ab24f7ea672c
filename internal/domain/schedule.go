package domain

import "time"

// NextFire returns the first instant strictly after now at which the
// wall clock in loc reads c. Days on which c does not exist (DST gap)
// resolve the way time.Date normalizes them.
func NextFire(now time.Time, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return next
}

// Due reports whether c matches the wall clock minute of now in loc.
func Due(now time.Time, c Clock, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return ClockAt(now.In(loc)) == c
}
