package schedule

import "time"

// maxSearchYears bounds how far into the future Next will look before
// giving up and reporting no further activation, matching robfig/cron's
// Schedule contract ("once a years-long timeframe has passed it is not
// guaranteed any such time exists").
const maxSearchYears = 8

// Next returns the first instant strictly after t that satisfies every
// field of the schedule, or the zero Time if none exists within
// maxSearchYears. Spec implements robfig/cron/v3's Schedule interface via
// this method, so it can be registered directly on a cron.Cron runner.
func (s *Spec) Next(t time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	cur := t.In(loc).Truncate(time.Second).Add(time.Second)
	deadline := cur.AddDate(maxSearchYears, 0, 0)

	for cur.Before(deadline) {
		if !s.Year.match(cur.Year()) {
			cur = startOfYear(cur.Year()+1, loc)
			continue
		}
		if !s.Month.match(int(cur.Month())) {
			cur = startOfMonth(nextMonth(cur), loc)
			continue
		}
		if !s.dayMatches(cur) {
			cur = startOfDay(cur.AddDate(0, 0, 1), loc)
			continue
		}
		if !s.Hour.match(cur.Hour()) {
			cur = startOfHour(cur.Add(time.Hour), loc)
			continue
		}
		if !s.Minute.match(cur.Minute()) {
			cur = startOfMinute(cur.Add(time.Minute), loc)
			continue
		}
		if !s.Second.match(cur.Second()) {
			cur = cur.Add(time.Second)
			continue
		}
		return cur
	}
	return time.Time{}
}

// dayMatches reports whether cur's calendar day satisfies the day,
// day_of_week, and week fields. All three must agree; there is no
// cron-style OR between day-of-month and day-of-week.
func (s *Spec) dayMatches(cur time.Time) bool {
	if !s.Day.match(cur.Day()) {
		return false
	}
	if !s.Week.match(isoWeek(cur)) {
		return false
	}
	if s.DayOfWeek.isZero() {
		return true
	}
	wd := mondayIndexed(cur.Weekday())
	occurrence, isLast := weekdayOccurrenceInMonth(cur)
	return s.DayOfWeek.matchesDate(wd, occurrence, isLast)
}

// mondayIndexed converts Go's Sunday=0 weekday numbering to the
// Monday=0..Sunday=6 convention used throughout this package.
func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func isoWeek(t time.Time) int {
	_, wk := t.ISOWeek()
	return wk
}

// weekdayOccurrenceInMonth reports which occurrence (1-based) of t's
// weekday t is within its month, and whether it is the last such
// occurrence.
func weekdayOccurrenceInMonth(t time.Time) (occurrence int, isLast bool) {
	occurrence = (t.Day()-1)/7 + 1
	next := t.AddDate(0, 0, 7)
	isLast = next.Month() != t.Month()
	return occurrence, isLast
}

func startOfYear(year int, loc *time.Location) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
}

func nextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
}

func startOfMonth(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func startOfHour(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

func startOfMinute(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
