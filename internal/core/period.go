package core

import "time"

// MonthPeriod returns the first and last calendar day of the given month,
// as UTC midnights. Leap years and variable month lengths are handled by
// time.Date normalization (day zero of the next month).
func MonthPeriod(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// CurrentMonthPeriod returns the period of the current calendar month.
func CurrentMonthPeriod() (start, end time.Time) {
	now := time.Now().UTC()
	return MonthPeriod(now.Year(), now.Month())
}

// DaysLeft counts the days from ref through end, inclusive of both.
// It returns 0 when ref is past the period end, never a negative number.
func DaysLeft(end, ref time.Time) int {
	days := int(truncateToDay(end).Sub(truncateToDay(ref)).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
