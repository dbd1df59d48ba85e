package ledger

import "time"

// Window identifies a limit accounting period.
type Window string

const (
	WindowDay   Window = "DAY"
	WindowWeek  Window = "WEEK"
	WindowMonth Window = "MONTH"
)

// Windows are calendar-aligned in UTC: the day starts at 00:00 UTC, the
// week on Monday 00:00 UTC, the month on the 1st 00:00 UTC.

// Bounds returns the [start, end) interval containing now for the window.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch w {
	case WindowDay:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.Add(24 * time.Hour)
	case WindowWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started last Monday
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)
	case WindowMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	return now, now
}
