package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = time.DateOnly

// DateInterval is a closed range of calendar dates. Start <= End.
type DateInterval struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Days returns the number of dates covered, counting both ends.
func (d DateInterval) Days() int {
	return daysBetween(d.Start, d.End) + 1
}

func (d DateInterval) String() string {
	return fmt.Sprintf("%s..%s", d.Start.Format(DateLayout), d.End.Format(DateLayout))
}

// MarshalJSON renders both ends as ISO dates.
func (d DateInterval) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, `{"start_date":%q,"end_date":%q}`,
		d.Start.Format(DateLayout), d.End.Format(DateLayout)), nil
}

// Date builds a calendar date in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDate drops the time-of-day, keeping the calendar date as seen in UTC.
func TruncateDate(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse date %q: %w", ErrInvalidArgument, s, err)
	}
	return t, nil
}

const secondsPerDay = 24 * 60 * 60

// daysBetween counts whole days on Unix seconds; time.Duration saturates
// after about 292 years.
func daysBetween(from, to time.Time) int {
	return int((TruncateDate(to).Unix() - TruncateDate(from).Unix()) / secondsPerDay)
}
