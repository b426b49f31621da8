package domain

import "time"

// Split partitions [first, last] into consecutive closed intervals of at most
// batchDays days. The last interval ends on last and may be shorter than a
// full batch. Both dates are truncated to calendar dates first.
func Split(first, last time.Time, batchDays int) ([]DateInterval, error) {
	if batchDays < 1 {
		return nil, invalidf("batch size must be at least 1 day, got %d", batchDays)
	}
	first, last = TruncateDate(first), TruncateDate(last)
	if first.After(last) {
		return nil, invalidf("first date %s is after last date %s",
			first.Format(DateLayout), last.Format(DateLayout))
	}

	total := daysBetween(first, last) + 1
	if batchDays >= total {
		return []DateInterval{{Start: first, End: last}}, nil
	}

	// batchDays < total from here on, so AddDate cannot overflow.
	out := make([]DateInterval, 0, (total+batchDays-1)/batchDays)

	start := first
	end := minDate(start.AddDate(0, 0, batchDays-1), last)
	for end.Before(last) {
		out = append(out, DateInterval{Start: start, End: end})
		start = start.AddDate(0, 0, batchDays)
		end = minDate(start.AddDate(0, 0, batchDays-1), last)
	}
	out = append(out, DateInterval{Start: start, End: last})
	return out, nil
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
