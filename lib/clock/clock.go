package clock

import (
	"fmt"
	"time"
)

const (
	layoutTimestamp = "2006-01-02T15:04:05Z"
	LayoutDate      = "2006-01-02"
)

func Now() string {
	return time.Now().UTC().Format(layoutTimestamp)
}

// Date truncates a moment to its calendar date in the moment's own location,
// returned as midnight UTC so that dates compare without timezone arithmetic
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in the given location
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(time.Now().In(loc))
}

// AddDays shifts a calendar date by n days
func AddDays(date time.Time, n int) time.Time {
	return Date(date).AddDate(0, 0, n)
}

// ParseDate accepts a plain calendar date or an RFC 3339 timestamp;
// timestamps keep the date they carry in their own offset
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(LayoutDate, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid date: %s", value)
	}
	return Date(t), nil
}

func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}
