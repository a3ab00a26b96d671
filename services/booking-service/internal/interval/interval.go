// Package interval holds the half-open time interval and wall-clock helpers
// shared by availability, booking and hours validation.
package interval

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	clockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func Make(start time.Time, durationMinutes int) Interval {
	return Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ClockTime formats t as zero-padded 24h "HH:mm" in t's own location.
func ClockTime(t time.Time) string {
	return t.Format(clockLayout)
}

func ParseClockTime(s string) (hour, minute int, err error) {
	if !clockPattern.MatchString(s) {
		return 0, 0, fmt.Errorf("invalid clock time %q, expected HH:mm", s)
	}
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	return hour, minute, nil
}

// At returns the instant at hour:minute on day's calendar date in loc.
func At(day time.Time, hour, minute int, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// ParseDate parses "YYYY-MM-DD" as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// Day returns the local calendar day containing t, as [midnight, next midnight).
// Its length is not always 24h across DST changes.
func Day(t time.Time, loc *time.Location) Interval {
	local := t.In(loc)
	start := At(local, 0, 0, loc)
	y, m, d := local.Date()
	return Interval{Start: start, End: time.Date(y, m, d+1, 0, 0, 0, 0, loc)}
}
