package availability

import (
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
)

// AvailableSlots returns slot start times within [windowStart, windowEnd) where a booking of
// length duration would not overlap any of the busy intervals. Candidates advance by step; a
// trailing slot that would end after windowEnd is dropped.
//
// Slots starting before now are skipped. Pass the zero time to keep past slots.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []interval.Interval, now time.Time) []time.Time {
	slots := []time.Time{}
	if duration <= 0 || step <= 0 {
		return slots
	}
	if !windowEnd.After(windowStart) {
		return slots
	}

	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(interval.Interval{Start: t, End: t.Add(duration)}, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

// ForDay computes the bookable starts of a service of durationMinutes inside the
// business window, stepping by the service duration.
func ForDay(window interval.Interval, durationMinutes int, busy []interval.Interval, now time.Time) []time.Time {
	d := time.Duration(durationMinutes) * time.Minute
	return AvailableSlots(window.Start, window.End, d, d, busy, now)
}

func overlapsAny(candidate interval.Interval, busy []interval.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
