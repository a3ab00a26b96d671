package hours

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Lookup reads the configured hours of one organization weekday. found is
// false when no row exists.
type Lookup interface {
	GetHours(ctx context.Context, organizationID string, dayOfWeek int) (h model.BusinessHours, found bool, err error)
}

var (
	ErrInvalidDay   = apperr.Invalid("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidTime  = apperr.Invalid("open_time and close_time must be HH:mm")
	ErrInvalidRange = apperr.Invalid("open_time must be before close_time")
)

func IsOpen(h model.BusinessHours, found bool) bool {
	return found && h.IsOpen
}

// Weekday returns t's day of week in loc, Sunday=0.
func Weekday(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// Window returns the open interval of h on day's calendar date in loc.
func Window(h model.BusinessHours, day time.Time, loc *time.Location) (interval.Interval, error) {
	oh, om, err := interval.ParseClockTime(h.OpenTime)
	if err != nil {
		return interval.Interval{}, err
	}
	ch, cm, err := interval.ParseClockTime(h.CloseTime)
	if err != nil {
		return interval.Interval{}, err
	}
	local := day.In(loc)
	return interval.Interval{
		Start: interval.At(local, oh, om, loc),
		End:   interval.At(local, ch, cm, loc),
	}, nil
}

// Contains reports whether [start, end) lies within h on start's local date.
// Comparison is on "HH:mm" strings in loc, so an end that falls on a later
// local date never fits.
func Contains(h model.BusinessHours, start, end time.Time, loc *time.Location) bool {
	ls, le := start.In(loc), end.In(loc)
	sy, sm, sd := ls.Date()
	ey, em, ed := le.Date()
	if sy != ey || sm != em || sd != ed {
		return false
	}
	return interval.ClockTime(ls) >= h.OpenTime && interval.ClockTime(le) <= h.CloseTime
}

// Validate checks a row before it is stored. Closed days only need a valid weekday.
func Validate(h model.BusinessHours) error {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	if !h.IsOpen {
		return nil
	}
	if _, _, err := interval.ParseClockTime(h.OpenTime); err != nil {
		return ErrInvalidTime
	}
	if _, _, err := interval.ParseClockTime(h.CloseTime); err != nil {
		return ErrInvalidTime
	}
	if h.OpenTime >= h.CloseTime {
		return ErrInvalidRange
	}
	return nil
}

// DefaultWeek is seeded for new organizations: Monday to Friday 09:00-17:00.
func DefaultWeek(organizationID string) []model.BusinessHours {
	week := make([]model.BusinessHours, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		open := d != time.Sunday && d != time.Saturday
		week = append(week, model.BusinessHours{
			OrganizationID: organizationID,
			DayOfWeek:      int(d),
			IsOpen:         open,
			OpenTime:       "09:00",
			CloseTime:      "17:00",
		})
	}
	return week
}
