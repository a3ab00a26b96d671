package booking

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// AvailableSlots lists the bookable start times of serviceID on date
// (YYYY-MM-DD in the organization's timezone). A closed day yields an empty
// slice. The result is recomputed from storage on every call.
func (s *Service) AvailableSlots(ctx context.Context, caller model.Caller, serviceID, date string) ([]time.Time, error) {
	_, loc, err := s.organization(ctx, caller.OrganizationID)
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, err
	}
	day, err := interval.ParseDate(date, loc)
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, ErrInvalidDate
	}
	svc, err := s.service(ctx, caller.OrganizationID, serviceID)
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, err
	}
	if !svc.IsActive {
		s.metrics.ObserveSlotQuery("error")
		return nil, ErrServiceInactive
	}

	h, found, err := s.store.GetHours(ctx, caller.OrganizationID, hours.Weekday(day, loc))
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, asInternal("load business hours", err)
	}
	if !hours.IsOpen(h, found) {
		s.metrics.ObserveSlotQuery("closed")
		return []time.Time{}, nil
	}
	window, err := hours.Window(h, day, loc)
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, asInternal("stored business hours are malformed", err)
	}

	whole := interval.Day(day, loc)
	busy, err := s.store.ListBusy(ctx, caller.OrganizationID, whole.Start, whole.End)
	if err != nil {
		s.metrics.ObserveSlotQuery("error")
		return nil, asInternal("list booked intervals", err)
	}

	var now time.Time
	if s.hidePast {
		now = s.now()
	}
	s.metrics.ObserveSlotQuery("open")
	return availability.ForDay(window, svc.DurationMinutes, busy, now), nil
}
