package booking

import (
	"context"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/analytics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

var (
	ErrInvalidStartDate = apperr.Invalid("Invalid start_date format")
	ErrInvalidEndDate   = apperr.Invalid("Invalid end_date format")
)

// Analytics reports on the organization's appointments whose start lies in
// [startDate, endDate]. Either bound may be empty. Bounds are RFC3339 instants
// or YYYY-MM-DD dates in the organization's timezone; a bare end date covers
// that whole day.
func (s *Service) Analytics(ctx context.Context, caller model.Caller, startDate, endDate string) (analytics.Report, error) {
	if !caller.IsAdmin() {
		return analytics.Report{}, ErrAdminOnly
	}
	_, loc, err := s.organization(ctx, caller.OrganizationID)
	if err != nil {
		return analytics.Report{}, err
	}

	from, err := parseBound(startDate, loc, false)
	if err != nil {
		return analytics.Report{}, ErrInvalidStartDate
	}
	to, err := parseBound(endDate, loc, true)
	if err != nil {
		return analytics.Report{}, ErrInvalidEndDate
	}

	list, err := s.store.ListAppointmentDetails(ctx, storage.AppointmentFilter{
		OrganizationID: caller.OrganizationID,
		From:           from,
		To:             to,
	})
	if err != nil {
		return analytics.Report{}, asInternal("load appointments for analytics", err)
	}
	return analytics.Compute(list, s.now(), loc), nil
}

// parseBound returns the zero time for an empty bound.
func parseBound(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := interval.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return interval.Day(day, loc).End.Add(-time.Nanosecond), nil
	}
	return day, nil
}
