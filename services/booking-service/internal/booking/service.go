// Package booking implements slot availability, the booking transaction, the
// appointment lifecycle and the analytics report. Every operation takes the
// caller explicitly; nothing is read from ambient request state.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptbook/libs/events"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

const tracerName = "booking-service/booking"

var (
	ErrOrganizationNotFound = apperr.NotFound("Organization not found")
	ErrServiceNotFound      = apperr.NotFound("Service not found")
	ErrServiceInactive      = apperr.Invalid("Service is not active")
	ErrSlotTaken            = apperr.Invalid("This time slot is already booked. Please choose another time.")
	ErrClosedDay            = apperr.Invalid("Business is closed on this day")
	ErrOutsideHours         = apperr.Invalid("Appointment time is outside business hours")
	ErrAppointmentNotFound  = apperr.NotFound("Appointment not found")
	ErrNoAccess             = apperr.Forbidden("You do not have access to this appointment")
	ErrAdminOnly            = apperr.Forbidden("Admin access required")
	ErrInvalidDate          = apperr.Invalid("date must be formatted as YYYY-MM-DD")
	ErrMissingStart         = apperr.Invalid("start_time is required")
	ErrUnknownUser          = apperr.Forbidden("User is not registered with this organization")
	ErrUserConflict         = apperr.Conflict("User profile conflicts with an existing account")
)

// Store is the persistence the booking operations need. *storage.Store
// implements it.
type Store interface {
	GetOrganization(ctx context.Context, organizationID string) (model.Organization, error)
	GetService(ctx context.Context, organizationID, serviceID string) (model.Service, error)
	GetUser(ctx context.Context, organizationID, userID string) (model.UserSummary, error)
	GetHours(ctx context.Context, organizationID string, dayOfWeek int) (model.BusinessHours, bool, error)
	ListBusy(ctx context.Context, organizationID string, from, to time.Time) ([]interval.Interval, error)
	GetAppointmentDetail(ctx context.Context, organizationID, appointmentID string) (model.AppointmentDetail, error)
	ListAppointmentDetails(ctx context.Context, f storage.AppointmentFilter) ([]model.AppointmentDetail, error)
	InTx(ctx context.Context, organizationID string, fn func(ctx context.Context, tx storage.Tx) error) error
}

// Notifier receives post-commit notices. Errors are logged and never returned
// to the caller of a booking operation.
type Notifier interface {
	NotifyConfirmed(ctx context.Context, notice events.AppointmentNotice) error
	NotifyCancelled(ctx context.Context, notice events.AppointmentNotice) error
}

type Options struct {
	// HidePast drops slot starts earlier than Now from availability results.
	HidePast bool
	Now      func() time.Time
	Metrics  *metrics.BookingMetrics
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.BookingMetrics
	now      func() time.Time
	newID    func() string
	hidePast bool
}

func NewService(store Store, notifier Notifier, logger *slog.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
		newID:    func() string { return uuid.NewString() },
		hidePast: opts.HidePast,
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// organization loads the caller's organization and its timezone.
func (s *Service) organization(ctx context.Context, organizationID string) (model.Organization, *time.Location, error) {
	if !validID(organizationID) {
		return model.Organization{}, nil, ErrOrganizationNotFound
	}
	org, err := s.store.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Organization{}, nil, ErrOrganizationNotFound
		}
		return model.Organization{}, nil, apperr.Internal("load organization", err)
	}
	loc, err := org.Location()
	if err != nil {
		return model.Organization{}, nil, apperr.Internal("resolve organization timezone", err)
	}
	return org, loc, nil
}

func (s *Service) service(ctx context.Context, organizationID, serviceID string) (model.Service, error) {
	if !validID(serviceID) {
		return model.Service{}, ErrServiceNotFound
	}
	svc, err := s.store.GetService(ctx, organizationID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Service{}, ErrServiceNotFound
		}
		return model.Service{}, apperr.Internal("load service", err)
	}
	return svc, nil
}

// registered checks that a caller whose identity carries no profile already has
// a user row in their organization.
func (s *Service) registered(ctx context.Context, caller model.Caller) error {
	if !validID(caller.UserID) {
		return ErrUnknownUser
	}
	if _, err := s.store.GetUser(ctx, caller.OrganizationID, caller.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnknownUser
		}
		return apperr.Internal("load user", err)
	}
	return nil
}

// notice builds the notification payload for d, or reports false when the
// appointment has no user or service to address.
func notice(d model.AppointmentDetail, org model.Organization) (events.AppointmentNotice, bool) {
	if d.User == nil || d.Service == nil || d.User.Email == "" {
		return events.AppointmentNotice{}, false
	}
	name := d.User.FirstName
	if name == "" {
		name = d.User.DisplayName()
	}
	end := d.EndTime
	return events.AppointmentNotice{
		AppointmentID:  d.ID,
		OrganizationID: d.OrganizationID,
		Timezone:       org.Timezone,
		RecipientEmail: d.User.Email,
		RecipientName:  name,
		ServiceName:    d.Service.Name,
		StartTime:      d.StartTime,
		EndTime:        &end,
	}, true
}

// notify dispatches the notice for a committed transition into status.
// Failures are logged and counted, never returned.
func (s *Service) notify(ctx context.Context, d model.AppointmentDetail, org model.Organization, status model.Status) {
	if s.notifier == nil {
		return
	}
	n, ok := notice(d, org)
	if !ok {
		s.logger.Warn("notification skipped: appointment has no addressable user",
			"appointment_id", d.ID, "organization_id", d.OrganizationID)
		return
	}

	var err error
	kind := "confirmed"
	switch status {
	case model.StatusPending, model.StatusConfirmed:
		err = s.notifier.NotifyConfirmed(ctx, n)
	case model.StatusCancelled:
		kind = "cancelled"
		err = s.notifier.NotifyCancelled(ctx, n)
	default:
		return
	}
	if err != nil {
		s.metrics.ObserveNotifyFailure(kind)
		s.logger.Warn("notification failed",
			"kind", kind,
			"appointment_id", d.ID,
			"organization_id", d.OrganizationID,
			"start_time", d.StartTime,
			"err", err,
		)
	}
}

// detail reloads a committed appointment with its relations. When the reload
// fails the caller still gets the committed row.
func (s *Service) detail(ctx context.Context, a model.Appointment, svc *model.ServiceSummary) model.AppointmentDetail {
	d, err := s.store.GetAppointmentDetail(ctx, a.OrganizationID, a.ID)
	if err != nil {
		s.logger.Error("reload appointment after commit failed",
			"appointment_id", a.ID, "organization_id", a.OrganizationID, "err", err)
		return model.AppointmentDetail{Appointment: a, Service: svc}
	}
	return d
}

func asInternal(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(op, err)
}

// spanned runs fn inside a span named op tagged with the organization.
func spanned(ctx context.Context, op, organizationID string, fn func(ctx context.Context) error) error {
	ctx, span := otelx.StartSpan(ctx, tracerName, op, "organization_id", organizationID)
	err := fn(ctx)
	otelx.EndSpan(span, err)
	return err
}
