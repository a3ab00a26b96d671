package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

type CreateInput struct {
	ServiceID string
	StartTime time.Time
	Notes     *string
	// IdempotencyKey, when set, makes retries of the same request by the
	// same user return the first result instead of booking again.
	IdempotencyKey string
}

type CreateResult struct {
	Appointment model.AppointmentDetail
	// Replayed is true when IdempotencyKey matched an earlier booking.
	Replayed bool
}

// CreateAppointment books a PENDING appointment for the caller. Checks run in
// order: service exists, service active, no overlap, business hours. A caller
// with a profile has their user row created or refreshed in the same
// transaction; one without must already have a row. The
// overlap check and insert happen under the organization's booking lock, so
// two overlapping requests can never both succeed.
func (s *Service) CreateAppointment(ctx context.Context, caller model.Caller, in CreateInput) (CreateResult, error) {
	var res CreateResult
	err := spanned(ctx, "booking.create_appointment", caller.OrganizationID, func(ctx context.Context) error {
		var err error
		res, err = s.createAppointment(ctx, caller, in)
		return err
	})
	s.metrics.ObserveBooking(bookingOutcome(res, err))
	return res, err
}

func (s *Service) createAppointment(ctx context.Context, caller model.Caller, in CreateInput) (CreateResult, error) {
	if in.StartTime.IsZero() {
		return CreateResult{}, ErrMissingStart
	}
	org, loc, err := s.organization(ctx, caller.OrganizationID)
	if err != nil {
		return CreateResult{}, err
	}
	svc, err := s.service(ctx, caller.OrganizationID, in.ServiceID)
	if err != nil {
		return CreateResult{}, err
	}
	if !svc.IsActive {
		return CreateResult{}, ErrServiceInactive
	}
	profile, hasProfile := caller.Profile()
	if !hasProfile {
		if err := s.registered(ctx, caller); err != nil {
			return CreateResult{}, err
		}
	}

	slot := interval.Make(in.StartTime, svc.DurationMinutes)
	key := strings.TrimSpace(in.IdempotencyKey)
	notes := in.Notes
	if notes != nil && strings.TrimSpace(*notes) == "" {
		notes = nil
	}

	var (
		created    model.Appointment
		replayedID string
	)
	err = s.store.InTx(ctx, caller.OrganizationID, func(ctx context.Context, tx storage.Tx) error {
		if key != "" {
			id, found, err := tx.LookupIdempotencyKey(ctx, caller.OrganizationID, caller.UserID, key)
			if err != nil {
				return err
			}
			if found {
				replayedID = id
				return nil
			}
		}

		conflict, err := tx.HasConflict(ctx, caller.OrganizationID, slot.Start, slot.End)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}

		h, found, err := tx.GetBusinessHours(ctx, caller.OrganizationID, hours.Weekday(slot.Start, loc))
		if err != nil {
			return err
		}
		if !hours.IsOpen(h, found) {
			return ErrClosedDay
		}
		if !hours.Contains(h, slot.Start, slot.End, loc) {
			return ErrOutsideHours
		}

		if hasProfile {
			if err := tx.UpsertUser(ctx, caller.OrganizationID, profile, caller.Role); err != nil {
				if errors.Is(err, storage.ErrUserConflict) {
					return ErrUserConflict
				}
				return err
			}
		}

		created, err = tx.InsertAppointment(ctx, model.Appointment{
			ID:             s.newID(),
			OrganizationID: caller.OrganizationID,
			ServiceID:      svc.ID,
			UserID:         caller.UserID,
			StartTime:      slot.Start,
			EndTime:        slot.End,
			Status:         model.StatusPending,
			Notes:          notes,
		})
		if err != nil {
			if errors.Is(err, storage.ErrOverlap) {
				return ErrSlotTaken
			}
			return err
		}
		if key != "" {
			return tx.SaveIdempotencyKey(ctx, caller.OrganizationID, caller.UserID, key, created.ID)
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("create appointment rejected",
			"organization_id", caller.OrganizationID,
			"service_id", in.ServiceID,
			"start_time", slot.Start,
			"err", err,
		)
		return CreateResult{}, asInternal("create appointment", err)
	}

	if replayedID != "" {
		d, err := s.store.GetAppointmentDetail(ctx, caller.OrganizationID, replayedID)
		if err != nil {
			return CreateResult{}, asInternal("load replayed appointment", err)
		}
		return CreateResult{Appointment: d, Replayed: true}, nil
	}

	summary := svc.Summary()
	d := s.detail(ctx, created, &summary)
	s.notify(ctx, d, org, model.StatusPending)
	return CreateResult{Appointment: d}, nil
}

func bookingOutcome(res CreateResult, err error) string {
	switch {
	case err == nil && res.Replayed:
		return "replayed"
	case err == nil:
		return "created"
	case errors.Is(err, ErrSlotTaken):
		return "conflict"
	case errors.Is(err, ErrClosedDay):
		return "closed"
	case errors.Is(err, ErrOutsideHours):
		return "outside_hours"
	case errors.Is(err, ErrServiceInactive):
		return "inactive"
	case errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrOrganizationNotFound):
		return "not_found"
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrUserConflict):
		return "unknown_user"
	default:
		return "error"
	}
}
