package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

// FindOne returns an appointment of the caller's organization. Appointments of
// other organizations are reported as not found; another user's appointment
// is forbidden unless the caller is an admin.
func (s *Service) FindOne(ctx context.Context, caller model.Caller, appointmentID string) (model.AppointmentDetail, error) {
	if !validID(appointmentID) {
		return model.AppointmentDetail{}, ErrAppointmentNotFound
	}
	d, err := s.store.GetAppointmentDetail(ctx, caller.OrganizationID, appointmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.AppointmentDetail{}, ErrAppointmentNotFound
		}
		return model.AppointmentDetail{}, asInternal("load appointment", err)
	}
	if !caller.CanAccess(d.UserID) {
		return model.AppointmentDetail{}, ErrNoAccess
	}
	return d, nil
}

// FindAll lists appointments newest first. Admins see the whole organization
// only when adminView is set; everyone else sees their own. Rows whose service
// or user no longer resolves are dropped.
func (s *Service) FindAll(ctx context.Context, caller model.Caller, adminView bool) ([]model.AppointmentDetail, error) {
	f := storage.AppointmentFilter{OrganizationID: caller.OrganizationID}
	if !(caller.IsAdmin() && adminView) {
		f.UserID = caller.UserID
	}
	list, err := s.store.ListAppointmentDetails(ctx, f)
	if err != nil {
		return nil, asInternal("list appointments", err)
	}

	out := make([]model.AppointmentDetail, 0, len(list))
	for _, d := range list {
		if d.Service == nil || d.User == nil {
			s.logger.Warn("dropping appointment with missing relation",
				"appointment_id", d.ID,
				"has_service", d.Service != nil,
				"has_user", d.User != nil,
			)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// UpdateInput changes an appointment. Nil fields are left untouched; an empty
// Notes string clears the notes.
type UpdateInput struct {
	Status *model.Status
	Notes  *string
}

// Update applies in under the organization's booking lock. Only admins may
// move an appointment to CONFIRMED or COMPLETED; owners may cancel their own.
func (s *Service) Update(ctx context.Context, caller model.Caller, appointmentID string, in UpdateInput) (model.AppointmentDetail, error) {
	if !validID(appointmentID) {
		return model.AppointmentDetail{}, ErrAppointmentNotFound
	}
	var (
		updated model.Appointment
		from    model.Status
		changed bool
	)
	err := spanned(ctx, "booking.update_appointment", caller.OrganizationID, func(ctx context.Context) error {
		return s.store.InTx(ctx, caller.OrganizationID, func(ctx context.Context, tx storage.Tx) error {
			current, err := tx.GetAppointmentForUpdate(ctx, caller.OrganizationID, appointmentID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return ErrAppointmentNotFound
				}
				return err
			}
			if !caller.CanAccess(current.UserID) {
				return ErrNoAccess
			}
			if in.Status != nil && *in.Status != model.StatusCancelled && !caller.IsAdmin() {
				return ErrAdminOnly
			}
			updated, from = current, current.Status

			if in.Notes != nil {
				var notes *string
				if strings.TrimSpace(*in.Notes) != "" {
					notes = in.Notes
				}
				if updated, err = tx.UpdateAppointmentNotes(ctx, caller.OrganizationID, appointmentID, notes); err != nil {
					return err
				}
			}
			if in.Status != nil {
				to := *in.Status
				if !from.CanTransition(to) {
					return invalidTransition(from, to)
				}
				if updated, err = tx.UpdateAppointmentStatus(ctx, caller.OrganizationID, appointmentID, to); err != nil {
					return err
				}
				changed = true
			}
			return nil
		})
	})
	if err != nil {
		return model.AppointmentDetail{}, asInternal("update appointment", err)
	}

	d := s.detail(ctx, updated, nil)
	if changed {
		s.metrics.ObserveTransition(string(from), string(updated.Status))
		s.logger.Info("appointment status changed",
			"appointment_id", updated.ID,
			"organization_id", updated.OrganizationID,
			"from", from,
			"to", updated.Status,
		)
		if updated.Status == model.StatusConfirmed || updated.Status == model.StatusCancelled {
			if org, _, err := s.organization(ctx, caller.OrganizationID); err == nil {
				s.notify(ctx, d, org, updated.Status)
			} else {
				s.logger.Warn("notification skipped: organization lookup failed",
					"appointment_id", updated.ID, "err", err)
			}
		}
	}
	return d, nil
}

func (s *Service) UpdateStatus(ctx context.Context, caller model.Caller, appointmentID string, to model.Status) (model.AppointmentDetail, error) {
	return s.Update(ctx, caller, appointmentID, UpdateInput{Status: &to})
}

// Cancel moves a PENDING or CONFIRMED appointment to CANCELLED. The row is
// kept; its slot becomes bookable again.
func (s *Service) Cancel(ctx context.Context, caller model.Caller, appointmentID string) (model.AppointmentDetail, error) {
	return s.UpdateStatus(ctx, caller, appointmentID, model.StatusCancelled)
}

func (s *Service) UpdateNotes(ctx context.Context, caller model.Caller, appointmentID string, notes string) (model.AppointmentDetail, error) {
	return s.Update(ctx, caller, appointmentID, UpdateInput{Notes: &notes})
}

func invalidTransition(from, to model.Status) error {
	if from == to {
		return apperr.Invalid(fmt.Sprintf("Appointment is already %s", to))
	}
	if from.Terminal() {
		return apperr.Invalid(fmt.Sprintf("Cannot change the status of a %s appointment", from))
	}
	return apperr.Invalid(fmt.Sprintf("Cannot change appointment status from %s to %s", from, to))
}
