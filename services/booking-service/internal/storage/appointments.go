package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

const appointmentColumns = `id::text, organization_id::text, service_id::text, user_id::text,
	start_time, end_time, status, notes, created_at, updated_at`

const detailSelect = `
	SELECT a.id::text, a.organization_id::text, a.service_id::text, a.user_id::text,
		a.start_time, a.end_time, a.status, a.notes, a.created_at, a.updated_at,
		s.id::text, s.name, s.duration_minutes, s.price::float8,
		u.id::text, u.email, u.first_name, u.last_name
	FROM appointments a
	LEFT JOIN services s ON s.id = a.service_id
	LEFT JOIN users u ON u.id = a.user_id`

// AppointmentFilter narrows ListAppointmentDetails. Zero values do not filter.
type AppointmentFilter struct {
	OrganizationID string
	UserID         string
	// From and To bound start_time inclusively.
	From time.Time
	To   time.Time
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a      model.Appointment
		status string
	)
	if err := row.Scan(
		&a.ID, &a.OrganizationID, &a.ServiceID, &a.UserID,
		&a.StartTime, &a.EndTime, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.Status(status)
	return a, nil
}

func scanDetail(row pgx.Row) (model.AppointmentDetail, error) {
	var (
		d         model.AppointmentDetail
		status    string
		serviceID *string
		svcName   *string
		duration  *int
		price     *float64
		userID    *string
		email     *string
		firstName *string
		lastName  *string
	)
	if err := row.Scan(
		&d.ID, &d.OrganizationID, &d.ServiceID, &d.UserID,
		&d.StartTime, &d.EndTime, &status, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&serviceID, &svcName, &duration, &price,
		&userID, &email, &firstName, &lastName,
	); err != nil {
		return model.AppointmentDetail{}, err
	}
	d.Status = model.Status(status)
	if serviceID != nil {
		d.Service = &model.ServiceSummary{
			ID:              *serviceID,
			Name:            deref(svcName),
			DurationMinutes: derefInt(duration),
			Price:           price,
		}
	}
	if userID != nil {
		d.User = &model.UserSummary{
			ID:        *userID,
			Email:     deref(email),
			FirstName: deref(firstName),
			LastName:  deref(lastName),
		}
	}
	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// ListBusy returns the intervals of non-cancelled appointments of the
// organization overlapping [from, to).
func (s *Store) ListBusy(ctx context.Context, organizationID string, from, to time.Time) ([]interval.Interval, error) {
	rows, err := s.db.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE organization_id = $1
			AND status <> 'CANCELLED'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
	`, organizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}
	defer rows.Close()

	var out []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointmentDetail(ctx context.Context, organizationID, appointmentID string) (model.AppointmentDetail, error) {
	row := s.db.QueryRow(ctx, detailSelect+`
		WHERE a.id = $1 AND a.organization_id = $2
	`, appointmentID, organizationID)
	d, err := scanDetail(row)
	if err != nil {
		return model.AppointmentDetail{}, notFound("load appointment", err)
	}
	return d, nil
}

// ListAppointmentDetails returns matching appointments, newest start first.
func (s *Store) ListAppointmentDetails(ctx context.Context, f AppointmentFilter) ([]model.AppointmentDetail, error) {
	where := []string{"a.organization_id = $1"}
	args := []any{f.OrganizationID}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("a.start_time >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("a.start_time <= $%d", len(args)))
	}

	rows, err := s.db.Query(ctx, detailSelect+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY a.start_time DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []model.AppointmentDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
