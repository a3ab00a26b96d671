package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrOverlap   = errors.New("storage: appointment overlaps an existing booking")
	ErrDuplicate = errors.New("storage: duplicate key")
	// ErrUserConflict means the user id belongs to another organization or the
	// email is held by another user of the organization.
	ErrUserConflict = errors.New("storage: user conflicts with an existing account")
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the set of reads and writes a booking or lifecycle change performs
// while holding the organization's booking lock.
type Tx interface {
	HasConflict(ctx context.Context, organizationID string, start, end time.Time) (bool, error)
	GetBusinessHours(ctx context.Context, organizationID string, dayOfWeek int) (model.BusinessHours, bool, error)
	InsertAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	GetAppointmentForUpdate(ctx context.Context, organizationID, appointmentID string) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, organizationID, appointmentID string, status model.Status) (model.Appointment, error)
	UpdateAppointmentNotes(ctx context.Context, organizationID, appointmentID string, notes *string) (model.Appointment, error)
	LookupIdempotencyKey(ctx context.Context, organizationID, userID, key string) (appointmentID string, found bool, err error)
	SaveIdempotencyKey(ctx context.Context, organizationID, userID, key, appointmentID string) error
	UpsertUser(ctx context.Context, organizationID string, u model.UserSummary, role model.Role) error
}

type Store struct {
	db db.DB
}

func NewStore(conn db.DB) *Store {
	return &Store{db: conn}
}

// InTx runs fn in a transaction holding a transaction-scoped advisory lock
// keyed by organizationID, serialising bookings of one organization across
// all booking-service instances.
func (s *Store) InTx(ctx context.Context, organizationID string, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, organizationID); err != nil {
			return fmt.Errorf("acquire booking lock: %w", err)
		}
		return fn(ctx, &txStore{q: tx})
	})
}

type txStore struct {
	q querier
}

func (t *txStore) HasConflict(ctx context.Context, organizationID string, start, end time.Time) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE organization_id = $1
				AND status <> 'CANCELLED'
				AND start_time < $3
				AND end_time > $2
		)
	`, organizationID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check conflicts: %w", err)
	}
	return exists, nil
}

func (t *txStore) GetBusinessHours(ctx context.Context, organizationID string, dayOfWeek int) (model.BusinessHours, bool, error) {
	return getBusinessHours(ctx, t.q, organizationID, dayOfWeek)
}

func (t *txStore) InsertAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO appointments
			(id, organization_id, service_id, user_id, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.OrganizationID, a.ServiceID, a.UserID, a.StartTime, a.EndTime, string(a.Status), a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsExclusionViolation(err) {
			return model.Appointment{}, ErrOverlap
		}
		return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}
	return a, nil
}

func (t *txStore) GetAppointmentForUpdate(ctx context.Context, organizationID, appointmentID string) (model.Appointment, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, appointmentID, organizationID)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFound("load appointment", err)
	}
	return a, nil
}

func (t *txStore) UpdateAppointmentStatus(ctx context.Context, organizationID, appointmentID string, status model.Status) (model.Appointment, error) {
	row := t.q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+appointmentColumns,
		appointmentID, organizationID, string(status))
	a, err := scanAppointment(row)
	if err != nil {
		if db.IsExclusionViolation(err) {
			return model.Appointment{}, ErrOverlap
		}
		return model.Appointment{}, notFound("update appointment status", err)
	}
	return a, nil
}

func (t *txStore) UpdateAppointmentNotes(ctx context.Context, organizationID, appointmentID string, notes *string) (model.Appointment, error) {
	row := t.q.QueryRow(ctx, `
		UPDATE appointments
		SET notes = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+appointmentColumns,
		appointmentID, organizationID, notes)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFound("update appointment notes", err)
	}
	return a, nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound and wraps everything else with op.
func notFound(op string, err error) error {
	if db.IsNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
