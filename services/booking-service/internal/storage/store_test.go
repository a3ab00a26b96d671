package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orgID   = "9f6a3c1e-2b1d-4c55-9d0e-1a2b3c4d5e6f"
	apptID  = "0c1d2e3f-4a5b-4c6d-8e7f-8091a2b3c4d5"
	svcID   = "5b0f7c4a-6d2e-4f1a-b3c8-9e7d6c5b4a39"
	userID  = "7e8f9a0b-1c2d-4e3f-a4b5-c6d7e8f9a0b1"
	hoursID = "3a4b5c6d-7e8f-4a0b-9c1d-2e3f4a5b6c7d"
)

var apptCols = []string{"id", "organization_id", "service_id", "user_id", "start_time", "end_time",
	"status", "notes", "created_at", "updated_at"}

func strp(s string) *string { return &s }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestInTxTakesOrganizationLockFirst(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs(orgID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(orgID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	errTaken := errors.New("taken")
	err := NewStore(mock).InTx(context.Background(), orgID, func(ctx context.Context, tx Tx) error {
		conflict, err := tx.HasConflict(ctx, orgID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return errTaken
		}
		return nil
	})
	require.ErrorIs(t, err, errTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAppointmentMapsExclusionViolation(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(orgID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(apptID, orgID, svcID, userID, start, start.Add(time.Hour), "PENDING", (*string)(nil)).
		WillReturnError(&pgconn.PgError{Code: db.SQLStateExclusionViolation})
	mock.ExpectRollback()

	err := NewStore(mock).InTx(context.Background(), orgID, func(ctx context.Context, tx Tx) error {
		_, err := tx.InsertAppointment(ctx, model.Appointment{
			ID: apptID, OrganizationID: orgID, ServiceID: svcID, UserID: userID,
			StartTime: start, EndTime: start.Add(time.Hour), Status: model.StatusPending,
		})
		return err
	})
	require.ErrorIs(t, err, ErrOverlap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusReturnsRow(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(orgID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(apptID, orgID, "CONFIRMED").
		WillReturnRows(pgxmock.NewRows(apptCols).
			AddRow(apptID, orgID, svcID, userID, start, start.Add(time.Hour), "CONFIRMED", strp("window seat"), now, now))
	mock.ExpectCommit()

	var got model.Appointment
	err := NewStore(mock).InTx(context.Background(), orgID, func(ctx context.Context, tx Tx) error {
		var err error
		got, err = tx.UpdateAppointmentStatus(ctx, orgID, apptID, model.StatusConfirmed)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "window seat", *got.Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServiceOtherOrganizationIsNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM services").
		WithArgs(svcID, orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "name", "description", "duration_minutes",
			"price", "is_active", "created_at", "updated_at"}))

	_, err := NewStore(mock).GetService(context.Background(), orgID, svcID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHoursMissingRowIsClosed(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM business_hours").
		WithArgs(orgID, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "day_of_week", "is_open", "open_time", "close_time"}))

	_, found, err := NewStore(mock).GetHours(context.Background(), orgID, 0)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointmentDetailsFiltersAndJoins(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := time.Now()
	price := 25.0
	duration := 30

	cols := append(append([]string{}, apptCols...),
		"service_id", "name", "duration_minutes", "price", "uid", "email", "first_name", "last_name")
	mock.ExpectQuery(regexp.QuoteMeta("a.organization_id = $1 AND a.user_id = $2")).
		WithArgs(orgID, userID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(apptID, orgID, svcID, userID, start, start.Add(30*time.Minute), "PENDING", nil, now, now,
				strp(svcID), strp("Cut"), &duration, &price, strp(userID), strp("ann@example.com"), strp("Ann"), strp("Lee")).
			AddRow(apptID, orgID, svcID, userID, start, start.Add(30*time.Minute), "CANCELLED", nil, now, now,
				nil, nil, nil, nil, nil, nil, nil, nil))

	got, err := NewStore(mock).ListAppointmentDetails(context.Background(), AppointmentFilter{
		OrganizationID: orgID,
		UserID:         userID,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Service)
	assert.Equal(t, "Cut", got[0].Service.Name)
	assert.Equal(t, 30, got[0].Service.DurationMinutes)
	require.NotNil(t, got[0].User)
	assert.Equal(t, "Ann Lee", got[0].User.DisplayName())
	assert.Nil(t, got[1].Service)
	assert.Nil(t, got[1].User)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointmentDetailsDateRange(t *testing.T) {
	mock := newMock(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("a.start_time >= $2 AND a.start_time <= $3")).
		WithArgs(orgID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	got, err := NewStore(mock).ListAppointmentDetails(context.Background(), AppointmentFilter{
		OrganizationID: orgID, From: from, To: to,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBusinessHoursUnknownID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("DELETE FROM business_hours").
		WithArgs(hoursID, orgID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := NewStore(mock).DeleteBusinessHours(context.Background(), orgID, hoursID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationSlugCollision(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO organizations").
		WithArgs(orgID, "Acme Dental", "acme-dental", "UTC").
		WillReturnError(&pgconn.PgError{Code: db.SQLStateUniqueViolation})
	mock.ExpectRollback()

	_, err := NewStore(mock).CreateOrganization(context.Background(), model.Organization{
		ID: orgID, Name: "Acme Dental", Slug: "acme-dental", Timezone: "UTC",
	}, nil, nil)
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyKeyLookup(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(orgID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("FROM booking_idempotency_keys").
		WithArgs(orgID, userID, "key-1").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}).AddRow(apptID))
	mock.ExpectCommit()

	var (
		got   string
		found bool
	)
	err := NewStore(mock).InTx(context.Background(), orgID, func(ctx context.Context, tx Tx) error {
		var err error
		got, found, err = tx.LookupIdempotencyKey(ctx, orgID, userID, "key-1")
		return err
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, apptID, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationRegistersOwner(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO organizations").
		WithArgs(orgID, "Acme Dental", "acme-dental", "UTC").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("INSERT INTO users").
		WithArgs(userID, orgID, "owner@example.com", "Olive", "", "ADMIN").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	org, err := NewStore(mock).CreateOrganization(context.Background(), model.Organization{
		ID: orgID, Name: "Acme Dental", Slug: "acme-dental", Timezone: "UTC",
	}, nil, &model.UserSummary{ID: userID, Email: "owner@example.com", FirstName: "Olive"})
	require.NoError(t, err)
	assert.Equal(t, now, org.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUser(t *testing.T) {
	u := model.UserSummary{ID: userID, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	cases := []struct {
		name    string
		result  pgconn.CommandTag
		err     error
		wantErr error
	}{
		{name: "inserted or refreshed", result: pgxmock.NewResult("INSERT", 1)},
		{name: "owned by another organization", result: pgxmock.NewResult("INSERT", 0), wantErr: ErrUserConflict},
		{name: "email taken", err: &pgconn.PgError{Code: db.SQLStateUniqueViolation}, wantErr: ErrUserConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBegin()
			mock.ExpectExec("pg_advisory_xact_lock").WithArgs(orgID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
			exec := mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
				WithArgs(userID, orgID, "ada@example.com", "Ada", "Lovelace", "USER")
			if tc.err != nil {
				exec.WillReturnError(tc.err)
			} else {
				exec.WillReturnResult(tc.result)
			}
			if tc.wantErr != nil {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err := NewStore(mock).InTx(context.Background(), orgID, func(ctx context.Context, tx Tx) error {
				return tx.UpsertUser(ctx, orgID, u, model.RoleUser)
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetUserIsOrganizationScoped(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM users").
		WithArgs(userID, orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name"}))

	_, err := NewStore(mock).GetUser(context.Background(), orgID, userID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBusinessHoursByID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM business_hours").
		WithArgs(hoursID, orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "day_of_week", "is_open", "open_time", "close_time"}).
			AddRow(hoursID, orgID, 2, true, "09:00", "17:00"))

	h, err := NewStore(mock).GetBusinessHoursByID(context.Background(), orgID, hoursID)
	require.NoError(t, err)
	assert.Equal(t, 2, h.DayOfWeek)
	assert.Equal(t, "17:00", h.CloseTime)
	require.NoError(t, mock.ExpectationsWereMet())
}
