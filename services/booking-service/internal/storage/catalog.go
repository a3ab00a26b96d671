package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

const serviceColumns = `id::text, organization_id::text, name, description, duration_minutes,
	price::float8, is_active, created_at, updated_at`

const hoursColumns = `id::text, organization_id::text, day_of_week, is_open, open_time, close_time`

func (s *Store) GetOrganization(ctx context.Context, organizationID string) (model.Organization, error) {
	var o model.Organization
	err := s.db.QueryRow(ctx, `
		SELECT id::text, name, slug, timezone, created_at
		FROM organizations
		WHERE id = $1
	`, organizationID).Scan(&o.ID, &o.Name, &o.Slug, &o.Timezone, &o.CreatedAt)
	if err != nil {
		return model.Organization{}, notFound("load organization", err)
	}
	return o, nil
}

// CreateOrganization inserts org together with its initial weekly hours. A
// non-nil owner becomes the organization's first ADMIN user.
func (s *Store) CreateOrganization(ctx context.Context, org model.Organization, week []model.BusinessHours, owner *model.UserSummary) (model.Organization, error) {
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO organizations (id, name, slug, timezone)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, org.ID, org.Name, org.Slug, org.Timezone).Scan(&org.CreatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert organization: %w", err)
		}
		for _, h := range week {
			h.OrganizationID = org.ID
			if _, err := upsertBusinessHours(ctx, tx, h); err != nil {
				return err
			}
		}
		if owner != nil {
			return upsertUser(ctx, tx, org.ID, *owner, model.RoleAdmin)
		}
		return nil
	})
	if err != nil {
		return model.Organization{}, err
	}
	return org, nil
}

// GetUser loads a user registered with the organization.
func (s *Store) GetUser(ctx context.Context, organizationID, userID string) (model.UserSummary, error) {
	var u model.UserSummary
	err := s.db.QueryRow(ctx, `
		SELECT id::text, email, first_name, last_name
		FROM users
		WHERE id = $1 AND organization_id = $2
	`, userID, organizationID).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName)
	if err != nil {
		return model.UserSummary{}, notFound("load user", err)
	}
	return u, nil
}

func (t *txStore) UpsertUser(ctx context.Context, organizationID string, u model.UserSummary, role model.Role) error {
	return upsertUser(ctx, t.q, organizationID, u, role)
}

// upsertUser records u under organizationID, refreshing contact details of an
// existing row. A row owned by another organization is left untouched and
// reported as ErrUserConflict.
func upsertUser(ctx context.Context, q querier, organizationID string, u model.UserSummary, role model.Role) error {
	tag, err := q.Exec(ctx, `
		INSERT INTO users (id, organization_id, email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role
		WHERE users.organization_id = EXCLUDED.organization_id
	`, u.ID, organizationID, u.Email, u.FirstName, u.LastName, string(role))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrUserConflict
		}
		return fmt.Errorf("upsert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserConflict
	}
	return nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var svc model.Service
	err := row.Scan(
		&svc.ID, &svc.OrganizationID, &svc.Name, &svc.Description, &svc.DurationMinutes,
		&svc.Price, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt,
	)
	return svc, err
}

// GetService loads a service of the organization. Services of other
// organizations are reported as not found.
func (s *Store) GetService(ctx context.Context, organizationID, serviceID string) (model.Service, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1 AND organization_id = $2
	`, serviceID, organizationID)
	svc, err := scanService(row)
	if err != nil {
		return model.Service{}, notFound("load service", err)
	}
	return svc, nil
}

func (s *Store) ListServices(ctx context.Context, organizationID string, includeInactive bool) ([]model.Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE organization_id = $1 AND ($2 OR is_active)
		ORDER BY name
	`, organizationID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO services (id, organization_id, name, description, duration_minutes, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, svc.ID, svc.OrganizationID, svc.Name, svc.Description, svc.DurationMinutes, svc.Price, svc.IsActive,
	).Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return model.Service{}, fmt.Errorf("insert service: %w", err)
	}
	return svc, nil
}

func (s *Store) UpdateService(ctx context.Context, svc model.Service) (model.Service, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE services
		SET name = $3, description = $4, duration_minutes = $5, price = $6, is_active = $7, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+serviceColumns,
		svc.ID, svc.OrganizationID, svc.Name, svc.Description, svc.DurationMinutes, svc.Price, svc.IsActive)
	out, err := scanService(row)
	if err != nil {
		return model.Service{}, notFound("update service", err)
	}
	return out, nil
}

// GetHours implements hours.Lookup outside of a booking transaction.
func (s *Store) GetHours(ctx context.Context, organizationID string, dayOfWeek int) (model.BusinessHours, bool, error) {
	return getBusinessHours(ctx, s.db, organizationID, dayOfWeek)
}

func (s *Store) ListBusinessHours(ctx context.Context, organizationID string) ([]model.BusinessHours, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+hoursColumns+`
		FROM business_hours
		WHERE organization_id = $1
		ORDER BY day_of_week
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list business hours: %w", err)
	}
	defer rows.Close()

	out := []model.BusinessHours{}
	for rows.Next() {
		var h model.BusinessHours
		if err := rows.Scan(&h.ID, &h.OrganizationID, &h.DayOfWeek, &h.IsOpen, &h.OpenTime, &h.CloseTime); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetBusinessHoursByID loads one weekday row of the organization.
func (s *Store) GetBusinessHoursByID(ctx context.Context, organizationID, hoursID string) (model.BusinessHours, error) {
	var h model.BusinessHours
	err := s.db.QueryRow(ctx, `
		SELECT `+hoursColumns+`
		FROM business_hours
		WHERE id = $1 AND organization_id = $2
	`, hoursID, organizationID).Scan(&h.ID, &h.OrganizationID, &h.DayOfWeek, &h.IsOpen, &h.OpenTime, &h.CloseTime)
	if err != nil {
		return model.BusinessHours{}, notFound("load business hours", err)
	}
	return h, nil
}

// UpsertBusinessHours creates or replaces the row for h's weekday.
func (s *Store) UpsertBusinessHours(ctx context.Context, h model.BusinessHours) (model.BusinessHours, error) {
	return upsertBusinessHours(ctx, s.db, h)
}

func (s *Store) DeleteBusinessHours(ctx context.Context, organizationID, hoursID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM business_hours
		WHERE id = $1 AND organization_id = $2
	`, hoursID, organizationID)
	if err != nil {
		return fmt.Errorf("delete business hours: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func getBusinessHours(ctx context.Context, q querier, organizationID string, dayOfWeek int) (model.BusinessHours, bool, error) {
	var h model.BusinessHours
	err := q.QueryRow(ctx, `
		SELECT `+hoursColumns+`
		FROM business_hours
		WHERE organization_id = $1 AND day_of_week = $2
	`, organizationID, dayOfWeek).Scan(&h.ID, &h.OrganizationID, &h.DayOfWeek, &h.IsOpen, &h.OpenTime, &h.CloseTime)
	if err != nil {
		if db.IsNotFound(err) {
			return model.BusinessHours{}, false, nil
		}
		return model.BusinessHours{}, false, fmt.Errorf("load business hours: %w", err)
	}
	return h, true, nil
}

func upsertBusinessHours(ctx context.Context, q querier, h model.BusinessHours) (model.BusinessHours, error) {
	err := q.QueryRow(ctx, `
		INSERT INTO business_hours (id, organization_id, day_of_week, is_open, open_time, close_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, day_of_week)
		DO UPDATE SET is_open = EXCLUDED.is_open, open_time = EXCLUDED.open_time, close_time = EXCLUDED.close_time
		RETURNING id::text
	`, h.ID, h.OrganizationID, h.DayOfWeek, h.IsOpen, h.OpenTime, h.CloseTime).Scan(&h.ID)
	if err != nil {
		return model.BusinessHours{}, fmt.Errorf("upsert business hours: %w", err)
	}
	return h, nil
}
