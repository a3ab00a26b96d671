package storage

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/apptbook/libs/db"
)

// LookupIdempotencyKey returns the appointment a previous create with the same
// key produced for this user. The caller holds the organization lock, so no
// row lock is taken.
func (t *txStore) LookupIdempotencyKey(ctx context.Context, organizationID, userID, key string) (string, bool, error) {
	var appointmentID string
	err := t.q.QueryRow(ctx, `
		SELECT appointment_id::text
		FROM booking_idempotency_keys
		WHERE organization_id = $1 AND user_id = $2 AND idempotency_key = $3
	`, organizationID, userID, key).Scan(&appointmentID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return appointmentID, true, nil
}

func (t *txStore) SaveIdempotencyKey(ctx context.Context, organizationID, userID, key, appointmentID string) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (organization_id, user_id, idempotency_key, appointment_id)
		VALUES ($1, $2, $3, $4)
	`, organizationID, userID, key, appointmentID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}
