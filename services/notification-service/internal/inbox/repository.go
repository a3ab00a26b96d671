// Package inbox remembers consumed event ids so redelivered events are
// processed once.
package inbox

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/apptbook/libs/db"
)

type Repository struct {
	db db.DB
}

func NewRepository(conn db.DB) *Repository {
	return &Repository{db: conn}
}

// Record claims eventID. It reports false when the event was already claimed.
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err) {
		return false, nil
	}
	return false, fmt.Errorf("record inbox event: %w", err)
}

// Release drops a claim so a failed event can be retried.
func (r *Repository) Release(ctx context.Context, eventID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM inbox_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("release inbox event: %w", err)
	}
	return nil
}
