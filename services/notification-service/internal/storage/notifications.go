package storage

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/apptbook/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Notification is one delivery attempt for an appointment event.
type Notification struct {
	EventID        string
	AppointmentID  string
	OrganizationID string
	Kind           string
	Recipient      string
	Subject        string
	Provider       string
	Status         string
	Error          string
}

type Repository struct {
	db db.DB
}

func NewRepository(conn db.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	var errText *string
	if n.Error != "" {
		errText = &n.Error
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (event_id, appointment_id, organization_id, kind, recipient, subject, provider, status, error)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9)
	`, n.EventID, n.AppointmentID, n.OrganizationID, n.Kind, n.Recipient, n.Subject, n.Provider, n.Status, errText)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
