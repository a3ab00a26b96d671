// Package notify turns committed appointment changes into notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/apptbook/libs/events"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
)

type EventWriter interface {
	Insert(ctx context.Context, evt outbox.Event) error
}

// OutboxNotifier records each notice as an outbox event in its own statement.
// The outbox publisher relays it to Kafka for notification-service.
type OutboxNotifier struct {
	events EventWriter
}

func NewOutboxNotifier(w EventWriter) *OutboxNotifier {
	return &OutboxNotifier{events: w}
}

func (n *OutboxNotifier) NotifyConfirmed(ctx context.Context, notice events.AppointmentNotice) error {
	return n.write(ctx, events.TopicAppointmentConfirmed, notice)
}

func (n *OutboxNotifier) NotifyCancelled(ctx context.Context, notice events.AppointmentNotice) error {
	notice.EndTime = nil
	return n.write(ctx, events.TopicAppointmentCancelled, notice)
}

func (n *OutboxNotifier) write(ctx context.Context, topic string, notice events.AppointmentNotice) error {
	if err := notice.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	return n.events.Insert(ctx, outbox.Event{
		AggregateType:  events.AggregateAppointment,
		AggregateID:    notice.AppointmentID,
		EventType:      topic,
		OrganizationID: notice.OrganizationID,
		Payload:        payload,
	})
}

// LogNotifier only logs; used when no event relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyConfirmed(_ context.Context, notice events.AppointmentNotice) error {
	n.logger.Info("appointment confirmed notification",
		"appointment_id", notice.AppointmentID,
		"to", notice.RecipientEmail,
		"service", notice.ServiceName,
		"start", notice.StartTime,
	)
	return nil
}

func (n *LogNotifier) NotifyCancelled(_ context.Context, notice events.AppointmentNotice) error {
	n.logger.Info("appointment cancelled notification",
		"appointment_id", notice.AppointmentID,
		"to", notice.RecipientEmail,
		"service", notice.ServiceName,
		"start", notice.StartTime,
	)
	return nil
}
