// Package processor turns appointment events into emails.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/apptbook/libs/events"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	"github.com/md-rashed-zaman/apptbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/apptbook/services/notification-service/internal/storage"
)

type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Processor struct {
	sender   email.Sender
	recorder Recorder
	logger   *slog.Logger
	sent     *prometheus.CounterVec
}

func New(sender email.Sender, recorder Recorder, logger *slog.Logger, reg prometheus.Registerer) *Processor {
	p := &Processor{sender: sender, recorder: recorder, logger: logger}
	if reg != nil {
		p.sent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "notification",
			Name:      "emails_total",
			Help:      "Appointment emails by kind and delivery status.",
		}, []string{"kind", "status"})
		reg.MustRegister(p.sent)
	}
	return p
}

func kindFor(topic string) (email.Kind, bool) {
	switch topic {
	case events.TopicAppointmentConfirmed:
		return email.KindConfirmation, true
	case events.TopicAppointmentCancelled:
		return email.KindCancellation, true
	default:
		return "", false
	}
}

// Handle sends the email for one event. Malformed events are logged and
// skipped; a failed send is recorded and returned so the caller may retry.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	kind, ok := kindFor(msg.Topic)
	if !ok {
		p.logger.Warn("unexpected topic", "topic", msg.Topic)
		return nil
	}
	notice, err := events.DecodeAppointmentNotice(msg.Value)
	if err != nil {
		p.logger.Error("invalid appointment notice", "err", err, "topic", msg.Topic)
		return nil
	}
	out, err := email.Render(kind, notice)
	if err != nil {
		p.logger.Error("render email failed", "err", err, "appointment_id", notice.AppointmentID)
		return nil
	}

	meta := kafkax.ExtractEventMeta(msg)
	rec := storage.Notification{
		EventID:        meta.EventID,
		AppointmentID:  notice.AppointmentID,
		OrganizationID: notice.OrganizationID,
		Kind:           string(kind),
		Recipient:      notice.RecipientEmail,
		Subject:        out.Subject,
		Provider:       p.sender.Provider(),
		Status:         storage.StatusSent,
	}

	sendErr := p.sender.Send(ctx, out)
	if sendErr != nil {
		rec.Status = storage.StatusFailed
		rec.Error = sendErr.Error()
	}
	p.observe(kind, rec.Status)

	if err := p.recorder.Insert(ctx, rec); err != nil {
		p.logger.Error("failed to persist notification", "err", err, "appointment_id", notice.AppointmentID)
		if sendErr == nil {
			return nil
		}
		return errors.Join(sendErr, err)
	}
	if sendErr != nil {
		return fmt.Errorf("send %s email for appointment %s: %w", kind, notice.AppointmentID, sendErr)
	}

	p.logger.Info("appointment email sent",
		"kind", kind,
		"appointment_id", notice.AppointmentID,
		"organization_id", notice.OrganizationID,
		"provider", rec.Provider,
	)
	return nil
}

func (p *Processor) observe(kind email.Kind, status string) {
	if p.sent == nil {
		return
	}
	p.sent.WithLabelValues(string(kind), status).Inc()
}
