// Package notifier turns appointment events into patient notifications.
package notifier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type Store interface {
	Insert(ctx context.Context, n storage.Notification) error
}

// Reminders keeps the reminder schedule in step with the appointment.
type Reminders interface {
	Booked(ctx context.Context, appt events.Appointment) error
	Cancelled(ctx context.Context, appt events.Appointment) error
}

type Notifier struct {
	email     email.Sender
	push      push.Sender
	store     Store
	reminders Reminders
	logger    *slog.Logger
}

// New builds a Notifier. reminders may be nil.
func New(emailSender email.Sender, pushSender push.Sender, store Store, reminders Reminders, logger *slog.Logger) *Notifier {
	return &Notifier{email: emailSender, push: pushSender, store: store, reminders: reminders, logger: logger}
}

// Handle processes one event. Malformed or unknown events are logged and
// dropped; only storage failures are returned so the consumer retries.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	appt, err := events.Decode(msg.Value)
	if err != nil {
		n.logger.Error("invalid appointment event", "err", err, "event_id", meta.EventID, "topic", msg.Topic)
		return nil
	}

	mail, err := email.Build(meta.EventType, appt)
	switch {
	case errors.Is(err, email.ErrUnsupportedEvent):
		n.logger.Warn("event ignored", "event_type", meta.EventType, "event_id", meta.EventID)
		return nil
	case errors.Is(err, email.ErrNoRecipient):
		n.logger.Warn("patient has no email; skipping", "appointment_id", appt.AppointmentID)
		if err := n.store.Insert(ctx, n.record(meta, appt, "email", "", "", storage.StatusSkipped, err, msg.Value)); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		status, sendErr := storage.StatusSent, n.email.Send(mail)
		if sendErr != nil {
			status = storage.StatusFailed
			n.logger.Error("email send failed", "err", sendErr, "appointment_id", appt.AppointmentID)
		}
		if err := n.store.Insert(ctx, n.record(meta, appt, "email", mail.To, mail.Subject, status, sendErr, msg.Value)); err != nil {
			return err
		}
	}

	if err := n.syncReminders(ctx, meta.EventType, appt); err != nil {
		return err
	}

	note := push.Notification{
		RecipientID:   appt.PatientID,
		AppointmentID: appt.AppointmentID,
		EventType:     meta.EventType,
		Message:       mail.Subject,
	}
	if note.Message == "" {
		note.Message = meta.EventType
	}
	status, pushErr := storage.StatusSent, n.push.Send(ctx, note)
	if pushErr != nil {
		status = storage.StatusFailed
		n.logger.Error("push send failed", "err", pushErr, "provider", n.push.ProviderID(), "appointment_id", appt.AppointmentID)
	}
	if err := n.store.Insert(ctx, n.record(meta, appt, "push", appt.PatientID, note.Message, status, pushErr, msg.Value)); err != nil {
		return err
	}

	n.logger.Info("appointment notification processed",
		"event_type", meta.EventType,
		"appointment_id", appt.AppointmentID,
	)
	return nil
}

func (n *Notifier) syncReminders(ctx context.Context, eventType string, appt events.Appointment) error {
	if n.reminders == nil {
		return nil
	}
	switch eventType {
	case events.AppointmentBooked:
		return n.reminders.Booked(ctx, appt)
	case events.AppointmentCancelled:
		return n.reminders.Cancelled(ctx, appt)
	}
	return nil
}

func (n *Notifier) record(meta kafkax.EventMeta, appt events.Appointment, channel, recipient, subject, status string, cause error, payload []byte) storage.Notification {
	rec := storage.Notification{
		EventID:       meta.EventID,
		EventType:     meta.EventType,
		AppointmentID: appt.AppointmentID,
		Channel:       channel,
		Recipient:     recipient,
		Subject:       subject,
		Status:        status,
		Payload:       payload,
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	return rec
}
