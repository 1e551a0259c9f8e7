package reminders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appointmentAt(start time.Time) events.Appointment {
	return events.Appointment{
		AppointmentID:   "appt-1",
		PatientName:     "Alan Turing",
		PatientEmail:    "alan@example.com",
		DoctorName:      "Dr. Ada Lovelace",
		Date:            start.Format("2006-01-02"),
		StartTime:       start.Format("15:04:05"),
		AppointmentDate: start,
	}
}

func TestParseOffsets(t *testing.T) {
	offsets, invalid := ParseOffsets([]string{"60", "1440", "abc", "-5", "60"})
	assert.Equal(t, []time.Duration{24 * time.Hour, time.Hour}, offsets)
	assert.Equal(t, []string{"abc", "-5"}, invalid)
}

func TestPlanSkipsPastReminders(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	appt := appointmentAt(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	jobs := Plan(appt, []time.Duration{48 * time.Hour, 24 * time.Hour, time.Hour}, now)
	require.Len(t, jobs, 1)
	assert.Equal(t, "appt-1:60", jobs[0].IdempotencyKey)
	assert.Equal(t, time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), jobs[0].RemindAt)
	assert.Equal(t, "alan@example.com", jobs[0].Recipient)
}

func TestPlanNeedsRecipientAndStart(t *testing.T) {
	now := time.Now()
	appt := appointmentAt(now.Add(72 * time.Hour))
	appt.PatientEmail = ""
	assert.Empty(t, Plan(appt, []time.Duration{time.Hour}, now))

	appt = appointmentAt(time.Time{})
	assert.Empty(t, Plan(appt, []time.Duration{time.Hour}, now))
}

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(msg email.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type memRecorder struct {
	rows []storage.Notification
}

func (m *memRecorder) Insert(_ context.Context, n storage.Notification) error {
	m.rows = append(m.rows, n)
	return nil
}

func TestDeliver(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	job := Job{ID: 7, IdempotencyKey: "appt-1:60", AppointmentID: "appt-1", RemindAt: start.Add(-time.Hour), Appointment: appointmentAt(start)}

	mailer, rec := &fakeMailer{}, &memRecorder{}
	w := NewWorker(nil, mailer, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), WorkerConfig{})
	require.NoError(t, w.deliver(context.Background(), job))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Reminder: appointment with Dr. Ada Lovelace", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "is in 1 hour, on 2026-01-05 at 09:00.")
	require.Len(t, rec.rows, 1)
	assert.Equal(t, EventReminderDue, rec.rows[0].EventType)
	assert.Equal(t, storage.StatusSent, rec.rows[0].Status)

	mailer.err = errors.New("mailbox full")
	assert.Error(t, w.deliver(context.Background(), job))
	assert.Equal(t, storage.StatusFailed, rec.rows[1].Status)
}
