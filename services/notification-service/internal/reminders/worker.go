package reminders

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventReminderDue tags reminder rows in the notifications table.
const EventReminderDue = "clinic.appointment.reminder.v1"

type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Worker struct {
	repo      *Repository
	mailer    email.Sender
	recorder  Recorder
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	backoff   time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(repo *Repository, mailer email.Sender, recorder Recorder, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Minute
	}
	return &Worker{
		repo:      repo,
		mailer:    mailer,
		recorder:  recorder,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		backoff:   cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("reminder batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	jobs, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit(ctx)
	}

	var sent []int64
	for _, job := range jobs {
		if err := w.deliver(ctx, job); err != nil {
			attempts := job.Attempts + 1
			w.logger.Error("reminder delivery failed", "err", err, "job_id", job.ID, "attempt", attempts)
			next := time.Now().UTC().Add(time.Duration(attempts) * w.backoff)
			if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, next, err.Error()); err != nil {
				return err
			}
			continue
		}
		sent = append(sent, job.ID)
	}
	if err := w.repo.MarkSent(ctx, tx, sent); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if len(sent) > 0 {
		w.logger.Info("reminders sent", "count", len(sent))
	}
	return nil
}

// deliver emails one reminder and records the outcome. A send failure is
// returned so the job is retried.
func (w *Worker) deliver(ctx context.Context, job Job) error {
	ctx, span := otel.Tracer("clinic-reminders").Start(job.Trace.Restore(ctx), "reminder.deliver",
		trace.WithAttributes(attribute.String("appointment.id", job.AppointmentID)),
	)
	defer span.End()

	lead := job.Appointment.AppointmentDate.Sub(job.RemindAt)
	msg, err := email.BuildReminder(job.Appointment, lead)
	if err != nil {
		span.RecordError(err)
		return err
	}

	rec := storage.Notification{
		EventID:       job.IdempotencyKey,
		EventType:     EventReminderDue,
		AppointmentID: job.AppointmentID,
		Channel:       "email",
		Recipient:     msg.To,
		Subject:       msg.Subject,
		Status:        storage.StatusSent,
	}
	sendErr := w.mailer.Send(msg)
	if sendErr != nil {
		span.RecordError(sendErr)
		rec.Status = storage.StatusFailed
		rec.Error = sendErr.Error()
	}
	if err := w.recorder.Insert(ctx, rec); err != nil {
		w.logger.Error("failed to persist reminder notification", "err", err, "job_id", job.ID)
	}
	return sendErr
}

// Planner schedules and cancels reminders in reaction to appointment events.
type Planner struct {
	repo    *Repository
	offsets []time.Duration
	now     func() time.Time
}

func NewPlanner(repo *Repository, offsets []time.Duration) *Planner {
	return &Planner{repo: repo, offsets: offsets, now: time.Now}
}

func (p *Planner) Booked(ctx context.Context, appt events.Appointment) error {
	return p.repo.Schedule(ctx, Plan(appt, p.offsets, p.now()))
}

func (p *Planner) Cancelled(ctx context.Context, appt events.Appointment) error {
	_, err := p.repo.CancelForAppointment(ctx, appt.AppointmentID)
	return err
}
