package reminders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
)

type Job struct {
	ID             int64
	IdempotencyKey string
	AppointmentID  string
	Recipient      string
	RemindAt       time.Time
	Appointment    events.Appointment
	Trace          otelx.TraceContext
	Attempts       int
	MaxAttempts    int
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Schedule inserts jobs; a job whose idempotency key exists is left alone.
func (r *Repository) Schedule(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	trace := otelx.CaptureTraceContext(ctx)
	batch := &pgx.Batch{}
	for _, j := range jobs {
		payload, err := json.Marshal(j.Appointment)
		if err != nil {
			return err
		}
		maxAttempts := j.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = 5
		}
		batch.Queue(`
			INSERT INTO reminder_jobs (idempotency_key, appointment_id, recipient, remind_at, payload, max_attempts, next_run_at, traceparent, tracestate)
			VALUES ($1, $2, $3, $4, $5, $6, $4, $7, $8)
			ON CONFLICT (idempotency_key) DO NOTHING
		`, j.IdempotencyKey, j.AppointmentID, j.Recipient, j.RemindAt, payload, maxAttempts, trace.Traceparent, trace.Tracestate)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// CancelForAppointment drops every pending reminder of the appointment.
func (r *Repository) CancelForAppointment(ctx context.Context, appointmentID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminder_jobs
		SET status = 'cancelled', updated_at = now()
		WHERE appointment_id = $1 AND status = 'pending'
	`, appointmentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, idempotency_key, appointment_id, recipient, remind_at, payload, traceparent, tracestate, attempts, max_attempts
		FROM reminder_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var raw []byte
		if err := rows.Scan(&j.ID, &j.IdempotencyKey, &j.AppointmentID, &j.Recipient, &j.RemindAt, &raw,
			&j.Trace.Traceparent, &j.Trace.Tracestate, &j.Attempts, &j.MaxAttempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &j.Appointment); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *Repository) MarkSent(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET status = 'sent', attempts = attempts + 1, updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

// MarkFailed records the attempt. The job stays pending until it runs out of attempts.
func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
