package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/scheduling"
)

const appointmentColumns = `
	id::text, patient_id::text, doctor_id::text, date::text,
	to_char(start_time, 'HH24:MI:SS'), COALESCE(to_char(end_time, 'HH24:MI:SS'), ''),
	appointment_date, status, appointment_type, reason, notes, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// BookingStore reads rules and appointments through tx.
func (r *AppointmentRepository) BookingStore(tx pgx.Tx) scheduling.Store {
	return NewTxStore(tx)
}

// LockDoctorDay serialises bookings for one doctor and date until tx ends.
func (r *AppointmentRepository) LockDoctorDay(ctx context.Context, tx pgx.Tx, doctorID, date string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`, doctorID, date)
	return err
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	var endTime *string
	if appt.EndTime != "" {
		endTime = &appt.EndTime
	}
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_id, doctor_id, date, start_time, end_time, appointment_date, status, appointment_type, reason, notes)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at, updated_at
	`, appt.PatientID, appt.DoctorID, appt.Date, appt.StartTime, endTime, appt.AppointmentDate,
		appt.Status, appt.AppointmentType, appt.Reason, appt.Notes,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Appointment{}, notFound(err, "appointment", id)
	}
	return appt, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	appt, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return model.Appointment{}, notFound(err, "appointment", id)
	}
	return appt, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.AppointmentStatus) (time.Time, error) {
	var updatedAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, status).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, notFound(err, "appointment", id)
	}
	return updatedAt, nil
}

type ListFilter struct {
	PatientID string
	DoctorID  string
	Status    model.AppointmentStatus
	Limit     int
}

// List returns appointments newest first. Empty filter fields match everything.
func (r *AppointmentRepository) List(ctx context.Context, f ListFilter) ([]model.Appointment, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1 = '' OR patient_id::text = $1)
			AND ($2 = '' OR doctor_id::text = $2)
			AND ($3 = '' OR status = $3)
		ORDER BY appointment_date DESC
		LIMIT $4
	`, f.PatientID, f.DoctorID, string(f.Status), f.Limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) FindAppointments(ctx context.Context, doctorID, date string, excludeStatuses ...model.AppointmentStatus) ([]model.Appointment, error) {
	return findAppointments(ctx, r.pool, doctorID, date, excludeStatuses)
}

func (r *AppointmentRepository) FindActiveRule(ctx context.Context, doctorID string, weekday time.Weekday) (model.AvailabilityRule, bool, error) {
	return findActiveRule(ctx, r.pool, doctorID, weekday)
}

func findAppointments(ctx context.Context, q querier, doctorID, date string, excludeStatuses []model.AppointmentStatus) ([]model.Appointment, error) {
	exclude := make([]string, 0, len(excludeStatuses))
	for _, s := range excludeStatuses {
		exclude = append(exclude, string(s))
	}
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
			AND date = $2::date
			AND NOT (status = ANY($3::text[]))
		ORDER BY start_time ASC
	`, doctorID, date, exclude)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	appts := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.DoctorID,
		&appt.Date,
		&appt.StartTime,
		&appt.EndTime,
		&appt.AppointmentDate,
		&status,
		&appt.AppointmentType,
		&appt.Reason,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	appt.Status = model.AppointmentStatus(status)
	return appt, err
}
