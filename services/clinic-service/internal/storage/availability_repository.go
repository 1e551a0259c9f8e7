package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

const ruleColumns = `
	id::text, doctor_id::text, day_of_week,
	to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
	slot_duration, is_active, created_at, updated_at`

type AvailabilityRepository struct {
	pool *db.Pool
}

func NewAvailabilityRepository(pool *db.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

func (r *AvailabilityRepository) Create(ctx context.Context, rule model.AvailabilityRule) (model.AvailabilityRule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availability (doctor_id, day_of_week, start_time, end_time, slot_duration, is_active)
		VALUES ($1, $2, $3::time, $4::time, $5, $6)
		RETURNING `+ruleColumns,
		rule.DoctorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotDurationMinutes, rule.IsActive)
	return scanRule(row)
}

func (r *AvailabilityRepository) Get(ctx context.Context, doctorID, id string) (model.AvailabilityRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM doctor_availability
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	rule, err := scanRule(row)
	if err != nil {
		return model.AvailabilityRule{}, notFound(err, "availability", id)
	}
	return rule, nil
}

// ListActive returns the doctor's active rules ordered by weekday, then start time.
func (r *AvailabilityRepository) ListActive(ctx context.Context, doctorID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND is_active
		ORDER BY day_of_week ASC, start_time ASC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []model.AvailabilityRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *AvailabilityRepository) Update(ctx context.Context, rule model.AvailabilityRule) (model.AvailabilityRule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_availability
		SET day_of_week = $3,
			start_time = $4::time,
			end_time = $5::time,
			slot_duration = $6,
			is_active = $7,
			updated_at = now()
		WHERE id = $1 AND doctor_id = $2
		RETURNING `+ruleColumns,
		rule.ID, rule.DoctorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotDurationMinutes, rule.IsActive)
	updated, err := scanRule(row)
	if err != nil {
		return model.AvailabilityRule{}, notFound(err, "availability", rule.ID)
	}
	return updated, nil
}

func (r *AvailabilityRepository) Delete(ctx context.Context, doctorID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctor_availability WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "availability", id)
	}
	return nil
}

func (r *AvailabilityRepository) FindActiveRule(ctx context.Context, doctorID string, weekday time.Weekday) (model.AvailabilityRule, bool, error) {
	return findActiveRule(ctx, r.pool, doctorID, weekday)
}

// findActiveRule picks the earliest-starting active rule when a doctor has several for one weekday.
func findActiveRule(ctx context.Context, q querier, doctorID string, weekday time.Weekday) (model.AvailabilityRule, bool, error) {
	row := q.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2 AND is_active
		ORDER BY start_time ASC
		LIMIT 1
	`, doctorID, int(weekday))
	rule, err := scanRule(row)
	if IsNotFound(err) {
		return model.AvailabilityRule{}, false, nil
	}
	if err != nil {
		return model.AvailabilityRule{}, false, err
	}
	return rule, true, nil
}

func scanRule(row pgx.Row) (model.AvailabilityRule, error) {
	var rule model.AvailabilityRule
	err := row.Scan(
		&rule.ID,
		&rule.DoctorID,
		&rule.DayOfWeek,
		&rule.StartTime,
		&rule.EndTime,
		&rule.SlotDurationMinutes,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	return rule, err
}
