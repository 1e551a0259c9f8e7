package storage

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

const doctorColumns = `
	d.id::text, d.user_id::text, u.first_name, u.last_name, u.email,
	d.specialization, d.qualification, d.experience_years, d.license_number,
	d.consultation_fee::float8, d.clinic_name, d.bio, d.is_approved, d.approval_date, d.created_at`

const patientColumns = `
	p.id::text, p.user_id::text, u.first_name, u.last_name, u.email,
	COALESCE(p.date_of_birth::text, ''), p.address, p.created_at`

type ProfileRepository struct {
	pool *db.Pool
}

func NewProfileRepository(pool *db.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *ProfileRepository) CreateUser(ctx context.Context, tx pgx.Tx, u *model.User) error {
	return tx.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`, u.FirstName, u.LastName, strings.ToLower(u.Email), u.PasswordHash, string(u.Role)).Scan(&u.ID, &u.CreatedAt)
}

func (r *ProfileRepository) CreateDoctor(ctx context.Context, tx pgx.Tx, d *model.Doctor) error {
	return tx.QueryRow(ctx, `
		INSERT INTO doctors (user_id, specialization, qualification, experience_years, license_number, consultation_fee, clinic_name, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at
	`, d.UserID, d.Specialization, d.Qualification, d.ExperienceYears, d.LicenseNumber, d.ConsultationFee, d.ClinicName, d.Bio).
		Scan(&d.ID, &d.CreatedAt)
}

func (r *ProfileRepository) CreatePatient(ctx context.Context, tx pgx.Tx, p *model.Patient) error {
	var dob *string
	if p.DateOfBirth != "" {
		dob = &p.DateOfBirth
	}
	return tx.QueryRow(ctx, `
		INSERT INTO patients (user_id, date_of_birth, address)
		VALUES ($1, $2::date, $3)
		RETURNING id::text, created_at
	`, p.UserID, dob, p.Address).Scan(&p.ID, &p.CreatedAt)
}

func (r *ProfileRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT id::text, first_name, last_name, email, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, strings.TrimSpace(email)))
	if err != nil {
		return model.User{}, notFound(err, "user", email)
	}
	return u, nil
}

func (r *ProfileRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT id::text, first_name, last_name, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		return model.User{}, notFound(err, "user", id)
	}
	return u, nil
}

func (r *ProfileRepository) ListUsers(ctx context.Context, role model.Role, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, first_name, last_name, email, password_hash, role, created_at
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *ProfileRepository) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	d, err := scanDoctor(r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
	`, id))
	if err != nil {
		return model.Doctor{}, notFound(err, "doctor", id)
	}
	return d, nil
}

func (r *ProfileRepository) GetDoctorByUserID(ctx context.Context, userID string) (model.Doctor, error) {
	d, err := scanDoctor(r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1
	`, userID))
	if err != nil {
		return model.Doctor{}, notFound(err, "doctor for user", userID)
	}
	return d, nil
}

// ListDoctors returns doctors by name. approvedOnly hides doctors awaiting admin approval.
func (r *ProfileRepository) ListDoctors(ctx context.Context, approvedOnly bool, specialization string) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE (NOT $1 OR d.is_approved)
			AND ($2 = '' OR d.specialization ILIKE '%' || $2 || '%')
		ORDER BY u.last_name ASC, u.first_name ASC
	`, approvedOnly, strings.TrimSpace(specialization))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *ProfileRepository) ApproveDoctor(ctx context.Context, id string) (model.Doctor, error) {
	var approvedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET is_approved = true,
			approval_date = COALESCE(approval_date, now()),
			updated_at = now()
		WHERE id = $1
		RETURNING approval_date
	`, id).Scan(&approvedAt)
	if err != nil {
		return model.Doctor{}, notFound(err, "doctor", id)
	}
	return r.GetDoctor(ctx, id)
}

func (r *ProfileRepository) GetPatient(ctx context.Context, id string) (model.Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients p JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`, id))
	if err != nil {
		return model.Patient{}, notFound(err, "patient", id)
	}
	return p, nil
}

func (r *ProfileRepository) GetPatientByUserID(ctx context.Context, userID string) (model.Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`, userID))
	if err != nil {
		return model.Patient{}, notFound(err, "patient for user", userID)
	}
	return p, nil
}

// PatientUpdate changes only the non-nil fields.
type PatientUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	DateOfBirth *string
	Address     *string
}

func (r *ProfileRepository) UpdatePatient(ctx context.Context, userID string, upd PatientUpdate) (model.Patient, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Patient{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if upd.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*upd.Email))
		upd.Email = &lowered
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			updated_at = now()
		WHERE id = $1
	`, userID, upd.FirstName, upd.LastName, upd.Email); err != nil {
		return model.Patient{}, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE patients
		SET date_of_birth = COALESCE($2::date, date_of_birth),
			address = COALESCE($3, address),
			updated_at = now()
		WHERE user_id = $1
	`, userID, upd.DateOfBirth, upd.Address)
	if err != nil {
		return model.Patient{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Patient{}, notFound(pgx.ErrNoRows, "patient for user", userID)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Patient{}, err
	}
	return r.GetPatientByUserID(ctx, userID)
}

func (r *ProfileRepository) Stats(ctx context.Context) (model.DashboardStats, error) {
	var s model.DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM doctors),
			(SELECT count(*) FROM doctors WHERE NOT is_approved),
			(SELECT count(*) FROM patients),
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM appointments WHERE status = 'scheduled' AND appointment_date >= now())
	`).Scan(&s.Users, &s.Doctors, &s.PendingDoctors, &s.Patients, &s.Appointments, &s.UpcomingBookings)
	return s, err
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	u.Role = model.Role(role)
	return u, err
}

func scanDoctor(row pgx.Row) (model.Doctor, error) {
	var d model.Doctor
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Specialization,
		&d.Qualification,
		&d.ExperienceYears,
		&d.LicenseNumber,
		&d.ConsultationFee,
		&d.ClinicName,
		&d.Bio,
		&d.IsApproved,
		&d.ApprovalDate,
		&d.CreatedAt,
	)
	return d, err
}

func scanPatient(row pgx.Row) (model.Patient, error) {
	var p model.Patient
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.DateOfBirth, &p.Address, &p.CreatedAt)
	return p, err
}
