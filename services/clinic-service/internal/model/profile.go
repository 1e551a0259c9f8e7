package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Doctor struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Specialization  string     `json:"specialization,omitempty"`
	Qualification   string     `json:"qualification,omitempty"`
	ExperienceYears int        `json:"experience_years"`
	LicenseNumber   string     `json:"license_number,omitempty"`
	ConsultationFee float64    `json:"consultation_fee"`
	ClinicName      string     `json:"clinic_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	IsApproved      bool       `json:"is_approved"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (d Doctor) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

type Patient struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	Users            int `json:"users"`
	Doctors          int `json:"doctors"`
	PendingDoctors   int `json:"pending_doctors"`
	Patients         int `json:"patients"`
	Appointments     int `json:"appointments"`
	UpcomingBookings int `json:"upcoming_appointments"`
}
