package model

import "time"

const DefaultSlotDurationMinutes = 30

// AvailabilityRule is a doctor's recurring open hours for one weekday
// (0 = Sunday). Clock fields are HH:MM:SS.
type AvailabilityRule struct {
	ID                  string    `json:"id"`
	DoctorID            string    `json:"doctor_id"`
	DayOfWeek           int       `json:"day_of_week"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	SlotDurationMinutes int       `json:"slot_duration"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
