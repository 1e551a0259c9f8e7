// Package events decodes the appointment events published by clinic-service.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	AppointmentBooked    = "clinic.appointment.booked.v1"
	AppointmentCancelled = "clinic.appointment.cancelled.v1"
)

// Topics lists every topic the notification consumer subscribes to.
var Topics = []string{AppointmentBooked, AppointmentCancelled}

var ErrInvalidPayload = errors.New("invalid appointment payload")

type Appointment struct {
	AppointmentID   string    `json:"appointment_id"`
	DoctorID        string    `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time,omitempty"`
	AppointmentDate time.Time `json:"appointment_date"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	CancelledBy     string    `json:"cancelled_by,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func Decode(raw []byte) (Appointment, error) {
	var a Appointment
	if err := json.Unmarshal(raw, &a); err != nil {
		return Appointment{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if a.AppointmentID == "" || a.Date == "" || a.StartTime == "" {
		return Appointment{}, fmt.Errorf("%w: appointment_id, date and start_time are required", ErrInvalidPayload)
	}
	return a, nil
}
