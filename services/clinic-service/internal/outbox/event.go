package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

const (
	AggregateAppointment = "appointment"

	EventAppointmentBooked    = "clinic.appointment.booked.v1"
	EventAppointmentCancelled = "clinic.appointment.cancelled.v1"
)

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is the JSON body of every appointment event.
type AppointmentPayload struct {
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

func NewAppointmentEvent(eventType string, appt model.Appointment, doctor model.Doctor, patient model.Patient, at time.Time) (Event, error) {
	return appointmentEvent(eventType, appointmentPayload(appt, doctor, patient, at))
}

// NewCancellationEvent records who cancelled the appointment (patient, doctor or admin).
func NewCancellationEvent(appt model.Appointment, doctor model.Doctor, patient model.Patient, cancelledBy model.Role, at time.Time) (Event, error) {
	p := appointmentPayload(appt, doctor, patient, at)
	p.CancelledBy = string(cancelledBy)
	return appointmentEvent(EventAppointmentCancelled, p)
}

func appointmentPayload(appt model.Appointment, doctor model.Doctor, patient model.Patient, at time.Time) AppointmentPayload {
	return AppointmentPayload{
		AppointmentID:   appt.ID,
		DoctorID:        doctor.ID,
		DoctorName:      doctor.DisplayName(),
		PatientID:       patient.ID,
		PatientName:     patient.FirstName + " " + patient.LastName,
		PatientEmail:    patient.Email,
		Date:            appt.Date,
		StartTime:       appt.StartTime,
		EndTime:         appt.EndTime,
		AppointmentDate: appt.AppointmentDate,
		Status:          string(appt.Status),
		Reason:          appt.Reason,
		OccurredAt:      at.UTC(),
	}
}

func appointmentEvent(eventType string, p AppointmentPayload) (Event, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   p.AppointmentID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
