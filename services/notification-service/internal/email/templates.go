package email

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
)

var (
	ErrNoRecipient      = errors.New("email recipient missing")
	ErrUnsupportedEvent = errors.New("no email template for event")
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Build renders the patient email for an appointment event.
func Build(eventType string, a events.Appointment) (Message, error) {
	if strings.TrimSpace(a.PatientEmail) == "" {
		return Message{}, ErrNoRecipient
	}
	doctor := a.DoctorName
	if doctor == "" {
		doctor = "your doctor"
	}
	when := a.Date + " at " + shortClock(a.StartTime)
	if a.EndTime != "" {
		when = fmt.Sprintf("%s from %s to %s", a.Date, shortClock(a.StartTime), shortClock(a.EndTime))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greetingName(a.PatientName))

	var subject string
	switch eventType {
	case events.AppointmentBooked:
		subject = "Appointment confirmed with " + doctor
		fmt.Fprintf(&b, "Your appointment with %s on %s is confirmed.\n", doctor, when)
		if a.Reason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", a.Reason)
		}
	case events.AppointmentCancelled:
		subject = "Appointment cancelled with " + doctor
		fmt.Fprintf(&b, "Your appointment with %s on %s has been cancelled", doctor, when)
		switch a.CancelledBy {
		case "doctor":
			b.WriteString(" by the doctor")
		case "admin":
			b.WriteString(" by the clinic")
		}
		b.WriteString(".\n")
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, eventType)
	}
	fmt.Fprintf(&b, "\nAppointment reference: %s\n", a.AppointmentID)

	return Message{To: a.PatientEmail, Subject: subject, Body: b.String()}, nil
}

// BuildReminder renders the reminder sent lead ahead of the appointment.
func BuildReminder(a events.Appointment, lead time.Duration) (Message, error) {
	if strings.TrimSpace(a.PatientEmail) == "" {
		return Message{}, ErrNoRecipient
	}
	doctor := a.DoctorName
	if doctor == "" {
		doctor = "your doctor"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greetingName(a.PatientName))
	fmt.Fprintf(&b, "This is a reminder that your appointment with %s is %s, on %s at %s.\n",
		doctor, describeLead(lead), a.Date, shortClock(a.StartTime))
	fmt.Fprintf(&b, "\nAppointment reference: %s\n", a.AppointmentID)
	return Message{To: a.PatientEmail, Subject: "Reminder: appointment with " + doctor, Body: b.String()}, nil
}

func describeLead(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("in %d days", int(d.Hours())/24)
	case d >= 24*time.Hour:
		return "tomorrow"
	case d >= 2*time.Hour:
		return fmt.Sprintf("in %d hours", int(d.Hours()))
	case d >= time.Hour:
		return "in 1 hour"
	case d > 0:
		return fmt.Sprintf("in %d minutes", int(d.Minutes()))
	default:
		return "coming up"
	}
}

func shortClock(c string) string {
	if len(c) == len("15:04:05") && strings.HasSuffix(c, ":00") {
		return c[:5]
	}
	return c
}

func greetingName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "there"
	}
	return name
}
