package scheduling

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

type memStore struct {
	rules []model.AvailabilityRule
	appts []model.Appointment
	err   error
}

func (m *memStore) FindActiveRule(_ context.Context, doctorID string, weekday time.Weekday) (model.AvailabilityRule, bool, error) {
	if m.err != nil {
		return model.AvailabilityRule{}, false, m.err
	}
	for _, r := range m.rules {
		if r.DoctorID == doctorID && r.DayOfWeek == int(weekday) && r.IsActive {
			return r, true, nil
		}
	}
	return model.AvailabilityRule{}, false, nil
}

func (m *memStore) FindAppointments(_ context.Context, doctorID, date string, excludeStatuses ...model.AppointmentStatus) ([]model.Appointment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Appointment
	for _, a := range m.appts {
		if a.DoctorID != doctorID || a.Date != date || slices.Contains(excludeStatuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) book(doctorID, date, start, end string) *model.Appointment {
	m.appts = append(m.appts, model.Appointment{
		ID:        fmt.Sprintf("appt-%d", len(m.appts)+1),
		DoctorID:  doctorID,
		PatientID: "patient-1",
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    model.StatusScheduled,
	})
	return &m.appts[len(m.appts)-1]
}

const (
	doctorID = "doctor-1"
	// 2026-01-05 is a Monday.
	monday = "2026-01-05"
)

func mondayRule() model.AvailabilityRule {
	return model.AvailabilityRule{
		ID:                  "rule-1",
		DoctorID:            doctorID,
		DayOfWeek:           int(time.Monday),
		StartTime:           "09:00:00",
		EndTime:             "10:00:00",
		SlotDurationMinutes: 30,
		IsActive:            true,
	}
}

func mustDate(s string) time.Time {
	d, err := ParseDate(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func at(date time.Time, h, m int) time.Time {
	return date.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}
