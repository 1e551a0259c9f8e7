package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppointmentEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	appt := model.Appointment{
		ID: "appt-1", Date: "2026-01-05", StartTime: "09:00:00", EndTime: "09:30:00",
		AppointmentDate: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), Status: model.StatusScheduled, Reason: "checkup",
	}
	doctor := model.Doctor{ID: "doc-1", FirstName: "Ada", LastName: "Lovelace"}
	patient := model.Patient{ID: "pat-1", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"}

	evt, err := NewAppointmentEvent(EventAppointmentBooked, appt, doctor, patient, at)
	require.NoError(t, err)
	assert.Equal(t, AggregateAppointment, evt.AggregateType)
	assert.Equal(t, "appt-1", evt.AggregateID)
	assert.Equal(t, EventAppointmentBooked, evt.EventType)

	var payload AppointmentPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "Dr. Ada Lovelace", payload.DoctorName)
	assert.Equal(t, "Alan Turing", payload.PatientName)
	assert.Equal(t, "alan@example.com", payload.PatientEmail)
	assert.Equal(t, "scheduled", payload.Status)
	assert.Equal(t, at, payload.OccurredAt)
}

func TestNewCancellationEventRecordsActor(t *testing.T) {
	appt := model.Appointment{ID: "appt-2", Date: "2026-01-05", StartTime: "10:00:00", Status: model.StatusCancelled}
	evt, err := NewCancellationEvent(appt, model.Doctor{ID: "doc-1"}, model.Patient{ID: "pat-1"}, model.RoleDoctor, time.Now())
	require.NoError(t, err)
	assert.Equal(t, EventAppointmentCancelled, evt.EventType)

	var payload AppointmentPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "doctor", payload.CancelledBy)
	assert.Equal(t, "cancelled", payload.Status)
	assert.Empty(t, payload.EndTime)
}

func TestMessagesUseEventTypeAsTopic(t *testing.T) {
	_, err := otelx.Setup(context.Background(), otelx.Config{})
	require.NoError(t, err)

	records := []Record{
		{EventID: "e-1", AggregateID: "appt-1", EventType: EventAppointmentBooked, Payload: []byte(`{"a":1}`),
			Trace: otelx.TraceContext{Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}},
		{EventID: "e-2", AggregateID: "appt-1", EventType: EventAppointmentCancelled, Payload: []byte(`{"a":2}`)},
	}
	msgs := Messages(context.Background(), records)
	require.Len(t, msgs, 2)

	assert.Equal(t, EventAppointmentBooked, msgs[0].Topic)
	assert.Equal(t, "appt-1", string(msgs[0].Key))
	assert.Equal(t, kafkax.EventMeta{EventID: "e-1", EventType: EventAppointmentBooked}, kafkax.ExtractEventMeta(msgs[0]))
	assert.Equal(t, records[0].Trace.Traceparent, kafkax.HeaderValue(msgs[0].Headers, "traceparent"))

	assert.Equal(t, EventAppointmentCancelled, msgs[1].Topic)
	assert.Empty(t, kafkax.HeaderValue(msgs[1].Headers, "traceparent"))
}
