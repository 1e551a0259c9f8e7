package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/scheduling"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

// AppointmentStore persists appointments. Writes run in a transaction opened by Begin.
type AppointmentStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BookingStore(tx pgx.Tx) scheduling.Store
	LockDoctorDay(ctx context.Context, tx pgx.Tx, doctorID, date string) error
	Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.AppointmentStatus) (time.Time, error)
	List(ctx context.Context, f storage.ListFilter) ([]model.Appointment, error)
}

// Participants resolves the doctor and patient profiles behind an appointment.
type Participants interface {
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	GetDoctorByUserID(ctx context.Context, userID string) (model.Doctor, error)
	GetPatient(ctx context.Context, id string) (model.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (model.Patient, error)
}

type EventOutbox interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type AppointmentHandler struct {
	appointments AppointmentStore
	profiles     Participants
	outboxRepo   EventOutbox
	scheduler    *scheduling.Service
	logger       *slog.Logger
}

func NewAppointmentHandler(appointments AppointmentStore, profiles Participants, outboxRepo EventOutbox, scheduler *scheduling.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		profiles:     profiles,
		outboxRepo:   outboxRepo,
		scheduler:    scheduler,
		logger:       logger,
	}
}

type createAppointmentRequest struct {
	DoctorID        string `json:"doctor_id" validate:"required,uuid"`
	Date            string `json:"date" validate:"required,date"`
	StartTime       string `json:"start_time" validate:"required,clock"`
	EndTime         string `json:"end_time" validate:"required,clock"`
	AppointmentType string `json:"appointment_type" validate:"omitempty,max=50"`
	Reason          string `json:"reason" validate:"omitempty,max=500"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
}

// List returns the caller's appointments: a patient's own, a doctor's own, or all for admins.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := storage.ListFilter{Status: model.AppointmentStatus(r.URL.Query().Get("status"))}

	switch model.Role(identity(r).Role) {
	case model.RolePatient:
		patient, err := h.profiles.GetPatientByUserID(ctx, identity(r).UserID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		filter.PatientID = patient.ID
	case model.RoleDoctor:
		doctor, err := h.profiles.GetDoctorByUserID(ctx, identity(r).UserID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		filter.DoctorID = doctor.ID
	case model.RoleAdmin:
	default:
		writeError(w, r, h.logger, scheduling.ErrUnauthorized)
		return
	}

	appts, err := h.appointments.List(ctx, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list(appts))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID", "appointment")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	appt, err := h.appointments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.authorizeParticipant(r.Context(), actor(r), appt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

// Create books an interval for the calling patient. The overlap check and the
// insert run in one transaction holding the doctor-day advisory lock.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	patient, err := h.profiles.GetPatientByUserID(ctx, identity(r).UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	doctor, err := h.profiles.GetDoctor(ctx, strings.ToLower(req.DoctorID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	date, err := h.scheduler.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	day := date.Format(scheduling.DateLayout)

	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.appointments.LockDoctorDay(ctx, tx, doctor.ID, day); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	booking, err := h.scheduler.ValidateNewBooking(ctx, h.appointments.BookingStore(tx), scheduling.BookingRequest{
		DoctorID:  doctor.ID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	apptType := strings.TrimSpace(req.AppointmentType)
	if apptType == "" {
		apptType = "consultation"
	}
	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		Date:            day,
		StartTime:       booking.StartClock,
		EndTime:         booking.EndClock,
		AppointmentDate: booking.Start,
		Status:          model.StatusScheduled,
		AppointmentType: apptType,
		Reason:          strings.TrimSpace(req.Reason),
		Notes:           strings.TrimSpace(req.Notes),
	}
	if err := h.appointments.Create(ctx, tx, &appt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	evt, err := outbox.NewAppointmentEvent(outbox.EventAppointmentBooked, appt, doctor, patient, time.Now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, evt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"date", appt.Date,
		"start", appt.StartTime,
		"end", appt.EndTime,
	)
	httpx.WriteJSON(w, http.StatusCreated, appt)
}

// Cancel marks the appointment cancelled. Repeating it is harmless.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID", "appointment")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ctx := r.Context()
	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appointments.GetForUpdate(ctx, tx, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	caller := actor(r)
	if err := h.authorizeParticipant(ctx, caller, appt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	next, changed, err := scheduling.Cancel(appt.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !changed {
		httpx.WriteJSON(w, http.StatusOK, appt)
		return
	}

	updatedAt, err := h.appointments.UpdateStatus(ctx, tx, appt.ID, next)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	appt.Status = next
	appt.UpdatedAt = updatedAt

	doctor, err := h.profiles.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	patient, err := h.profiles.GetPatient(ctx, appt.PatientID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	evt, err := outbox.NewCancellationEvent(appt, doctor, patient, caller.Role, updatedAt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, evt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("appointment cancelled", "appointment_id", appt.ID, "by_user", caller.UserID, "role", caller.Role)
	httpx.WriteJSON(w, http.StatusOK, appt)
}

// authorizeParticipant lets admins and the appointment's own patient or doctor through.
func (h *AppointmentHandler) authorizeParticipant(ctx context.Context, caller scheduling.Actor, appt model.Appointment) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		patient, err := h.profiles.GetPatientByUserID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if patient.ID == appt.PatientID {
			return nil
		}
	case model.RoleDoctor:
		doctor, err := h.profiles.GetDoctorByUserID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if doctor.ID == appt.DoctorID {
			return nil
		}
	}
	return scheduling.ErrUnauthorized
}
