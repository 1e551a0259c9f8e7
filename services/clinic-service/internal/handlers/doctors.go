package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/scheduling"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

// DoctorDirectory looks up doctor profiles.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	ListDoctors(ctx context.Context, approvedOnly bool, specialization string) ([]model.Doctor, error)
}

// DoctorHandler serves doctor profiles and their weekly availability.
type DoctorHandler struct {
	profiles  DoctorDirectory
	rules     *storage.AvailabilityRepository
	store     scheduling.Store
	scheduler *scheduling.Service
	logger    *slog.Logger
}

func NewDoctorHandler(profiles DoctorDirectory, rules *storage.AvailabilityRepository, store scheduling.Store, scheduler *scheduling.Service, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{profiles: profiles, rules: rules, store: store, scheduler: scheduler, logger: logger}
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	approvedOnly := identity(r).Role != string(model.RoleAdmin)
	doctors, err := h.profiles.ListDoctors(r.Context(), approvedOnly, r.URL.Query().Get("specialization"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list(doctors))
}

// Get returns a doctor profile. Unapproved doctors are only visible to admins
// and to the doctor themself.
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	if !scheduling.CanViewDoctor(actor(r), doctor) {
		writeError(w, r, h.logger, &notFoundError{what: "doctor", id: doctor.ID})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, doctor)
}

type createRuleRequest struct {
	DoctorID     string `json:"doctor_id" validate:"omitempty,uuid"`
	DayOfWeek    *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime    string `json:"start_time" validate:"required,clock"`
	EndTime      string `json:"end_time" validate:"required,clock"`
	SlotDuration int    `json:"slot_duration" validate:"omitempty,min=1,max=1440"`
	IsActive     *bool  `json:"is_active"`
}

type updateRuleRequest struct {
	DoctorID     *string `json:"doctor_id"`
	DayOfWeek    *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartTime    *string `json:"start_time" validate:"omitempty,clock"`
	EndTime      *string `json:"end_time" validate:"omitempty,clock"`
	SlotDuration *int    `json:"slot_duration" validate:"omitempty,min=1,max=1440"`
	IsActive     *bool   `json:"is_active"`
}

func (h *DoctorHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	rules, err := h.rules.ListActive(r.Context(), doctor.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list(rules))
}

func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "availabilityID", "availability")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rule, err := h.rules.Get(r.Context(), doctor.ID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rule)
}

func (h *DoctorHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	if err := scheduling.AuthorizeRuleMutation(actor(r), doctor); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req createRuleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.DoctorID != "" && !strings.EqualFold(req.DoctorID, doctor.ID) {
		writeError(w, r, h.logger, scheduling.ErrImmutableField)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule, err := scheduling.NormalizeRule(model.AvailabilityRule{
		DoctorID:            doctor.ID,
		DayOfWeek:           *req.DayOfWeek,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDuration,
		IsActive:            active,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	created, err := h.rules.Create(r.Context(), rule)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *DoctorHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	if err := scheduling.AuthorizeRuleMutation(actor(r), doctor); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, "availabilityID", "availability")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateRuleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.rules.Get(r.Context(), doctor.ID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.DoctorID != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.DoctorID))
		req.DoctorID = &normalized
	}
	updated, err := scheduling.ApplyRuleUpdate(existing, scheduling.RulePatch{
		DoctorID:            req.DoctorID,
		DayOfWeek:           req.DayOfWeek,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDuration,
		IsActive:            req.IsActive,
	}, doctor.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	saved, err := h.rules.Update(r.Context(), updated)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, saved)
}

func (h *DoctorHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.loadDoctor(w, r)
	if !ok {
		return
	}
	if err := scheduling.AuthorizeRuleMutation(actor(r), doctor); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := pathID(r, "availabilityID", "availability")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.rules.Delete(r.Context(), doctor.ID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Slots lists the free slots of a doctor on ?date=YYYY-MM-DD.
func (h *DoctorHandler) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "doctorID", "doctor")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := h.scheduler.ParseDate(raw)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.profiles.GetDoctor(r.Context(), doctorID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	availability, err := h.scheduler.FindAvailableSlots(r.Context(), h.store, doctorID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availability)
}

func (h *DoctorHandler) loadDoctor(w http.ResponseWriter, r *http.Request) (model.Doctor, bool) {
	doctorID, err := pathID(r, "doctorID", "doctor")
	if err != nil {
		writeError(w, r, h.logger, err)
		return model.Doctor{}, false
	}
	doctor, err := h.profiles.GetDoctor(r.Context(), doctorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return model.Doctor{}, false
	}
	return doctor, true
}
