package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

type PatientHandler struct {
	profiles *storage.ProfileRepository
	logger   *slog.Logger
}

func NewPatientHandler(profiles *storage.ProfileRepository, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{profiles: profiles, logger: logger}
}

type updatePatientRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,date"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
}

func (h *PatientHandler) Me(w http.ResponseWriter, r *http.Request) {
	patient, err := h.profiles.GetPatientByUserID(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updatePatientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	patient, err := h.profiles.UpdatePatient(r.Context(), identity(r).UserID, storage.PatientUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			httpx.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, patient)
}
