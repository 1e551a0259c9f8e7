package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

type AdminHandler struct {
	profiles *storage.ProfileRepository
	logger   *slog.Logger
}

func NewAdminHandler(profiles *storage.ProfileRepository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{profiles: profiles, logger: logger}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profiles.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	role := model.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "role must be one of [patient doctor admin]")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.profiles.ListUsers(r.Context(), role, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list(users))
}

func (h *AdminHandler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID", "doctor")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	doctor, err := h.profiles.ApproveDoctor(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("doctor approved", "doctor_id", doctor.ID, "by_user", identity(r).UserID)
	httpx.WriteJSON(w, http.StatusOK, doctor)
}
