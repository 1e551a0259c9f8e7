package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

type AuthHandler struct {
	profiles *storage.ProfileRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

func NewAuthHandler(profiles *storage.ProfileRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{profiles: profiles, tokens: tokens, logger: logger}
}

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required,oneof=patient doctor"`

	Specialization  string  `json:"specialization" validate:"max=120"`
	Qualification   string  `json:"qualification" validate:"max=255"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0,lte=80"`
	LicenseNumber   string  `json:"license_number" validate:"max=64"`
	ConsultationFee float64 `json:"consultation_fee" validate:"gte=0"`
	ClinicName      string  `json:"clinic_name" validate:"max=255"`
	Bio             string  `json:"bio" validate:"max=4000"`

	DateOfBirth string `json:"date_of_birth" validate:"omitempty,date"`
	Address     string `json:"address" validate:"max=500"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Register creates the user and its patient or doctor profile in one transaction.
// Doctors start unapproved.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	tx, err := h.profiles.Begin(ctx)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user := model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         model.Role(req.Role),
	}
	if err := h.profiles.CreateUser(ctx, tx, &user); err != nil {
		if storage.IsUniqueViolation(err) {
			httpx.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	switch user.Role {
	case model.RoleDoctor:
		err = h.profiles.CreateDoctor(ctx, tx, &model.Doctor{
			UserID:          user.ID,
			Specialization:  strings.TrimSpace(req.Specialization),
			Qualification:   strings.TrimSpace(req.Qualification),
			ExperienceYears: req.ExperienceYears,
			LicenseNumber:   strings.TrimSpace(req.LicenseNumber),
			ConsultationFee: req.ConsultationFee,
			ClinicName:      strings.TrimSpace(req.ClinicName),
			Bio:             strings.TrimSpace(req.Bio),
		})
	default:
		err = h.profiles.CreatePatient(ctx, tx, &model.Patient{
			UserID:      user.ID,
			DateOfBirth: req.DateOfBirth,
			Address:     strings.TrimSpace(req.Address),
		})
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.profiles.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if storage.IsNotFound(err) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := map[string]any{"user": user}
	switch user.Role {
	case model.RoleDoctor:
		if doctor, err := h.profiles.GetDoctorByUserID(r.Context(), user.ID); err == nil {
			resp["doctor"] = doctor
		}
	case model.RolePatient:
		if patient, err := h.profiles.GetPatientByUserID(r.Context(), user.ID); err == nil {
			resp["patient"] = patient
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user model.User) {
	token, exp, err := h.tokens.Issue(auth.Identity{UserID: user.ID, Role: string(user.Role), Email: user.Email})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, status, tokenResponse{Token: token, ExpiresAt: exp, User: user})
}
