package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/scheduling"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrInvalidTimeFormat),
		errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidRule),
		errors.Is(err, scheduling.ErrImmutableField):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrConflict),
		errors.Is(err, scheduling.ErrInvalidTransition),
		storage.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, scheduling.ErrOutsideAvailability):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Unexpected errors are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		httpx.WriteError(w, status, "internal server error")
		return
	}
	if storage.IsConflict(err) {
		err = scheduling.ErrConflict
	}
	httpx.WriteError(w, status, err.Error())
}

// pathID reads a UUID route parameter. Anything unparsable cannot exist.
func pathID(r *http.Request, name, what string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &notFoundError{what: what, id: raw}
	}
	return id.String(), nil
}

type notFoundError struct {
	what, id string
}

func (e *notFoundError) Error() string {
	return e.what + " not found"
}

func (e *notFoundError) Unwrap() error {
	return scheduling.ErrNotFound
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func actor(r *http.Request) scheduling.Actor {
	id := identity(r)
	return scheduling.Actor{UserID: id.UserID, Role: model.Role(id.Role)}
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Data: items}
}
