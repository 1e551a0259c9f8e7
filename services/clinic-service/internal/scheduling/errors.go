package scheduling

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTimeFormat   = errors.New("invalid time format")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidInterval     = errors.New("end time must be after start time")
	ErrInvalidRule         = errors.New("invalid availability rule")
	ErrConflict            = errors.New("requested time overlaps an existing appointment")
	ErrUnauthorized        = errors.New("not allowed to modify this resource")
	ErrImmutableField      = errors.New("field cannot be changed")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrOutsideAvailability = errors.New("requested time is outside the doctor's availability")
)
