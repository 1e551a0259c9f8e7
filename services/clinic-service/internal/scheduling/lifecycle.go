package scheduling

import (
	"fmt"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// scheduled is the only non-terminal state.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusScheduled: {model.StatusCompleted, model.StatusCancelled},
}

func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func Transition(from, to model.AppointmentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Cancel returns the status after cancelling an appointment in state current.
// Cancelling an already cancelled appointment is a no-op (changed=false).
func Cancel(current model.AppointmentStatus) (next model.AppointmentStatus, changed bool, err error) {
	if current == model.StatusCancelled {
		return current, false, nil
	}
	if err := Transition(current, model.StatusCancelled); err != nil {
		return current, false, err
	}
	return model.StatusCancelled, true, nil
}
