package scheduling

import (
	"testing"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	statuses := []model.AppointmentStatus{model.StatusScheduled, model.StatusCompleted, model.StatusCancelled}
	allowed := map[[2]model.AppointmentStatus]bool{
		{model.StatusScheduled, model.StatusCompleted}: true,
		{model.StatusScheduled, model.StatusCancelled}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]model.AppointmentStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
			if want {
				assert.NoError(t, Transition(from, to))
			} else {
				assert.ErrorIs(t, Transition(from, to), ErrInvalidTransition)
			}
		}
	}
}

func TestCancel(t *testing.T) {
	next, changed, err := Cancel(model.StatusScheduled)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCancelled, next)

	next, changed, err = Cancel(model.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCancelled, next)

	_, _, err = Cancel(model.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
