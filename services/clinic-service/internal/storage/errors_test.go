package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/scheduling"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	exclusion := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})
	unique := &pgconn.PgError{Code: "23505"}

	assert.True(t, IsConflict(exclusion))
	assert.False(t, IsConflict(unique))
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestNotFoundTranslation(t *testing.T) {
	err := notFound(pgx.ErrNoRows, "appointment", "a-1")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, "appointment a-1: not found")

	other := errors.New("timeout")
	assert.Equal(t, other, notFound(other, "appointment", "a-1"))
}
