package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// TxStore reads rules and appointments through an open transaction so that
// booking checks see the same snapshot the insert commits against.
type TxStore struct {
	tx pgx.Tx
}

func NewTxStore(tx pgx.Tx) TxStore {
	return TxStore{tx: tx}
}

func (s TxStore) FindActiveRule(ctx context.Context, doctorID string, weekday time.Weekday) (model.AvailabilityRule, bool, error) {
	return findActiveRule(ctx, s.tx, doctorID, weekday)
}

func (s TxStore) FindAppointments(ctx context.Context, doctorID, date string, excludeStatuses ...model.AppointmentStatus) ([]model.Appointment, error) {
	return findAppointments(ctx, s.tx, doctorID, date, excludeStatuses)
}
