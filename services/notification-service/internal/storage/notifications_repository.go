package storage

import (
	"context"
	"encoding/json"

	"github.com/md-rashed-zaman/clinicbook/libs/db"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Notification struct {
	EventID       string
	EventType     string
	AppointmentID string
	Channel       string
	Recipient     string
	Subject       string
	Status        string
	Error         string
	Payload       json.RawMessage
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload := n.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, event_type, appointment_id, channel, recipient, subject, status, error, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.EventID, n.EventType, n.AppointmentID, n.Channel, n.Recipient, n.Subject, n.Status, n.Error, []byte(payload))
	return err
}
