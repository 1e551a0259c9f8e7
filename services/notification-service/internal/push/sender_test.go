package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSenderPostsJSON(t *testing.T) {
	var got Notification
	var authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := Notification{RecipientID: "pat-1", AppointmentID: "appt-1", EventType: "clinic.appointment.booked.v1", Message: "booked"}
	require.NoError(t, NewWebhookSender(srv.URL, "tok").Send(context.Background(), n))
	assert.Equal(t, n, got)
	assert.Equal(t, "Bearer tok", authz)
}

func TestWebhookSenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, "").Send(context.Background(), Notification{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	assert.Error(t, NewWebhookSender("", "").Send(context.Background(), Notification{}))
}
