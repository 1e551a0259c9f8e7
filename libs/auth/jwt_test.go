package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test-secret"

func TestIssueAndVerify(t *testing.T) {
	m, err := NewTokenManager(testSecret, "clinicbook", time.Hour)
	require.NoError(t, err)

	token, exp, err := m.Issue(Identity{UserID: "user-1", Role: "patient", Email: "p@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-1", Role: "patient", Email: "p@example.com"}, id)
}

func TestVerifyRejectsForeignSecretAndExpiry(t *testing.T) {
	m, err := NewTokenManager(testSecret, "clinicbook", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenManager("another-secret-of-length", "clinicbook", time.Hour)
	require.NoError(t, err)

	token, _, err := other.Issue(Identity{UserID: "user-1", Role: "admin"})
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := m.Issue(Identity{UserID: "user-1", Role: "admin"})
	require.NoError(t, err)
	m.now = time.Now
	_, err = m.Verify(stale)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestShortSecretRejected(t *testing.T) {
	_, err := NewTokenManager("short", "", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))

	_, err = HashPassword("123")
	assert.Error(t, err)
}

func TestRequireAuthAndRole(t *testing.T) {
	m, err := NewTokenManager(testSecret, "clinicbook", time.Hour)
	require.NoError(t, err)
	doctorToken, _, err := m.Issue(Identity{UserID: "doc-user", Role: "doctor"})
	require.NoError(t, err)

	var seen Identity
	h := RequireAuth(m)(RequireRole("admin", "doctor")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "doctor", header: "Bearer " + doctorToken, want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, "doc-user", seen.UserID)

	patientToken, _, err := m.Issue(Identity{UserID: "pat-user", Role: "patient"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	m, err := NewTokenManager(testSecret, "clinicbook", time.Hour)
	require.NoError(t, err)
	adminToken, _, err := m.Issue(Identity{UserID: "admin-user", Role: "admin"})
	require.NoError(t, err)

	h := OptionalAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		_, _ = w.Write([]byte(id.Role))
	}))

	cases := []struct {
		name   string
		header string
		want   int
		role   string
	}{
		{name: "anonymous", header: "", want: http.StatusOK, role: ""},
		{name: "admin", header: "Bearer " + adminToken, want: http.StatusOK, role: "admin"},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, tc.role, rec.Body.String())
			}
		})
	}
}
