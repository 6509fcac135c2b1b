package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		AnonKey:    "anon-key",
		Logger:     nopLogger{},
	}
}

func sessionJSON(userID string, email string) map[string]any {
	return map[string]any{
		"access_token":  "tok-access",
		"refresh_token": "tok-refresh",
		"expires_in":    3600,
		"user":          map[string]string{"id": userID, "email": email},
	}
}

func TestSignInWithPassword(t *testing.T) {
	var gotPath, gotGrant, gotAPIKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotGrant = r.URL.Query().Get("grant_type")
		gotAPIKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(sessionJSON("user-1", "ada@example.com")))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	sess, err := c.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "/auth/v1/token", gotPath)
	assert.Equal(t, "password", gotGrant)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, "ada@example.com", gotBody["email"])

	assert.Equal(t, "tok-access", sess.AccessToken)
	assert.Equal(t, "tok-refresh", sess.RefreshToken)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "ada@example.com", sess.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 10*time.Second)
}

func TestSignInWithPassword_ProviderErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Equal(t, "invalid_grant", pe.Code)
	assert.Equal(t, "Invalid login credentials", pe.Message)
	assert.Contains(t, pe.Error(), "Invalid login credentials")
}

func TestSignInWithPassword_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream timeout</html>"))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Contains(t, pe.Message, "upstream timeout")
}

func TestRefreshSession_RejectionEmitsSignedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	var events []SessionEvent
	c.OnSessionChange(func(ev SessionEvent) {
		events = append(events, ev)
	})

	_, err := c.RefreshSession(context.Background(), "revoked")
	require.Error(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, SessionSignedOut, events[0])
}

func TestRefreshSession_SuccessEmitsRefreshed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		require.NoError(t, json.NewEncoder(w).Encode(sessionJSON("user-1", "ada@example.com")))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	var events []SessionEvent
	c.OnSessionChange(func(ev SessionEvent) {
		events = append(events, ev)
	})

	sess, err := c.RefreshSession(context.Background(), "tok-refresh")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	require.Len(t, events, 1)
	assert.Equal(t, SessionRefreshed, events[0])
}

func TestRefreshSession_ServerErrorDoesNotEmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	emitted := false
	c.OnSessionChange(func(SessionEvent) { emitted = true })

	_, err := c.RefreshSession(context.Background(), "tok-refresh")
	require.Error(t, err)
	assert.False(t, emitted)
}

func TestSendVerificationEmail(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/resend", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	require.NoError(t, c.SendVerificationEmail(context.Background(), "ada@example.com"))
	assert.Equal(t, "signup", gotBody["type"])
	assert.Equal(t, "ada@example.com", gotBody["email"])
}

func TestSignOut_SendsAccessToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	require.NoError(t, c.SignOut(context.Background(), "tok-access"))
	assert.Equal(t, "Bearer tok-access", gotAuth)
}

func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(time.Now().Add(-time.Minute)).
		Expiration(exp).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("not-checked-client-side")))
	require.NoError(t, err)
	return string(signed)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantSub string
		wantErr bool
	}{
		{
			name:    "valid token",
			token:   signToken(t, "user-1", time.Now().Add(time.Hour)),
			wantSub: "user-1",
		},
		{
			name:    "expired token",
			token:   signToken(t, "user-1", time.Now().Add(-time.Hour)),
			wantErr: true,
		},
		{
			name:    "garbage token",
			token:   "not.a.jwt",
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := ValidateToken(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}
