package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"healthsync/internal/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

// mockRestServer emulates the slice of the hosted REST surface the
// gateway exercises: eq filters on id/email/user_id, desc ordering,
// limit, and representation-returning inserts.
type mockRestServer struct {
	rows seedRows
	reqs []*http.Request
}

type seedRows struct {
	users    []model.UserProfile
	symptoms []model.SymptomLog
	health   []model.HealthData
}

func newMockRestServer(t *testing.T, seed seedRows) (*httptest.Server, *mockRestServer) {
	t.Helper()
	m := &mockRestServer{rows: seed}

	r := mux.NewRouter()
	r.HandleFunc("/rest/v1/{table}", func(w http.ResponseWriter, req *http.Request) {
		m.reqs = append(m.reqs, req.Clone(context.Background()))
		table := mux.Vars(req)["table"]
		switch req.Method {
		case http.MethodGet:
			m.handleSelect(t, w, req, table)
		case http.MethodPost:
			m.handleInsert(t, w, req, table)
		case http.MethodPatch:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, m
}

func (m *mockRestServer) handleSelect(t *testing.T, w http.ResponseWriter, req *http.Request, table string) {
	q := req.URL.Query()
	limit := 0
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		require.NoError(t, err)
		limit = n
	}

	switch table {
	case TableUsers:
		var out []model.UserProfile
		for _, u := range m.rows.users {
			if v := q.Get("id"); v != "" && v != "eq."+u.ID {
				continue
			}
			if v := q.Get("email"); v != "" && v != "eq."+u.Email {
				continue
			}
			out = append(out, u)
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		writeJSON(t, w, out)
	case TableSymptomLogs:
		var out []model.SymptomLog
		for _, s := range m.rows.symptoms {
			if v := q.Get("user_id"); v != "" && v != "eq."+s.UserID {
				continue
			}
			out = append(out, s)
		}
		if order := q.Get("order"); order == "logged_at.desc" {
			sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt) })
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		writeJSON(t, w, out)
	case TableHealthDataCache:
		var out []model.HealthData
		for _, h := range m.rows.health {
			if v := q.Get("user_id"); v != "" && v != "eq."+h.UserID {
				continue
			}
			out = append(out, h)
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		writeJSON(t, w, out)
	default:
		writeJSON(t, w, []struct{}{})
	}
}

func (m *mockRestServer) handleInsert(t *testing.T, w http.ResponseWriter, req *http.Request, table string) {
	switch table {
	case TableSymptomLogs:
		var row model.SymptomLog
		require.NoError(t, json.NewDecoder(req.Body).Decode(&row))
		row.ID = "sym-101"
		if strings.Contains(req.Header.Get("Prefer"), "return=representation") {
			w.WriteHeader(http.StatusCreated)
			writeJSON(t, w, []model.SymptomLog{row})
			return
		}
		w.WriteHeader(http.StatusCreated)
	case TableHealthDataCache:
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusCreated)
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newTestGateway(srv *httptest.Server) Gateway {
	return Gateway{
		Client:  srv.Client(),
		BaseURL: srv.URL,
		AnonKey: "anon-key",
		Token:   func() string { return "session-token" },
		Logger:  nopLogger{},
	}
}

func TestUserFindByEmail_LowerCasesLookup(t *testing.T) {
	srv, m := newMockRestServer(t, seedRows{
		users: []model.UserProfile{{ID: "user-1", Email: "ada@example.com"}},
	})
	g := newTestGateway(srv)

	u, err := g.UserFindByEmail(context.Background(), "Ada@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)

	require.Len(t, m.reqs, 1)
	assert.Equal(t, "eq.ada@example.com", m.reqs[0].URL.Query().Get("email"))
	assert.Equal(t, "anon-key", m.reqs[0].Header.Get("apikey"))
	assert.Equal(t, "Bearer session-token", m.reqs[0].Header.Get("Authorization"))
}

func TestUserFindByID_NotFound(t *testing.T) {
	srv, _ := newMockRestServer(t, seedRows{})
	g := newTestGateway(srv)

	_, err := g.UserFindByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestAnonymousFallsBackToAnonKey(t *testing.T) {
	srv, m := newMockRestServer(t, seedRows{})
	g := newTestGateway(srv)
	g.Token = func() string { return "" }

	_, err := g.UserFindByEmail(context.Background(), "new@example.com")
	assert.ErrorIs(t, err, ErrRowNotFound)
	require.Len(t, m.reqs, 1)
	assert.Equal(t, "Bearer anon-key", m.reqs[0].Header.Get("Authorization"))
}

func TestSymptomLogsFind_MostRecentThirty(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := make([]model.SymptomLog, 45)
	for i := range seed {
		seed[i] = model.SymptomLog{
			ID:       fmt.Sprintf("s%d", i),
			UserID:   "user-1",
			Symptom:  "headache",
			LoggedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	// Plus noise rows for another user.
	seed = append(seed, model.SymptomLog{ID: "other", UserID: "user-2", LoggedAt: base.Add(1000 * time.Hour)})

	srv, _ := newMockRestServer(t, seedRows{symptoms: seed})
	g := newTestGateway(srv)

	rows, err := g.SymptomLogsFind(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, rows, model.LogHistoryLimit)
	assert.Equal(t, "s44", rows[0].ID)
	assert.Equal(t, "s15", rows[model.LogHistoryLimit-1].ID)
	for _, r := range rows {
		assert.Equal(t, "user-1", r.UserID)
	}
}

func TestSymptomLogInsert_ReturnsRepresentation(t *testing.T) {
	srv, m := newMockRestServer(t, seedRows{})
	g := newTestGateway(srv)

	inserted, err := g.SymptomLogInsert(context.Background(), model.SymptomLog{
		UserID: "user-1", Symptom: "nausea", Severity: 2, LoggedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "sym-101", inserted.ID)
	assert.Equal(t, "nausea", inserted.Symptom)

	require.Len(t, m.reqs, 1)
	assert.Equal(t, "return=representation", m.reqs[0].Header.Get("Prefer"))
}

func TestHealthDataUpsert_SendsMergeDuplicates(t *testing.T) {
	srv, m := newMockRestServer(t, seedRows{})
	g := newTestGateway(srv)

	err := g.HealthDataUpsert(context.Background(), model.HealthData{UserID: "user-1", Steps: 12})
	require.NoError(t, err)

	require.Len(t, m.reqs, 1)
	assert.Equal(t, http.MethodPost, m.reqs[0].Method)
	assert.Equal(t, "resolution=merge-duplicates", m.reqs[0].Header.Get("Prefer"))
	assert.Equal(t, "user_id", m.reqs[0].URL.Query().Get("on_conflict"))
}

func TestHealthDataFind_Found(t *testing.T) {
	srv, _ := newMockRestServer(t, seedRows{
		health: []model.HealthData{{UserID: "user-1", Steps: 9001}},
	})
	g := newTestGateway(srv)

	h, err := g.HealthDataFind(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 9001, h.Steps)
}

func TestRemoteErrorIncludesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
	}))
	t.Cleanup(srv.Close)
	g := newTestGateway(srv)

	_, err := g.UserFindByID(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "JWT expired")
}

func TestUserUpdate_PatchesByID(t *testing.T) {
	srv, m := newMockRestServer(t, seedRows{})
	g := newTestGateway(srv)

	city := "Delft"
	err := g.UserUpdate(context.Background(), "user-1", model.ProfileUpdate{City: &city})
	require.NoError(t, err)

	require.Len(t, m.reqs, 1)
	assert.Equal(t, http.MethodPatch, m.reqs[0].Method)
	assert.Equal(t, "eq.user-1", m.reqs[0].URL.Query().Get("id"))
}
