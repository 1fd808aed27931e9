package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault-backend/internal/config"
	"filevault-backend/internal/models"
)

func newProfileClient(t *testing.T, handler http.HandlerFunc) *ProfileClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{SupabaseURL: server.URL, SupabasePublishableKey: "anon"})
	require.NoError(t, err)
	return NewProfileClient(client.Supabase, "users")
}

func TestProfileClient_GetProfile(t *testing.T) {
	p := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"u1","nombre":"Ana","email":"ana@example.com"}]`))
	})

	profile, err := p.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.UserProfile{ID: "u1", Nombre: "Ana", Email: "ana@example.com"}, *profile)
}

func TestProfileClient_GetProfileMissing(t *testing.T) {
	p := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	profile, err := p.GetProfile(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileClient_GetProfileError(t *testing.T) {
	p := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"boom"}`))
	})

	profile, err := p.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "failed to get profile")
}

func TestProfileClient_InsertProfile(t *testing.T) {
	var inserted models.UserProfile
	p := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
		w.WriteHeader(http.StatusCreated)
	})

	err := p.InsertProfile(context.Background(), &models.UserProfile{ID: "u1", Nombre: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.UserProfile{ID: "u1", Nombre: "Ana", Email: "ana@example.com"}, inserted)
}

func TestProfileClient_InsertProfileError(t *testing.T) {
	p := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})

	err := p.InsertProfile(context.Background(), &models.UserProfile{ID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert profile")
}
