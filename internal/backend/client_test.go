package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2300031420/Tastoria5/internal/backend"
	"github.com/2300031420/Tastoria5/internal/identity/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["email"] == "user@example.com" && body["password"] == "secret1" {
			json.NewEncoder(w).Encode(map[string]any{
				"token": "tok-1",
				"user": map[string]any{
					"id":    "user-1",
					"name":  "Asha",
					"email": "user@example.com",
				},
			})
			return
		}

		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid credentials"})
	}))
	defer srv.Close()

	c := backend.NewClient(srv.URL, srv.Client())

	sess, err := c.SignIn(context.Background(), "user@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "user@example.com", sess.User.Email)

	_, err = c.SignIn(context.Background(), "user@example.com", "nope")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
}

func TestSignInTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := backend.NewClient(srv.URL, nil)
	_, err := c.SignIn(context.Background(), "user@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, backend.ErrInvalidCredentials)
}

func TestSignUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/signup", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "email already registered",
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "registered",
		})
	}))
	defer srv.Close()

	c := backend.NewClient(srv.URL, srv.Client())

	require.NoError(t, c.SignUp(context.Background(), "Asha", "user@example.com", "secret1"))

	err := c.SignUp(context.Background(), "Asha", "taken@example.com", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestFederatedSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/google", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "goog-123", body["googleId"])
		assert.Equal(t, "user@example.com", body["email"])
		assert.Equal(t, true, body["verified"])

		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": "user-1", "email": "user@example.com"},
		})
	}))
	defer srv.Close()

	c := backend.NewClient(srv.URL, srv.Client())

	sess, err := c.FederatedSignIn(context.Background(), &provider.Profile{
		Provider:      "google",
		SubjectID:     "goog-123",
		Name:          "Asha",
		Email:         "user@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/profile", r.URL.Path)

		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"user":     map[string]any{"id": "user-1", "name": "Asha"},
			"orders":   []map[string]any{{"id": "ord-1", "restaurant": "Hangout Cafe", "totalPrice": 24900}},
			"bookings": []map[string]any{{"id": "bk-1", "restaurant": "TTMM", "guests": 2}},
		})
	}))
	defer srv.Close()

	c := backend.NewClient(srv.URL, srv.Client())

	prof, err := c.Profile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", prof.User.ID)
	require.Len(t, prof.Orders, 1)
	assert.EqualValues(t, 24900, prof.Orders[0].TotalPrice)
	require.Len(t, prof.Bookings, 1)
	assert.Equal(t, 2, prof.Bookings[0].Guests)

	_, err = c.Profile(context.Background(), "stale")
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}
