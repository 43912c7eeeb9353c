package httpui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2300031420/Tastoria5/internal/backend"
	"github.com/2300031420/Tastoria5/internal/cart"
	"github.com/2300031420/Tastoria5/internal/httpui"
	"github.com/2300031420/Tastoria5/internal/identity"
	"github.com/2300031420/Tastoria5/internal/identity/provider"
	"github.com/2300031420/Tastoria5/internal/session"
	"github.com/2300031420/Tastoria5/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{}

func (stubBackend) SignUp(context.Context, string, string, string) error { return nil }

func (stubBackend) SignIn(_ context.Context, email, password string) (*backend.Session, error) {
	if email == "user@example.com" && password == "secret1" {
		return &backend.Session{
			Token: "tok-1",
			User:  identity.Identity{ID: "user-1", Name: "Asha", Email: email},
		}, nil
	}
	return nil, backend.ErrInvalidCredentials
}

func (stubBackend) FederatedSignIn(context.Context, *provider.Profile) (*backend.Session, error) {
	return nil, backend.ErrInvalidCredentials
}

func (stubBackend) Profile(context.Context, string) (*backend.ProfileResponse, error) {
	return &backend.ProfileResponse{User: identity.Identity{ID: "user-1"}}, nil
}

func newRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := storage.NewMemoryStore()
	sessions := session.NewManager(stubBackend{}, kv, nil)
	require.NoError(t, sessions.Restore(context.Background()))

	cartStore := cart.NewStore(kv)
	sessions.Subscribe(func(st session.State, ident *identity.Identity) {
		if st == session.StateAuthenticated && ident != nil {
			_ = cartStore.Load(context.Background(), ident.ID)
			return
		}
		cartStore.Unload()
	})

	r := gin.New()
	httpui.NewHandler(sessions, cartStore).RegisterRoutes(r)
	return r, sessions
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCartRequiresAuth(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "/sign-in")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/auth/login", gin.H{"password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginCartFlow(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Add item A: 2 × 100.
	w = do(t, r, http.MethodPost, "/cart", gin.H{
		"item_id": "A",
		"delta":   2,
		"name":    "Filter Coffee",
		"price":   100,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int64 `json:"total"`
		Count int   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 200, resp.Total)
	assert.Equal(t, 2, resp.Count)

	// A delta that would drop below 1 is rejected and nothing changes.
	w = do(t, r, http.MethodPost, "/cart", gin.H{"item_id": "A", "delta": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/cart/total", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "200")

	// Remove the line; the cart is empty again.
	w = do(t, r, http.MethodDelete, "/cart/A", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp.Total)

	// Sign out; the cart routes lock again.
	w = do(t, r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuthCallbackDeniedRedirectsQuietly(t *testing.T) {
	r, sessions := newRouter(t)

	w := do(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Backing out of the consent screen lands back on sign-in with no
	// error payload, and whoever was signed in stays signed in.
	w = do(t, r, http.MethodGet, "/oauth/callback/google?error=access_denied", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "error")

	assert.Equal(t, session.StateAuthenticated, sessions.State())
	require.NotNil(t, sessions.CurrentIdentity())
	assert.Equal(t, "user-1", sessions.CurrentIdentity().ID)
}

func TestMe(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
	assert.Contains(t, w.Body.String(), "authenticated")
}
