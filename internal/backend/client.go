package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2300031420/Tastoria5/internal/identity"
	"github.com/2300031420/Tastoria5/internal/identity/provider"
)

var (
	// ErrInvalidCredentials means the backend rejected the email/password
	// pair. User-correctable; not retryable.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")

	// ErrUnauthorized means the bearer token was rejected (401-class).
	// Callers must treat the session as dead.
	ErrUnauthorized = errors.New("backend: session token rejected")
)

// Session is a minted backend session: the opaque bearer token plus the
// profile it belongs to.
type Session struct {
	Token string
	User  identity.Identity
}

// Order is a past order as returned by the profile endpoint.
type Order struct {
	ID         string    `json:"id"`
	Restaurant string    `json:"restaurant"`
	TotalPrice int64     `json:"totalPrice"`
	Status     string    `json:"status"`
	PlacedAt   time.Time `json:"placedAt"`
}

// Booking is a table reservation as returned by the profile endpoint.
type Booking struct {
	ID         string    `json:"id"`
	Restaurant string    `json:"restaurant"`
	Guests     int       `json:"guests"`
	Slot       time.Time `json:"slot"`
	Status     string    `json:"status"`
}

// ProfileResponse is the full payload of GET /users/profile.
type ProfileResponse struct {
	User     identity.Identity `json:"user"`
	Orders   []Order           `json:"orders"`
	Bookings []Booking         `json:"bookings"`
}

// Client talks to the remote Tastoria backend API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

type authResponse struct {
	Token   string            `json:"token"`
	User    identity.Identity `json:"user"`
	Message string            `json:"message"`
}

// SignUp registers a new account. The backend sends a verification
// mail; the caller still has to sign in afterwards.
func (c *Client) SignUp(ctx context.Context, name, email, password string) error {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	status, err := c.postJSON(ctx, "/signup", body, &resp)
	if err != nil {
		return err
	}

	if status >= 400 || !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("signup rejected with status %d", status)
		}
		return fmt.Errorf("backend: %s", msg)
	}

	return nil
}

// SignIn exchanges email/password for a session token and profile.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp authResponse
	status, err := c.postJSON(ctx, "/login", body, &resp)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return nil, ErrInvalidCredentials
	case status >= 400:
		return nil, fmt.Errorf("backend: login failed with status %d", status)
	case resp.Token == "":
		return nil, fmt.Errorf("backend: login response missing token")
	}

	return &Session{Token: resp.Token, User: resp.User}, nil
}

// FederatedSignIn exchanges a provider-verified profile for a session
// token and backend profile.
func (c *Client) FederatedSignIn(ctx context.Context, p *provider.Profile) (*Session, error) {
	body := map[string]any{
		"name":     p.Name,
		"email":    p.Email,
		"googleId": p.SubjectID,
		"photoURL": p.AvatarURL,
		"verified": p.EmailVerified,
	}

	var resp authResponse
	status, err := c.postJSON(ctx, "/"+p.Provider, body, &resp)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case status >= 400:
		return nil, fmt.Errorf("backend: federated login failed with status %d", status)
	case resp.Token == "":
		return nil, fmt.Errorf("backend: federated login response missing token")
	}

	return &Session{Token: resp.Token, User: resp.User}, nil
}

// Profile fetches the full profile for the given bearer token.
// Returns ErrUnauthorized on any 401-class response.
func (c *Client) Profile(ctx context.Context, token string) (*ProfileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: profile request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("backend: profile failed with status %d", res.StatusCode)
	}

	var out ProfileResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("backend: failed to decode profile: %w", err)
	}

	return &out, nil
}

// postJSON posts the body and decodes the response into out. Transport
// failures come back as errors; HTTP status handling is left to the
// caller so endpoints can map statuses to their own error kinds.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(payload),
	)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend: request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	// Decode errors on failure statuses are not fatal; the status code
	// alone is enough for the caller to classify them.
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && res.StatusCode < 400 {
		return res.StatusCode, fmt.Errorf("backend: failed to decode %s response: %w", path, err)
	}

	return res.StatusCode, nil
}
