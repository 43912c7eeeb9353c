package provider

import (
	"context"
)

// Profile is the normalized identity a federated provider vouches for.
// It contains provider facts only; the backend decides what account it
// maps to.
type Profile struct {
	Provider      string // e.g. "google"
	SubjectID     string // provider-scoped unique user identifier (sub)
	Name          string
	Email         string
	AvatarURL     string
	EmailVerified bool
}

// FederatedProvider is the contract every external sign-in provider
// must implement. Implementations return identity facts only and never
// touch session state.
type FederatedProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the authorization URL that starts the
	// interactive flow. State and PKCE parameters come from the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode redeems the authorization code and returns the
	// verified profile.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*Profile, error)
}
