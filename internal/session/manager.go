package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/2300031420/Tastoria5/internal/backend"
	"github.com/2300031420/Tastoria5/internal/identity"
	"github.com/2300031420/Tastoria5/internal/identity/provider"
	"github.com/2300031420/Tastoria5/internal/logger"
	"github.com/2300031420/Tastoria5/internal/storage"

	"github.com/google/uuid"
)

// Storage keys owned by the manager. Nothing else writes them.
const (
	keyToken = "token"
	keyUser  = "user"
)

const minPasswordLen = 6

// Backend is the slice of the remote API the manager depends on.
type Backend interface {
	SignUp(ctx context.Context, name, email, password string) error
	SignIn(ctx context.Context, email, password string) (*backend.Session, error)
	FederatedSignIn(ctx context.Context, p *provider.Profile) (*backend.Session, error)
	Profile(ctx context.Context, token string) (*backend.ProfileResponse, error)
}

// Subscriber is invoked synchronously on every transition into or out
// of the authenticated state.
type Subscriber func(state State, ident *identity.Identity)

// Manager tracks the single authenticated identity of this app
// instance, exchanges credentials for a backend session token and
// persists it across restarts.
//
// Overlapping auth operations are not cancelled; each operation gets a
// generation at start and a response may only commit if nothing newer
// has committed since, so the last committed write wins and a stale
// response can never overwrite newer state.
type Manager struct {
	api       Backend
	store     storage.Store
	providers *provider.Registry

	mu        sync.Mutex
	state     State
	ident     *identity.Identity
	token     string
	opGen     uint64
	commitGen uint64
	subs      map[uuid.UUID]Subscriber
}

func NewManager(api Backend, store storage.Store, providers *provider.Registry) *Manager {
	if providers == nil {
		providers = provider.NewRegistry()
	}
	return &Manager{
		api:       api,
		store:     store,
		providers: providers,
		state:     StateRestoring,
		subs:      make(map[uuid.UUID]Subscriber),
	}
}

// Restore attempts to resurrect a persisted session. A token without a
// stored identity is invalid and gets discarded; a 401 from the
// backend clears both keys. A transient backend failure leaves the
// persisted keys in place so a later Restore can retry.
func (m *Manager) Restore(ctx context.Context) error {
	gen := m.begin()

	tok, err := m.store.Get(ctx, keyToken)
	if errors.Is(err, storage.ErrNotFound) {
		m.commitSignedOut(gen)
		return nil
	}
	if err != nil {
		// The store itself is failing; the persisted keys stay in
		// place so a later restore can retry.
		m.commitSignedOut(gen)
		return newError(KindTransient, "failed to read persisted session", err)
	}

	raw, err := m.store.Get(ctx, keyUser)
	if errors.Is(err, storage.ErrNotFound) {
		m.clearPersisted(ctx)
		m.commitSignedOut(gen)
		return nil
	}
	if err != nil {
		m.commitSignedOut(gen)
		return newError(KindTransient, "failed to read persisted session", err)
	}

	var saved identity.Identity
	if err := json.Unmarshal(raw, &saved); err != nil {
		m.clearPersisted(ctx)
		m.commitSignedOut(gen)
		return nil
	}

	prof, err := m.api.Profile(ctx, string(tok))
	if errors.Is(err, backend.ErrUnauthorized) {
		m.clearPersisted(ctx)
		m.commitSignedOut(gen)
		return nil
	}
	if err != nil {
		m.commitSignedOut(gen)
		return newError(KindTransient, "session restore failed", err)
	}

	m.commit(ctx, gen, string(tok), saved.Merge(prof.User))
	return nil
}

// SignIn exchanges email/password for a backend session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	if err := validateSignIn(email, password); err != nil {
		return nil, err
	}

	gen := m.begin()

	sess, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			return nil, newError(KindInvalidCredentials, "email or password is incorrect", err)
		}
		return nil, newError(KindTransient, "sign-in failed", err)
	}

	ident, ok := m.commit(ctx, gen, sess.Token, sess.User)
	if !ok {
		return nil, newError(KindTransient, "superseded by a newer auth operation", nil)
	}
	return ident, nil
}

// SignUp registers the account and signs it in. When registration
// succeeds but the follow-up sign-in fails the whole operation reports
// failure; the orphaned account is an accepted limitation.
func (m *Manager) SignUp(ctx context.Context, name, email, password, confirm string) (*identity.Identity, error) {
	if err := validateSignUp(name, email, password, confirm); err != nil {
		return nil, err
	}

	gen := m.begin()

	if err := m.api.SignUp(ctx, name, email, password); err != nil {
		return nil, newError(KindTransient, "sign-up failed", err)
	}

	sess, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			return nil, newError(KindInvalidCredentials, "account created but sign-in was rejected", err)
		}
		return nil, newError(KindTransient, "account created but sign-in failed", err)
	}

	ident, ok := m.commit(ctx, gen, sess.Token, sess.User)
	if !ok {
		return nil, newError(KindTransient, "superseded by a newer auth operation", nil)
	}
	return ident, nil
}

// FederatedAuthURL starts an interactive provider flow and returns the
// URL the user has to visit. An unknown provider name is caller input,
// not a configuration failure: the error is returned and session state
// is left alone.
func (m *Manager) FederatedAuthURL(providerName, state, codeChallenge string) (string, error) {
	p, err := m.providers.Get(providerName)
	if err != nil {
		return "", newError(KindTransient, "federated provider unavailable", err)
	}
	return p.AuthCodeURL(state, codeChallenge), nil
}

// CompleteFederated finishes an interactive flow: redeems the
// authorization code with the provider, then exchanges the verified
// profile with the backend.
func (m *Manager) CompleteFederated(ctx context.Context, providerName, code, codeVerifier string) (*identity.Identity, error) {
	p, err := m.providers.Get(providerName)
	if err != nil {
		return nil, newError(KindTransient, "federated provider unavailable", err)
	}

	gen := m.begin()

	prof, err := p.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return nil, newError(KindTransient, "federated sign-in failed", err)
	}

	sess, err := m.api.FederatedSignIn(ctx, prof)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			return nil, newError(KindInvalidCredentials, "federated account was rejected", err)
		}
		return nil, newError(KindTransient, "federated sign-in failed", err)
	}

	ident, ok := m.commit(ctx, gen, sess.Token, sess.User)
	if !ok {
		return nil, newError(KindTransient, "superseded by a newer auth operation", nil)
	}
	return ident, nil
}

// DismissFederated resolves an interactive flow the user abandoned at
// the provider's consent screen. It is the operation's result, not an
// error state: nothing changes and no message is shown.
func (m *Manager) DismissFederated(providerName string) *Error {
	return newError(KindCancelled, providerName+" sign-in cancelled by user", nil)
}

// SignOut clears the local session. It never fails: local state is
// dropped even when deleting the persisted keys does not work. The
// persisted cart is left untouched.
func (m *Manager) SignOut(ctx context.Context) {
	gen := m.begin()
	m.clearPersisted(ctx)

	m.mu.Lock()
	if gen > m.commitGen {
		m.commitGen = gen
	}
	was := m.state
	m.state = StateUnauthenticated
	m.ident = nil
	m.token = ""
	subs := m.snapshotSubs()
	m.mu.Unlock()

	if was == StateAuthenticated {
		for _, fn := range subs {
			fn(StateUnauthenticated, nil)
		}
	}
}

// Expire is the forced sign-out for a 401-class backend rejection
// observed mid-session. Same effect as SignOut plus a SessionExpired
// error for the caller to surface.
func (m *Manager) Expire(ctx context.Context, cause error) *Error {
	m.SignOut(ctx)
	return newError(KindSessionExpired, "session expired, please sign in again", cause)
}

// Profile fetches the signed-in user's full profile. A 401 forces the
// transition to unauthenticated and clears the persisted keys.
func (m *Manager) Profile(ctx context.Context) (*backend.ProfileResponse, error) {
	m.mu.Lock()
	tok := m.token
	st := m.state
	m.mu.Unlock()

	if st != StateAuthenticated || tok == "" {
		return nil, newError(KindSessionExpired, "not signed in", nil)
	}

	prof, err := m.api.Profile(ctx, tok)
	if errors.Is(err, backend.ErrUnauthorized) {
		return nil, m.Expire(ctx, err)
	}
	if err != nil {
		return nil, newError(KindTransient, "failed to load profile", err)
	}

	m.refreshIdentity(ctx, prof.User)
	return prof, nil
}

// CurrentIdentity returns a copy of the identity when authenticated,
// nil otherwise. Never blocks on the network.
func (m *Manager) CurrentIdentity() *identity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated || m.ident == nil {
		return nil
	}
	out := *m.ident
	return &out
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for auth transitions and returns a handle for
// Unsubscribe. Callbacks run synchronously on the transitioning call.
func (m *Manager) Subscribe(fn Subscriber) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.subs[id] = fn
	return id
}

func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

// begin stamps a new auth operation.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opGen++
	return m.opGen
}

// commit installs a freshly minted session if no newer operation has
// committed meanwhile. Persistence is best-effort: the in-memory
// session stays valid even when the store write fails.
func (m *Manager) commit(ctx context.Context, gen uint64, token string, ident identity.Identity) (*identity.Identity, bool) {
	m.mu.Lock()
	if gen <= m.commitGen {
		m.mu.Unlock()
		return nil, false
	}
	m.commitGen = gen
	m.state = StateAuthenticated
	m.token = token
	m.ident = &ident
	subs := m.snapshotSubs()
	m.mu.Unlock()

	m.persistSession(ctx, token, ident)

	out := ident
	for _, fn := range subs {
		fn(StateAuthenticated, &out)
	}
	return &out, true
}

// commitSignedOut resolves an auth operation into the unauthenticated
// state without touching persisted keys.
func (m *Manager) commitSignedOut(gen uint64) {
	m.mu.Lock()
	if gen <= m.commitGen {
		m.mu.Unlock()
		return
	}
	m.commitGen = gen
	was := m.state
	m.state = StateUnauthenticated
	m.ident = nil
	m.token = ""
	subs := m.snapshotSubs()
	m.mu.Unlock()

	if was == StateAuthenticated {
		for _, fn := range subs {
			fn(StateUnauthenticated, nil)
		}
	}
}

// Fail records an unrecoverable configuration failure, e.g. a
// federated provider that could not be constructed at startup. The
// failure concerns the flow, not the identity: an active session is
// never torn down, and any later successful operation leaves Failed.
func (m *Manager) Fail(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateAuthenticated {
		logger.Warn("configuration failure with active session", map[string]any{
			"error": cause.Error(),
		})
		return
	}

	logger.Error("session manager configuration failure", map[string]any{
		"error": cause.Error(),
	})
	m.state = StateFailed
}

func (m *Manager) refreshIdentity(ctx context.Context, fresh identity.Identity) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.ident == nil {
		m.mu.Unlock()
		return
	}
	merged := m.ident.Merge(fresh)
	m.ident = &merged
	tok := m.token
	m.mu.Unlock()

	m.persistSession(ctx, tok, merged)
}

func (m *Manager) persistSession(ctx context.Context, token string, ident identity.Identity) {
	if err := m.store.Set(ctx, keyToken, []byte(token)); err != nil {
		logger.Warn("failed to persist session token", map[string]any{
			"error": err.Error(),
		})
	}

	raw, err := json.Marshal(ident)
	if err == nil {
		err = m.store.Set(ctx, keyUser, raw)
	}
	if err != nil {
		logger.Warn("failed to persist identity", map[string]any{
			"error": err.Error(),
		})
	}
}

func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.store.Delete(ctx, keyToken); err != nil {
		logger.Warn("failed to delete persisted token", map[string]any{
			"error": err.Error(),
		})
	}
	if err := m.store.Delete(ctx, keyUser); err != nil {
		logger.Warn("failed to delete persisted identity", map[string]any{
			"error": err.Error(),
		})
	}
}

// snapshotSubs must be called with m.mu held.
func (m *Manager) snapshotSubs() []Subscriber {
	subs := make([]Subscriber, 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func validateSignIn(email, password string) *Error {
	if strings.TrimSpace(email) == "" || password == "" {
		return newError(KindValidation, "email and password are required", nil)
	}
	return nil
}

func validateSignUp(name, email, password, confirm string) *Error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return newError(KindValidation, "all fields are required", nil)
	}
	if password != confirm {
		return newError(KindValidation, "passwords do not match", nil)
	}
	if len(password) < minPasswordLen {
		return newError(KindValidation, "password must be at least 6 characters", nil)
	}
	return nil
}
