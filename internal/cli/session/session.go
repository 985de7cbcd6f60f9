// Package session owns the authentication state of a running client: who is
// logged in, whether startup verification is still in flight, and what the
// current user may do.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

// AuthAPI is the slice of the API the session needs
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Me(ctx context.Context) (*api.User, error)
}

// ErrIncompleteLogin is returned when the API accepted the credentials but
// did not hand back both a token and a user
var ErrIncompleteLogin = errors.New("login response without token or user")

// Phase is the state machine position
type Phase int

const (
	Initializing Phase = iota
	Anonymous
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a consistent copy of the session at one instant
type State struct {
	Phase   Phase
	User    *api.User
	Token   string
	Loading bool
}

// IsAuthenticated is derived from User, never stored
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Option configures a Manager
type Option func(*Manager)

// WithKeepSessionOnTransportError keeps the cached session when startup
// verification could not reach the API. A token the API actually rejects is
// still dropped.
func WithKeepSessionOnTransportError() Option {
	return func(m *Manager) {
		m.keepOnTransportError = true
	}
}

// Manager is the single owner of session state and the only writer of the
// credential store. Construct one per application instance and pass it down.
type Manager struct {
	store  credstore.Store
	api    AuthAPI
	logger zerolog.Logger

	keepOnTransportError bool

	// opMu serializes every change that touches both the store and memory,
	// so the stored pair and the in-memory pair never drift apart. It is
	// never held across an API call. Lock order: opMu, then mu.
	opMu sync.Mutex

	mu      sync.RWMutex
	user    *api.User
	token   string
	loading bool

	ready chan struct{}
}

// New creates the session and starts restoring it from store in the
// background. Ready is closed once that settles.
func New(ctx context.Context, store credstore.Store, authAPI AuthAPI, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		api:     authAPI,
		logger:  logger,
		loading: true,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.initialize(ctx)
	return m
}

// Ready is closed when startup verification has settled
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until startup verification settles or ctx is done
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) initialize(ctx context.Context) {
	defer m.finishLoading()

	creds, ok := m.restore()
	if !ok {
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		if m.keepOnTransportError && errors.Is(err, client.ErrTransport) {
			m.logger.Warn().Err(err).Msg("Could not verify session, keeping cached profile")
			return
		}
		m.logger.Info().Err(err).Msg("Stored session rejected")
		m.endIfCurrent(creds.Token, true)
		return
	}

	if m.refresh(creds.Token, user) {
		m.logger.Debug().Str("user_id", user.ID).Str("rol", string(user.Role)).Msg("Session verified")
	}
}

// restore adopts the stored pair as the optimistic session. An incomplete
// pair is cleared. It reports whether there is a session to verify.
func (m *Manager) restore() (credstore.Credentials, bool) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	creds := m.store.Load()
	switch {
	case creds.Empty():
		m.logger.Debug().Msg("No stored session")
		return creds, false
	case !creds.Complete():
		m.logger.Warn().
			Bool("has_token", creds.Token != "").
			Bool("has_user", creds.User != nil).
			Msg("Discarding incomplete stored session")
		if err := m.store.Clear(); err != nil {
			m.logger.Error().Err(err).Msg("Failed to clear incomplete session")
		}
		return creds, false
	}

	// Show the cached profile while the API confirms it
	m.mu.Lock()
	m.token, m.user = creds.Token, creds.User
	m.mu.Unlock()
	return creds, true
}

// refresh replaces the cached profile with the server copy, in memory and in
// the store, unless the session moved on while the API was answering.
func (m *Manager) refresh(token string, user *api.User) bool {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.token != token {
		// A login or logout finished first; it wins
		m.mu.Unlock()
		return false
	}
	m.user = user
	m.mu.Unlock()

	if err := m.store.Save(token, user); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to refresh cached profile")
	}
	return true
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	close(m.ready)
}

// Login authenticates against the API and, on success, persists and adopts
// the new session. On failure nothing changes and the API error is returned
// as is (a *client.APIError carries the message to show).
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	result, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Token == "" || result.User == nil {
		return nil, ErrIncompleteLogin
	}

	m.opMu.Lock()
	if err := m.store.Save(result.Token, result.User); err != nil {
		m.opMu.Unlock()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.mu.Lock()
	m.token, m.user = result.Token, result.User
	m.mu.Unlock()
	m.opMu.Unlock()

	m.logger.Info().Str("user_id", result.User.ID).Str("rol", string(result.User.Role)).Msg("Logged in")
	return result.User, nil
}

// Logout clears the store and the in-memory session. It never fails.
func (m *Manager) Logout() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("Failed to clear stored session")
	}

	m.mu.Lock()
	m.token, m.user = "", nil
	m.mu.Unlock()
}

// Expire ends the session after the API rejected token. The transport has
// already cleared the store; a session that moved on to a newer token is kept.
func (m *Manager) Expire(token string) {
	if m.endIfCurrent(token, false) {
		m.logger.Info().Msg("Session expired")
	}
}

// endIfCurrent drops the in-memory session if it still holds token
func (m *Manager) endIfCurrent(token string, clearStore bool) bool {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if token != "" && m.token != token {
		m.mu.Unlock()
		return false
	}
	had := m.user != nil
	m.token, m.user = "", nil
	m.mu.Unlock()

	if clearStore {
		if current := m.store.Load().Token; current == "" || current == token {
			if err := m.store.Clear(); err != nil {
				m.logger.Error().Err(err).Msg("Failed to clear stored session")
			}
		}
	}
	return had
}

// Snapshot returns a consistent copy of the session
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := State{User: m.user, Token: m.token, Loading: m.loading}
	switch {
	case m.loading:
		state.Phase = Initializing
	case m.user != nil:
		state.Phase = Authenticated
	default:
		state.Phase = Anonymous
	}
	return state
}

// Loading reports whether startup verification is still in flight
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// IsAuthenticated reports whether a user is present
func (m *Manager) IsAuthenticated() bool {
	return m.User() != nil
}

// User returns the current user or nil
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// HasRole reports whether the current user holds role. Unknown roles match nothing.
func (m *Manager) HasRole(role auth.Role) bool {
	user := m.User()
	return user != nil && role.Valid() && user.Role == role
}

// IsAdmin reports whether the current user is an administrator
func (m *Manager) IsAdmin() bool {
	user := m.User()
	return user != nil && user.Role.IsAdmin()
}

// IsOperatorOrAbove reports whether the current user may use the back-office
func (m *Manager) IsOperatorOrAbove() bool {
	user := m.User()
	return user != nil && user.Role.IsOperatorOrAbove()
}
