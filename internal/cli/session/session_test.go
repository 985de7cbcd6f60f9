package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

func user(role auth.Role) *api.User {
	return &api.User{ID: "u1", FirstName: "Ana", LastName: "Quispe", Email: "a@b.com", Role: role}
}

// fakeAuth scripts the API. Me blocks on gate when it is non-nil.
type fakeAuth struct {
	mu       sync.Mutex
	meUser   *api.User
	meErr    error
	meCalls  int
	gate     chan struct{}
	login    *api.LoginResult
	loginErr error
}

func (f *fakeAuth) Me(ctx context.Context) (*api.User, error) {
	f.mu.Lock()
	f.meCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.meUser, f.meErr
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	return f.login, f.loginErr
}

func (f *fakeAuth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

// rawStore holds whatever pair it is given, including half pairs
type rawStore struct {
	mu      sync.Mutex
	creds   credstore.Credentials
	saveErr error
	clears  int
}

func (s *rawStore) Save(token string, user *api.User) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	s.creds = credstore.Credentials{Token: token, User: user}
	s.mu.Unlock()
	return nil
}

func (s *rawStore) Load() credstore.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *rawStore) Clear() error {
	s.mu.Lock()
	s.creds = credstore.Credentials{}
	s.clears++
	s.mu.Unlock()
	return nil
}

// interceptStore runs before ahead of the first save of token
type interceptStore struct {
	*rawStore
	token  string
	before func()
	once   sync.Once
}

func (s *interceptStore) Save(token string, user *api.User) error {
	if token == s.token && s.before != nil {
		s.once.Do(s.before)
	}
	return s.rawStore.Save(token, user)
}

// tokenPerEmail answers every login with a token equal to the email
type tokenPerEmail struct{}

func (tokenPerEmail) Me(ctx context.Context) (*api.User, error) {
	return nil, errors.New("not used")
}

func (tokenPerEmail) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	u := user(auth.RoleOperator)
	u.Email = email
	return &api.LoginResult{Token: email, User: u}, nil
}

func newManager(t *testing.T, store credstore.Store, authAPI AuthAPI, opts ...Option) *Manager {
	t.Helper()
	m := New(context.Background(), store, authAPI, zerolog.Nop(), opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	return m
}

// assertInStep checks that the store holds the same token as memory
func assertInStep(t *testing.T, m *Manager, store credstore.Store) {
	t.Helper()
	assert.Equal(t, m.Snapshot().Token, store.Load().Token, "stored token must match the in-memory one")
}

// assertPaired checks that token and user are both present or both absent
func assertPaired(t *testing.T, m *Manager) {
	t.Helper()
	s := m.Snapshot()
	assert.Equal(t, s.Token != "", s.User != nil, "token and user must be paired (token=%q user=%v)", s.Token, s.User)
}

func TestFreshStartIsAnonymous(t *testing.T) {
	fake := &fakeAuth{}
	m := newManager(t, credstore.NewMemoryStore(), fake)

	s := m.Snapshot()
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Equal(t, Anonymous, s.Phase)
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, fake.calls(), "no verification without a stored token")
}

func TestRestoresVerifiedSession(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

	fresh := user(auth.RoleAdmin)
	fresh.FirstName = "Ana María"
	m := newManager(t, store, &fakeAuth{meUser: fresh})

	s := m.Snapshot()
	assert.Equal(t, Authenticated, s.Phase)
	assert.Equal(t, "T1", s.Token)
	assert.Equal(t, "Ana María", s.User.FirstName, "server copy replaces the cached one")
	assert.True(t, m.IsAdmin())
	assert.Equal(t, "Ana María", store.Load().User.FirstName, "cache refreshed")
}

func TestCachedProfileShownWhileVerifying(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save("T1", user(auth.RoleOperator)))

	fake := &fakeAuth{meUser: user(auth.RoleOperator), gate: make(chan struct{})}
	m := New(context.Background(), store, fake, zerolog.Nop())

	require.Eventually(t, func() bool { return fake.calls() == 1 }, time.Second, 5*time.Millisecond)
	s := m.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, Initializing, s.Phase)
	require.NotNil(t, s.User)
	assert.True(t, m.IsOperatorOrAbove())

	select {
	case <-m.Ready():
		t.Fatal("ready before verification settled")
	default:
	}

	close(fake.gate)
	require.NoError(t, m.Wait(context.Background()))
	assert.False(t, m.Loading())
	assert.Equal(t, Authenticated, m.Snapshot().Phase)
}

func TestRejectedTokenEndsSession(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

	m := newManager(t, store, &fakeAuth{meErr: &client.APIError{Status: http.StatusUnauthorized, Message: "Token inválido o expirado"}})

	assert.True(t, store.Load().Empty())
	assert.Nil(t, m.User())
	assert.Equal(t, Anonymous, m.Snapshot().Phase)
	assertPaired(t, m)
}

func TestTransportErrorPolicy(t *testing.T) {
	netErr := errors.Join(client.ErrTransport, errors.New("dial tcp: connection refused"))

	t.Run("default logs out", func(t *testing.T) {
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

		m := newManager(t, store, &fakeAuth{meErr: netErr})
		assert.False(t, m.IsAuthenticated())
		assert.True(t, store.Load().Empty())
	})

	t.Run("keep session option", func(t *testing.T) {
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

		m := newManager(t, store, &fakeAuth{meErr: netErr}, WithKeepSessionOnTransportError())
		assert.True(t, m.IsAuthenticated())
		assert.Equal(t, "T1", store.Load().Token)
		assertPaired(t, m)
	})

	t.Run("keep session option still drops rejected tokens", func(t *testing.T) {
		store := credstore.NewMemoryStore()
		require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

		m := newManager(t, store, &fakeAuth{meErr: &client.APIError{Status: http.StatusUnauthorized}}, WithKeepSessionOnTransportError())
		assert.False(t, m.IsAuthenticated())
		assert.True(t, store.Load().Empty())
	})
}

func TestIncompleteStoredPairIsCleared(t *testing.T) {
	tests := []struct {
		name  string
		creds credstore.Credentials
	}{
		{name: "token without user", creds: credstore.Credentials{Token: "T1"}},
		{name: "user without token", creds: credstore.Credentials{User: user(auth.RoleAdmin)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &rawStore{creds: tt.creds}
			fake := &fakeAuth{meUser: user(auth.RoleAdmin)}
			m := newManager(t, store, fake)

			assert.Zero(t, fake.calls())
			assert.True(t, store.Load().Empty())
			assert.False(t, m.IsAuthenticated())
			assertPaired(t, m)
		})
	}
}

func TestRejectedLoginChangesNothing(t *testing.T) {
	store := credstore.NewMemoryStore()
	fake := &fakeAuth{loginErr: &client.APIError{Status: http.StatusUnauthorized, Message: "Credenciales inválidas"}}
	m := newManager(t, store, fake)

	before := m.Snapshot()
	u, err := m.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, u)
	assert.Equal(t, "Credenciales inválidas", err.Error())

	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr), "error reaches the caller unchanged")

	assert.Equal(t, before, m.Snapshot())
	assert.True(t, store.Load().Empty())
}

func TestLoginAdoptsSession(t *testing.T) {
	store := credstore.NewMemoryStore()
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2", User: user(auth.RoleOperator)}}
	m := newManager(t, store, fake)

	u, err := m.Login(context.Background(), "a@b.com", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOperator, u.Role)

	s := m.Snapshot()
	assert.Equal(t, Authenticated, s.Phase)
	assert.Equal(t, "T2", s.Token)
	assert.Equal(t, "T2", store.Load().Token)

	assert.False(t, m.IsAdmin())
	assert.True(t, m.IsOperatorOrAbove())
	assert.True(t, m.HasRole(auth.RoleOperator))
	assert.False(t, m.HasRole(auth.RoleAdmin))
	assert.False(t, m.HasRole(auth.RoleUnknown))
}

func TestLoginStoreFailureLeavesMemoryAlone(t *testing.T) {
	store := &rawStore{}
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2", User: user(auth.RoleAdmin)}}
	m := newManager(t, store, fake)

	store.saveErr = errors.New("disk full")
	_, err := m.Login(context.Background(), "a@b.com", "secreto123")
	require.Error(t, err)
	assert.False(t, m.IsAuthenticated())
	assertPaired(t, m)
}

func TestIncompleteLoginResponse(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2"}}
	m := newManager(t, credstore.NewMemoryStore(), fake)

	_, err := m.Login(context.Background(), "a@b.com", "secreto123")
	assert.ErrorIs(t, err, ErrIncompleteLogin)
	assert.False(t, m.IsAuthenticated())
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := &rawStore{}
	m := newManager(t, store, &fakeAuth{})

	before := m.Snapshot()
	assert.NotPanics(t, m.Logout)
	assert.NotPanics(t, m.Logout)
	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, 2, store.clears)
}

func TestLoadingNeverReturns(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2", User: user(auth.RoleAdmin)}}
	m := newManager(t, credstore.NewMemoryStore(), fake)

	for i := 0; i < 3; i++ {
		_, err := m.Login(context.Background(), "a@b.com", "secreto123")
		require.NoError(t, err)
		assert.False(t, m.Loading())
		m.Logout()
		assert.False(t, m.Loading())
		m.Expire("")
		assert.False(t, m.Loading())
	}
}

func TestPredicatesWithoutUser(t *testing.T) {
	m := newManager(t, credstore.NewMemoryStore(), &fakeAuth{})

	assert.False(t, m.IsAdmin())
	assert.False(t, m.IsOperatorOrAbove())
	assert.False(t, m.HasRole(auth.RoleAdmin))
	assert.False(t, m.HasRole(auth.RoleOperator))
}

func TestUnknownRoleHasNoCapability(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2", User: user(auth.ParseRole("SUPERVISOR"))}}
	m := newManager(t, credstore.NewMemoryStore(), fake)

	_, err := m.Login(context.Background(), "a@b.com", "secreto123")
	require.NoError(t, err)
	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsAdmin())
	assert.False(t, m.IsOperatorOrAbove())
}

func TestExpireKeepsNewerSession(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T-new", User: user(auth.RoleAdmin)}}
	m := newManager(t, credstore.NewMemoryStore(), fake)

	_, err := m.Login(context.Background(), "a@b.com", "secreto123")
	require.NoError(t, err)

	m.Expire("T-old")
	assert.True(t, m.IsAuthenticated())

	m.Expire("T-new")
	assert.False(t, m.IsAuthenticated())
	assertPaired(t, m)
}

func TestLoginDuringVerificationWins(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save("T-old", user(auth.RoleOperator)))

	fake := &fakeAuth{
		meErr: &client.APIError{Status: http.StatusUnauthorized},
		gate:  make(chan struct{}),
		login: &api.LoginResult{Token: "T-new", User: user(auth.RoleAdmin)},
	}
	m := New(context.Background(), store, fake, zerolog.Nop())
	require.Eventually(t, func() bool { return fake.calls() == 1 }, time.Second, 5*time.Millisecond)

	_, err := m.Login(context.Background(), "a@b.com", "secreto123")
	require.NoError(t, err)

	close(fake.gate)
	require.NoError(t, m.Wait(context.Background()))

	assert.True(t, m.IsAdmin())
	assert.Equal(t, "T-new", store.Load().Token)
}

func TestWaitHonoursContext(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save("T1", user(auth.RoleAdmin)))

	fake := &fakeAuth{meUser: user(auth.RoleAdmin), gate: make(chan struct{})}
	defer close(fake.gate)
	m := New(context.Background(), store, fake, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
}

func TestConcurrentUse(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T1", User: user(auth.RoleAdmin)}}
	store := credstore.NewMemoryStore()
	m := newManager(t, store, fake)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 3 {
				case 0:
					_, _ = m.Login(context.Background(), "a@b.com", "secreto123")
				case 1:
					m.Logout()
				default:
					s := m.Snapshot()
					assert.Equal(t, s.Token != "", s.User != nil)
					_ = m.IsAdmin()
				}
			}
		}(i)
	}
	wg.Wait()
	assertPaired(t, m)
	assertInStep(t, m, store)
}

func TestConcurrentLoginsKeepStoreInStep(t *testing.T) {
	store := &rawStore{}
	m := newManager(t, store, tokenPerEmail{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := m.Login(context.Background(), fmt.Sprintf("u%d-%d@ugel.gob.pe", i, j), "secreto123")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assertPaired(t, m)
	assertInStep(t, m, store)
	assert.Equal(t, m.User().Email, store.Load().User.Email)
}

// startDuringRefresh restores T1 and runs op from inside the profile refresh,
// right before the refreshed pair is written. It returns once startup and
// op have both finished.
func startDuringRefresh(t *testing.T, fake *fakeAuth, op func(m *Manager)) (*Manager, *interceptStore) {
	t.Helper()
	store := &interceptStore{rawStore: &rawStore{}, token: "T1"}
	require.NoError(t, store.rawStore.Save("T1", user(auth.RoleAdmin)))

	fake.meUser = user(auth.RoleAdmin)
	fake.gate = make(chan struct{})

	var m *Manager
	done := make(chan struct{})
	store.before = func() {
		go func() {
			defer close(done)
			op(m)
		}()
		// Let op race the write; it may also have to wait for it
		select {
		case <-done:
		case <-time.After(50 * time.Millisecond):
		}
	}

	m = New(context.Background(), store, fake, zerolog.Nop())
	close(fake.gate)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("operation during refresh never finished")
	}
	return m, store
}

func TestLogoutDuringProfileRefresh(t *testing.T) {
	m, store := startDuringRefresh(t, &fakeAuth{}, func(m *Manager) {
		m.Logout()
	})

	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, store.Load().Token, "a logout must not be undone by the refresh")
	assertPaired(t, m)
	assertInStep(t, m, store)
}

func TestLoginDuringProfileRefresh(t *testing.T) {
	fake := &fakeAuth{login: &api.LoginResult{Token: "T2", User: user(auth.RoleOperator)}}
	m, store := startDuringRefresh(t, fake, func(m *Manager) {
		_, err := m.Login(context.Background(), "op@ugel.gob.pe", "secreto123")
		assert.NoError(t, err)
	})

	assert.Equal(t, "T2", m.Snapshot().Token)
	assert.Equal(t, "T2", store.Load().Token, "the refresh must not overwrite a newer login")
	assert.False(t, m.IsAdmin())
	assertInStep(t, m, store)
}

// End to end through the real transport: a 401 on any call ends the session
// without the caller handling it.
func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	validToken := "T1"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "token": validToken, "usuario": user(auth.RoleAdmin)})
		case "/admin/tramites":
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Token inválido o expirado"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := credstore.NewMemoryStore()
	apiClient := client.New(srv.URL, store)
	m := newManager(t, store, apiClient)
	apiClient.OnUnauthorized(func(req *http.Request) {
		m.Expire(client.BearerToken(req))
	})

	_, err := m.Login(context.Background(), "admin@ugel.gob.pe", "secreto123")
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())

	_, err = apiClient.AdminListSubmissions(context.Background(), client.ListOptions{})
	require.ErrorIs(t, err, client.ErrUnauthorized)

	assert.True(t, store.Load().Empty())
	assert.Equal(t, Anonymous, m.Snapshot().Phase)
}
