package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		loading       bool
		authenticated bool
		want          Outcome
	}{
		{name: "loading anonymous", loading: true, authenticated: false, want: Loading},
		{name: "loading authenticated", loading: true, authenticated: true, want: Loading},
		{name: "authenticated", loading: false, authenticated: true, want: Render},
		{name: "anonymous", loading: false, authenticated: false, want: Redirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.loading, tt.authenticated))
		})
	}
}

type fakeStatus struct {
	loading       bool
	authenticated bool
}

func (f fakeStatus) Loading() bool         { return f.loading }
func (f fakeStatus) IsAuthenticated() bool { return f.authenticated }

func TestCheck(t *testing.T) {
	assert.Equal(t, Loading, Check(fakeStatus{loading: true, authenticated: true}))
	assert.Equal(t, Render, Check(fakeStatus{authenticated: true}))
	assert.Equal(t, Redirect, Check(fakeStatus{}))
}

func TestIsProtected(t *testing.T) {
	cases := map[string]bool{
		"/admin":                  true,
		"/admin/":                 true,
		"/admin/tramites":         true,
		"/admin/usuarios/01ABC":   true,
		"/admin/login":            false,
		"/admin/login/":           false,
		"/administracion":         false,
		"/":                       false,
		"/convocatorias":          false,
		"/tramites/consultar/EXP": false,
	}

	for path, want := range cases {
		assert.Equal(t, want, IsProtected(path), "path %q", path)
	}
}

type fakeNav struct {
	path     string
	replaced []string
}

func (n *fakeNav) Path() string { return n.path }
func (n *fakeNav) Replace(path string) {
	n.replaced = append(n.replaced, path)
	n.path = path
}

type fakeExpirer struct {
	tokens []string
}

func (e *fakeExpirer) Expire(token string) { e.tokens = append(e.tokens, token) }

func TestExpireAndRedirect(t *testing.T) {
	t.Run("protected screen is replaced with login", func(t *testing.T) {
		exp := &fakeExpirer{}
		nav := &fakeNav{path: "/admin/tramites"}

		assert.True(t, ExpireAndRedirect(exp, "T1", nav))
		assert.Equal(t, []string{LoginPath}, nav.replaced)
		assert.Equal(t, []string{"T1"}, exp.tokens)
	})

	t.Run("public screen stays put", func(t *testing.T) {
		exp := &fakeExpirer{}
		nav := &fakeNav{path: "/convocatorias"}

		assert.False(t, ExpireAndRedirect(exp, "T1", nav))
		assert.Empty(t, nav.replaced)
		assert.Equal(t, []string{"T1"}, exp.tokens, "session still ends")
	})

	t.Run("login screen is not redirected to itself", func(t *testing.T) {
		nav := &fakeNav{path: LoginPath}
		assert.False(t, ExpireAndRedirect(&fakeExpirer{}, "T1", nav))
		assert.Empty(t, nav.replaced)
	})

	t.Run("no navigation", func(t *testing.T) {
		exp := &fakeExpirer{}
		assert.False(t, ExpireAndRedirect(exp, "T1", nil))
		assert.Len(t, exp.tokens, 1)
	})
}
