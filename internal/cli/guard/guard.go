// Package guard decides whether protected screens may render for the current
// session, independently of how a screen is presented (web page or command).
package guard

import (
	"errors"
	"strings"
)

const (
	// LoginPath is the public entry point for authentication
	LoginPath = "/admin/login"
	// ProtectedPrefix gates every path below it identically
	ProtectedPrefix = "/admin"
)

// ErrNotAuthenticated is returned by command adapters on the redirect branch
var ErrNotAuthenticated = errors.New("sesión no iniciada: ejecute 'ugel login'")

// Outcome is the single decision for a protected screen
type Outcome int

const (
	// Loading renders a neutral placeholder: no content, no redirect
	Loading Outcome = iota
	// Render shows the protected content
	Render
	// Redirect sends the user to LoginPath, replacing the history entry
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decide maps the session flags to an outcome. Loading always wins.
func Decide(loading, authenticated bool) Outcome {
	switch {
	case loading:
		return Loading
	case authenticated:
		return Render
	default:
		return Redirect
	}
}

// Status is the read-only view of a session the guard needs
type Status interface {
	Loading() bool
	IsAuthenticated() bool
}

// Check decides for s. Loading is read first so a verification that settles
// between the two reads cannot produce a redirect for a valid session.
func Check(s Status) Outcome {
	if s.Loading() {
		return Loading
	}
	return Decide(false, s.IsAuthenticated())
}

// IsProtected reports whether path lives under ProtectedPrefix. The login
// path itself is public.
func IsProtected(path string) bool {
	if path == LoginPath || strings.HasPrefix(path, LoginPath+"/") {
		return false
	}
	return path == ProtectedPrefix || strings.HasPrefix(path, ProtectedPrefix+"/")
}

// Navigator is the active navigation of a screen
type Navigator interface {
	Path() string
	Replace(path string)
}

// Expirer ends a session whose token the API rejected
type Expirer interface {
	Expire(token string)
}

// ExpireAndRedirect ends the session for token and, when nav is showing a
// protected screen, replaces it with the login path. It reports whether a
// redirect was issued.
func ExpireAndRedirect(s Expirer, token string, nav Navigator) bool {
	if s != nil {
		s.Expire(token)
	}
	if nav == nil || !IsProtected(nav.Path()) {
		return false
	}
	nav.Replace(LoginPath)
	return true
}
