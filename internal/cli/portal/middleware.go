package portal

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/cli/guard"
)

const loadingPage = `<!DOCTYPE html>
<html lang="es"><head><meta charset="utf-8"><title>UGEL Satipo</title></head>
<body><p>Cargando...</p></body></html>`

// RequireSession gates a route group on the session. While startup
// verification is in flight it serves a placeholder that reloads itself, so
// protected content never renders and no redirect fires early.
func RequireSession(s guard.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch guard.Check(s) {
		case guard.Loading:
			c.Header("Cache-Control", "no-store")
			c.Header("Refresh", "1")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loadingPage))
			c.Abort()
		case guard.Render:
			c.Next()
		default:
			// 303 replaces the blocked page in the history
			c.Redirect(http.StatusSeeOther, guard.LoginPath)
			c.Abort()
		}
	}
}

type navigatorKey struct{}

// requestNavigator is the navigation of one page request. A forced
// navigation is recorded and turned into a redirect once the handler returns.
type requestNavigator struct {
	mu     sync.Mutex
	path   string
	target string
}

func (n *requestNavigator) Path() string {
	return n.path
}

func (n *requestNavigator) Replace(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

func (n *requestNavigator) redirectTarget() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

func navigatorFrom(ctx context.Context) guard.Navigator {
	if nav, ok := ctx.Value(navigatorKey{}).(*requestNavigator); ok {
		return nav
	}
	return nil
}

func redirectPending(ctx context.Context) bool {
	nav, ok := ctx.Value(navigatorKey{}).(*requestNavigator)
	return ok && nav.redirectTarget() != ""
}

// trackNavigation attaches a navigator to every request and issues the
// forced navigation if a handler left the response unwritten
func trackNavigation() gin.HandlerFunc {
	return func(c *gin.Context) {
		nav := &requestNavigator{path: c.Request.URL.Path}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), navigatorKey{}, nav))

		c.Next()

		if target := nav.redirectTarget(); target != "" && !c.Writer.Written() {
			c.Redirect(http.StatusSeeOther, target)
		}
	}
}
