// Package portal serves the UGEL web portal locally: the public pages and the
// back-office under /admin, rendered server side from the REST API.
package portal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
	"github.com/ugel-satipo/portal/internal/cli/guard"
	"github.com/ugel-satipo/portal/internal/cli/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Portal is the local web front end
type Portal struct {
	router  *gin.Engine
	api     *client.Client
	session *session.Manager
	logger  zerolog.Logger
}

// New builds the portal around an API client and the session that owns its
// credentials. It takes over the client's unauthorized handler.
func New(apiClient *client.Client, sess *session.Manager, logger zerolog.Logger) (*Portal, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	p := &Portal{
		api:     apiClient,
		session: sess,
		logger:  logger,
	}

	// A 401 on any call ends the session and sends the page being built
	// back to the login screen
	apiClient.OnUnauthorized(func(req *http.Request) {
		guard.ExpireAndRedirect(sess, client.BearerToken(req), navigatorFrom(req.Context()))
	})

	p.setupRouter(tmpl)
	return p, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"fecha":               format.Date,
		"fechaPtr":            format.DatePtr,
		"fechaCorta":          format.ShortDate,
		"tamanio":             format.FileSize,
		"truncar":             format.Truncate,
		"estadoTramite":       labelFunc(format.SubmissionStatusLabels),
		"tipoTramite":         labelFunc(format.SubmissionTypeLabels),
		"estadoConvocatoria":  labelFunc(format.PostingStatusLabels),
		"tipoConvocatoria":    labelFunc(format.PostingTypeLabels),
		"categoriaComunicado": labelFunc(format.AnnouncementCategoryLabels),
		"categoriaDocumento":  labelFunc(format.DocumentCategoryLabels),
		"rol": func(r auth.Role) string {
			return format.Label(format.RoleLabels, string(r))
		},
	}
}

func labelFunc(labels map[string]string) func(string) string {
	return func(v string) string {
		return format.Label(labels, v)
	}
}

func (p *Portal) setupRouter(tmpl *template.Template) {
	gin.SetMode(gin.ReleaseMode)

	p.router = gin.New()
	p.router.SetHTMLTemplate(tmpl)
	p.router.Use(gin.Recovery())
	p.router.Use(p.loggingMiddleware())
	p.router.Use(trackNavigation())

	// Public pages
	p.router.GET("/", p.home)
	p.router.GET("/comunicados", p.listAnnouncements)
	p.router.GET("/comunicados/:id", p.showAnnouncement)
	p.router.GET("/convocatorias", p.listPostings)
	p.router.GET("/convocatorias/:id", p.showPosting)
	p.router.GET("/documentos", p.listDocuments)
	p.router.GET("/documentos/:id/descargar", p.downloadDocument)
	p.router.GET("/mesa-de-partes", p.submissionForm)
	p.router.POST("/mesa-de-partes", p.registerSubmission)
	p.router.GET("/consultar", p.trackSubmission)

	// Login entry point and logout stay outside the guard
	p.router.GET(guard.LoginPath, p.loginForm)
	p.router.POST(guard.LoginPath, p.login)
	p.router.POST("/admin/logout", p.logout)

	admin := p.router.Group(guard.ProtectedPrefix)
	admin.Use(RequireSession(p.session))
	{
		admin.GET("", p.dashboard)
		admin.GET("/tramites", p.listSubmissions)
		admin.GET("/tramites/:id", p.showSubmission)
		admin.POST("/tramites/:id/estado", p.changeSubmissionStatus)
		admin.GET("/usuarios", p.listUsers)
	}
}

func (p *Portal) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		p.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Portal request")
	}
}

// Handler exposes the router, mainly for tests
func (p *Portal) Handler() http.Handler {
	return p.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (p *Portal) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		p.logger.Info().Str("addr", addr).Msg("Starting portal")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		p.logger.Info().Msg("Shutting down portal")
	case err := <-errChan:
		return fmt.Errorf("portal server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
