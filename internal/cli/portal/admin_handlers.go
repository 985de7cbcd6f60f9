package portal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ugel-satipo/portal/internal/cli/client"
	"github.com/ugel-satipo/portal/internal/cli/format"
	"github.com/ugel-satipo/portal/internal/cli/guard"
)

func (p *Portal) loginForm(c *gin.Context) {
	if p.session.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, guard.ProtectedPrefix)
		return
	}
	p.render(c, http.StatusOK, "login", nil)
}

func (p *Portal) login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	data := gin.H{"Email": email}

	if email == "" || password == "" {
		data["Error"] = "Ingrese su correo y contraseña"
		p.render(c, http.StatusOK, "login", data)
		return
	}

	if _, err := p.session.Login(c.Request.Context(), email, password); err != nil {
		data["Error"] = errorMessage(err)
		p.render(c, http.StatusOK, "login", data)
		return
	}
	c.Redirect(http.StatusSeeOther, guard.ProtectedPrefix)
}

func (p *Portal) logout(c *gin.Context) {
	p.session.Logout()
	c.Redirect(http.StatusSeeOther, guard.LoginPath)
}

func (p *Portal) dashboard(c *gin.Context) {
	stats, err := p.api.AdminSubmissionStats(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "admin_panel", gin.H{
		"Stats":    stats,
		"Statuses": format.SubmissionStatusOrder,
	})
}

func (p *Portal) listSubmissions(c *gin.Context) {
	page, err := p.api.AdminListSubmissions(c.Request.Context(), listOptions(c, "estado", "tipoTramite", "busqueda"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "admin_tramites", gin.H{
		"Items":       page.Items,
		"Pager":       newPager(c, page.Pagination),
		"Estado":      c.Query("estado"),
		"TipoTramite": c.Query("tipoTramite"),
		"Busqueda":    c.Query("busqueda"),
		"Statuses":    format.SubmissionStatusOrder,
		"Types":       format.SubmissionTypeLabels,
	})
}

func (p *Portal) showSubmission(c *gin.Context) {
	item, err := p.api.AdminGetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "admin_tramite", gin.H{
		"Item":     item,
		"Statuses": format.SubmissionStatusOrder,
	})
}

func (p *Portal) changeSubmissionStatus(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	_, err := p.api.AdminChangeSubmissionStatus(ctx, id, c.PostForm("estado"), strings.TrimSpace(c.PostForm("observaciones")))
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/admin/tramites/"+id)
		return
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || errors.Is(err, client.ErrUnauthorized) {
		p.fail(c, err)
		return
	}

	// Show the rejection next to the form
	item, getErr := p.api.AdminGetSubmission(ctx, id)
	if getErr != nil {
		p.fail(c, getErr)
		return
	}
	p.render(c, http.StatusOK, "admin_tramite", gin.H{
		"Item":     item,
		"Statuses": format.SubmissionStatusOrder,
		"Error":    errorMessage(err),
	})
}

func (p *Portal) listUsers(c *gin.Context) {
	if !p.session.IsAdmin() {
		p.render(c, http.StatusForbidden, "error", gin.H{"Message": "Se requiere rol de administrador"})
		return
	}

	users, err := p.api.AdminListUsers(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.render(c, http.StatusOK, "admin_usuarios", gin.H{"Items": users})
}
